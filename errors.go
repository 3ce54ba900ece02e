package terminal

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by reads and writes after a session was closed.
var ErrSessionClosed = errors.New("terminal: session closed")

// SpawnError reports a failure to set up the pseudo-terminal or start the shell.
// It is fatal, the session never starts.
type SpawnError struct {
	Op  string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("terminal: spawn %s: %v", e.Op, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IoError reports a read or write failure on the PTY master.
// The shell is presumed gone and the event loop ends.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("terminal: pty %s: %v", e.Op, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// ResizeError reports that the kernel could not be told about a new geometry.
// The buffer keeps its new size regardless.
type ResizeError struct {
	Rows, Cols int
	Err        error
}

func (e *ResizeError) Error() string {
	return fmt.Sprintf("terminal: resize to %dx%d: %v", e.Cols, e.Rows, e.Err)
}

func (e *ResizeError) Unwrap() error {
	return e.Err
}

// AnomalyKind classifies a DecodeAnomaly.
type AnomalyKind int

const (
	// AnomalyUnknownEscape is an ESC followed by an unsupported final byte.
	AnomalyUnknownEscape AnomalyKind = iota
	// AnomalyUnknownCSI is a well formed CSI sequence with no handler.
	AnomalyUnknownCSI
	// AnomalyMalformedCSI is a CSI sequence that broke the grammar and was ignored.
	AnomalyMalformedCSI
	// AnomalyUnknownOSC is an OSC command with no handler.
	AnomalyUnknownOSC
	// AnomalyUnknownString is an APC or DCS payload with no handler.
	AnomalyUnknownString
	// AnomalyUnsupportedMode is a SM/RM or DECSET/DECRST mode that is not implemented.
	AnomalyUnsupportedMode
	// AnomalyOverflow means parameters or string payload exceeded the decoder bounds.
	AnomalyOverflow
	// AnomalyInvalidUTF8 is a byte sequence that is not valid UTF-8.
	AnomalyInvalidUTF8
	// AnomalyCancelled is a sequence aborted by CAN or SUB.
	AnomalyCancelled
)

var anomalyNames = map[AnomalyKind]string{
	AnomalyUnknownEscape:   "unknown escape",
	AnomalyUnknownCSI:      "unknown CSI",
	AnomalyMalformedCSI:    "malformed CSI",
	AnomalyUnknownOSC:      "unknown OSC",
	AnomalyUnknownString:   "unknown string sequence",
	AnomalyUnsupportedMode: "unsupported mode",
	AnomalyOverflow:        "overflow",
	AnomalyInvalidUTF8:     "invalid UTF-8",
	AnomalyCancelled:       "cancelled",
}

func (k AnomalyKind) String() string {
	if n, ok := anomalyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("anomaly(%d)", int(k))
}

// DecodeAnomaly describes a sequence the decoder discarded.
// It is never fatal, decoding has already resumed when it is reported.
type DecodeAnomaly struct {
	Kind     AnomalyKind
	Sequence string
}

func (e *DecodeAnomaly) Error() string {
	return fmt.Sprintf("terminal: %s: %q", e.Kind, e.Sequence)
}
