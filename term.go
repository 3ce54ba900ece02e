package terminal

import (
	"io"
	"log"
	"os"
	"sync"
)

const (
	bufLen = 32768 // 32KB buffer for output, to align with modern L1 cache

	defaultRows    = 24
	defaultColumns = 80
)

// Config is the title and geometry of a terminal, sent to listeners when it changes.
type Config struct {
	Title         string
	Rows, Columns uint
}

// AnomalyPolicy decides what happens to sequences the decoder discards.
type AnomalyPolicy int

const (
	// AnomalyIgnore drops them silently, the default.
	AnomalyIgnore AnomalyPolicy = iota
	// AnomalyReport logs each of them.
	AnomalyReport
)

// PTY is the shell side of a terminal. *Session is the implementation
// backed by a real pseudo-terminal.
type PTY interface {
	io.ReadWriter
	Fd() int
	Resize(rows, cols, pixelWidth, pixelHeight int) error
	Exited() bool
	Close() error
}

// Terminal connects a shell to a Display. All decoding and drawing happens
// on the goroutine running it, so none of its state is locked apart from
// the listener list.
type Terminal struct {
	config       Config
	listenerLock sync.Mutex
	listeners    []chan Config

	buffer  *Buffer
	decoder *Decoder
	display Display
	modes   Modes

	ptyLock sync.Mutex
	pty     PTY

	shell     string
	shellArgs []string
	startDir  string
	directory string
	debug     bool
	anomalies AnomalyPolicy
	charset   string
	printer   Printer
}

// Option configures a Terminal created by New.
type Option func(*Terminal)

// WithDebug turns on logging of unrecognised sequences and loop events.
func WithDebug(debug bool) Option {
	return func(t *Terminal) {
		t.debug = debug
	}
}

// WithCharset selects a legacy 8-bit charset for shell output, see Decoder.SetCharset.
func WithCharset(name string) Option {
	return func(t *Terminal) {
		t.charset = name
	}
}

// WithAnomalyPolicy sets what happens to discarded sequences.
func WithAnomalyPolicy(p AnomalyPolicy) Option {
	return func(t *Terminal) {
		t.anomalies = p
	}
}

// WithSize sets the initial grid size, until the display reports its own.
func WithSize(rows, cols uint) Option {
	return func(t *Terminal) {
		t.config.Rows, t.config.Columns = rows, cols
	}
}

// WithShell overrides the shell started by RunLocalShell.
func WithShell(shell string, args ...string) Option {
	return func(t *Terminal) {
		t.shell = shell
		t.shellArgs = args
	}
}

// WithPrinter sets the printer that receives media copy output.
func WithPrinter(p Printer) Option {
	return func(t *Terminal) {
		t.printer = p
	}
}

// New sets up a terminal drawing to d.
func New(d Display, opts ...Option) (*Terminal, error) {
	t := &Terminal{
		display: d,
		config:  Config{Rows: defaultRows, Columns: defaultColumns},
	}
	for _, o := range opts {
		o(t)
	}

	t.buffer = NewBuffer(int(t.config.Rows), int(t.config.Columns))
	t.config.Rows, t.config.Columns = uint(t.buffer.Rows()), uint(t.buffer.Columns())
	t.decoder = NewDecoder(t, Callbacks{
		Title:           t.setTitle,
		Directory:       t.setDirectory,
		Bell:            t.ringBell,
		ClearScrollback: t.clearScrollback,
		Printer:         t.printer,
	})
	t.decoder.SetDebug(t.debug)
	if err := t.decoder.SetCharset(t.charset); err != nil {
		return nil, err
	}
	if t.anomalies == AnomalyReport {
		t.decoder.SetAnomalyHandler(func(a *DecodeAnomaly) {
			log.Println("Decode anomaly:", a)
		})
	}
	if sr, ok := d.(ScrollbackReceiver); ok {
		t.buffer.SetScrollbackFunc(sr.PushScrollback)
	}
	return t, nil
}

// Buffer returns the screen buffer. It must only be used from the
// goroutine running the terminal, or after it stopped.
func (t *Terminal) Buffer() *Buffer {
	return t.buffer
}

// Decoder returns the decoder, for registering OSC and APC handlers before running.
func (t *Terminal) Decoder() *Decoder {
	return t.decoder
}

// AddListener registers a new outgoing channel that will have our Config sent each time it changes.
func (t *Terminal) AddListener(listener chan Config) {
	t.listenerLock.Lock()
	defer t.listenerLock.Unlock()

	t.listeners = append(t.listeners, listener)
}

// RemoveListener de-registers a Config channel and closes it
func (t *Terminal) RemoveListener(listener chan Config) {
	t.listenerLock.Lock()
	defer t.listenerLock.Unlock()

	for i, l := range t.listeners {
		if l == listener {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			close(l)
			return
		}
	}
}

func (t *Terminal) onConfigure() {
	t.listenerLock.Lock()
	for _, l := range t.listeners {
		select {
		case l <- t.config:
		default:
			// channel blocked, might be closed
		}
	}
	t.listenerLock.Unlock()
}

// SetDebug turns debug logging on or off.
func (t *Terminal) SetDebug(debug bool) {
	t.debug = debug
	t.decoder.SetDebug(debug)
}

// SetStartDir sets the directory RunLocalShell starts the shell in.
func (t *Terminal) SetStartDir(path string) {
	t.startDir = path
}

func (t *Terminal) startingDir() string {
	if t.startDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
	}

	return t.startDir
}

// Directory returns the last working directory the shell reported.
func (t *Terminal) Directory() string {
	return t.directory
}

// Text returns the visible contents of the screen.
func (t *Terminal) Text() string {
	return t.buffer.Text()
}

// Write sends b to the shell. Before a session is running it is discarded.
func (t *Terminal) Write(b []byte) (int, error) {
	t.ptyLock.Lock()
	p := t.pty
	t.ptyLock.Unlock()
	if p == nil {
		return len(b), nil
	}
	return p.Write(b)
}

// Exit asks the shell to end by sending EOF.
func (t *Terminal) Exit() {
	_, _ = t.Write([]byte{0x4})
}

func (t *Terminal) setTitle(title string) {
	t.config.Title = title
	if ts, ok := t.display.(TitleSetter); ok {
		ts.SetTitle(title)
	}
	t.onConfigure()
}

func (t *Terminal) setDirectory(dir string) {
	t.directory = dir
	if t.debug {
		log.Println("Shell directory:", dir)
	}
}

func (t *Terminal) ringBell() {
	if b, ok := t.display.(Beeper); ok {
		b.Bell()
	}
}

func (t *Terminal) clearScrollback() {
	if sr, ok := t.display.(ScrollbackReceiver); ok {
		sr.ClearScrollback()
	}
}

// decode feeds one batch of shell output through the decoder, then tells
// the display about any mode changes.
func (t *Terminal) decode(p []byte) {
	t.decoder.Decode(p, t.buffer)
	if m := t.decoder.Modes(); m != t.modes {
		t.modes = m
		if mo, ok := t.display.(ModeObserver); ok {
			mo.ModesChanged(m)
		}
	}
}
