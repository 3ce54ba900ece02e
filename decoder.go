package terminal

import (
	"bytes"
	"io"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/encoding/charmap"
)

const (
	asciiBell       = 0x07
	asciiBackspace  = 0x08
	asciiCancel     = 0x18
	asciiSubstitute = 0x1a
	asciiEscape     = 0x1b
	asciiDelete     = 0x7f

	maxParams        = 16
	maxParamValue    = 65535
	maxIntermediates = 2
	maxStringLen     = 4096
)

type decodeState int

const (
	stateGround decodeState = iota
	stateEscape
	stateEscapeIntermediate
	stateCsiEntry
	stateCsiParam
	stateCsiIntermediate
	stateCsiIgnore
	stateOscString
	stateDcsString
	stateApcString
	stateIgnoreString // SOS and PM, consumed and dropped
	stateStringEscape
	statePrinting
)

// Printer is used for spooling print data when its received.
type Printer interface {
	Print([]byte)
}

// PrinterFunc is a helper function to enable easy implementation of printers.
type PrinterFunc func([]byte)

// Print calls the PrinterFunc.
func (p PrinterFunc) Print(d []byte) {
	p(d)
}

// Callbacks receive the decoder side effects that are not changes to the grid.
// Any of them may be nil.
type Callbacks struct {
	Title           func(string)
	IconName        func(string)
	Directory       func(string)
	Bell            func()
	ShellMark       func(string)
	ClearScrollback func()
	Printer         Printer
}

// CursorShape is the cursor style requested with DECSCUSR.
type CursorShape int

const (
	CursorBlock CursorShape = iota
	CursorUnderline
	CursorBar
)

// Modes are the switches the shell can flip that matter outside the grid,
// mostly to whoever encodes keyboard and mouse input.
type Modes struct {
	ApplicationCursorKeys bool
	ApplicationKeypad     bool
	BracketedPaste        bool
	Mouse                 MouseMode
	MouseSGR              bool
	CursorShape           CursorShape
	CursorBlink           bool
}

type savedCursor struct {
	valid      bool
	pos        Position
	attr       Attribute
	charsets   [2]charSet
	shifted    bool
	originMode bool
}

// Decoder turns the byte stream written by the shell into Buffer mutations.
// It keeps its state between calls so a sequence may be split anywhere.
type Decoder struct {
	state decodeState

	pending  [utf8.UTFMax]byte
	npending int
	want     int
	legacy   *charmap.Charmap

	params   [maxParams]int
	present  [maxParams]bool
	colon    [maxParams]bool // introduced by ':' rather than ';'
	nparams  int
	private  rune
	inter    [maxIntermediates]rune
	ninter   int
	final    rune
	overflow bool

	str       []byte
	strState  decodeState
	printData []byte

	charsets    [2]charSet
	shifted     bool
	saved       savedCursor
	altSaved    savedCursor
	originMode  bool
	newLineMode bool
	modes       Modes
	lastRune    rune
	pixelW      int
	pixelH      int

	widths      *runewidth.Condition
	responder   io.Writer
	callbacks   Callbacks
	oscHandlers map[int]OSCHandler
	apcHandlers map[string]APCHandler
	onAnomaly   func(*DecodeAnomaly)
	debug       bool
}

// NewDecoder returns a decoder in the ground state.
// Replies to shell queries, such as cursor position reports, are written to responder.
func NewDecoder(responder io.Writer, cb Callbacks) *Decoder {
	widths := runewidth.NewCondition()
	widths.EastAsianWidth = false
	return &Decoder{
		responder:   responder,
		callbacks:   cb,
		widths:      widths,
		oscHandlers: make(map[int]OSCHandler),
		apcHandlers: make(map[string]APCHandler),
	}
}

// SetDebug turns on logging of every unrecognised or malformed sequence.
func (d *Decoder) SetDebug(debug bool) {
	d.debug = debug
}

// SetAnomalyHandler registers f to be told about every discarded sequence.
// A nil f ignores them, which is the default.
func (d *Decoder) SetAnomalyHandler(f func(*DecodeAnomaly)) {
	d.onAnomaly = f
}

// SetCharset switches input decoding to a legacy 8-bit charset such as
// "latin1" or "cp437". The names "", "utf-8" and "utf8" select UTF-8.
func (d *Decoder) SetCharset(name string) error {
	cm, err := lookupCharmap(name)
	if err != nil {
		return err
	}
	d.legacy = cm
	d.want, d.npending = 0, 0
	return nil
}

// SetResponder changes where replies to shell queries are written.
func (d *Decoder) SetResponder(w io.Writer) {
	d.responder = w
}

// SetPixelSize records the drawable area for window size reports.
func (d *Decoder) SetPixelSize(width, height int) {
	d.pixelW, d.pixelH = width, height
}

// Modes returns the current input related modes.
func (d *Decoder) Modes() Modes {
	return d.modes
}

// Decode consumes one batch of shell output, applying it to b.
// A sequence cut short by the end of p is resumed by the next call.
func (d *Decoder) Decode(p []byte, b *Buffer) {
	for _, c := range p {
		if d.legacy != nil {
			d.advance(d.legacy.DecodeByte(c), b)
			continue
		}
		d.decodeByte(c, b)
	}
}

func (d *Decoder) decodeByte(c byte, b *Buffer) {
	if d.want == 0 {
		switch {
		case c < utf8.RuneSelf:
			d.advance(rune(c), b)
		case c >= 0xc2 && c <= 0xdf:
			d.startRune(c, 2)
		case c >= 0xe0 && c <= 0xef:
			d.startRune(c, 3)
		case c >= 0xf0 && c <= 0xf4:
			d.startRune(c, 4)
		default:
			d.anomaly(AnomalyInvalidUTF8, string([]byte{c}))
		}
		return
	}

	if c&0xc0 != 0x80 {
		bad := string(d.pending[:d.npending])
		d.want, d.npending = 0, 0
		d.anomaly(AnomalyInvalidUTF8, bad)
		d.decodeByte(c, b)
		return
	}
	d.pending[d.npending] = c
	d.npending++
	if d.npending < d.want {
		return
	}

	seq := d.pending[:d.npending]
	d.want, d.npending = 0, 0
	r, size := utf8.DecodeRune(seq)
	if r == utf8.RuneError && size <= 1 {
		d.anomaly(AnomalyInvalidUTF8, string(seq))
		return
	}
	d.advance(r, b)
}

func (d *Decoder) startRune(c byte, want int) {
	d.pending[0] = c
	d.npending = 1
	d.want = want
}

func (d *Decoder) advance(r rune, b *Buffer) {
	switch d.state {
	case statePrinting:
		d.printing(r)
		return
	case stateOscString, stateDcsString, stateApcString, stateIgnoreString:
		d.stringRune(r, b)
		return
	case stateStringEscape:
		d.stringEscape(r, b)
		return
	}

	switch {
	case r == asciiEscape:
		if d.state >= stateCsiEntry && d.state <= stateCsiIgnore {
			d.anomaly(AnomalyCancelled, d.sequence())
		}
		d.state = stateEscape
		d.ninter = 0
		return
	case r == asciiCancel || r == asciiSubstitute:
		if d.state != stateGround {
			d.anomaly(AnomalyCancelled, d.sequence())
		}
		d.state = stateGround
		return
	case r >= 0x80 && r <= 0x9f:
		d.c1(r, b)
		return
	case r < 0x20:
		if out, ok := controls[r]; ok {
			out(d, b)
		}
		return
	}

	switch d.state {
	case stateGround:
		if r != asciiDelete {
			d.print(r, b)
		}
	case stateEscape:
		d.escapeRune(r, b)
	case stateEscapeIntermediate:
		d.escapeIntermediateRune(r, b)
	case stateCsiEntry, stateCsiParam:
		d.csiParamRune(r, b)
	case stateCsiIntermediate:
		d.csiIntermediateRune(r, b)
	case stateCsiIgnore:
		if r >= 0x40 && r <= 0x7e {
			d.final = r
			d.state = stateGround
			d.anomaly(AnomalyMalformedCSI, d.sequence())
		}
	}
}

var controls = map[rune]func(*Decoder, *Buffer){
	asciiBell:      controlBell,
	asciiBackspace: func(_ *Decoder, b *Buffer) { b.Backspace() },
	'\t':           func(_ *Decoder, b *Buffer) { b.Tab(1) },
	'\n':           controlLineFeed,
	'\v':           controlLineFeed,
	'\f':           controlLineFeed,
	'\r':           func(_ *Decoder, b *Buffer) { b.CarriageReturn() },
	0x0e:           func(d *Decoder, _ *Buffer) { d.shifted = true },  // switch to G1 character set
	0x0f:           func(d *Decoder, _ *Buffer) { d.shifted = false }, // switch to G0 character set
}

func controlBell(d *Decoder, _ *Buffer) {
	if d.callbacks.Bell != nil {
		d.callbacks.Bell()
	}
}

func controlLineFeed(d *Decoder, b *Buffer) {
	b.LineFeed()
	if d.newLineMode {
		b.CarriageReturn()
	}
}

// c1 handles the 8-bit controls U+0080 to U+009F.
func (d *Decoder) c1(r rune, b *Buffer) {
	d.state = stateGround
	switch r {
	case 0x84: // IND
		b.LineFeed()
	case 0x85: // NEL
		b.CarriageReturn()
		b.LineFeed()
	case 0x8d: // RI
		b.ReverseIndex()
	case 0x90: // DCS
		d.enterString(stateDcsString)
	case 0x98, 0x9e: // SOS, PM
		d.enterString(stateIgnoreString)
	case 0x9b: // CSI
		d.enterCsi()
	case 0x9d: // OSC
		d.enterString(stateOscString)
	case 0x9f: // APC
		d.enterString(stateApcString)
	}
}

func (d *Decoder) print(r rune, b *Buffer) {
	cs := d.charsets[0]
	if d.shifted {
		cs = d.charsets[1]
	}
	d.put(cs.translate(r), b)
}

func (d *Decoder) put(r rune, b *Buffer) {
	switch d.widths.RuneWidth(r) {
	case 0:
		// combining marks have no cell of their own
		return
	case 2:
		b.WriteWideCell(r, b.Attribute())
	default:
		b.WriteCell(r, b.Attribute())
	}
	d.lastRune = r
}

func (d *Decoder) escapeRune(r rune, b *Buffer) {
	switch {
	case r >= 0x20 && r <= 0x2f:
		d.addIntermediate(r)
		d.state = stateEscapeIntermediate
	case r == '[':
		d.enterCsi()
	case r == ']':
		d.enterString(stateOscString)
	case r == 'P':
		d.enterString(stateDcsString)
	case r == '_':
		d.enterString(stateApcString)
	case r == '^', r == 'X':
		d.enterString(stateIgnoreString)
	case r == asciiDelete:
	default:
		d.state = stateGround
		d.escDispatch(r, b)
	}
}

func (d *Decoder) escapeIntermediateRune(r rune, b *Buffer) {
	switch {
	case r >= 0x20 && r <= 0x2f:
		d.addIntermediate(r)
	case r >= 0x30 && r <= 0x7e:
		d.state = stateGround
		d.escIntermediateDispatch(r, b)
	case r == asciiDelete:
	default:
		d.state = stateGround
		d.anomaly(AnomalyUnknownEscape, "\x1b"+string(d.inter[:d.ninter])+string(r))
	}
}

func (d *Decoder) escDispatch(r rune, b *Buffer) {
	switch r {
	case 'D': // IND: Index
		b.LineFeed()
	case 'E': // NEL: Next Line
		b.CarriageReturn()
		b.LineFeed()
	case 'M': // RI: Reverse Index
		b.ReverseIndex()
	case '7': // DECSC
		d.saveCursor(b, &d.saved)
	case '8': // DECRC
		d.restoreCursor(b, &d.saved)
	case 'c': // RIS: Full reset
		d.reset(b)
	case '=':
		d.modes.ApplicationKeypad = true
	case '>':
		d.modes.ApplicationKeypad = false
	case '\\', 'H', 'N', 'O':
		// stray ST, HTS with fixed tab stops, single shifts into unused G2/G3
	default:
		d.anomaly(AnomalyUnknownEscape, "\x1b"+string(r))
	}
}

func (d *Decoder) escIntermediateDispatch(r rune, b *Buffer) {
	switch d.inter[0] {
	case '(':
		d.designate(0, r)
	case ')':
		d.designate(1, r)
	case '*', '+', ' ', '%':
		// G2/G3 designation, 7/8-bit control selection and UTF-8 selection are accepted as-is
	case '#':
		if r == '8' { // DECALN: screen alignment test
			b.SetAttribute(Attribute{})
			b.FillScreen('E')
			return
		}
		d.anomaly(AnomalyUnknownEscape, "\x1b#"+string(r))
	default:
		d.anomaly(AnomalyUnknownEscape, "\x1b"+string(d.inter[:d.ninter])+string(r))
	}
}

func (d *Decoder) designate(g int, r rune) {
	cs, ok := designate[r]
	if !ok {
		if d.debug {
			log.Println("Unhandled VT100:", string(d.inter[0])+string(r))
		}
		return
	}
	d.charsets[g] = cs
}

func (d *Decoder) enterCsi() {
	for i := range d.params {
		d.params[i] = 0
		d.present[i] = false
		d.colon[i] = false
	}
	d.nparams = 0
	d.private = 0
	d.ninter = 0
	d.final = 0
	d.overflow = false
	d.state = stateCsiEntry
}

func (d *Decoder) csiParamRune(r rune, b *Buffer) {
	switch {
	case r >= '0' && r <= '9':
		d.paramDigit(r)
		d.state = stateCsiParam
	case r == ';' || r == ':':
		d.paramSeparator(r == ':')
		d.state = stateCsiParam
	case r >= '<' && r <= '?':
		if d.state != stateCsiEntry {
			d.state = stateCsiIgnore
			return
		}
		d.private = r
		d.state = stateCsiParam
	case r >= 0x20 && r <= 0x2f:
		d.addIntermediate(r)
		d.state = stateCsiIntermediate
	case r >= 0x40 && r <= 0x7e:
		d.state = stateGround
		d.csiDispatch(r, b)
	case r == asciiDelete:
	default:
		d.state = stateCsiIgnore
	}
}

func (d *Decoder) csiIntermediateRune(r rune, b *Buffer) {
	switch {
	case r >= 0x20 && r <= 0x2f:
		d.addIntermediate(r)
	case r >= 0x40 && r <= 0x7e:
		d.state = stateGround
		d.csiDispatch(r, b)
	case r == asciiDelete:
	default:
		d.state = stateCsiIgnore
	}
}

func (d *Decoder) paramDigit(r rune) {
	if d.nparams == 0 {
		d.nparams = 1
	}
	if d.overflow {
		return
	}
	i := d.nparams - 1
	v := d.params[i]*10 + int(r-'0')
	if v > maxParamValue {
		v = maxParamValue
	}
	d.params[i] = v
	d.present[i] = true
}

func (d *Decoder) paramSeparator(colon bool) {
	if d.nparams == 0 {
		d.nparams = 1
	}
	if d.nparams == maxParams {
		d.overflow = true
		return
	}
	d.colon[d.nparams] = colon
	d.nparams++
}

func (d *Decoder) addIntermediate(r rune) {
	if d.ninter == maxIntermediates {
		d.overflow = true
		return
	}
	d.inter[d.ninter] = r
	d.ninter++
}

func (d *Decoder) csiDispatch(r rune, b *Buffer) {
	d.final = r
	if d.overflow {
		d.anomaly(AnomalyOverflow, d.sequence())
	}
	h, ok := csiHandlers[r]
	if !ok {
		d.anomaly(AnomalyUnknownCSI, d.sequence())
		return
	}
	h(d, b)
}

// param returns parameter i, or def when it was omitted.
func (d *Decoder) param(i, def int) int {
	if i >= d.nparams || !d.present[i] {
		return def
	}
	return d.params[i]
}

// count returns parameter i as a repeat count, where omitted and 0 both mean 1.
func (d *Decoder) count(i int) int {
	if v := d.param(i, 1); v > 0 {
		return v
	}
	return 1
}

// subParams returns how many ':' separated values follow parameter i.
func (d *Decoder) subParams(i int) int {
	n := 0
	for j := i + 1; j < d.nparams && d.colon[j]; j++ {
		n++
	}
	return n
}

func (d *Decoder) intermediate() rune {
	if d.ninter == 0 {
		return 0
	}
	return d.inter[0]
}

// sequence rebuilds the CSI sequence being decoded, for diagnostics.
func (d *Decoder) sequence() string {
	var sb strings.Builder
	sb.WriteString("\x1b[")
	if d.private != 0 {
		sb.WriteRune(d.private)
	}
	for i := 0; i < d.nparams; i++ {
		if i > 0 {
			if d.colon[i] {
				sb.WriteByte(':')
			} else {
				sb.WriteByte(';')
			}
		}
		if d.present[i] {
			sb.WriteString(strconv.Itoa(d.params[i]))
		}
	}
	for _, r := range d.inter[:d.ninter] {
		sb.WriteRune(r)
	}
	if d.final != 0 {
		sb.WriteRune(d.final)
	}
	return sb.String()
}

func (d *Decoder) enterString(s decodeState) {
	d.str = d.str[:0]
	d.strState = s
	d.state = s
	d.overflow = false
}

func (d *Decoder) stringRune(r rune, b *Buffer) {
	switch {
	case r == asciiEscape:
		d.state = stateStringEscape
		return
	case r == asciiBell && d.strState == stateOscString, r == 0x9c:
		d.state = stateGround
		d.dispatchString(b)
		return
	case r == asciiCancel || r == asciiSubstitute:
		d.state = stateGround
		d.anomaly(AnomalyCancelled, string(d.str))
		return
	case r < 0x20:
		return
	}
	d.appendString(r)
}

func (d *Decoder) appendString(r rune) {
	if d.strState == stateIgnoreString {
		return
	}
	if len(d.str)+utf8.RuneLen(r) > maxStringLen {
		d.overflow = true
		return
	}
	d.str = utf8.AppendRune(d.str, r)
}

// stringEscape handles the rune after an ESC inside a string sequence.
func (d *Decoder) stringEscape(r rune, b *Buffer) {
	if r == '\\' {
		d.state = stateGround
		d.dispatchString(b)
		return
	}
	if d.strState == stateDcsString {
		// passthrough payloads carry their own escapes, ESC ESC is a literal ESC
		d.state = stateDcsString
		d.appendString(asciiEscape)
		if r != asciiEscape {
			d.appendString(r)
		}
		return
	}

	// any other escape ends the string and starts a new sequence
	d.state = stateGround
	d.dispatchString(b)
	d.state = stateEscape
	d.ninter = 0
	d.advance(r, b)
}

func (d *Decoder) dispatchString(b *Buffer) {
	payload := string(d.str)
	if d.overflow {
		d.anomaly(AnomalyOverflow, payload)
	}
	switch d.strState {
	case stateOscString:
		d.handleOSC(payload)
	case stateDcsString:
		d.handleDCS(payload, b)
	case stateApcString:
		d.handleAPC(payload)
	}
}

var printerModeEnd = []byte{asciiEscape, '[', '4', 'i'}

// printing collects print data until CSI 4 i. At most maxStringLen bytes are
// held: longer data reaches the printer in chunks, keeping back a tail that
// could be the start of the terminator.
func (d *Decoder) printing(r rune) {
	d.printData = utf8.AppendRune(d.printData, r)
	if bytes.HasSuffix(d.printData, printerModeEnd) {
		d.printData = d.printData[:len(d.printData)-len(printerModeEnd)]
		d.state = stateGround
		d.sendToPrinter(d.printData)
		d.printData = nil
		return
	}

	if len(d.printData) >= maxStringLen {
		keep := len(printerModeEnd) - 1
		chunk := d.printData[:len(d.printData)-keep]
		d.sendToPrinter(bytes.Clone(chunk))
		d.printData = append(d.printData[:0], d.printData[len(chunk):]...)
	}
}

func (d *Decoder) sendToPrinter(data []byte) {
	if d.callbacks.Printer != nil {
		d.callbacks.Printer.Print(data)
	} else if d.debug {
		log.Println("Print data was received but no printer has been set")
	}
}

func (d *Decoder) saveCursor(b *Buffer, s *savedCursor) {
	*s = savedCursor{
		valid:      true,
		pos:        b.Cursor(),
		attr:       b.Attribute(),
		charsets:   d.charsets,
		shifted:    d.shifted,
		originMode: d.originMode,
	}
}

func (d *Decoder) restoreCursor(b *Buffer, s *savedCursor) {
	if !s.valid {
		b.SetAttribute(Attribute{})
		d.originMode = false
		b.MoveCursor(0, 0)
		return
	}
	b.SetAttribute(s.attr)
	d.charsets = s.charsets
	d.shifted = s.shifted
	d.originMode = s.originMode
	b.MoveCursor(s.pos.Row, s.pos.Col)
}

// moveTo positions the cursor honouring origin mode.
func (d *Decoder) moveTo(b *Buffer, row, col int) {
	if row < 0 {
		row = 0
	}
	if d.originMode {
		top, bottom := b.ScrollRegion()
		row += top
		if row > bottom {
			row = bottom
		}
	}
	b.MoveCursor(row, col)
}

// softReset is DECSTR, modes and rendition go back to defaults, the screen is kept.
func (d *Decoder) softReset(b *Buffer) {
	d.charsets = [2]charSet{}
	d.shifted = false
	d.originMode = false
	d.newLineMode = false
	d.modes.ApplicationCursorKeys = false
	d.modes.ApplicationKeypad = false
	d.saved = savedCursor{}

	b.SetAttribute(Attribute{})
	b.SetAutoWrap(true)
	b.SetInsertMode(false)
	b.SetCursorVisible(true)
	b.SetScrollRegion(0, b.Rows()-1)
	b.MoveCursor(0, 0)
}

// reset performs a full reset equivalent to RIS (ESC c)
func (d *Decoder) reset(b *Buffer) {
	d.softReset(b)
	d.modes = Modes{}
	d.altSaved = savedCursor{}
	d.lastRune = 0

	b.UseAlternateScreen(false)
	b.Erase(EraseScreen)
	b.MoveCursor(0, 0)
}

func (d *Decoder) reply(s string) {
	if d.responder == nil {
		return
	}
	_, _ = io.WriteString(d.responder, s)
}

func (d *Decoder) anomaly(kind AnomalyKind, seq string) {
	if d.debug {
		log.Println("Unrecognised sequence:", kind, strconv.Quote(seq))
	}
	if d.onAnomaly != nil {
		d.onAnomaly(&DecodeAnomaly{Kind: kind, Sequence: seq})
	}
}
