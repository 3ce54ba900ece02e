package terminal

import (
	"fmt"
	"log"
)

var csiHandlers = map[rune]func(*Decoder, *Buffer){
	'@': csiInsertChars,
	'A': csiCursorUp,
	'B': csiCursorDown,
	'C': csiCursorRight,
	'D': csiCursorLeft,
	'E': csiCursorNextLine, // CNL
	'F': csiCursorPrevLine, // CPL
	'G': csiCursorColumn,
	'`': csiCursorColumn, // HPA
	'H': csiCursorPosition,
	'f': csiCursorPosition,
	'I': csiForwardTab,
	'Z': csiBackTab,
	'J': csiEraseInScreen,
	'K': csiEraseInLine,
	'L': csiInsertLines,
	'M': csiDeleteLines,
	'P': csiDeleteChars,
	'S': csiScrollUp,
	'T': csiScrollDown,
	'X': csiEraseChars, // ECH
	'a': csiCursorColumnRelative, // HPR
	'b': csiRepeat,
	'c': csiDeviceAttributes,
	'd': csiCursorRow,
	'e': csiCursorRowRelative, // VPR
	'g': csiTabClear,
	'h': csiModeOn,
	'l': csiModeOff,
	'm': csiGraphicRendition,
	'n': csiDeviceStatusReport,
	'p': csiSoftReset,
	'q': csiCursorStyle,
	'r': csiSetScrollArea,
	's': csiSaveCursor,
	't': csiWindowManipulation,
	'u': csiRestoreCursor,
	'i': csiPrinterMode,
}

// unsupported reports a CSI sequence whose final byte is known but whose
// parameters, prefix or intermediates are not.
func (d *Decoder) unsupported() {
	d.anomaly(AnomalyUnknownCSI, d.sequence())
}

func csiInsertChars(d *Decoder, b *Buffer) {
	b.InsertBlanks(d.count(0))
}

func csiCursorUp(d *Decoder, b *Buffer) {
	cur := b.Cursor()
	top, _ := b.ScrollRegion()
	row := cur.Row - d.count(0)
	if cur.Row >= top && row < top {
		row = top
	}
	b.MoveCursor(row, cur.Col)
}

func csiCursorDown(d *Decoder, b *Buffer) {
	cur := b.Cursor()
	_, bottom := b.ScrollRegion()
	row := cur.Row + d.count(0)
	if cur.Row <= bottom && row > bottom {
		row = bottom
	}
	b.MoveCursor(row, cur.Col)
}

func csiCursorRight(d *Decoder, b *Buffer) {
	cur := b.Cursor()
	b.MoveCursor(cur.Row, cur.Col+d.count(0))
}

func csiCursorLeft(d *Decoder, b *Buffer) {
	cur := b.Cursor()
	b.MoveCursor(cur.Row, cur.Col-d.count(0))
}

// CSI E: Cursor Next Line (move down N and to column 1)
func csiCursorNextLine(d *Decoder, b *Buffer) {
	csiCursorDown(d, b)
	b.CarriageReturn()
}

// CSI F: Cursor Previous Line (move up N and to column 1)
func csiCursorPrevLine(d *Decoder, b *Buffer) {
	csiCursorUp(d, b)
	b.CarriageReturn()
}

func csiCursorColumn(d *Decoder, b *Buffer) {
	b.MoveCursor(b.Cursor().Row, d.param(0, 1)-1)
}

func csiCursorColumnRelative(d *Decoder, b *Buffer) {
	cur := b.Cursor()
	b.MoveCursor(cur.Row, cur.Col+d.count(0))
}

func csiCursorRow(d *Decoder, b *Buffer) {
	d.moveTo(b, d.param(0, 1)-1, b.Cursor().Col)
}

func csiCursorRowRelative(d *Decoder, b *Buffer) {
	cur := b.Cursor()
	b.MoveCursor(cur.Row+d.count(0), cur.Col)
}

func csiCursorPosition(d *Decoder, b *Buffer) {
	d.moveTo(b, d.param(0, 1)-1, d.param(1, 1)-1)
}

func csiForwardTab(d *Decoder, b *Buffer) {
	b.Tab(d.count(0))
}

func csiBackTab(d *Decoder, b *Buffer) {
	b.BackTab(d.count(0))
}

func csiTabClear(_ *Decoder, _ *Buffer) {
	// tab stops are fixed every 8 columns
}

func csiEraseInScreen(d *Decoder, b *Buffer) {
	// DECSED (with '?') is treated as a plain erase, nothing is protected
	switch d.param(0, 0) {
	case 0:
		b.Erase(EraseToEndOfScreen)
	case 1:
		b.Erase(EraseToStartOfScreen)
	case 2:
		b.Erase(EraseScreen)
	case 3:
		// xterm extension: Erase saved lines
		if d.callbacks.ClearScrollback != nil {
			d.callbacks.ClearScrollback()
		}
	default:
		d.unsupported()
	}
}

func csiEraseInLine(d *Decoder, b *Buffer) {
	switch d.param(0, 0) {
	case 0:
		b.Erase(EraseToEndOfLine)
	case 1:
		b.Erase(EraseToStartOfLine)
	case 2:
		b.Erase(EraseLine)
	default:
		d.unsupported()
	}
}

func csiEraseChars(d *Decoder, b *Buffer) {
	b.EraseChars(d.count(0))
}

func csiDeleteChars(d *Decoder, b *Buffer) {
	b.DeleteChars(d.count(0))
}

func csiInsertLines(d *Decoder, b *Buffer) {
	b.InsertLines(d.count(0))
}

// CSI M: Delete Lines (within scroll region)
func csiDeleteLines(d *Decoder, b *Buffer) {
	b.DeleteLines(d.count(0))
}

func csiScrollUp(d *Decoder, b *Buffer) {
	if d.private != 0 {
		d.unsupported()
		return
	}
	b.Scroll(d.count(0))
}

// CSI T: Scroll down (reverse index in region by N lines)
func csiScrollDown(d *Decoder, b *Buffer) {
	if d.private != 0 || d.nparams > 1 {
		// CSI Ps ; Ps ; Ps ; Ps ; Ps T is xterm mouse highlight tracking
		d.unsupported()
		return
	}
	b.Scroll(-d.count(0))
}

// CSI b: REP, repeat the last printed character
func csiRepeat(d *Decoder, b *Buffer) {
	if d.lastRune == 0 {
		return
	}
	for n := d.count(0); n > 0; n-- {
		d.put(d.lastRune, b)
	}
}

func csiSetScrollArea(d *Decoder, b *Buffer) {
	if d.private != 0 {
		// restore DEC private modes, not kept
		return
	}
	top := d.param(0, 1)
	bottom := d.param(1, b.Rows())
	if top == 0 {
		top = 1
	}
	if bottom == 0 || bottom > b.Rows() {
		bottom = b.Rows()
	}
	if top >= bottom {
		return
	}

	b.SetScrollRegion(top-1, bottom-1)
	// xterm/VT: After setting margins, cursor moves to home and origin mode applies
	d.moveTo(b, 0, 0)
}

func csiSaveCursor(d *Decoder, b *Buffer) {
	if d.private != 0 {
		// save DEC private modes, not kept
		return
	}
	d.saveCursor(b, &d.saved)
}

func csiRestoreCursor(d *Decoder, b *Buffer) {
	if d.private != 0 || d.nparams > 0 {
		if d.debug {
			log.Println("Corrupt restore cursor escape", d.sequence())
		}
		return
	}
	d.restoreCursor(b, &d.saved)
}

func csiModeOn(d *Decoder, b *Buffer) {
	d.setModes(b, true)
}

func csiModeOff(d *Decoder, b *Buffer) {
	d.setModes(b, false)
}

func (d *Decoder) setModes(b *Buffer, enable bool) {
	for i := 0; i < d.nparams || i == 0; i++ {
		mode := d.param(i, 0)
		switch d.private {
		case '?':
			d.privateMode(b, mode, enable)
		case 0:
			d.ansiMode(b, mode, enable)
		default:
			d.unsupported()
			return
		}
	}
}

// ansiMode handles standard SM/RM (without the DEC private '?' prefix)
func (d *Decoder) ansiMode(b *Buffer, mode int, enable bool) {
	switch mode {
	case 4:
		// IRM: Insert/Replace Mode
		b.SetInsertMode(enable)
	case 7:
		// some applications use SM/RM 7 (without '?') to control autowrap
		b.SetAutoWrap(enable)
	case 20:
		// LNM: New Line Mode
		d.newLineMode = enable
	default:
		d.anomaly(AnomalyUnsupportedMode, fmt.Sprintf("\x1b[%d%c", mode, d.final))
	}
}

func (d *Decoder) privateMode(b *Buffer, mode int, enable bool) {
	switch mode {
	case 1:
		// DECCKM: Application Cursor Keys
		d.modes.ApplicationCursorKeys = enable
	case 6:
		// DECOM: Origin mode
		d.originMode = enable
		d.moveTo(b, 0, 0)
	case 7:
		// DECAWM: Autowrap mode
		b.SetAutoWrap(enable)
	case 12:
		d.modes.CursorBlink = enable
	case 25:
		b.SetCursorVisible(enable)
	case 9:
		d.setMouse(MouseX10, enable)
	case 1000:
		d.setMouse(MouseNormal, enable)
	case 1002:
		d.setMouse(MouseButtonEvent, enable)
	case 1003:
		d.setMouse(MouseAnyEvent, enable)
	case 1006:
		d.modes.MouseSGR = enable
	case 47, 1047:
		b.UseAlternateScreen(enable)
	case 1048:
		// Save/restore cursor only
		if enable {
			d.saveCursor(b, &d.altSaved)
		} else {
			d.restoreCursor(b, &d.altSaved)
		}
	case 1049:
		// 1049 = 1047 + 1048, the alternate screen always starts blank
		if enable {
			d.saveCursor(b, &d.altSaved)
			b.UseAlternateScreen(true)
			b.Erase(EraseScreen)
		} else {
			b.UseAlternateScreen(false)
			d.restoreCursor(b, &d.altSaved)
		}
	case 2004:
		d.modes.BracketedPaste = enable
	case 1004, 1005, 1015, 1034, 2026:
		// focus events, other mouse encodings, meta key and synchronised output are not offered
	default:
		d.anomaly(AnomalyUnsupportedMode, fmt.Sprintf("\x1b[?%d%c", mode, d.final))
	}
}

func (d *Decoder) setMouse(mode MouseMode, enable bool) {
	if enable {
		d.modes.Mouse = mode
	} else if d.modes.Mouse == mode {
		d.modes.Mouse = MouseOff
	}
}

// escapeDeviceStatusReport handles CSI ... n queries
// Supports 5n (status) and 6n (cursor position)
func csiDeviceStatusReport(d *Decoder, b *Buffer) {
	switch d.param(0, 0) {
	case 5:
		// Device Status Report: ready
		d.reply("\x1b[0n")
	case 6:
		// Cursor position report: 1-based row;col
		cur := b.Cursor()
		row := cur.Row
		if d.originMode {
			top, _ := b.ScrollRegion()
			row -= top
		}
		if d.private == '?' {
			d.reply(fmt.Sprintf("\x1b[?%d;%dR", row+1, cur.Col+1))
			return
		}
		d.reply(fmt.Sprintf("\x1b[%d;%dR", row+1, cur.Col+1))
	default:
		d.unsupported()
	}
}

func csiDeviceAttributes(d *Decoder, _ *Buffer) {
	if d.param(0, 0) != 0 {
		return
	}

	switch d.private {
	case '>':
		// DA2: Identify terminal type/version
		d.reply("\x1b[>0;115;0c")
	case 0:
		// DA1: VT102
		d.reply("\x1b[?6c")
	default:
		d.unsupported()
	}
}

// DECSTR: Soft reset (CSI ! p)
func csiSoftReset(d *Decoder, b *Buffer) {
	if d.intermediate() != '!' || d.private != 0 {
		d.unsupported()
		return
	}
	d.softReset(b)
}

// CSI Ps SP q: DECSCUSR - Set cursor style
// 0 or 1 -> blinking block, 2 -> steady block, 3 -> blinking underline, 4 -> steady underline,
// 5 -> blinking bar, 6 -> steady bar.
func csiCursorStyle(d *Decoder, _ *Buffer) {
	if d.intermediate() != ' ' {
		d.unsupported()
		return
	}

	ps := d.param(0, 1)
	switch ps {
	case 0, 1, 2:
		d.modes.CursorShape = CursorBlock
	case 3, 4:
		d.modes.CursorShape = CursorUnderline
	case 5, 6:
		d.modes.CursorShape = CursorBar
	default:
		d.unsupported()
		return
	}
	d.modes.CursorBlink = ps == 0 || ps%2 == 1
}

// csiWindowManipulation handles window manipulation sequences (xterm extensions)
func csiWindowManipulation(d *Decoder, b *Buffer) {
	switch d.param(0, 0) {
	case 14:
		// Report window size in pixels: ESC [ 4 ; height ; width t
		if d.pixelW == 0 || d.pixelH == 0 {
			return
		}
		d.reply(fmt.Sprintf("\x1b[4;%d;%dt", d.pixelH, d.pixelW))
	case 18, 19:
		// Report window size in characters: ESC [ 8 ; rows ; cols t
		d.reply(fmt.Sprintf("\x1b[%d;%d;%dt", d.param(0, 0)-10, b.Rows(), b.Columns()))
	case 22, 23:
		// title stack push and pop, the title is only ever replaced
	default:
		if d.debug {
			log.Println("Unsupported window manipulation command:", d.sequence())
		}
	}
}

func csiPrinterMode(d *Decoder, b *Buffer) {
	if d.private != 0 {
		d.unsupported()
		return
	}

	switch d.param(0, 0) {
	case 0:
		// print screen
		if d.callbacks.Printer != nil {
			d.callbacks.Printer.Print([]byte(b.Text()))
		}
	case 5:
		d.state = statePrinting
		d.printData = nil
	case 4:
		// printing already ended, or never started
	default:
		if d.debug {
			log.Println("Unknown printer mode", d.sequence())
		}
	}
}
