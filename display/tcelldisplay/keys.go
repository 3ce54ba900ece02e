package tcelldisplay

import (
	"strconv"

	"github.com/gdamore/tcell/v2"

	terminal "github.com/fyne-io/vtengine"
)

var functionKeys = map[tcell.Key]string{
	tcell.KeyInsert: "2",
	tcell.KeyDelete: "3",
	tcell.KeyPgUp:   "5",
	tcell.KeyPgDn:   "6",
	tcell.KeyF5:     "15",
	tcell.KeyF6:     "17",
	tcell.KeyF7:     "18",
	tcell.KeyF8:     "19",
	tcell.KeyF9:     "20",
	tcell.KeyF10:    "21",
	tcell.KeyF11:    "23",
	tcell.KeyF12:    "24",
}

var cursorKeys = map[tcell.Key]byte{
	tcell.KeyUp:    'A',
	tcell.KeyDown:  'B',
	tcell.KeyRight: 'C',
	tcell.KeyLeft:  'D',
	tcell.KeyHome:  'H',
	tcell.KeyEnd:   'F',
	tcell.KeyF1:    'P',
	tcell.KeyF2:    'Q',
	tcell.KeyF3:    'R',
	tcell.KeyF4:    'S',
}

// modifierParam is the xterm modifier parameter, 1 meaning none.
func modifierParam(mods tcell.ModMask) int {
	p := 1
	if mods&tcell.ModShift != 0 {
		p++
	}
	if mods&tcell.ModAlt != 0 {
		p += 2
	}
	if mods&tcell.ModCtrl != 0 {
		p += 4
	}
	return p
}

// encodeKey returns the bytes a key press sends to the shell, nil if none.
func encodeKey(ev *tcell.EventKey, modes terminal.Modes) []byte {
	key, mods := ev.Key(), ev.Modifiers()

	switch key {
	case tcell.KeyRune:
		return encodeRune(ev.Rune(), mods)
	case tcell.KeyEnter:
		return []byte{'\r'}
	case tcell.KeyTab:
		return []byte{'\t'}
	case tcell.KeyBacktab:
		return []byte("\x1b[Z")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if mods&tcell.ModAlt != 0 {
			return []byte{0x1b, 0x7f}
		}
		return []byte{0x7f}
	case tcell.KeyEscape:
		return []byte{0x1b}
	}

	if code, ok := functionKeys[key]; ok {
		if p := modifierParam(mods); p > 1 {
			return []byte("\x1b[" + code + ";" + strconv.Itoa(p) + "~")
		}
		return []byte("\x1b[" + code + "~")
	}

	if final, ok := cursorKeys[key]; ok {
		if p := modifierParam(mods); p > 1 {
			return []byte("\x1b[1;" + strconv.Itoa(p) + string(final))
		}
		isFn := key >= tcell.KeyF1 && key <= tcell.KeyF4
		if isFn || modes.ApplicationCursorKeys {
			return []byte{0x1b, 'O', final}
		}
		return []byte{0x1b, '[', final}
	}

	// remaining control keys arrive already as their C0 code
	if key < tcell.KeyRune {
		b := []byte{byte(key)}
		if mods&tcell.ModAlt != 0 {
			return append([]byte{0x1b}, b...)
		}
		return b
	}
	return nil
}

func encodeRune(r rune, mods tcell.ModMask) []byte {
	if mods&tcell.ModCtrl != 0 {
		switch {
		case r >= 'a' && r <= 'z':
			r = r - 'a' + 1
		case r >= 'A' && r <= 'Z':
			r = r - 'A' + 1
		case r == ' ' || r == '@':
			r = 0
		case r >= '[' && r <= '_':
			r = r - '[' + 0x1b
		}
	}

	b := []byte(string(r))
	if mods&tcell.ModAlt != 0 {
		return append([]byte{0x1b}, b...)
	}
	return b
}
