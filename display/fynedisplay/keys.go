package fynedisplay

import (
	"strconv"
	"strings"

	"fyne.io/fyne/v2"

	terminal "github.com/fyne-io/vtengine"
)

var tildeKeys = map[fyne.KeyName]string{
	fyne.KeyInsert:   "2",
	fyne.KeyDelete:   "3",
	fyne.KeyPageUp:   "5",
	fyne.KeyPageDown: "6",
	fyne.KeyF5:       "15",
	fyne.KeyF6:       "17",
	fyne.KeyF7:       "18",
	fyne.KeyF8:       "19",
	fyne.KeyF9:       "20",
	fyne.KeyF10:      "21",
	fyne.KeyF11:      "23",
	fyne.KeyF12:      "24",
}

var cursorKeys = map[fyne.KeyName]byte{
	fyne.KeyUp:    'A',
	fyne.KeyDown:  'B',
	fyne.KeyRight: 'C',
	fyne.KeyLeft:  'D',
	fyne.KeyHome:  'H',
	fyne.KeyEnd:   'F',
	fyne.KeyF1:    'P',
	fyne.KeyF2:    'Q',
	fyne.KeyF3:    'R',
	fyne.KeyF4:    'S',
}

// modifierParam is the xterm modifier parameter, 1 meaning none.
func modifierParam(mod fyne.KeyModifier) int {
	p := 1
	if mod&fyne.KeyModifierShift != 0 {
		p++
	}
	if mod&fyne.KeyModifierAlt != 0 {
		p += 2
	}
	if mod&fyne.KeyModifierControl != 0 {
		p += 4
	}
	return p
}

// encodeKey returns what a key with modifiers sends to the shell, nil if nothing.
func encodeKey(name fyne.KeyName, mod fyne.KeyModifier, modes terminal.Modes) []byte {
	switch name {
	case fyne.KeyReturn, fyne.KeyEnter:
		return []byte{'\r'}
	case fyne.KeyTab:
		if mod&fyne.KeyModifierShift != 0 {
			return []byte("\x1b[Z")
		}
		return []byte{'\t'}
	case fyne.KeyBackspace:
		if mod&fyne.KeyModifierAlt != 0 {
			return []byte{0x1b, 0x7f}
		}
		return []byte{0x7f}
	case fyne.KeyEscape:
		return []byte{0x1b}
	case fyne.KeySpace:
		if mod&fyne.KeyModifierControl != 0 {
			return []byte{0}
		}
		return withAlt([]byte{' '}, mod)
	}

	if code, ok := tildeKeys[name]; ok {
		if p := modifierParam(mod); p > 1 {
			return []byte("\x1b[" + code + ";" + strconv.Itoa(p) + "~")
		}
		return []byte("\x1b[" + code + "~")
	}

	if final, ok := cursorKeys[name]; ok {
		if p := modifierParam(mod); p > 1 {
			return []byte("\x1b[1;" + strconv.Itoa(p) + string(final))
		}
		isFn := name == fyne.KeyF1 || name == fyne.KeyF2 || name == fyne.KeyF3 || name == fyne.KeyF4
		if isFn || modes.ApplicationCursorKeys {
			return []byte{0x1b, 'O', final}
		}
		return []byte{0x1b, '[', final}
	}

	if len(name) != 1 {
		return nil
	}
	r := rune(name[0])
	if mod&fyne.KeyModifierControl != 0 {
		switch {
		case r >= 'A' && r <= 'Z':
			return withAlt([]byte{byte(r - 'A' + 1)}, mod)
		case r >= '[' && r <= '_':
			return withAlt([]byte{byte(r - '[' + 0x1b)}, mod)
		case r == '@' || r == '2':
			return withAlt([]byte{0}, mod)
		}
		return nil
	}
	if mod&fyne.KeyModifierAlt != 0 {
		if mod&fyne.KeyModifierShift == 0 {
			r = []rune(strings.ToLower(string(r)))[0]
		}
		return withAlt([]byte(string(r)), mod)
	}
	return nil
}

func withAlt(b []byte, mod fyne.KeyModifier) []byte {
	if mod&fyne.KeyModifierAlt != 0 {
		return append([]byte{0x1b}, b...)
	}
	return b
}

// pasteData prepares clipboard text for the shell. Line breaks become
// carriage returns and bracketed paste mode wraps the text.
func pasteData(text string, modes terminal.Modes) []byte {
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")
	if modes.BracketedPaste {
		// the end marker inside pasted text would end the paste early
		text = strings.ReplaceAll(text, "\x1b[201~", "")
		return []byte("\x1b[200~" + text + "\x1b[201~")
	}
	return []byte(text)
}
