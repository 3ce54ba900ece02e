package terminal

import "strconv"

// MouseMode is the mouse reporting the shell asked for.
type MouseMode int

const (
	MouseOff         MouseMode = iota
	MouseX10                   // ?9, presses only
	MouseNormal                // ?1000, presses and releases
	MouseButtonEvent           // ?1002, adds motion while a button is held
	MouseAnyEvent              // ?1003, all motion, reported as drags here
)

// MouseButton identifies the button of a mouse event.
type MouseButton int

const (
	MouseButtonPrimary MouseButton = iota
	MouseButtonTertiary
	MouseButtonSecondary
)

// KeyModifier is the set of modifier keys held during a mouse event.
type KeyModifier uint8

const (
	ModifierShift KeyModifier = 1 << iota
	ModifierAlt
	ModifierControl
)

type mouseAction int

const (
	mousePress mouseAction = iota
	mouseRelease
	mouseMotion
)

// encodeMouse returns the report for a mouse action, or nil if the current
// mode does not report it. pos is zero based, reports are one based.
func encodeMouse(m Modes, action mouseAction, button MouseButton, mods KeyModifier, pos Position) []byte {
	switch m.Mouse {
	case MouseOff:
		return nil
	case MouseX10:
		if action != mousePress {
			return nil
		}
		mods = 0
	case MouseNormal:
		if action == mouseMotion {
			return nil
		}
	}

	btn := int(button)
	if action == mouseRelease && !m.MouseSGR {
		btn = 3
	}
	if action == mouseMotion {
		btn += 32
	}
	if mods&ModifierShift != 0 {
		btn += 4
	}
	if mods&ModifierAlt != 0 {
		btn += 8
	}
	if mods&ModifierControl != 0 {
		btn += 16
	}

	x, y := pos.Col+1, pos.Row+1
	if m.MouseSGR {
		// SGR extended mouse protocol: CSI < btn;x;y M/m
		suffix := byte('M')
		if action == mouseRelease {
			suffix = 'm'
		}
		buf := []byte{asciiEscape, '[', '<'}
		buf = strconv.AppendInt(buf, int64(btn), 10)
		buf = append(buf, ';')
		buf = strconv.AppendInt(buf, int64(x), 10)
		buf = append(buf, ';')
		buf = strconv.AppendInt(buf, int64(y), 10)
		return append(buf, suffix)
	}

	// the legacy encoding cannot address beyond column or row 223
	if x > 223 {
		x = 223
	}
	if y > 223 {
		y = 223
	}
	return []byte{asciiEscape, '[', 'M', byte(32 + btn), byte(32 + x), byte(32 + y)}
}
