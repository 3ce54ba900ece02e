package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeMouse(t *testing.T) {
	pos := Position{Row: 2, Col: 4}
	for name, tt := range map[string]struct {
		modes  Modes
		action mouseAction
		button MouseButton
		mods   KeyModifier
		want   string
	}{
		"off":                {Modes{}, mousePress, MouseButtonPrimary, 0, ""},
		"x10 press":          {Modes{Mouse: MouseX10}, mousePress, MouseButtonPrimary, 0, "\x1b[M %#"},
		"x10 release":        {Modes{Mouse: MouseX10}, mouseRelease, MouseButtonPrimary, 0, ""},
		"x10 drops modifier": {Modes{Mouse: MouseX10}, mousePress, MouseButtonPrimary, ModifierControl, "\x1b[M %#"},
		"normal press":       {Modes{Mouse: MouseNormal}, mousePress, MouseButtonSecondary, 0, "\x1b[M\"%#"},
		"normal release":     {Modes{Mouse: MouseNormal}, mouseRelease, MouseButtonSecondary, 0, "\x1b[M#%#"},
		"normal motion":      {Modes{Mouse: MouseNormal}, mouseMotion, MouseButtonPrimary, 0, ""},
		"button motion":      {Modes{Mouse: MouseButtonEvent}, mouseMotion, MouseButtonPrimary, 0, "\x1b[M@%#"},
		"any motion":         {Modes{Mouse: MouseAnyEvent}, mouseMotion, MouseButtonTertiary, 0, "\x1b[MA%#"},
		"modifiers":          {Modes{Mouse: MouseNormal}, mousePress, MouseButtonPrimary, ModifierShift | ModifierAlt | ModifierControl, "\x1b[M<%#"},
		"sgr press":          {Modes{Mouse: MouseNormal, MouseSGR: true}, mousePress, MouseButtonPrimary, 0, "\x1b[<0;5;3M"},
		"sgr release":        {Modes{Mouse: MouseNormal, MouseSGR: true}, mouseRelease, MouseButtonTertiary, 0, "\x1b[<1;5;3m"},
		"sgr motion":         {Modes{Mouse: MouseAnyEvent, MouseSGR: true}, mouseMotion, MouseButtonPrimary, ModifierControl, "\x1b[<48;5;3M"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(encodeMouse(tt.modes, tt.action, tt.button, tt.mods, pos)))
		})
	}
}

func TestEncodeMouse_LargeCoordinates(t *testing.T) {
	far := Position{Row: 400, Col: 300}
	legacy := encodeMouse(Modes{Mouse: MouseNormal}, mousePress, MouseButtonPrimary, 0, far)
	assert.Equal(t, []byte{0x1b, '[', 'M', 32, 255, 255}, legacy)

	sgr := encodeMouse(Modes{Mouse: MouseNormal, MouseSGR: true}, mousePress, MouseButtonPrimary, 0, far)
	assert.Equal(t, "\x1b[<0;301;401M", string(sgr))
}
