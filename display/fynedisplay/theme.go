package fynedisplay

import (
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	terminal "github.com/fyne-io/vtengine"
)

// ANSI colour names a Theme answers for, 0-7 then the bright 8-15.
var ansiColorNames = [16]fyne.ThemeColorName{
	"ansiBlack", "ansiRed", "ansiGreen", "ansiYellow",
	"ansiBlue", "ansiMagenta", "ansiCyan", "ansiWhite",
	"ansiBrightBlack", "ansiBrightRed", "ansiBrightGreen", "ansiBrightYellow",
	"ansiBrightBlue", "ansiBrightMagenta", "ansiBrightCyan", "ansiBrightWhite",
}

// Theme wraps the application theme with a terminal font size and
// brightness and contrast controls for the ANSI colours.
type Theme struct {
	fyne.Theme

	fontSize   float32
	brightness float32
	contrast   float32
}

// NewTheme wraps base, the current application theme if nil.
func NewTheme(base fyne.Theme, fontSize float32) *Theme {
	if base == nil {
		base = fyne.CurrentApp().Settings().Theme()
	}
	if fontSize <= 0 {
		fontSize = 12
	}
	return &Theme{
		Theme:      base,
		fontSize:   fontSize,
		brightness: 1.0,
		contrast:   1.0,
	}
}

// applyBrightnessContrast adjusts a color with brightness and contrast
func (t *Theme) applyBrightnessContrast(c color.Color) color.Color {
	r, g, b, a := c.RGBA()
	adjust := func(v uint32) uint8 {
		f := float64(v)/65535.0 + float64(t.brightness-1.0)
		f = (f-0.5)*float64(t.contrast) + 0.5
		return uint8(math.Round(math.Max(0, math.Min(1, f)) * 255))
	}

	return color.NRGBA{R: adjust(r), G: adjust(g), B: adjust(b), A: uint8(a >> 8)}
}

// Color answers the ANSI colour names from the terminal palette and defers
// everything else to the wrapped theme.
func (t *Theme) Color(n fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	for i, name := range ansiColorNames {
		if n == name {
			return t.applyBrightnessContrast(terminal.IndexedRGBA(uint8(i)))
		}
	}
	return t.Theme.Color(n, v)
}

// SetBrightness adjusts the brightness of ANSI colors
func (t *Theme) SetBrightness(brightness float32) {
	t.brightness = brightness
}

// SetContrast adjusts the contrast of ANSI colors
func (t *Theme) SetContrast(contrast float32) {
	t.contrast = contrast
}

// SetFontSize changes the text size, and with it the grid size.
func (t *Theme) SetFontSize(size float32) {
	if size >= 6 {
		t.fontSize = size
	}
}

// FontSize returns the text size.
func (t *Theme) FontSize() float32 {
	return t.fontSize
}

// Size overrides the text size.
func (t *Theme) Size(n fyne.ThemeSizeName) float32 {
	if n == theme.SizeNameText {
		return t.fontSize
	}

	return t.Theme.Size(n)
}

// Font always returns the monospace font.
func (t *Theme) Font(style fyne.TextStyle) fyne.Resource {
	style.Monospace = true
	return t.Theme.Font(style)
}

// ApplyPalette copies the theme's colours into p.
func (t *Theme) ApplyPalette(p *terminal.Palette, v fyne.ThemeVariant) {
	for i, name := range ansiColorNames {
		p.SetANSI(i, t.Color(name, v))
	}
	p.Foreground = rgba(t.Color(theme.ColorNameForeground, v))
	p.Background = rgba(t.Color(theme.ColorNameBackground, v))
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}
