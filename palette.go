package terminal

import "image/color"

var colourBands = []uint8{
	0x00,
	0x5f,
	0x87,
	0xaf,
	0xd7,
	0xff,
}

var defaultANSI = [16]color.RGBA{
	{0, 0, 0, 255},       // Black
	{170, 0, 0, 255},     // Red
	{0, 170, 0, 255},     // Green
	{170, 170, 0, 255},   // Yellow
	{0, 0, 170, 255},     // Blue
	{170, 0, 170, 255},   // Magenta
	{0, 170, 170, 255},   // Cyan
	{170, 170, 170, 255}, // White
	{85, 85, 85, 255},    // Bright Black (Gray)
	{255, 85, 85, 255},   // Bright Red
	{85, 255, 85, 255},   // Bright Green
	{255, 255, 85, 255},  // Bright Yellow
	{85, 85, 255, 255},   // Bright Blue
	{255, 85, 255, 255},  // Bright Magenta
	{85, 255, 255, 255},  // Bright Cyan
	{255, 255, 255, 255}, // Bright White
}

// Palette resolves terminal colours to pixels.
// Every renderer owns its own, so sessions never share colour state.
type Palette struct {
	Foreground, Background color.RGBA

	ansi [16]color.RGBA
}

// NewPalette returns the xterm-like default palette, light text on black.
func NewPalette() *Palette {
	return &Palette{
		Foreground: defaultANSI[7],
		Background: defaultANSI[0],
		ansi:       defaultANSI,
	}
}

// SetANSI overrides one of the 16 ANSI colours, typically from a theme.
func (p *Palette) SetANSI(i int, c color.Color) {
	if i < 0 || i >= len(p.ansi) || c == nil {
		return
	}
	p.ansi[i] = color.RGBAModel.Convert(c).(color.RGBA)
}

// ANSI returns one of the 16 ANSI colours.
func (p *Palette) ANSI(i int) color.RGBA {
	if i < 0 || i >= len(p.ansi) {
		return p.Foreground
	}
	return p.ansi[i]
}

// Resolve turns c into a concrete colour, the default colour depends on
// whether it is used as foreground.
func (p *Palette) Resolve(c Color, foreground bool) color.RGBA {
	switch c.Kind {
	case ColorIndexed:
		return p.indexed(c.Index)
	case ColorRGB:
		return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	if foreground {
		return p.Foreground
	}
	return p.Background
}

// Colors resolves the pair of colours a cell is drawn with, applying
// reverse, faint and hidden renditions.
func (p *Palette) Colors(attr Attribute) (fg, bg color.RGBA) {
	fg = p.Resolve(attr.Foreground, true)
	bg = p.Resolve(attr.Background, false)
	if attr.Flags.Has(AttrReverse) {
		fg, bg = bg, fg
	}
	if attr.Flags.Has(AttrFaint) {
		fg = color.RGBA{R: fg.R / 2, G: fg.G / 2, B: fg.B / 2, A: fg.A}
	}
	if attr.Flags.Has(AttrHidden) {
		fg = bg
	}
	return fg, bg
}

func (p *Palette) indexed(id uint8) color.RGBA {
	if id < 16 {
		return p.ansi[id]
	}
	return IndexedRGBA(id)
}

// IndexedRGBA returns the fixed colour of a 256 colour palette entry from 16 up,
// the 6x6x6 cube followed by the grayscale ramp.
func IndexedRGBA(id uint8) color.RGBA {
	if id < 16 {
		return defaultANSI[id]
	}
	if id <= 231 {
		i := int(id) - 16
		b := i % 6
		i = (i - b) / 6
		g := i % 6
		r := (i - g) / 6
		return color.RGBA{colourBands[r], colourBands[g], colourBands[b], 255}
	}

	y := uint8(8 + (int(id)-232)*10)
	return color.RGBA{y, y, y, 255}
}
