package terminal

import "fmt"

// ColorKind says how a Color should be interpreted.
type ColorKind uint8

const (
	// ColorDefault means use the renderer's default foreground or background.
	ColorDefault ColorKind = iota
	// ColorIndexed is a palette entry 0-255 (0-15 are the ANSI colours).
	ColorIndexed
	// ColorRGB is a 24-bit colour.
	ColorRGB
)

// Color is a terminal colour as the shell requested it.
// Renderers resolve it to pixels, see Palette.
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// DefaultColor is the zero Color, meaning "renderer default".
var DefaultColor = Color{}

// IndexedColor returns the palette colour with the given index.
func IndexedColor(i uint8) Color {
	return Color{Kind: ColorIndexed, Index: i}
}

// RGBColor returns a 24-bit colour.
func RGBColor(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// IsDefault returns true if the colour defers to the renderer default.
func (c Color) IsDefault() bool {
	return c.Kind == ColorDefault
}

func (c Color) String() string {
	switch c.Kind {
	case ColorIndexed:
		return fmt.Sprintf("idx(%d)", c.Index)
	case ColorRGB:
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return "default"
}

// AttrFlags are the boolean SGR renditions.
type AttrFlags uint16

const (
	AttrBold AttrFlags = 1 << iota
	AttrFaint
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrHidden
	AttrStrikethrough
)

// Has returns true if all of the given flags are set.
func (f AttrFlags) Has(flag AttrFlags) bool {
	return f&flag == flag
}

// Attribute is the rendition applied to a cell.
type Attribute struct {
	Foreground Color
	Background Color
	Flags      AttrFlags
}

// Cell is one character position of the grid.
// Rune 0 marks the right half of a wide character.
type Cell struct {
	Rune rune
	Attr Attribute
}

// blankCell is what erased and scrolled-in cells contain.
var blankCell = Cell{Rune: ' '}

// blankWith returns a blank cell keeping only the background of attr,
// matching xterm's background colour erase.
func blankWith(attr Attribute) Cell {
	return Cell{Rune: ' ', Attr: Attribute{Background: attr.Background}}
}

// IsBlank returns true for a space with no visible rendition other than background.
func (c Cell) IsBlank() bool {
	return (c.Rune == ' ' || c.Rune == 0) && c.Attr.Foreground.IsDefault() &&
		c.Attr.Flags&(AttrReverse|AttrUnderline|AttrStrikethrough) == 0
}

// Position is a zero based grid coordinate.
type Position struct {
	Row, Col int
}

func (p Position) String() string {
	return fmt.Sprintf("row: %d, col: %d", p.Row, p.Col)
}

// DirtyCell is a copy of a changed cell and where it lives.
type DirtyCell struct {
	Cell
	Pos Position
}

// ScrollHint describes a region scroll that a renderer may apply as a blit.
// Positive Amount moves content up.
type ScrollHint struct {
	Amount      int
	Top, Bottom int
}
