package widget

import (
	"image/color"

	"fyne.io/fyne/v2"
)

// TermTextGridStyle is the style of one terminal cell on a TermGrid.
// TextGrid itself only knows colours, decorations are drawn by TermGrid.
type TermTextGridStyle struct {
	FG, BG        color.Color
	Bold, Italic  bool
	Underline     bool
	Strikethrough bool
	BlinkEnabled  bool

	blinkHidden bool
}

// NewTermTextGridStyle creates a style for cells drawn with fg on bg.
func NewTermTextGridStyle(fg, bg color.Color) *TermTextGridStyle {
	return &TermTextGridStyle{FG: fg, BG: bg}
}

// Style is the text style, always monospace.
func (s *TermTextGridStyle) Style() fyne.TextStyle {
	return fyne.TextStyle{Monospace: true, Bold: s.Bold, Italic: s.Italic}
}

// TextColor is the foreground, or the background while blinked off.
func (s *TermTextGridStyle) TextColor() color.Color {
	if s.blinkHidden {
		return s.BG
	}
	return s.FG
}

// BackgroundColor is the cell background.
func (s *TermTextGridStyle) BackgroundColor() color.Color {
	return s.BG
}

func (s *TermTextGridStyle) blink(hidden bool) {
	if s.BlinkEnabled {
		s.blinkHidden = hidden
	}
}

// decorated returns true if the style needs lines drawn over the text.
func (s *TermTextGridStyle) decorated() bool {
	return s.Underline || s.Strikethrough
}
