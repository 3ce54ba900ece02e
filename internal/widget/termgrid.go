package widget

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const blinkingInterval = 500 * time.Millisecond

// TermGrid is the fyne display's cell grid: a TextGrid that also draws
// underline and strikethrough and blinks cells styled to blink.
type TermGrid struct {
	widget.TextGrid

	blinkTimer  *time.Timer
	blinkHidden bool
}

// TermGridRenderer draws the TextGrid and adds the underline and strikethrough
// lines that TextGrid cannot draw itself.
type TermGridRenderer struct {
	grid         *TermGrid
	baseRenderer fyne.WidgetRenderer
	decorations  []fyne.CanvasObject
}

// CreateRenderer wraps the TextGrid renderer with the decoration overlay.
func (t *TermGrid) CreateRenderer() fyne.WidgetRenderer {
	t.ExtendBaseWidget(t)

	return &TermGridRenderer{
		grid:         t,
		baseRenderer: t.TextGrid.CreateRenderer(),
	}
}

// Layout implements the WidgetRenderer interface
func (r *TermGridRenderer) Layout(size fyne.Size) {
	r.baseRenderer.Layout(size)
	r.updateDecorations(size)
}

// MinSize implements the WidgetRenderer interface
func (r *TermGridRenderer) MinSize() fyne.Size {
	return r.baseRenderer.MinSize()
}

// Refresh implements the WidgetRenderer interface
func (r *TermGridRenderer) Refresh() {
	r.baseRenderer.Refresh()
	r.updateDecorations(r.grid.Size())
}

// Objects implements the WidgetRenderer interface
func (r *TermGridRenderer) Objects() []fyne.CanvasObject {
	return append(r.baseRenderer.Objects(), r.decorations...)
}

// Destroy implements the WidgetRenderer interface
func (r *TermGridRenderer) Destroy() {
	r.baseRenderer.Destroy()
	r.decorations = nil
}

func (r *TermGridRenderer) updateDecorations(size fyne.Size) {
	r.decorations = r.decorations[:0]

	rows := len(r.grid.Rows)
	if rows == 0 || len(r.grid.Rows[0].Cells) == 0 {
		return
	}
	cellWidth := size.Width / float32(len(r.grid.Rows[0].Cells))
	cellHeight := size.Height / float32(rows)
	thickness := cellHeight * 0.08
	if thickness < 1 {
		thickness = 1
	}

	for row, gridRow := range r.grid.Rows {
		y := float32(row) * cellHeight
		for col, c := range gridRow.Cells {
			s, ok := c.Style.(*TermTextGridStyle)
			if !ok || s == nil || !s.decorated() || (s.BlinkEnabled && r.grid.blinkHidden) {
				continue
			}

			x := float32(col) * cellWidth
			if s.Underline {
				r.decorations = append(r.decorations,
					line(s.FG, x, y+cellHeight*0.90, cellWidth, thickness))
			}
			if s.Strikethrough {
				r.decorations = append(r.decorations,
					line(s.FG, x, y+cellHeight*0.5, cellWidth, thickness))
			}
		}
	}
}

func line(c color.Color, x, y, w, h float32) fyne.CanvasObject {
	l := canvas.NewRectangle(c)
	l.Move(fyne.NewPos(x, y))
	l.Resize(fyne.NewSize(w, h))
	return l
}

// NewTermGrid creates an empty grid that never scrolls itself.
func NewTermGrid() *TermGrid {
	grid := &TermGrid{}
	grid.ExtendBaseWidget(grid)

	grid.Scroll = container.ScrollNone
	return grid
}

// Refresh applies the current blink phase to every blinking cell and redraws.
// It starts the blink timer when a blinking cell appears and stops it when
// the last one goes. It must be called on the fyne goroutine.
func (t *TermGrid) Refresh() {
	if t.Rows == nil {
		return
	}
	t.setBlinkPhase(t.blinkHidden)
}

func (t *TermGrid) setBlinkPhase(hidden bool) {
	t.blinkHidden = hidden
	blinking := 0
	for _, row := range t.Rows {
		for _, c := range row.Cells {
			if s, ok := c.Style.(*TermTextGridStyle); ok && s != nil && s.BlinkEnabled {
				s.blink(hidden)
				blinking++
			}
		}
	}
	t.TextGrid.Refresh()

	if blinking == 0 {
		t.StopBlink()
		return
	}
	if t.blinkTimer == nil {
		t.scheduleBlink()
	}
}

func (t *TermGrid) scheduleBlink() {
	var timer *time.Timer
	timer = time.AfterFunc(blinkingInterval, func() {
		fyne.Do(func() {
			// a stopped or replaced timer may still fire once
			if t.blinkTimer != timer {
				return
			}
			t.blinkTimer = nil
			t.setBlinkPhase(!t.blinkHidden)
		})
	})
	t.blinkTimer = timer
}

// StopBlink cancels the blink timer and shows blinking cells again.
// It must be called on the fyne goroutine.
func (t *TermGrid) StopBlink() {
	if t.blinkTimer != nil {
		t.blinkTimer.Stop()
		t.blinkTimer = nil
	}
	t.blinkHidden = false
}
