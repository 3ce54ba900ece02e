//go:build !windows

package headless

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terminal "github.com/fyne-io/vtengine"
)

func newDisplay(t *testing.T, rows, cols int) *Display {
	d, err := New(rows, cols)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = d.Close()
	})
	return d
}

func column(s string) []terminal.DirtyCell {
	cells := make([]terminal.DirtyCell, 0, len(s))
	for i, r := range s {
		cells = append(cells, terminal.DirtyCell{
			Pos:  terminal.Position{Row: i},
			Cell: terminal.Cell{Rune: r},
		})
	}
	return cells
}

func TestDisplay_DrawCells(t *testing.T) {
	d := newDisplay(t, 2, 3)
	assert.Equal(t, "", d.Text())

	d.DrawCells([]terminal.DirtyCell{
		{Pos: terminal.Position{Row: 1, Col: 2}, Cell: terminal.Cell{Rune: 'x'}},
		{Pos: terminal.Position{Row: 5, Col: 0}, Cell: terminal.Cell{Rune: 'y'}},
	})
	d.Flush()

	assert.Equal(t, "\n  x", d.Text())
	assert.Equal(t, []string{"cells 2", "flush"}, d.Calls())
	assert.Empty(t, d.Calls())
	assert.Equal(t, 1, d.Frames())
}

func TestDisplay_DrawScroll(t *testing.T) {
	d := newDisplay(t, 3, 2)
	d.DrawCells(column("abc"))

	d.DrawScroll(1, 0, 2)
	assert.Equal(t, "b\nc\nc", d.Text())

	d.DrawScroll(-2, 0, 2)
	assert.Equal(t, "b\nc\nb", d.Text())

	// out of range regions only record the call
	d.DrawScroll(1, 1, 3)
	assert.Equal(t, "b\nc\nb", d.Text())
	assert.Equal(t, "scroll 1 1 3", d.Calls()[3])
}

func TestDisplay_DrawClear(t *testing.T) {
	d := newDisplay(t, 2, 4)
	d.DrawCells(column("ab"))

	blue := terminal.Attribute{Background: terminal.IndexedColor(4)}
	d.DrawClear(blue, 1, 0, 10, 5)
	assert.Equal(t, "a", d.Text())
	assert.Equal(t, blue, d.Cell(1, 3).Attr)
	assert.Equal(t, terminal.Attribute{}, d.Cell(0, 3).Attr)

	d.ClearScreen()
	assert.Equal(t, terminal.Attribute{}, d.Cell(1, 3).Attr)
	assert.Equal(t, []string{"cells 2", "fill 1 0 10 5", "clear"}, d.Calls())
}

func TestDisplay_Resize(t *testing.T) {
	d := newDisplay(t, 2, 2)
	d.DrawCells(column("ab"))

	d.Resize(3, 4)
	assert.Equal(t, 3, d.Rows())
	assert.Equal(t, 4, d.Columns())
	assert.Equal(t, "a\nb", d.Text())
	assert.Equal(t, ' ', d.Cell(2, 3).Rune)

	assert.Equal(t, []terminal.Event{terminal.ResizeEvent{Rows: 3, Columns: 4}}, d.PollEvents())
	assert.Empty(t, d.PollEvents())
}

func TestDisplay_Events(t *testing.T) {
	d := newDisplay(t, 1, 1)
	assert.GreaterOrEqual(t, d.EventFd(), 0)

	d.Send(terminal.InputEvent{Data: []byte("a")}, terminal.InputEvent{Data: []byte("b")})
	assert.Equal(t, []terminal.Event{
		terminal.InputEvent{Data: []byte("a")},
		terminal.InputEvent{Data: []byte("b")},
	}, d.PollEvents())

	assert.False(t, d.ShouldClose())
	d.RequestClose()
	assert.True(t, d.ShouldClose())
	assert.Equal(t, []terminal.Event{terminal.RedrawEvent{}}, d.PollEvents())
}

func TestDisplay_Observers(t *testing.T) {
	d := newDisplay(t, 1, 1)
	d.DrawCursor(terminal.Position{Col: 1}, false)
	d.SetTitle("t")
	d.Bell()
	d.Bell()
	d.ModesChanged(terminal.Modes{BracketedPaste: true})

	pos, visible := d.Cursor()
	assert.Equal(t, terminal.Position{Col: 1}, pos)
	assert.False(t, visible)
	assert.Equal(t, "t", d.Title())
	assert.Equal(t, 2, d.Bells())
	assert.True(t, d.Modes().BracketedPaste)
}

func TestDisplay_Presentation(t *testing.T) {
	d := newDisplay(t, 1, 9)
	cells := make([]terminal.DirtyCell, 0, 9)
	for i, r := range "one two x" {
		cells = append(cells, terminal.DirtyCell{
			Pos:  terminal.Position{Col: i},
			Cell: terminal.Cell{Rune: r},
		})
	}
	d.DrawCells(cells)

	d.HandlePresentation(terminal.DoubleClickEvent{Pos: terminal.Position{Col: 5}})
	assert.Equal(t, "two", d.SelectedText())

	d.HandlePresentation(terminal.MouseDownEvent{Pos: terminal.Position{Col: 0}})
	d.HandlePresentation(terminal.MouseDragEvent{Pos: terminal.Position{Col: 2}})
	d.HandlePresentation(terminal.MouseUpEvent{Pos: terminal.Position{Col: 2}})
	assert.Equal(t, "one", d.SelectedText())

	d.PushScrollback([]terminal.Cell{{Rune: 'h'}})
	d.PushScrollback([]terminal.Cell{{Rune: 'i'}})
	assert.Equal(t, 2, d.HistoryLen())

	d.HandlePresentation(terminal.ScrollViewportEvent{Delta: 5})
	assert.Equal(t, 2, d.ViewOffset())

	d.ClearScrollback()
	assert.Equal(t, 0, d.HistoryLen())
	assert.Equal(t, 0, d.ViewOffset())
}
