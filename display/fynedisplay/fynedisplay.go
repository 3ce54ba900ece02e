//go:build !windows

// Package fynedisplay renders a terminal in a Fyne window.
//
// The engine draws into a cell model guarded by a mutex, Flush hands the
// changed rows to the Fyne goroutine with fyne.Do. Input from the widget is
// queued for the engine the other way round.
package fynedisplay

import (
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	terminal "github.com/fyne-io/vtengine"
	widget2 "github.com/fyne-io/vtengine/internal/widget"
	"github.com/fyne-io/vtengine/internal/wakeq"
)

const bellDuration = 300 * time.Millisecond

// Display is a Fyne terminal view driven by the engine.
type Display struct {
	events  *wakeq.Queue[terminal.Event]
	closed  atomic.Bool
	window  fyne.Window
	title   string
	palette *terminal.Palette
	view    *termView

	mu            sync.Mutex
	grid          [][]terminal.Cell
	rows, cols    int
	dirtyRows     []bool
	cursor        terminal.Position
	cursorVisible bool
	modes         terminal.Modes
	history       *terminal.Scrollback
	selection     terminal.Selection
	syncQueued    bool
}

// New creates a display for w. Put Widget() in the window's content and
// the grid will follow the widget's size.
func New(w fyne.Window, th *Theme) (*Display, error) {
	q, err := wakeq.New[terminal.Event]()
	if err != nil {
		return nil, err
	}

	d := &Display{
		events:        q,
		window:        w,
		palette:       terminal.NewPalette(),
		history:       terminal.NewScrollback(terminal.DefaultScrollbackLines),
		cursorVisible: true,
	}
	if th != nil {
		th.ApplyPalette(d.palette, fyne.CurrentApp().Settings().ThemeVariant())
	}
	if w != nil {
		d.title = w.Title()
	}
	d.view = newTermView(d)
	return d, nil
}

// Widget returns the canvas object showing the terminal.
func (d *Display) Widget() fyne.CanvasObject {
	return d.view
}

// RequestClose makes the engine stop at its next wake up, waking it now.
func (d *Display) RequestClose() {
	d.closed.Store(true)
	d.events.Push(terminal.RedrawEvent{})
}

// Rows returns the grid height the widget last reported.
func (d *Display) Rows() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rows
}

// Columns returns the grid width the widget last reported.
func (d *Display) Columns() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cols
}

// resize is called by the widget when its grid size changes.
func (d *Display) resize(rows, cols int, px fyne.Size) {
	d.mu.Lock()
	grid := make([][]terminal.Cell, rows)
	for r := range grid {
		grid[r] = make([]terminal.Cell, cols)
		for c := range grid[r] {
			grid[r][c] = terminal.Cell{Rune: ' '}
		}
		if r < len(d.grid) {
			copy(grid[r], d.grid[r])
		}
	}
	d.grid, d.rows, d.cols = grid, rows, cols
	d.dirtyRows = make([]bool, rows)
	d.markAll()
	d.mu.Unlock()

	d.events.Push(terminal.ResizeEvent{
		Rows: rows, Columns: cols,
		PixelWidth: int(px.Width), PixelHeight: int(px.Height)})
}

func (d *Display) markAll() {
	for r := range d.dirtyRows {
		d.dirtyRows[r] = true
	}
}

// ClearScreen blanks the model.
func (d *Display) ClearScreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for r := range d.grid {
		for c := range d.grid[r] {
			d.grid[r][c] = terminal.Cell{Rune: ' '}
		}
	}
	d.markAll()
}

// DrawCells copies cells into the model.
func (d *Display) DrawCells(cells []terminal.DirtyCell) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range cells {
		if c.Pos.Row >= d.rows || c.Pos.Col >= d.cols {
			continue
		}
		d.grid[c.Pos.Row][c.Pos.Col] = c.Cell
		d.dirtyRows[c.Pos.Row] = true
	}
}

// DrawScroll moves model rows, positive amounts moving up.
func (d *Display) DrawScroll(amount, top, bottom int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if top < 0 || bottom >= d.rows || top > bottom {
		return
	}
	switch {
	case amount > 0:
		for r := top; r+amount <= bottom; r++ {
			copy(d.grid[r], d.grid[r+amount])
		}
	case amount < 0:
		for r := bottom; r+amount >= top; r-- {
			copy(d.grid[r], d.grid[r+amount])
		}
	}
	for r := top; r <= bottom; r++ {
		d.dirtyRows[r] = true
	}
}

// DrawClear fills a rectangle of the model with blanks.
func (d *Display) DrawClear(attr terminal.Attribute, row, col, width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	blank := terminal.Cell{Rune: ' ', Attr: attr}
	for r := row; r < row+height && r < d.rows; r++ {
		for c := col; c < col+width && c < d.cols; c++ {
			d.grid[r][c] = blank
		}
		d.dirtyRows[r] = true
	}
}

// DrawCursor moves the cursor at the next sync.
func (d *Display) DrawCursor(pos terminal.Position, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor, d.cursorVisible = pos, visible
}

// Flush schedules the changed rows to be shown.
func (d *Display) Flush() {
	d.mu.Lock()
	queued := d.syncQueued
	d.syncQueued = true
	d.mu.Unlock()

	if !queued {
		fyne.Do(d.sync)
	}
}

// sync copies dirty rows into the widget, on the Fyne goroutine.
func (d *Display) sync() {
	d.mu.Lock()
	d.syncQueued = false
	grid := d.view.grid
	if len(grid.Rows) != d.rows {
		rows := make([]widget.TextGridRow, d.rows)
		copy(rows, grid.Rows)
		grid.Rows = rows
		d.markAll()
	}

	reader := gridReader{d}
	for r := 0; r < d.rows; r++ {
		if !d.dirtyRows[r] && len(grid.Rows[r].Cells) == d.cols {
			continue
		}
		d.dirtyRows[r] = false

		cells := make([]widget.TextGridCell, d.cols)
		for c := range cells {
			cell := d.history.ViewCell(reader, r, c)
			cells[c] = widget.TextGridCell{
				Rune:  displayRune(cell),
				Style: d.style(cell, d.selection.Contains(terminal.Position{Row: r, Col: c})),
			}
		}
		grid.Rows[r] = widget.TextGridRow{Cells: cells}
	}

	cursor, show := d.cursor, d.cursorVisible && d.history.Offset() == 0
	d.mu.Unlock()

	grid.Refresh()
	d.view.moveCursor(cursor, show)
}

func displayRune(c terminal.Cell) rune {
	if c.Attr.Flags.Has(terminal.AttrHidden) {
		return ' '
	}
	// the right half of a wide character is covered by its left half
	if c.Rune == 0 {
		return ' '
	}
	return c.Rune
}

func (d *Display) style(c terminal.Cell, selected bool) *widget2.TermTextGridStyle {
	fg, bg := d.palette.Colors(c.Attr)
	if selected {
		fg, bg = bg, fg
	}
	s := widget2.NewTermTextGridStyle(fg, bg)
	s.Bold = c.Attr.Flags.Has(terminal.AttrBold)
	s.Italic = c.Attr.Flags.Has(terminal.AttrItalic)
	s.Underline = c.Attr.Flags.Has(terminal.AttrUnderline)
	s.Strikethrough = c.Attr.Flags.Has(terminal.AttrStrikethrough)
	s.BlinkEnabled = c.Attr.Flags.Has(terminal.AttrBlink)
	return s
}

// SetTitle shows the shell's title after the window's own.
func (d *Display) SetTitle(title string) {
	if d.window == nil {
		return
	}
	if title != "" {
		title = d.title + ": " + title
	} else {
		title = d.title
	}
	fyne.Do(func() {
		d.window.SetTitle(title)
	})
}

// Bell flashes the cursor.
func (d *Display) Bell() {
	fyne.Do(func() {
		d.view.setBell(true)
	})
	time.AfterFunc(bellDuration, func() {
		fyne.Do(func() {
			d.view.setBell(false)
		})
	})
}

// ModesChanged follows the modes the widget encodes input with.
func (d *Display) ModesChanged(m terminal.Modes) {
	d.mu.Lock()
	d.modes = m
	d.mu.Unlock()

	fyne.Do(func() {
		d.view.setCursorShape(m.CursorShape)
	})
}

func (d *Display) currentModes() terminal.Modes {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modes
}

// PushScrollback keeps a row that scrolled off the screen.
func (d *Display) PushScrollback(row []terminal.Cell) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history.Push(row)
	if d.history.Offset() > 0 {
		d.markAll()
	}
}

// ClearScrollback forgets history.
func (d *Display) ClearScrollback() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history.Clear()
	d.markAll()
}

// HandlePresentation scrolls the viewport and maintains the selection,
// copying it to the clipboard when a drag ends.
func (d *Display) HandlePresentation(ev terminal.Event) {
	var copied string
	d.mu.Lock()
	switch e := ev.(type) {
	case terminal.ScrollViewportEvent:
		d.history.Scroll(e.Delta)
	case terminal.MouseDownEvent:
		d.selection.Clear()
		if e.Button == terminal.MouseButtonPrimary {
			d.selection.Begin(e.Pos)
		}
	case terminal.MouseDragEvent:
		d.selection.Extend(e.Pos)
	case terminal.MouseUpEvent:
		d.selection.Finish()
		copied = d.selection.Text(viewReader{d})
	case terminal.DoubleClickEvent:
		if d.selection.SelectWord(viewReader{d}, e.Pos) {
			copied = d.selection.Text(viewReader{d})
		}
	default:
		d.mu.Unlock()
		return
	}
	d.markAll()
	d.mu.Unlock()

	if copied != "" {
		fyne.Do(func() {
			fyne.CurrentApp().Clipboard().SetContent(copied)
		})
	}
	d.Flush()
}

func (d *Display) selectedText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selection.Text(viewReader{d})
}

func (d *Display) pageSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rows < 2 {
		return 1
	}
	return d.rows - 1
}

func (d *Display) send(ev ...terminal.Event) {
	d.events.Push(ev...)
}

// PollEvents returns the queued widget events.
func (d *Display) PollEvents() []terminal.Event {
	return d.events.Drain()
}

// EventFd is readable while widget events are waiting.
func (d *Display) EventFd() int {
	return d.events.Fd()
}

// ShouldClose reports that the window asked the session to end.
func (d *Display) ShouldClose() bool {
	return d.closed.Load()
}

// Close stops animations and releases the event queue.
func (d *Display) Close() error {
	d.closed.Store(true)
	fyne.Do(d.view.grid.StopBlink)
	return d.events.Close()
}

// gridReader reads the live model, d.mu held.
type gridReader struct {
	d *Display
}

func (g gridReader) Rows() int    { return g.d.rows }
func (g gridReader) Columns() int { return g.d.cols }
func (g gridReader) Cell(row, col int) terminal.Cell {
	return g.d.grid[row][col]
}

// viewReader reads what the viewport shows, history included, d.mu held.
type viewReader struct {
	d *Display
}

func (v viewReader) Rows() int    { return v.d.rows }
func (v viewReader) Columns() int { return v.d.cols }
func (v viewReader) Cell(row, col int) terminal.Cell {
	return v.d.history.ViewCell(gridReader{v.d}, row, col)
}
