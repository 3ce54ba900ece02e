//go:build !windows

// Package headless is a display that keeps its picture in memory.
// It applies every draw call to its own cell grid, so what a real renderer
// would show can be compared against the engine's buffer.
package headless

import (
	"fmt"
	"sync"
	"sync/atomic"

	terminal "github.com/fyne-io/vtengine"
	"github.com/fyne-io/vtengine/internal/wakeq"
)

// Display mirrors draw calls into a grid of cells.
type Display struct {
	mu    sync.Mutex
	rows  int
	cols  int
	grid  [][]terminal.Cell
	calls []string

	cursor        terminal.Position
	cursorVisible bool
	title         string
	bells         int
	frames        int
	modes         terminal.Modes

	history   *terminal.Scrollback
	selection terminal.Selection

	events *wakeq.Queue[terminal.Event]
	close  atomic.Bool
}

// New creates a display of rows by cols blank cells.
func New(rows, cols int) (*Display, error) {
	q, err := wakeq.New[terminal.Event]()
	if err != nil {
		return nil, err
	}
	d := &Display{events: q, history: terminal.NewScrollback(terminal.DefaultScrollbackLines)}
	d.setSize(rows, cols)
	return d, nil
}

func (d *Display) setSize(rows, cols int) {
	grid := make([][]terminal.Cell, rows)
	for r := range grid {
		grid[r] = make([]terminal.Cell, cols)
		if r < len(d.grid) {
			copy(grid[r], d.grid[r])
		}
		for c := range grid[r] {
			if c >= d.cols || r >= d.rows {
				grid[r][c] = terminal.Cell{Rune: ' '}
			}
		}
	}
	d.grid, d.rows, d.cols = grid, rows, cols
}

func (d *Display) record(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

// ClearScreen blanks the grid.
func (d *Display) ClearScreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("clear")
	d.fill(terminal.Attribute{}, 0, 0, d.cols, d.rows)
}

// DrawCells copies cells into the grid, ignoring any out of range.
func (d *Display) DrawCells(cells []terminal.DirtyCell) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("cells %d", len(cells))
	for _, c := range cells {
		if c.Pos.Row < 0 || c.Pos.Row >= d.rows || c.Pos.Col < 0 || c.Pos.Col >= d.cols {
			continue
		}
		d.grid[c.Pos.Row][c.Pos.Col] = c.Cell
	}
}

// DrawScroll moves rows top..bottom by amount, positive moving up.
func (d *Display) DrawScroll(amount, top, bottom int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("scroll %d %d %d", amount, top, bottom)
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
}

// DrawClear fills a rectangle with blanks carrying attr.
func (d *Display) DrawClear(attr terminal.Attribute, row, col, width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("fill %d %d %d %d", row, col, width, height)
	d.fill(attr, row, col, width, height)
}

func (d *Display) fill(attr terminal.Attribute, row, col, width, height int) {
	for r := row; r < row+height && r < d.rows; r++ {
		for c := col; c < col+width && c < d.cols; c++ {
			d.grid[r][c] = terminal.Cell{Rune: ' ', Attr: attr}
		}
	}
}

// Flush counts a presented frame.
func (d *Display) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("flush")
	d.frames++
}

// DrawCursor remembers where the cursor was last drawn.
func (d *Display) DrawCursor(pos terminal.Position, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor, d.cursorVisible = pos, visible
}

// SetTitle remembers the title.
func (d *Display) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
}

// Bell counts bells.
func (d *Display) Bell() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bells++
}

// ModesChanged remembers the modes.
func (d *Display) ModesChanged(m terminal.Modes) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modes = m
}

// PushScrollback keeps a row scrolled off the top of the screen.
func (d *Display) PushScrollback(row []terminal.Cell) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history.Push(row)
}

// ClearScrollback forgets history.
func (d *Display) ClearScrollback() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history.Clear()
}

// HandlePresentation applies viewport scrolling and mouse selection.
func (d *Display) HandlePresentation(ev terminal.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch e := ev.(type) {
	case terminal.ScrollViewportEvent:
		d.history.Scroll(e.Delta)
	case terminal.MouseDownEvent:
		d.selection.Begin(e.Pos)
	case terminal.MouseDragEvent:
		d.selection.Extend(e.Pos)
	case terminal.MouseUpEvent:
		d.selection.Finish()
	case terminal.DoubleClickEvent:
		d.selection.SelectWord(gridReader{d}, e.Pos)
	}
}

// PollEvents drains the events queued by Send and Resize.
func (d *Display) PollEvents() []terminal.Event {
	return d.events.Drain()
}

// EventFd is readable while events are queued.
func (d *Display) EventFd() int {
	return d.events.Fd()
}

// ShouldClose reports whether RequestClose was called.
func (d *Display) ShouldClose() bool {
	return d.close.Load()
}

// Close releases the event queue.
func (d *Display) Close() error {
	return d.events.Close()
}

// Send queues events for the engine, as if a user had produced them.
func (d *Display) Send(events ...terminal.Event) {
	d.events.Push(events...)
}

// Resize changes the grid size and queues the matching event.
func (d *Display) Resize(rows, cols int) {
	d.mu.Lock()
	d.setSize(rows, cols)
	d.mu.Unlock()
	d.Send(terminal.ResizeEvent{Rows: rows, Columns: cols})
}

// RequestClose asks the engine to stop, waking it if it is waiting.
func (d *Display) RequestClose() {
	d.close.Store(true)
	d.Send(terminal.RedrawEvent{})
}

// Rows returns the grid height.
func (d *Display) Rows() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rows
}

// Columns returns the grid width.
func (d *Display) Columns() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cols
}

// Cell returns the cell drawn at row, col.
func (d *Display) Cell(row, col int) terminal.Cell {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.grid[row][col]
}

// Text returns the drawn picture as plain text.
func (d *Display) Text() string {
	return terminal.GridText(d)
}

// Calls returns the draw calls seen so far and forgets them.
func (d *Display) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	calls := d.calls
	d.calls = nil
	return calls
}

// Cursor returns the last cursor drawn.
func (d *Display) Cursor() (terminal.Position, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor, d.cursorVisible
}

// Title returns the last title set.
func (d *Display) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.title
}

// Bells returns how often the bell rang.
func (d *Display) Bells() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bells
}

// Frames returns how many frames were flushed.
func (d *Display) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// Modes returns the last modes reported.
func (d *Display) Modes() terminal.Modes {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modes
}

// HistoryLen returns how many rows of scrollback are kept.
func (d *Display) HistoryLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.Len()
}

// ViewOffset returns how far back in history the viewport looks.
func (d *Display) ViewOffset() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.Offset()
}

// SelectedText returns the text of the current selection.
func (d *Display) SelectedText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selection.Text(gridReader{d})
}

// gridReader reads the grid while d.mu is already held.
type gridReader struct {
	d *Display
}

func (g gridReader) Rows() int    { return g.d.rows }
func (g gridReader) Columns() int { return g.d.cols }
func (g gridReader) Cell(row, col int) terminal.Cell {
	return g.d.grid[row][col]
}
