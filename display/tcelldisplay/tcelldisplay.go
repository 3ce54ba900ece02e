//go:build !windows

// Package tcelldisplay renders a terminal inside the terminal it runs in,
// using tcell for output and input.
package tcelldisplay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	terminal "github.com/fyne-io/vtengine"
	"github.com/fyne-io/vtengine/internal/wakeq"
)

const (
	doubleClickInterval = 400 * time.Millisecond
	wheelLines          = 3
)

// Display draws to a tcell screen. The engine calls the draw methods from
// its goroutine while a pump goroutine translates tcell events.
type Display struct {
	screen tcell.Screen
	events *wakeq.Queue[terminal.Event]
	done   chan struct{}
	closed atomic.Bool

	mu            sync.Mutex
	grid          [][]terminal.Cell
	rows, cols    int
	cursor        terminal.Position
	cursorVisible bool
	modes         terminal.Modes
	history       *terminal.Scrollback
	selection     terminal.Selection

	// pump goroutine only
	buttons   tcell.ButtonMask
	lastPos   terminal.Position
	lastPress time.Time
}

// New takes over screen, or the controlling terminal if screen is nil.
// A ResizeEvent with the screen size is queued straight away.
func New(screen tcell.Screen) (*Display, error) {
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return nil, err
		}
		screen = s
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()
	screen.EnablePaste()

	q, err := wakeq.New[terminal.Event]()
	if err != nil {
		screen.Fini()
		return nil, err
	}

	d := &Display{
		screen:  screen,
		events:  q,
		done:    make(chan struct{}),
		history: terminal.NewScrollback(terminal.DefaultScrollbackLines),
	}
	cols, rows := screen.Size()
	d.resizeGrid(rows, cols)
	q.Push(terminal.ResizeEvent{Rows: rows, Columns: cols})

	go d.pump()
	return d, nil
}

func (d *Display) pump() {
	defer close(d.done)
	for {
		ev := d.screen.PollEvent()
		if ev == nil {
			d.closed.Store(true)
			d.events.Push(terminal.RedrawEvent{})
			return
		}
		d.translate(ev)
	}
}

func (d *Display) translate(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventResize:
		cols, rows := e.Size()
		d.mu.Lock()
		d.resizeGrid(rows, cols)
		d.mu.Unlock()
		d.events.Push(terminal.ResizeEvent{Rows: rows, Columns: cols})
	case *tcell.EventKey:
		d.key(e)
	case *tcell.EventPaste:
		if !d.currentModes().BracketedPaste {
			return
		}
		if e.Start() {
			d.events.Push(terminal.InputEvent{Data: []byte("\x1b[200~")})
		} else if e.End() {
			d.events.Push(terminal.InputEvent{Data: []byte("\x1b[201~")})
		}
	case *tcell.EventMouse:
		d.mouse(e)
	}
}

func (d *Display) currentModes() terminal.Modes {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modes
}

func (d *Display) key(e *tcell.EventKey) {
	if e.Modifiers()&tcell.ModShift != 0 {
		switch e.Key() {
		case tcell.KeyPgUp:
			d.events.Push(terminal.ScrollViewportEvent{Delta: d.pageSize()})
			return
		case tcell.KeyPgDn:
			d.events.Push(terminal.ScrollViewportEvent{Delta: -d.pageSize()})
			return
		}
	}

	if data := encodeKey(e, d.currentModes()); data != nil {
		d.events.Push(terminal.InputEvent{Data: data})
	}
}

func (d *Display) pageSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rows < 2 {
		return 1
	}
	return d.rows - 1
}

func modifiers(m tcell.ModMask) terminal.KeyModifier {
	var mods terminal.KeyModifier
	if m&tcell.ModShift != 0 {
		mods |= terminal.ModifierShift
	}
	if m&tcell.ModAlt != 0 {
		mods |= terminal.ModifierAlt
	}
	if m&tcell.ModCtrl != 0 {
		mods |= terminal.ModifierControl
	}
	return mods
}

func button(b tcell.ButtonMask) terminal.MouseButton {
	switch {
	case b&tcell.ButtonMiddle != 0:
		return terminal.MouseButtonTertiary
	case b&tcell.ButtonSecondary != 0:
		return terminal.MouseButtonSecondary
	}
	return terminal.MouseButtonPrimary
}

func (d *Display) mouse(e *tcell.EventMouse) {
	x, y := e.Position()
	pos := terminal.Position{Row: y, Col: x}
	mods := modifiers(e.Modifiers())
	pressed := e.Buttons() & (tcell.ButtonPrimary | tcell.ButtonSecondary | tcell.ButtonMiddle)

	switch {
	case e.Buttons()&tcell.WheelUp != 0:
		d.events.Push(terminal.ScrollViewportEvent{Delta: wheelLines})
	case e.Buttons()&tcell.WheelDown != 0:
		d.events.Push(terminal.ScrollViewportEvent{Delta: -wheelLines})
	case pressed != 0 && d.buttons == 0:
		d.events.Push(terminal.MouseDownEvent{Pos: pos, Button: button(pressed), Modifiers: mods})
		if time.Since(d.lastPress) < doubleClickInterval && pos == d.lastPos {
			d.events.Push(terminal.DoubleClickEvent{Pos: pos})
		}
		d.lastPress = time.Now()
	case pressed != 0 && pos != d.lastPos:
		d.events.Push(terminal.MouseDragEvent{Pos: pos, Button: button(pressed), Modifiers: mods})
	case pressed == 0 && d.buttons != 0:
		d.events.Push(terminal.MouseUpEvent{Pos: pos, Button: button(d.buttons), Modifiers: mods})
	}
	d.buttons = pressed
	d.lastPos = pos
}

func (d *Display) resizeGrid(rows, cols int) {
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
}

func tcellColor(c terminal.Color) tcell.Color {
	switch c.Kind {
	case terminal.ColorIndexed:
		return tcell.PaletteColor(int(c.Index))
	case terminal.ColorRGB:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}
	return tcell.ColorDefault
}

func style(a terminal.Attribute) tcell.Style {
	return tcell.StyleDefault.
		Foreground(tcellColor(a.Foreground)).
		Background(tcellColor(a.Background)).
		Bold(a.Flags.Has(terminal.AttrBold)).
		Dim(a.Flags.Has(terminal.AttrFaint)).
		Italic(a.Flags.Has(terminal.AttrItalic)).
		Underline(a.Flags.Has(terminal.AttrUnderline)).
		Blink(a.Flags.Has(terminal.AttrBlink)).
		Reverse(a.Flags.Has(terminal.AttrReverse)).
		StrikeThrough(a.Flags.Has(terminal.AttrStrikethrough))
}

// paint puts one cell of the viewport on screen, d.mu held.
func (d *Display) paint(row, col int) {
	c := d.history.ViewCell(gridReader{d}, row, col)
	if c.Rune == 0 {
		return
	}
	st := style(c.Attr)
	if d.selection.Contains(terminal.Position{Row: row, Col: col}) {
		st = st.Reverse(!c.Attr.Flags.Has(terminal.AttrReverse))
	}
	r := c.Rune
	if c.Attr.Flags.Has(terminal.AttrHidden) {
		r = ' '
	}
	d.screen.SetContent(col, row, r, nil, st)
}

func (d *Display) paintAll() {
	for r := 0; r < d.rows; r++ {
		for c := 0; c < d.cols; c++ {
			d.paint(r, c)
		}
	}
}

func (d *Display) live() bool {
	return d.history.Offset() == 0
}

// ClearScreen blanks the screen.
func (d *Display) ClearScreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for r := range d.grid {
		for c := range d.grid[r] {
			d.grid[r][c] = terminal.Cell{Rune: ' '}
		}
	}
	d.screen.Clear()
}

// DrawCells copies cells into the grid and onto the screen.
func (d *Display) DrawCells(cells []terminal.DirtyCell) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range cells {
		if c.Pos.Row >= d.rows || c.Pos.Col >= d.cols {
			continue
		}
		d.grid[c.Pos.Row][c.Pos.Col] = c.Cell
		if d.live() {
			d.paint(c.Pos.Row, c.Pos.Col)
		}
	}
}

// DrawScroll moves grid rows. tcell has no scroll primitive, so moved rows are repainted.
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
	if !d.live() {
		return
	}
	for r := top; r <= bottom; r++ {
		for c := 0; c < d.cols; c++ {
			d.paint(r, c)
		}
	}
}

// DrawClear fills a rectangle with blanks.
func (d *Display) DrawClear(attr terminal.Attribute, row, col, width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	blank := terminal.Cell{Rune: ' ', Attr: attr}
	for r := row; r < row+height && r < d.rows; r++ {
		for c := col; c < col+width && c < d.cols; c++ {
			d.grid[r][c] = blank
			if d.live() {
				d.paint(r, c)
			}
		}
	}
}

// DrawCursor places the host terminal's cursor.
func (d *Display) DrawCursor(pos terminal.Position, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor, d.cursorVisible = pos, visible
	d.showCursor()
}

func (d *Display) showCursor() {
	if d.cursorVisible && d.live() {
		d.screen.ShowCursor(d.cursor.Col, d.cursor.Row)
		return
	}
	d.screen.HideCursor()
}

// Flush shows the frame.
func (d *Display) Flush() {
	d.screen.Show()
}

// SetTitle sets the host terminal's title.
func (d *Display) SetTitle(title string) {
	d.screen.SetTitle(title)
}

// Bell rings the host terminal's bell.
func (d *Display) Bell() {
	_ = d.screen.Beep()
}

// ModesChanged follows the shell's cursor shape and key modes.
func (d *Display) ModesChanged(m terminal.Modes) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modes = m
	d.screen.SetCursorStyle(cursorStyle(m))
}

func cursorStyle(m terminal.Modes) tcell.CursorStyle {
	switch m.CursorShape {
	case terminal.CursorUnderline:
		if m.CursorBlink {
			return tcell.CursorStyleBlinkingUnderline
		}
		return tcell.CursorStyleSteadyUnderline
	case terminal.CursorBar:
		if m.CursorBlink {
			return tcell.CursorStyleBlinkingBar
		}
		return tcell.CursorStyleSteadyBar
	}
	if m.CursorBlink {
		return tcell.CursorStyleBlinkingBlock
	}
	return tcell.CursorStyleSteadyBlock
}

// PushScrollback keeps a row that scrolled off the screen.
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

// HandlePresentation scrolls the viewport and tracks the selection.
func (d *Display) HandlePresentation(ev terminal.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch e := ev.(type) {
	case terminal.ScrollViewportEvent:
		d.history.Scroll(e.Delta)
	case terminal.MouseDownEvent:
		d.selection.Clear()
		d.selection.Begin(e.Pos)
	case terminal.MouseDragEvent:
		d.selection.Extend(e.Pos)
	case terminal.MouseUpEvent:
		d.selection.Finish()
	case terminal.DoubleClickEvent:
		d.selection.SelectWord(gridReader{d}, e.Pos)
	default:
		return
	}
	d.paintAll()
	d.showCursor()
	d.screen.Show()
}

// PollEvents returns the translated events.
func (d *Display) PollEvents() []terminal.Event {
	return d.events.Drain()
}

// EventFd is readable while translated events are waiting.
func (d *Display) EventFd() int {
	return d.events.Fd()
}

// ShouldClose reports that the screen went away.
func (d *Display) ShouldClose() bool {
	return d.closed.Load()
}

// Close gives the terminal back to the shell we were started from.
func (d *Display) Close() error {
	d.closed.Store(true)
	d.screen.Fini()
	<-d.done
	return d.events.Close()
}

type gridReader struct {
	d *Display
}

func (g gridReader) Rows() int    { return g.d.rows }
func (g gridReader) Columns() int { return g.d.cols }
func (g gridReader) Cell(row, col int) terminal.Cell {
	return g.d.grid[row][col]
}
