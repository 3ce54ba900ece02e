//go:build !windows

package fynedisplay

import (
	"math"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	terminal "github.com/fyne-io/vtengine"
	widget2 "github.com/fyne-io/vtengine/internal/widget"
)

const (
	cursorWidthCaret      = 2
	cursorHeightUnderline = 2
)

// termView is the widget the user types into. It turns Fyne input into
// engine events and shows the grid and cursor.
type termView struct {
	widget.BaseWidget
	d *Display

	grid   *widget2.TermGrid
	cursor *canvas.Rectangle

	focused     bool
	bell        bool
	cursorShape terminal.CursorShape
	cursorPos   terminal.Position
	showCursor  bool
	dragButton  terminal.MouseButton
	lastDrag    terminal.Position
}

var (
	_ fyne.Focusable      = (*termView)(nil)
	_ fyne.Shortcutable   = (*termView)(nil)
	_ fyne.Draggable      = (*termView)(nil)
	_ fyne.Scrollable     = (*termView)(nil)
	_ fyne.DoubleTappable = (*termView)(nil)
	_ desktop.Mouseable   = (*termView)(nil)
	_ desktop.Cursorable  = (*termView)(nil)
)

func newTermView(d *Display) *termView {
	v := &termView{
		d:      d,
		grid:   widget2.NewTermGrid(),
		cursor: canvas.NewRectangle(theme.Color(theme.ColorNamePrimary)),
	}
	v.cursor.Hidden = true
	v.lastDrag = terminal.Position{Row: -1, Col: -1}
	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer is a private method to Fyne which links this widget to its renderer
func (v *termView) CreateRenderer() fyne.WidgetRenderer {
	return &viewRenderer{v: v}
}

func cellSize() fyne.Size {
	size := fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})
	return fyne.NewSize(float32(math.Round(float64(size.Width))), float32(math.Round(float64(size.Height))))
}

// MinSize provides a size large enough that a terminal could technically function.
func (v *termView) MinSize() fyne.Size {
	s := cellSize()
	return fyne.NewSize(s.Width*2.5, s.Height*1.2)
}

// Resize works out the grid that fits s and tells the engine if it changed.
func (v *termView) Resize(s fyne.Size) {
	v.BaseWidget.Resize(s)
	v.fit(s)
}

// fit sizes the grid to s with the current text size.
func (v *termView) fit(s fyne.Size) {
	if s.Width <= 0 || s.Height <= 0 {
		return
	}
	cell := cellSize()
	cols := int(math.Floor(float64(s.Width / cell.Width)))
	rows := int(math.Floor(float64(s.Height / cell.Height)))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	v.grid.Resize(fyne.NewSize(float32(cols)*cell.Width, float32(rows)*cell.Height))

	if rows != v.d.Rows() || cols != v.d.Columns() {
		v.d.resize(rows, cols, s)
	}
}

func (v *termView) position(p fyne.Position) terminal.Position {
	cell := cellSize()
	col := int(p.X / cell.Width)
	row := int(p.Y / cell.Height)
	return terminal.Position{
		Row: clamp(row, 0, v.d.Rows()-1),
		Col: clamp(col, 0, v.d.Columns()-1),
	}
}

func clamp(n, lo, hi int) int {
	if n > hi {
		n = hi
	}
	if n < lo {
		n = lo
	}
	return n
}

// Cursor is the mouse cursor shown over the terminal.
func (v *termView) Cursor() desktop.Cursor {
	return desktop.TextCursor
}

// FocusGained shows the cursor.
func (v *termView) FocusGained() {
	v.focused = true
	v.refreshCursor()
}

// FocusLost hides the cursor.
func (v *termView) FocusLost() {
	v.focused = false
	v.refreshCursor()
}

// TypedRune sends printable input.
func (v *termView) TypedRune(r rune) {
	buf := make([]byte, utf8.UTFMax)
	n := utf8.EncodeRune(buf, r)
	v.d.send(terminal.InputEvent{Data: buf[:n]})
}

// TypedKey sends keys that are not runes.
func (v *termView) TypedKey(ev *fyne.KeyEvent) {
	if data := encodeKey(ev.Name, 0, v.d.currentModes()); data != nil {
		v.d.send(terminal.InputEvent{Data: data})
	}
}

// TypedShortcut handles copy, paste and viewport scrolling, and sends
// every other key combination to the shell.
func (v *termView) TypedShortcut(s fyne.Shortcut) {
	ks, ok := s.(fyne.KeyboardShortcut)
	if !ok {
		return
	}
	key, mod := ks.Key(), ks.Mod()

	switch {
	case key == fyne.KeyV && mod == fyne.KeyModifierShift|fyne.KeyModifierShortcutDefault,
		key == fyne.KeyInsert && mod == fyne.KeyModifierShift:
		v.paste()
		return
	case key == fyne.KeyC && mod == fyne.KeyModifierShift|fyne.KeyModifierShortcutDefault:
		v.copySelection()
		return
	case key == fyne.KeyPageUp && mod == fyne.KeyModifierShift:
		v.d.send(terminal.ScrollViewportEvent{Delta: v.d.pageSize()})
		return
	case key == fyne.KeyPageDown && mod == fyne.KeyModifierShift:
		v.d.send(terminal.ScrollViewportEvent{Delta: -v.d.pageSize()})
		return
	}
	if _, isCopy := s.(*fyne.ShortcutCopy); isCopy && v.d.selectedText() != "" {
		v.copySelection()
		return
	}

	if data := encodeKey(key, mod, v.d.currentModes()); data != nil {
		v.d.send(terminal.InputEvent{Data: data})
	}
}

func (v *termView) copySelection() {
	if text := v.d.selectedText(); text != "" {
		fyne.CurrentApp().Clipboard().SetContent(text)
	}
}

func (v *termView) paste() {
	text := fyne.CurrentApp().Clipboard().Content()
	if text == "" {
		return
	}
	v.d.send(terminal.InputEvent{Data: pasteData(text, v.d.currentModes())})
}

func mouseButton(b desktop.MouseButton) terminal.MouseButton {
	switch b {
	case desktop.MouseButtonSecondary:
		return terminal.MouseButtonSecondary
	case desktop.MouseButtonTertiary:
		return terminal.MouseButtonTertiary
	}
	return terminal.MouseButtonPrimary
}

func keyModifiers(m fyne.KeyModifier) terminal.KeyModifier {
	var mods terminal.KeyModifier
	if m&fyne.KeyModifierShift != 0 {
		mods |= terminal.ModifierShift
	}
	if m&fyne.KeyModifierAlt != 0 {
		mods |= terminal.ModifierAlt
	}
	if m&fyne.KeyModifierControl != 0 {
		mods |= terminal.ModifierControl
	}
	return mods
}

// MouseDown handles the down action for desktop mouse events.
func (v *termView) MouseDown(ev *desktop.MouseEvent) {
	if c := fyne.CurrentApp().Driver().CanvasForObject(v); c != nil {
		c.Focus(v)
	}
	v.dragButton = mouseButton(ev.Button)
	v.d.send(terminal.MouseDownEvent{
		Pos:       v.position(ev.Position),
		Button:    v.dragButton,
		Modifiers: keyModifiers(ev.Modifier)})
}

// MouseUp handles the up action for desktop mouse events.
func (v *termView) MouseUp(ev *desktop.MouseEvent) {
	v.d.send(terminal.MouseUpEvent{
		Pos:       v.position(ev.Position),
		Button:    mouseButton(ev.Button),
		Modifiers: keyModifiers(ev.Modifier)})
}

// Dragged is called by fyne when the mouse moves with a button held.
func (v *termView) Dragged(ev *fyne.DragEvent) {
	pos := v.position(ev.Position)
	if pos == v.lastDrag {
		return
	}
	v.lastDrag = pos
	v.d.send(terminal.MouseDragEvent{Pos: pos, Button: v.dragButton})
}

// DragEnd is called by fyne when the button is released after dragging.
// The release itself arrives through MouseUp.
func (v *termView) DragEnd() {
	v.lastDrag = terminal.Position{Row: -1, Col: -1}
}

// DoubleTapped selects the word under the pointer.
func (v *termView) DoubleTapped(ev *fyne.PointEvent) {
	v.d.send(terminal.DoubleClickEvent{Pos: v.position(ev.Position)})
}

// Scrolled moves the viewport through history.
func (v *termView) Scrolled(ev *fyne.ScrollEvent) {
	cell := cellSize()
	lines := int(ev.Scrolled.DY / cell.Height)
	if lines == 0 {
		if ev.Scrolled.DY > 0 {
			lines = 1
		} else if ev.Scrolled.DY < 0 {
			lines = -1
		}
	}
	if lines != 0 {
		v.d.send(terminal.ScrollViewportEvent{Delta: lines})
	}
}

func (v *termView) moveCursor(pos terminal.Position, show bool) {
	v.cursorPos, v.showCursor = pos, show
	v.refreshCursor()
}

func (v *termView) setBell(on bool) {
	v.bell = on
	v.refreshCursor()
}

func (v *termView) setCursorShape(s terminal.CursorShape) {
	v.cursorShape = s
	v.refreshCursor()
}

func (v *termView) refreshCursor() {
	cell := cellSize()
	v.cursor.Hidden = !v.focused || !v.showCursor
	if v.bell {
		v.cursor.Hidden = false
		v.cursor.FillColor = theme.Color(theme.ColorNameError)
	} else {
		v.cursor.FillColor = theme.Color(theme.ColorNamePrimary)
	}

	x := cell.Width * float32(v.cursorPos.Col)
	y := cell.Height * float32(v.cursorPos.Row)
	size := cell
	switch v.cursorShape {
	case terminal.CursorBar:
		size.Width = cursorWidthCaret
	case terminal.CursorUnderline:
		size.Height = cursorHeightUnderline
		y += cell.Height - cursorHeightUnderline
	}
	v.cursor.Move(fyne.NewPos(x, y))
	v.cursor.Resize(size)
	v.cursor.Refresh()
}

type viewRenderer struct {
	v *termView
}

func (r *viewRenderer) Layout(s fyne.Size) {
	r.v.refreshCursor()
}

func (r *viewRenderer) MinSize() fyne.Size {
	return r.v.MinSize()
}

func (r *viewRenderer) Refresh() {
	r.v.fit(r.v.Size())
	r.v.grid.Refresh()
	r.v.refreshCursor()
}

func (r *viewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.v.grid, r.v.cursor}
}

func (r *viewRenderer) Destroy() {
	r.v.grid.StopBlink()
}
