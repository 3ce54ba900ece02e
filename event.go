package terminal

// Event is something a renderer reports to the engine.
// The set of events is closed, only the types in this file implement it.
type Event interface {
	isEvent()
}

// RedrawEvent asks for the whole visible area to be painted again,
// for example after the window was exposed.
type RedrawEvent struct{}

// ResizeEvent reports a new grid geometry.
type ResizeEvent struct {
	Rows, Columns           int
	PixelWidth, PixelHeight int
}

// InputEvent carries bytes to forward to the shell, already encoded.
type InputEvent struct {
	Data []byte
}

// ScrollViewportEvent moves the renderer's view into its scrollback.
// Positive Delta scrolls back in history. The shell never sees it.
type ScrollViewportEvent struct {
	Delta int
}

// MouseDownEvent is a button press over a grid cell.
type MouseDownEvent struct {
	Pos       Position
	Button    MouseButton
	Modifiers KeyModifier
}

// MouseUpEvent is a button release over a grid cell.
type MouseUpEvent struct {
	Pos       Position
	Button    MouseButton
	Modifiers KeyModifier
}

// DoubleClickEvent is a double click over a grid cell.
type DoubleClickEvent struct {
	Pos Position
}

// MouseDragEvent is pointer motion with a button held.
type MouseDragEvent struct {
	Pos       Position
	Button    MouseButton
	Modifiers KeyModifier
}

func (RedrawEvent) isEvent()         {}
func (ResizeEvent) isEvent()         {}
func (InputEvent) isEvent()          {}
func (ScrollViewportEvent) isEvent() {}
func (MouseDownEvent) isEvent()      {}
func (MouseUpEvent) isEvent()        {}
func (DoubleClickEvent) isEvent()    {}
func (MouseDragEvent) isEvent()      {}
