package terminal

// Display is implemented by every renderer the engine can drive.
//
// The engine pushes draw commands to it from a single goroutine and only
// ever passes copies of buffer cells. A renderer that runs its own event
// pump must queue what it sees and make EventFd readable until PollEvents
// has drained the queue.
type Display interface {
	// ClearScreen blanks the whole presentation with default colours.
	ClearScreen()
	// DrawCells paints each cell at its position.
	DrawCells(cells []DirtyCell)
	// DrawScroll moves rows top..bottom by amount, positive moving content up.
	// Rows uncovered by the move are repainted by following draw calls.
	DrawScroll(amount, top, bottom int)
	// DrawClear fills a rectangle with blanks in attr's background.
	DrawClear(attr Attribute, row, col, width, height int)
	// Flush presents the frame.
	Flush()

	// PollEvents returns the events queued since the last call, in order.
	PollEvents() []Event
	// EventFd is a descriptor that polls readable while events are queued.
	EventFd() int
	// ShouldClose reports that the user asked for the session to end.
	ShouldClose() bool
}

// CursorDrawer is implemented by displays that draw a cursor.
// DrawCursor is called once per render pass, before Flush.
type CursorDrawer interface {
	DrawCursor(pos Position, visible bool)
}

// TitleSetter is implemented by displays that can show a title.
type TitleSetter interface {
	SetTitle(title string)
}

// Beeper is implemented by displays that can ring the bell.
type Beeper interface {
	Bell()
}

// ModeObserver is implemented by displays that encode keyboard or mouse
// input and need to follow the modes the shell sets.
type ModeObserver interface {
	ModesChanged(m Modes)
}

// ScrollbackReceiver is implemented by displays that keep history.
// PushScrollback receives each row scrolling off the top of the main screen.
type ScrollbackReceiver interface {
	PushScrollback(row []Cell)
	ClearScrollback()
}

// PresentationHandler is implemented by displays that handle viewport
// scrolling and mouse selection. Displays without it emit only the
// redraw, resize and input events.
type PresentationHandler interface {
	HandlePresentation(ev Event)
}
