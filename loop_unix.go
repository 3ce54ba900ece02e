//go:build !windows

package terminal

import (
	"errors"
	"io"
	"log"

	"golang.org/x/sys/unix"
)

// RunLocalShell starts the shell in a new pseudo-terminal and runs until it
// exits or the display asks to close. The display is closed even when the
// shell cannot be started.
func (t *Terminal) RunLocalShell() error {
	s, err := OpenSession(SessionConfig{
		Shell:   t.shell,
		Args:    t.shellArgs,
		Dir:     t.startingDir(),
		Rows:    uint16(t.buffer.Rows()),
		Columns: uint16(t.buffer.Columns()),
	})
	if err != nil {
		t.closeDisplay()
		return err
	}
	return t.RunWithSession(s)
}

// RunWithSession runs the event loop on an already started shell.
// The session is closed when the loop ends, before the display is closed.
// A shell that exits is a clean end and returns nil.
func (t *Terminal) RunWithSession(p PTY) error {
	t.ptyLock.Lock()
	t.pty = p
	t.ptyLock.Unlock()
	defer t.teardown()

	return t.run()
}

func (t *Terminal) teardown() {
	t.ptyLock.Lock()
	p := t.pty
	t.pty = nil
	t.ptyLock.Unlock()

	if err := p.Close(); err != nil && t.debug {
		log.Println("Failed to close PTY:", err)
	}
	t.closeDisplay()
}

func (t *Terminal) closeDisplay() {
	if c, ok := t.display.(io.Closer); ok {
		if err := c.Close(); err != nil && t.debug {
			log.Println("Failed to close display:", err)
		}
	}
}

func (t *Terminal) run() error {
	fds := []unix.PollFd{
		pollFd(t.pty.Fd()),
		pollFd(t.display.EventFd()),
	}
	buf := make([]byte, bufLen)

	t.redraw()
	for !t.display.ShouldClose() {
		if err := waitReadable(fds); err != nil {
			return &IoError{Op: "poll", Err: err}
		}

		if ready(fds[0]) {
			n, err := t.pty.Read(buf)
			if n > 0 {
				t.decode(buf[:n])
				t.render()
			}
			if err != nil {
				if t.shellGone(err) {
					return nil
				}
				return err
			}
		}

		if ready(fds[1]) {
			if err := t.dispatch(t.display.PollEvents()); err != nil {
				return err
			}
		}

		if t.pty.Exited() {
			if t.debug {
				log.Println("Shell exited")
			}
			return nil
		}
	}
	return nil
}

// shellGone reports whether a read error only means the shell has gone away.
// Linux reports EIO on the master once the last slave descriptor closes.
func (t *Terminal) shellGone(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, unix.EIO) || t.pty.Exited()
}

// dispatch handles renderer events strictly in order, then paints whatever
// they changed.
func (t *Terminal) dispatch(events []Event) error {
	for _, ev := range events {
		switch e := ev.(type) {
		case RedrawEvent:
			t.redraw()
		case ResizeEvent:
			t.resize(e)
		case InputEvent:
			if _, err := t.pty.Write(e.Data); err != nil {
				return err
			}
		case MouseDownEvent:
			if err := t.mouse(e, mousePress, e.Button, e.Modifiers, e.Pos); err != nil {
				return err
			}
		case MouseUpEvent:
			if err := t.mouse(e, mouseRelease, e.Button, e.Modifiers, e.Pos); err != nil {
				return err
			}
		case MouseDragEvent:
			if err := t.mouse(e, mouseMotion, e.Button, e.Modifiers, e.Pos); err != nil {
				return err
			}
		default:
			t.present(ev)
		}
	}

	if t.buffer.Dirty() {
		t.render()
	}
	return nil
}

func (t *Terminal) resize(e ResizeEvent) {
	if e.Rows < 1 || e.Columns < 1 {
		return
	}
	t.buffer.Resize(e.Rows, e.Columns)
	t.decoder.SetPixelSize(e.PixelWidth, e.PixelHeight)
	if err := t.pty.Resize(e.Rows, e.Columns, e.PixelWidth, e.PixelHeight); err != nil {
		log.Println("Failed to resize PTY:", err)
	}

	t.config.Rows, t.config.Columns = uint(e.Rows), uint(e.Columns)
	t.onConfigure()
}

// mouse reports a mouse event to the shell if it enabled tracking,
// otherwise it belongs to the display's selection. Shift always selects.
func (t *Terminal) mouse(ev Event, action mouseAction, btn MouseButton, mods KeyModifier, pos Position) error {
	if t.modes.Mouse == MouseOff || mods&ModifierShift != 0 {
		t.present(ev)
		return nil
	}
	report := encodeMouse(t.modes, action, btn, mods, pos)
	if report == nil {
		return nil
	}
	_, err := t.pty.Write(report)
	return err
}

func (t *Terminal) present(ev Event) {
	if ph, ok := t.display.(PresentationHandler); ok {
		ph.HandlePresentation(ev)
	}
}
