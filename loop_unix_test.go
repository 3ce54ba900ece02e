//go:build !windows

package terminal_test

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terminal "github.com/fyne-io/vtengine"
	"github.com/fyne-io/vtengine/display/headless"
)

const waitFor = 2 * time.Second

// pipePTY stands in for a shell: the test writes shell output to out and
// everything the terminal sends is recorded.
type pipePTY struct {
	in, out *os.File
	fd      int

	term *terminal.Terminal

	mu    sync.Mutex
	ops   []string
	sizes []string

	exited atomic.Bool
}

func newPipePTY(t *testing.T) *pipePTY {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	p := &pipePTY{in: r, out: w, fd: int(r.Fd())}
	t.Cleanup(func() {
		_ = w.Close()
	})
	return p
}

func (p *pipePTY) Read(b []byte) (int, error) {
	return p.in.Read(b)
}

func (p *pipePTY) Write(b []byte) (int, error) {
	p.record("write %q", b)
	if p.term != nil {
		buf := p.term.Buffer()
		p.mu.Lock()
		p.sizes = append(p.sizes, fmt.Sprintf("%dx%d", buf.Columns(), buf.Rows()))
		p.mu.Unlock()
	}
	return len(b), nil
}

func (p *pipePTY) Fd() int {
	return p.fd
}

func (p *pipePTY) Resize(rows, cols, _, _ int) error {
	p.record("resize %dx%d", cols, rows)
	return nil
}

func (p *pipePTY) Exited() bool {
	return p.exited.Load()
}

func (p *pipePTY) Close() error {
	return p.in.Close()
}

func (p *pipePTY) record(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, fmt.Sprintf(format, args...))
}

func (p *pipePTY) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ops...)
}

// bufferSizes returns the buffer size seen by each write, as cols x rows.
func (p *pipePTY) bufferSizes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sizes...)
}

func (p *pipePTY) shellOutput(t *testing.T, s string) {
	_, err := p.out.Write([]byte(s))
	require.NoError(t, err)
}

type running struct {
	term    *terminal.Terminal
	display *headless.Display
	pty     *pipePTY
	done    chan error
}

func start(t *testing.T, rows, cols int, before ...terminal.Event) *running {
	d, err := headless.New(rows, cols)
	require.NoError(t, err)
	term, err := terminal.New(d, terminal.WithSize(uint(rows), uint(cols)))
	require.NoError(t, err)

	r := &running{term: term, display: d, pty: newPipePTY(t), done: make(chan error, 1)}
	r.pty.term = term
	d.Send(before...)
	go func() {
		r.done <- term.RunWithSession(r.pty)
	}()
	return r
}

func (r *running) wait(t *testing.T) error {
	select {
	case err := <-r.done:
		return err
	case <-time.After(waitFor):
		t.Fatal("terminal did not stop")
		return nil
	}
}

func TestLoop_DrawsShellOutput(t *testing.T) {
	r := start(t, 4, 20)
	r.pty.shellOutput(t, "hello\r\n\x1b[1;31mworld")

	assert.Eventually(t, func() bool {
		return r.display.Text() == "hello\nworld"
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, terminal.IndexedColor(1), r.display.Cell(1, 0).Attr.Foreground)
	pos, visible := r.display.Cursor()
	assert.Equal(t, terminal.Position{Row: 1, Col: 5}, pos)
	assert.True(t, visible)

	r.display.RequestClose()
	assert.NoError(t, r.wait(t))
}

func TestLoop_EventsInOrder(t *testing.T) {
	r := start(t, 24, 80,
		terminal.ResizeEvent{Rows: 10, Columns: 40},
		terminal.InputEvent{Data: []byte("ls\r")},
		terminal.ResizeEvent{Rows: 0, Columns: 40},
	)

	assert.Eventually(t, func() bool {
		return len(r.pty.recorded()) >= 2
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, []string{"resize 40x10", `write "ls\r"`}, r.pty.recorded())
	assert.Equal(t, []string{"40x10"}, r.pty.bufferSizes())

	r.display.RequestClose()
	require.NoError(t, r.wait(t))
	assert.Equal(t, 10, r.term.Buffer().Rows())
	assert.Equal(t, 40, r.term.Buffer().Columns())
}

type closeCounter struct {
	*headless.Display
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.Display.Close()
}

func TestLoop_SpawnFailureClosesDisplay(t *testing.T) {
	d, err := headless.New(2, 10)
	require.NoError(t, err)
	counter := &closeCounter{Display: d}
	term, err := terminal.New(counter, terminal.WithShell("/nonexistent/shell"))
	require.NoError(t, err)

	err = term.RunLocalShell()
	var spawn *terminal.SpawnError
	require.ErrorAs(t, err, &spawn)
	assert.Equal(t, 1, counter.closed)
}

func TestLoop_ShellEndOfFile(t *testing.T) {
	r := start(t, 2, 10)
	r.pty.shellOutput(t, "bye")
	require.NoError(t, r.pty.out.Close())

	assert.NoError(t, r.wait(t))
	assert.Equal(t, "bye", r.display.Text())
}

func TestLoop_ShellExited(t *testing.T) {
	r := start(t, 2, 10)
	r.pty.exited.Store(true)
	r.pty.shellOutput(t, "last")

	assert.NoError(t, r.wait(t))
	assert.Equal(t, "last", r.display.Text())
}

func TestLoop_Replies(t *testing.T) {
	r := start(t, 5, 10)
	r.pty.shellOutput(t, "\x1b[3;4H\x1b[6n")

	assert.Eventually(t, func() bool {
		ops := r.pty.recorded()
		return len(ops) == 1 && ops[0] == `write "\x1b[3;4R"`
	}, waitFor, 10*time.Millisecond)

	r.display.RequestClose()
	assert.NoError(t, r.wait(t))
}

func TestLoop_TitleBellAndModes(t *testing.T) {
	r := start(t, 2, 10)
	listen := make(chan terminal.Config, 4)
	r.term.AddListener(listen)
	r.pty.shellOutput(t, "\x1b]2;shell title\x07\x07\x1b[?2004h")

	assert.Eventually(t, func() bool {
		return r.display.Modes().BracketedPaste
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, "shell title", r.display.Title())
	assert.Equal(t, 1, r.display.Bells())
	assert.Equal(t, "shell title", (<-listen).Title)

	r.display.RequestClose()
	assert.NoError(t, r.wait(t))
}

func TestLoop_MouseSelectionAndReporting(t *testing.T) {
	r := start(t, 3, 20)
	r.pty.shellOutput(t, "hello world")
	assert.Eventually(t, func() bool {
		return r.display.Text() == "hello world"
	}, waitFor, 10*time.Millisecond)

	// without mouse tracking the display selects
	r.display.Send(terminal.DoubleClickEvent{Pos: terminal.Position{Row: 0, Col: 7}})
	assert.Eventually(t, func() bool {
		return r.display.SelectedText() == "world"
	}, waitFor, 10*time.Millisecond)

	r.pty.shellOutput(t, "\x1b[?1000;1006h")
	assert.Eventually(t, func() bool {
		return r.display.Modes().Mouse == terminal.MouseNormal
	}, waitFor, 10*time.Millisecond)

	r.display.Send(
		terminal.MouseDownEvent{Pos: terminal.Position{Row: 2, Col: 4}, Button: terminal.MouseButtonPrimary},
		terminal.MouseUpEvent{Pos: terminal.Position{Row: 2, Col: 4}, Button: terminal.MouseButtonPrimary},
		// shift forces a local selection
		terminal.MouseDownEvent{Pos: terminal.Position{Row: 0, Col: 0}, Modifiers: terminal.ModifierShift},
	)
	assert.Eventually(t, func() bool {
		return len(r.pty.recorded()) == 2
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, []string{`write "\x1b[<0;5;3M"`, `write "\x1b[<0;5;3m"`}, r.pty.recorded())

	r.display.RequestClose()
	assert.NoError(t, r.wait(t))
}

func TestLoop_ScrollbackAndViewport(t *testing.T) {
	r := start(t, 3, 10)
	for i := 0; i < 8; i++ {
		r.pty.shellOutput(t, fmt.Sprintf("line %d\r\n", i))
	}

	assert.Eventually(t, func() bool {
		return r.display.HistoryLen() == 6
	}, waitFor, 10*time.Millisecond)

	r.display.Send(terminal.ScrollViewportEvent{Delta: 2}, terminal.ScrollViewportEvent{Delta: 10})
	assert.Eventually(t, func() bool {
		return r.display.ViewOffset() == 6
	}, waitFor, 10*time.Millisecond)
	assert.Empty(t, r.pty.recorded())

	r.pty.shellOutput(t, "\x1b[3J")
	assert.Eventually(t, func() bool {
		return r.display.HistoryLen() == 0
	}, waitFor, 10*time.Millisecond)

	r.display.RequestClose()
	assert.NoError(t, r.wait(t))
}

func TestLoop_DisplayMatchesBuffer(t *testing.T) {
	r := start(t, 5, 12)
	r.pty.shellOutput(t, "one\r\ntwo\r\nthree\r\nfour\r\nfive\r\nsix\r\n"+
		"\x1b[2;4r\x1b[4;1H\n\n\x1b[r\x1b[44m\x1b[1;1H\x1b[2K\x1b[m\x1b[L"+
		"\x1b[?1049hvim\x1b[?1049l\x1b[5;1Hend\x1b[1;1Hmarker")

	assert.Eventually(t, func() bool {
		return r.display.Cell(0, 0).Rune == 'm'
	}, waitFor, 10*time.Millisecond)

	r.display.RequestClose()
	require.NoError(t, r.wait(t))

	buf := r.term.Buffer()
	for row := 0; row < buf.Rows(); row++ {
		for col := 0; col < buf.Columns(); col++ {
			assert.Equal(t, buf.Cell(row, col), r.display.Cell(row, col), "row %d col %d", row, col)
		}
	}
}
