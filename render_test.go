package terminal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDisplay keeps a log of draw calls and applies them to its own
// grid, the way a real renderer would.
type recordingDisplay struct {
	calls  []string
	mirror *Buffer
	cursor Position
	title  string
	bells  int
	modes  Modes
}

func (r *recordingDisplay) ClearScreen() {
	r.calls = append(r.calls, "clear")
	r.mirror.fill(0, len(r.mirror.cells), blankCell)
}

func (r *recordingDisplay) DrawCells(cells []DirtyCell) {
	r.calls = append(r.calls, fmt.Sprintf("cells %d", len(cells)))
	for _, c := range cells {
		r.mirror.cells[c.Pos.Row*r.mirror.cols+c.Pos.Col] = c.Cell
	}
}

func (r *recordingDisplay) DrawScroll(amount, top, bottom int) {
	r.calls = append(r.calls, fmt.Sprintf("scroll %d %d %d", amount, top, bottom))
	r.mirror.scrollRegion(top, bottom, amount)
}

func (r *recordingDisplay) DrawClear(attr Attribute, row, col, width, height int) {
	r.calls = append(r.calls, fmt.Sprintf("fill %d %d %d %d", row, col, width, height))
	for y := row; y < row+height; y++ {
		for x := col; x < col+width; x++ {
			r.mirror.cells[y*r.mirror.cols+x] = Cell{Rune: ' ', Attr: attr}
		}
	}
}

func (r *recordingDisplay) Flush()                        { r.calls = append(r.calls, "flush") }
func (r *recordingDisplay) PollEvents() []Event           { return nil }
func (r *recordingDisplay) EventFd() int                  { return -1 }
func (r *recordingDisplay) ShouldClose() bool             { return false }
func (r *recordingDisplay) DrawCursor(p Position, _ bool) { r.cursor = p }
func (r *recordingDisplay) SetTitle(title string)         { r.title = title }
func (r *recordingDisplay) Bell()                         { r.bells++ }
func (r *recordingDisplay) ModesChanged(m Modes)          { r.modes = m }

func newRecordingTerminal(t *testing.T, rows, cols uint) (*Terminal, *recordingDisplay) {
	d := &recordingDisplay{mirror: NewBuffer(int(rows), int(cols))}
	term, err := New(d, WithSize(rows, cols))
	require.NoError(t, err)
	return term, d
}

func TestCoalesce(t *testing.T) {
	b := NewBuffer(3, 10)
	writeString(b, "ab")
	b.MoveCursor(0, 9)
	writeString(b, "z")
	draw, clears := coalesce(b.Snapshot(), b.Columns())

	// "ab" then 7 blanks then "z" on the first row, two blank rows below
	require.Len(t, clears, 2)
	assert.Equal(t, clearRect{row: 0, col: 2, width: 7, height: 1}, clears[0])
	assert.Equal(t, clearRect{row: 1, col: 0, width: 10, height: 2}, clears[1])
	require.Len(t, draw, 3)
	assert.Equal(t, 'z', draw[2].Rune)
}

func TestCoalesce_ShortRunsAreDrawn(t *testing.T) {
	b := NewBuffer(1, 6)
	writeString(b, "a   b")
	draw, clears := coalesce(b.Snapshot(), b.Columns())
	assert.Empty(t, clears)
	assert.Len(t, draw, 6)
}

func TestCoalesce_KeepsAttributes(t *testing.T) {
	blue := Attribute{Background: IndexedColor(4)}
	b := NewBuffer(2, 4)
	b.SetAttribute(blue)
	b.MoveCursor(1, 0)
	b.Erase(EraseLine)
	_, clears := coalesce(b.Snapshot(), b.Columns())

	require.Len(t, clears, 2)
	assert.Equal(t, Attribute{}, clears[0].attr)
	assert.Equal(t, blue, clears[1].attr)
	assert.Equal(t, 1, clears[1].row)
}

func TestRender_Order(t *testing.T) {
	term, d := newRecordingTerminal(t, 3, 4)
	term.redraw()
	assert.Equal(t, []string{"clear", "fill 0 0 4 3", "flush"}, d.calls)
	d.calls = nil

	term.decode([]byte("abcd\r\n\n\nxy"))
	term.render()
	assert.Equal(t, []string{"scroll 1 0 2", "cells 4", "flush"}, d.calls)
	assert.Equal(t, Position{Row: 2, Col: 2}, d.cursor)
	assert.False(t, term.Buffer().Dirty())
}

func TestRender_NothingChanged(t *testing.T) {
	term, d := newRecordingTerminal(t, 2, 2)
	term.render()
	d.calls = nil

	term.render()
	assert.Equal(t, []string{"flush"}, d.calls)
}

// Applying the draw calls of every pass to the previous picture must always
// give the buffer's contents.
func TestRender_MirrorMatchesBuffer(t *testing.T) {
	term, d := newRecordingTerminal(t, 4, 6)
	term.redraw()

	for _, chunk := range []string{
		"hello\r\nworld\r\n",
		"\x1b[2;3r\x1b[3;1H\n\n\x1b[r",
		"\x1b[44m\x1b[2K\x1b[m\x1b[31mred\x1b[m\x1b[1;1H\x1b[L",
		"\x1b[?1049hALT\x1b[?1049l",
		"\x1bM\x1bM\x1b[4;1H\n\n\nend",
		"\x1b[2;4r\x1b[4;1H\n\x1b[2;1H\x1bM\x1b[S\x1b[2T",
	} {
		term.decode([]byte(chunk))
		term.render()
		assert.Equal(t, term.Buffer().Snapshot(), d.mirror.Snapshot(), "after %q", chunk)
	}
}

func TestTerminal_Callbacks(t *testing.T) {
	term, d := newRecordingTerminal(t, 2, 10)
	listen := make(chan Config, 1)
	term.AddListener(listen)

	term.decode([]byte("\x1b]2;hello\x07\x07\x1b[?2004h"))
	assert.Equal(t, "hello", d.title)
	assert.Equal(t, 1, d.bells)
	assert.True(t, d.modes.BracketedPaste)
	assert.Equal(t, Config{Title: "hello", Rows: 2, Columns: 10}, <-listen)

	term.RemoveListener(listen)
	_, open := <-listen
	assert.False(t, open)
}

func TestTerminal_Options(t *testing.T) {
	_, err := New(&recordingDisplay{}, WithCharset("nonsense"))
	assert.Error(t, err)

	term, err := New(&recordingDisplay{}, WithSize(0, 0), WithShell("/bin/zsh", "-l"), WithDebug(true))
	require.NoError(t, err)
	assert.Equal(t, 1, term.Buffer().Rows())
	assert.Equal(t, "/bin/zsh", term.shell)
	assert.Equal(t, []string{"-l"}, term.shellArgs)
	assert.True(t, term.debug)

	// writes before a session runs are dropped
	n, err := term.Write([]byte("x"))
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
