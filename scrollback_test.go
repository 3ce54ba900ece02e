package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyRow(s string) []Cell {
	row := make([]Cell, len(s))
	for i, r := range s {
		row[i] = Cell{Rune: r}
	}
	return row
}

func TestScrollback_Bounded(t *testing.T) {
	s := NewScrollback(3)
	for _, line := range []string{"a", "b", "c", "d"} {
		s.Push(historyRow(line))
	}

	require.Equal(t, 3, s.Len())
	assert.Equal(t, 'b', s.Line(0)[0].Rune)
	assert.Equal(t, 'd', s.Line(2)[0].Rune)
	assert.Nil(t, s.Line(3))
	assert.Nil(t, s.Line(-1))
}

func TestScrollback_DefaultSize(t *testing.T) {
	s := NewScrollback(0)
	for i := 0; i < DefaultScrollbackLines+10; i++ {
		s.Push(historyRow("x"))
	}
	assert.Equal(t, DefaultScrollbackLines, s.Len())
}

func TestScrollback_PushCopies(t *testing.T) {
	s := NewScrollback(2)
	row := historyRow("ab")
	s.Push(row)
	row[0].Rune = 'z'
	assert.Equal(t, 'a', s.Line(0)[0].Rune)
}

func TestScrollback_Scroll(t *testing.T) {
	s := NewScrollback(10)
	s.Push(historyRow("a"))
	s.Push(historyRow("b"))

	assert.Equal(t, 1, s.Scroll(1))
	assert.Equal(t, 2, s.Scroll(5))
	assert.Equal(t, 0, s.Scroll(-9))

	s.Scroll(1)
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Offset())
}

func TestScrollback_ViewStaysOnContent(t *testing.T) {
	s := NewScrollback(10)
	s.Push(historyRow("a"))
	s.Push(historyRow("b"))
	s.Scroll(1)

	live := NewBuffer(2, 2)
	assert.Equal(t, 'b', s.ViewCell(live, 0, 0).Rune)

	s.Push(historyRow("c"))
	assert.Equal(t, 2, s.Offset())
	assert.Equal(t, 'b', s.ViewCell(live, 0, 0).Rune)
}

func TestScrollback_ViewCell(t *testing.T) {
	s := NewScrollback(10)
	s.Push(historyRow("old"))
	s.Push(historyRow("mid"))

	live := NewBuffer(3, 3)
	writeString(live, "new")

	assert.Equal(t, 'n', s.ViewCell(live, 0, 0).Rune)

	s.Scroll(2)
	assert.Equal(t, 'o', s.ViewCell(live, 0, 0).Rune)
	assert.Equal(t, 'm', s.ViewCell(live, 1, 0).Rune)
	assert.Equal(t, 'n', s.ViewCell(live, 2, 0).Rune)

	// history rows narrower than the view are padded with blanks
	short := NewScrollback(1)
	short.Push(historyRow("x"))
	short.Scroll(1)
	assert.Equal(t, 'x', short.ViewCell(live, 0, 0).Rune)
	assert.Equal(t, ' ', short.ViewCell(live, 0, 2).Rune)
}
