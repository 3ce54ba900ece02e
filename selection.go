package terminal

import (
	"strings"
	"unicode"
)

// CellReader gives read access to a grid of cells, such as a Buffer or a
// renderer's own copy of one.
type CellReader interface {
	Rows() int
	Columns() int
	Cell(row, col int) Cell
}

// Selection is a renderer's text selection in grid coordinates.
// It runs like a text stream, from start to end across row ends.
type Selection struct {
	start, end Position
	active     bool
	selecting  bool
}

// Begin starts a drag selection at p, nothing is selected until it is extended.
func (s *Selection) Begin(p Position) {
	s.start, s.end = p, p
	s.active = false
	s.selecting = true
}

// Extend moves the end of a drag selection to p.
func (s *Selection) Extend(p Position) {
	if !s.selecting {
		s.Begin(p)
	}
	s.end = p
	s.active = true
}

// Finish ends dragging, keeping what was selected.
func (s *Selection) Finish() {
	s.selecting = false
}

// Clear removes the selection.
func (s *Selection) Clear() {
	s.active = false
	s.selecting = false
}

// Active returns true if some text is selected.
func (s *Selection) Active() bool {
	return s.active
}

// Bounds returns the selection ends in reading order.
func (s *Selection) Bounds() (start, end Position) {
	start, end = s.start, s.end
	if end.Row < start.Row || (end.Row == start.Row && end.Col < start.Col) {
		start, end = end, start
	}
	return start, end
}

// Contains returns true if p is inside an active selection.
func (s *Selection) Contains(p Position) bool {
	if !s.active {
		return false
	}
	start, end := s.Bounds()
	if p.Row < start.Row || p.Row > end.Row {
		return false
	}
	if p.Row == start.Row && p.Col < start.Col {
		return false
	}
	if p.Row == end.Row && p.Col > end.Col {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// SelectWord selects the run of letters and digits around p.
// It returns false, leaving the selection cleared, if p is not on a word.
func (s *Selection) SelectWord(g CellReader, p Position) bool {
	s.Clear()
	if p.Row < 0 || p.Row >= g.Rows() || p.Col < 0 || p.Col >= g.Columns() {
		return false
	}
	if !isWordRune(g.Cell(p.Row, p.Col).Rune) {
		return false
	}

	start, end := p.Col, p.Col
	for start > 0 && isWordRune(g.Cell(p.Row, start-1).Rune) {
		start--
	}
	for end < g.Columns()-1 && isWordRune(g.Cell(p.Row, end+1).Rune) {
		end++
	}

	s.start = Position{Row: p.Row, Col: start}
	s.end = Position{Row: p.Row, Col: end}
	s.active = true
	return true
}

// Text returns the selected text from g, one line per row with trailing
// blanks removed.
func (s *Selection) Text(g CellReader) string {
	if !s.active {
		return ""
	}
	start, end := s.Bounds()
	lines := make([]string, 0, end.Row-start.Row+1)
	for row := start.Row; row <= end.Row && row < g.Rows(); row++ {
		from, to := 0, g.Columns()-1
		if row == start.Row {
			from = start.Col
		}
		if row == end.Row && end.Col < to {
			to = end.Col
		}

		var sb strings.Builder
		for col := from; col <= to; col++ {
			if r := g.Cell(row, col).Rune; r != 0 {
				sb.WriteRune(r)
			}
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return strings.Join(lines, "\n")
}

// GridText returns the contents of g without style, rows joined with '\n'.
// Trailing blanks on each row and trailing empty rows are dropped.
func GridText(g CellReader) string {
	lines := make([]string, g.Rows())
	for r := range lines {
		var sb strings.Builder
		for c := 0; c < g.Columns(); c++ {
			if ch := g.Cell(r, c).Rune; ch != 0 {
				sb.WriteRune(ch)
			}
		}
		lines[r] = strings.TrimRight(sb.String(), " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
