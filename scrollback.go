package terminal

// DefaultScrollbackLines is how much history a renderer keeps unless told otherwise.
const DefaultScrollbackLines = 2000

// Scrollback is a renderer's bounded history of rows that scrolled off the
// top of the screen, plus how far back its viewport currently looks.
type Scrollback struct {
	lines  [][]Cell
	max    int
	offset int
}

// NewScrollback keeps at most max rows of history.
func NewScrollback(max int) *Scrollback {
	if max < 1 {
		max = DefaultScrollbackLines
	}
	return &Scrollback{max: max}
}

// Push appends a copy of row, dropping the oldest line when full.
// A viewport looking back stays on the same content.
func (s *Scrollback) Push(row []Cell) {
	line := make([]Cell, len(row))
	copy(line, row)
	if len(s.lines) == s.max {
		copy(s.lines, s.lines[1:])
		s.lines[len(s.lines)-1] = line
	} else {
		s.lines = append(s.lines, line)
	}
	if s.offset > 0 && s.offset < len(s.lines) {
		s.offset++
	}
}

// Clear forgets all history.
func (s *Scrollback) Clear() {
	s.lines = nil
	s.offset = 0
}

// Len returns the number of rows kept.
func (s *Scrollback) Len() int {
	return len(s.lines)
}

// Line returns history row i, 0 being the oldest.
func (s *Scrollback) Line(i int) []Cell {
	if i < 0 || i >= len(s.lines) {
		return nil
	}
	return s.lines[i]
}

// Scroll moves the viewport delta rows back in history, negative moving
// towards the live screen, and returns the new offset.
func (s *Scrollback) Scroll(delta int) int {
	s.offset += delta
	if s.offset < 0 {
		s.offset = 0
	} else if s.offset > len(s.lines) {
		s.offset = len(s.lines)
	}
	return s.offset
}

// Offset returns how many rows back the viewport looks, 0 being live.
func (s *Scrollback) Offset() int {
	return s.offset
}

// ViewCell returns the cell shown at row, col of the viewport over live.
func (s *Scrollback) ViewCell(live CellReader, row, col int) Cell {
	if row < s.offset {
		line := s.Line(len(s.lines) - s.offset + row)
		if col < len(line) {
			return line[col]
		}
		return blankCell
	}
	return live.Cell(row-s.offset, col)
}
