package terminal

const tabWidth = 8

// EraseKind selects the region cleared by Buffer.Erase.
type EraseKind int

const (
	EraseToEndOfLine EraseKind = iota
	EraseToStartOfLine
	EraseLine
	EraseToEndOfScreen
	EraseToStartOfScreen
	EraseScreen
)

// Buffer is the character grid the shell draws into.
// It holds no I/O, every mutation records which cells changed so that a
// renderer only has to redraw those.
//
// The renderer's picture, after it applies the pending scroll hints, matches
// the buffer at every cell that is not dirty.
type Buffer struct {
	rows, cols int
	cells      []Cell
	dirty      []bool

	cursor      Position
	top, bottom int
	attr        Attribute

	wrapPending   bool
	autoWrap      bool
	insertMode    bool
	cursorVisible bool

	alt       []Cell // the inactive screen while the alternate screen is shown
	altActive bool

	hints      []ScrollHint
	scrollback func([]Cell)
}

// NewBuffer creates a blank buffer, with every cell dirty so the first
// render pass paints the whole grid.
func NewBuffer(rows, cols int) *Buffer {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	b := &Buffer{
		rows:          rows,
		cols:          cols,
		autoWrap:      true, // xterm default
		cursorVisible: true,
	}
	b.cells = newGrid(rows * cols)
	b.dirty = make([]bool, rows*cols)
	b.markAllDirty()
	b.top, b.bottom = 0, rows-1
	return b
}

func newGrid(n int) []Cell {
	cells := make([]Cell, n)
	for i := range cells {
		cells[i] = blankCell
	}
	return cells
}

// Rows returns the grid height.
func (b *Buffer) Rows() int {
	return b.rows
}

// Columns returns the grid width.
func (b *Buffer) Columns() int {
	return b.cols
}

// Cursor returns the cursor position, always inside the grid.
func (b *Buffer) Cursor() Position {
	return b.cursor
}

// CursorVisible reports DECTCEM state.
func (b *Buffer) CursorVisible() bool {
	return b.cursorVisible
}

// SetCursorVisible shows or hides the cursor (DECTCEM).
func (b *Buffer) SetCursorVisible(visible bool) {
	b.cursorVisible = visible
}

// Attribute returns the rendition applied to the next written cell.
func (b *Buffer) Attribute() Attribute {
	return b.attr
}

// SetAttribute sets the rendition applied to the next written cell.
func (b *Buffer) SetAttribute(attr Attribute) {
	b.attr = attr
}

// ScrollRegion returns the inclusive rows that take part in scrolling.
func (b *Buffer) ScrollRegion() (top, bottom int) {
	return b.top, b.bottom
}

// AutoWrap reports DECAWM state.
func (b *Buffer) AutoWrap() bool {
	return b.autoWrap
}

// SetAutoWrap turns DECAWM on or off.
func (b *Buffer) SetAutoWrap(on bool) {
	b.autoWrap = on
	if !on {
		b.wrapPending = false
	}
}

// SetInsertMode turns IRM on or off.
func (b *Buffer) SetInsertMode(on bool) {
	b.insertMode = on
}

// AlternateScreen reports whether the alternate screen is shown.
func (b *Buffer) AlternateScreen() bool {
	return b.altActive
}

// SetScrollbackFunc registers f to receive copies of rows that scroll off the
// top of the main screen.
func (b *Buffer) SetScrollbackFunc(f func([]Cell)) {
	b.scrollback = f
}

// Cell returns the cell at row, col or a blank for positions outside the grid.
func (b *Buffer) Cell(row, col int) Cell {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return blankCell
	}
	return b.cells[row*b.cols+col]
}

// Row returns a copy of one row.
func (b *Buffer) Row(row int) []Cell {
	if row < 0 || row >= b.rows {
		return nil
	}
	out := make([]Cell, b.cols)
	copy(out, b.cells[row*b.cols:(row+1)*b.cols])
	return out
}

// Text returns the grid contents without style, rows joined with '\n'.
// Trailing blanks on each row and trailing empty rows are dropped.
func (b *Buffer) Text() string {
	return GridText(b)
}

func (b *Buffer) setCell(i int, c Cell) {
	if b.cells[i] != c {
		b.cells[i] = c
		b.dirty[i] = true
	}
}

func (b *Buffer) fill(from, to int, c Cell) {
	for i := from; i < to; i++ {
		b.setCell(i, c)
	}
}

func (b *Buffer) markAllDirty() {
	for i := range b.dirty {
		b.dirty[i] = true
	}
}

// WriteCell writes ch with attr at the cursor and advances it.
// At the right margin the wrap is deferred until the next write, as xterm does.
func (b *Buffer) WriteCell(ch rune, attr Attribute) {
	if b.wrapPending {
		b.wrapPending = false
		if b.autoWrap {
			b.cursor.Col = 0
			b.LineFeed()
		}
	}

	i := b.cursor.Row*b.cols + b.cursor.Col
	if b.insertMode {
		rowEnd := (b.cursor.Row + 1) * b.cols
		for j := rowEnd - 1; j > i; j-- {
			b.setCell(j, b.cells[j-1])
		}
	}
	b.setCell(i, Cell{Rune: ch, Attr: attr})

	if b.cursor.Col == b.cols-1 {
		if b.autoWrap {
			b.wrapPending = true
		}
		return
	}
	b.cursor.Col++
}

// WriteWideCell writes a two column character, wrapping early if only one
// column is left on the row. The right half is stored as Rune 0.
func (b *Buffer) WriteWideCell(ch rune, attr Attribute) {
	if b.cols < 2 {
		b.WriteCell(ch, attr)
		return
	}
	if b.wrapPending || b.cursor.Col == b.cols-1 {
		if b.autoWrap {
			b.wrapPending = false
			b.cursor.Col = 0
			b.LineFeed()
		} else {
			b.wrapPending = false
			b.cursor.Col = b.cols - 2
		}
	}
	b.WriteCell(ch, attr)
	b.WriteCell(0, attr)
}

// MoveCursor places the cursor, clamped to the grid.
func (b *Buffer) MoveCursor(row, col int) {
	if col < 0 {
		col = 0
	} else if col >= b.cols {
		col = b.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= b.rows {
		row = b.rows - 1
	}

	// any explicit cursor movement clears a pending wrap
	b.wrapPending = false
	b.cursor = Position{Row: row, Col: col}
}

// LineFeed moves the cursor down, scrolling the region when it sits on the bottom margin.
func (b *Buffer) LineFeed() {
	b.wrapPending = false
	if b.cursor.Row == b.bottom {
		b.Scroll(1)
		return
	}
	if b.cursor.Row < b.rows-1 {
		b.cursor.Row++
	}
}

// ReverseIndex moves the cursor up, scrolling the region down at the top margin.
func (b *Buffer) ReverseIndex() {
	b.wrapPending = false
	if b.cursor.Row == b.top {
		b.Scroll(-1)
		return
	}
	if b.cursor.Row > 0 {
		b.cursor.Row--
	}
}

// CarriageReturn moves the cursor to the first column.
func (b *Buffer) CarriageReturn() {
	b.wrapPending = false
	b.cursor.Col = 0
}

// Backspace moves the cursor one column left, stopping at the margin.
func (b *Buffer) Backspace() {
	b.wrapPending = false
	if b.cursor.Col > 0 {
		b.cursor.Col--
	}
}

// Tab advances the cursor by n fixed tab stops.
func (b *Buffer) Tab(n int) {
	b.wrapPending = false
	for ; n > 0 && b.cursor.Col < b.cols-1; n-- {
		next := b.cursor.Col - b.cursor.Col%tabWidth + tabWidth
		if next > b.cols-1 {
			next = b.cols - 1
		}
		b.cursor.Col = next
	}
}

// BackTab moves the cursor back by n fixed tab stops.
func (b *Buffer) BackTab(n int) {
	b.wrapPending = false
	for ; n > 0 && b.cursor.Col > 0; n-- {
		if b.cursor.Col%tabWidth == 0 {
			b.cursor.Col -= tabWidth
		} else {
			b.cursor.Col -= b.cursor.Col % tabWidth
		}
		if b.cursor.Col < 0 {
			b.cursor.Col = 0
		}
	}
}

// Erase clears part of the grid with blanks in the current background.
// The cursor does not move.
func (b *Buffer) Erase(kind EraseKind) {
	blank := blankWith(b.attr)
	rowStart := b.cursor.Row * b.cols
	at := rowStart + b.cursor.Col
	switch kind {
	case EraseToEndOfLine:
		b.fill(at, rowStart+b.cols, blank)
	case EraseToStartOfLine:
		b.fill(rowStart, at+1, blank)
	case EraseLine:
		b.fill(rowStart, rowStart+b.cols, blank)
	case EraseToEndOfScreen:
		b.fill(at, len(b.cells), blank)
	case EraseToStartOfScreen:
		b.fill(0, at+1, blank)
	case EraseScreen:
		b.fill(0, len(b.cells), blank)
	}
	b.wrapPending = false
}

// EraseChars blanks n cells from the cursor without shifting (ECH).
func (b *Buffer) EraseChars(n int) {
	rowStart := b.cursor.Row * b.cols
	end := b.cursor.Col + n
	if end > b.cols {
		end = b.cols
	}
	b.fill(rowStart+b.cursor.Col, rowStart+end, blankWith(b.attr))
	b.wrapPending = false
}

// InsertBlanks shifts the rest of the line right by n, dropping cells at the margin (ICH).
func (b *Buffer) InsertBlanks(n int) {
	rowStart := b.cursor.Row * b.cols
	col := b.cursor.Col
	if n > b.cols-col {
		n = b.cols - col
	}
	for c := b.cols - 1; c >= col+n; c-- {
		b.setCell(rowStart+c, b.cells[rowStart+c-n])
	}
	b.fill(rowStart+col, rowStart+col+n, blankWith(b.attr))
	b.wrapPending = false
}

// DeleteChars removes n cells at the cursor, pulling the rest of the line left (DCH).
func (b *Buffer) DeleteChars(n int) {
	rowStart := b.cursor.Row * b.cols
	col := b.cursor.Col
	if n > b.cols-col {
		n = b.cols - col
	}
	for c := col; c < b.cols-n; c++ {
		b.setCell(rowStart+c, b.cells[rowStart+c+n])
	}
	b.fill(rowStart+b.cols-n, rowStart+b.cols, blankWith(b.attr))
	b.wrapPending = false
}

// InsertLines pushes n blank lines in at the cursor row, inside the scroll region (IL).
func (b *Buffer) InsertLines(n int) {
	if b.cursor.Row < b.top || b.cursor.Row > b.bottom {
		return
	}
	b.scrollRegion(b.cursor.Row, b.bottom, -n)
	b.cursor.Col = 0
	b.wrapPending = false
}

// DeleteLines removes n lines at the cursor row, inside the scroll region (DL).
func (b *Buffer) DeleteLines(n int) {
	if b.cursor.Row < b.top || b.cursor.Row > b.bottom {
		return
	}
	b.scrollRegion(b.cursor.Row, b.bottom, n)
	b.cursor.Col = 0
	b.wrapPending = false
}

// SetScrollRegion sets the inclusive rows that scroll.
// An empty or inverted region resets to the full grid.
func (b *Buffer) SetScrollRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom >= b.rows {
		bottom = b.rows - 1
	}
	if top >= bottom {
		top, bottom = 0, b.rows-1
	}
	b.top, b.bottom = top, bottom
}

// Scroll moves the scroll region's content by amount rows.
// Positive moves content up and reveals blank rows at the bottom,
// negative moves it down.
func (b *Buffer) Scroll(amount int) {
	b.scrollRegion(b.top, b.bottom, amount)
}

func (b *Buffer) scrollRegion(top, bottom, n int) {
	height := bottom - top + 1
	if n == 0 || height <= 0 {
		return
	}
	if n > height {
		n = height
	} else if n < -height {
		n = -height
	}

	cols := b.cols
	if n > 0 {
		if top == 0 && !b.altActive && b.scrollback != nil {
			for r := 0; r < n; r++ {
				b.scrollback(b.Row(r))
			}
		}
		for r := top; r <= bottom-n; r++ {
			copy(b.cells[r*cols:(r+1)*cols], b.cells[(r+n)*cols:(r+n+1)*cols])
			copy(b.dirty[r*cols:(r+1)*cols], b.dirty[(r+n)*cols:(r+n+1)*cols])
		}
		b.reveal(bottom-n+1, bottom)
	} else {
		m := -n
		for r := bottom; r >= top+m; r-- {
			copy(b.cells[r*cols:(r+1)*cols], b.cells[(r-m)*cols:(r-m+1)*cols])
			copy(b.dirty[r*cols:(r+1)*cols], b.dirty[(r-m)*cols:(r-m+1)*cols])
		}
		b.reveal(top, top+m-1)
	}
	b.addHint(ScrollHint{Amount: n, Top: top, Bottom: bottom})
}

// reveal blanks rows first..last after a scroll, they are always redrawn.
func (b *Buffer) reveal(first, last int) {
	for i := first * b.cols; i < (last+1)*b.cols; i++ {
		b.cells[i] = blankCell
		b.dirty[i] = true
	}
}

func (b *Buffer) addHint(h ScrollHint) {
	if n := len(b.hints); n > 0 {
		last := &b.hints[n-1]
		if last.Top == h.Top && last.Bottom == h.Bottom && (last.Amount > 0) == (h.Amount > 0) {
			last.Amount += h.Amount
			return
		}
	}
	b.hints = append(b.hints, h)
}

// ScrollHints returns the scrolls performed since the last Flush, in order.
func (b *Buffer) ScrollHints() []ScrollHint {
	if len(b.hints) == 0 {
		return nil
	}
	out := make([]ScrollHint, len(b.hints))
	copy(out, b.hints)
	return out
}

// UseAlternateScreen switches between the main and a blank alternate screen.
// Only cells that differ between the two become dirty.
func (b *Buffer) UseAlternateScreen(on bool) {
	if on == b.altActive {
		return
	}
	if on {
		saved := make([]Cell, len(b.cells))
		copy(saved, b.cells)
		b.fill(0, len(b.cells), blankCell)
		b.alt = saved
	} else {
		for i, c := range b.alt {
			b.setCell(i, c)
		}
		b.alt = nil
	}
	b.altActive = on
	b.wrapPending = false
}

// FillScreen sets every cell to r with the default rendition (DECALN).
func (b *Buffer) FillScreen(r rune) {
	b.fill(0, len(b.cells), Cell{Rune: r})
	b.top, b.bottom = 0, b.rows-1
	b.MoveCursor(0, 0)
}

// Dirty returns true if any cell changed since the last Flush.
func (b *Buffer) Dirty() bool {
	for _, d := range b.dirty {
		if d {
			return true
		}
	}
	return len(b.hints) > 0
}

// DirtyCells returns copies of every changed cell in row-major order.
func (b *Buffer) DirtyCells() []DirtyCell {
	var out []DirtyCell
	for i, d := range b.dirty {
		if !d {
			continue
		}
		out = append(out, DirtyCell{
			Cell: b.cells[i],
			Pos:  Position{Row: i / b.cols, Col: i % b.cols},
		})
	}
	return out
}

// Snapshot returns copies of every cell in row-major order.
func (b *Buffer) Snapshot() []DirtyCell {
	out := make([]DirtyCell, len(b.cells))
	for i, c := range b.cells {
		out[i] = DirtyCell{Cell: c, Pos: Position{Row: i / b.cols, Col: i % b.cols}}
	}
	return out
}

// Flush forgets all dirty state. Call it once per render pass, after the
// renderer has consumed DirtyCells and ScrollHints.
func (b *Buffer) Flush() {
	for i := range b.dirty {
		b.dirty[i] = false
	}
	b.hints = b.hints[:0]
}

// Resize reallocates the grid keeping the top-left content.
// The cursor and scroll region are clamped and every cell becomes dirty.
func (b *Buffer) Resize(rows, cols int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	oldRows := b.rows
	fullRegion := b.top == 0 && b.bottom == oldRows-1

	b.cells = resizeGrid(b.cells, b.rows, b.cols, rows, cols)
	if b.alt != nil {
		b.alt = resizeGrid(b.alt, b.rows, b.cols, rows, cols)
	}
	b.rows, b.cols = rows, cols
	b.dirty = make([]bool, rows*cols)
	b.markAllDirty()
	b.hints = nil

	if fullRegion {
		b.top, b.bottom = 0, rows-1
	} else {
		b.SetScrollRegion(b.top, b.bottom)
	}
	b.MoveCursor(b.cursor.Row, b.cursor.Col)
}

func resizeGrid(old []Cell, oldRows, oldCols, rows, cols int) []Cell {
	cells := newGrid(rows * cols)
	for r := 0; r < rows && r < oldRows; r++ {
		n := cols
		if oldCols < n {
			n = oldCols
		}
		copy(cells[r*cols:r*cols+n], old[r*oldCols:r*oldCols+n])
	}
	return cells
}
