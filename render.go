package terminal

// minClearRun is the shortest run of identical blank cells sent as a DrawClear.
const minClearRun = 4

type clearRect struct {
	attr                    Attribute
	row, col, width, height int
}

// render performs one render pass: scroll hints, changed cells, cursor,
// then the frame is presented and the buffer forgets its dirty state.
func (t *Terminal) render() {
	for _, h := range t.buffer.ScrollHints() {
		t.display.DrawScroll(h.Amount, h.Top, h.Bottom)
	}
	t.draw(t.buffer.DirtyCells())
	t.finishFrame()
}

// redraw paints every cell regardless of dirty state, after a renderer lost its picture.
func (t *Terminal) redraw() {
	t.display.ClearScreen()
	t.draw(t.buffer.Snapshot())
	t.finishFrame()
}

func (t *Terminal) finishFrame() {
	if cd, ok := t.display.(CursorDrawer); ok {
		cd.DrawCursor(t.buffer.Cursor(), t.buffer.CursorVisible())
	}
	t.display.Flush()
	t.buffer.Flush()
}

func (t *Terminal) draw(cells []DirtyCell) {
	if len(cells) == 0 {
		return
	}
	draw, clears := coalesce(cells, t.buffer.Columns())
	for _, c := range clears {
		t.display.DrawClear(c.attr, c.row, c.col, c.width, c.height)
	}
	if len(draw) > 0 {
		t.display.DrawCells(draw)
	}
}

// coalesce splits row-major dirty cells into cells to draw and runs of
// identical blanks to clear. Full width runs on consecutive rows merge.
func coalesce(cells []DirtyCell, cols int) ([]DirtyCell, []clearRect) {
	var (
		draw   = make([]DirtyCell, 0, len(cells))
		clears []clearRect
	)
	for i := 0; i < len(cells); {
		c := cells[i]
		if c.Rune != ' ' || !c.IsBlank() {
			draw = append(draw, c)
			i++
			continue
		}

		j := i + 1
		for j < len(cells) && cells[j].Cell == c.Cell &&
			cells[j].Pos.Row == c.Pos.Row && cells[j].Pos.Col == c.Pos.Col+(j-i) {
			j++
		}
		width := j - i
		if width < minClearRun {
			draw = append(draw, cells[i:j]...)
			i = j
			continue
		}

		if n := len(clears); n > 0 && width == cols && c.Pos.Col == 0 {
			last := &clears[n-1]
			if last.width == cols && last.attr == c.Attr && last.row+last.height == c.Pos.Row {
				last.height++
				i = j
				continue
			}
		}
		clears = append(clears, clearRect{attr: c.Attr, row: c.Pos.Row, col: c.Pos.Col, width: width, height: 1})
		i = j
	}
	return draw, clears
}
