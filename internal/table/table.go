package table

// RawTable is a page table as produced by the PDF table finder: rows of
// optional cells. A nil cell marks a grid position with no cell at all
// (typically covered by a merged cell); "" is a cell with no text.
type RawTable [][]*string

// Width returns the length of the longest row.
func (t RawTable) Width() int {
	w := 0
	for _, row := range t {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Cell returns a pointer to s, for building RawTables by hand.
func Cell(s string) *string { return &s }

// Row builds a raw row where every value is a present cell.
func Row(values ...string) []*string {
	out := make([]*string, len(values))
	for i, v := range values {
		out[i] = Cell(v)
	}
	return out
}

// Frame is a rectangular grid of strings with positional column labels.
// Labels start as 0..n-1 and travel with their column through filtering,
// so a filtered frame can have labels like [0, 2].
type Frame struct {
	Columns []int
	Rows    [][]string
}

// FromRaw builds a frame from a raw table. No row is treated as a header.
// Short rows are padded with absent cells before conversion.
func FromRaw(raw RawTable, conv func(*string) string) *Frame {
	width := raw.Width()
	f := &Frame{Columns: make([]int, width)}
	for j := range f.Columns {
		f.Columns[j] = j
	}
	if width == 0 {
		return f
	}
	f.Rows = make([][]string, 0, len(raw))
	for _, rawRow := range raw {
		row := make([]string, width)
		for j := range row {
			var cell *string
			if j < len(rawRow) {
				cell = rawRow[j]
			}
			row[j] = conv(cell)
		}
		f.Rows = append(f.Rows, row)
	}
	return f
}

// Empty reports whether the frame has no rows or no columns.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Rows) == 0 || len(f.Columns) == 0
}

func (f *Frame) NumRows() int { return len(f.Rows) }
func (f *Frame) NumCols() int { return len(f.Columns) }

// Column returns a copy of column j's values.
func (f *Frame) Column(j int) []string {
	out := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[j]
	}
	return out
}

// KeepRows retains only the rows at the given indices, in order.
func (f *Frame) KeepRows(idx []int) {
	rows := make([][]string, 0, len(idx))
	for _, i := range idx {
		rows = append(rows, f.Rows[i])
	}
	f.Rows = rows
}

// KeepColumns retains only the columns at the given positions. Labels
// follow their columns.
func (f *Frame) KeepColumns(idx []int) {
	cols := make([]int, 0, len(idx))
	for _, j := range idx {
		cols = append(cols, f.Columns[j])
	}
	for i, row := range f.Rows {
		kept := make([]string, 0, len(idx))
		for _, j := range idx {
			kept = append(kept, row[j])
		}
		f.Rows[i] = kept
	}
	f.Columns = cols
}

// Concat stacks frames vertically in the order given. Columns are aligned
// by label: the result's labels are the union of all labels in first-seen
// order, and a frame lacking a label contributes "" in that column.
func Concat(frames []*Frame) *Frame {
	out := &Frame{}
	pos := make(map[int]int)
	for _, f := range frames {
		if f == nil {
			continue
		}
		for _, label := range f.Columns {
			if _, ok := pos[label]; !ok {
				pos[label] = len(out.Columns)
				out.Columns = append(out.Columns, label)
			}
		}
	}
	for _, f := range frames {
		if f == nil {
			continue
		}
		for _, row := range f.Rows {
			merged := make([]string, len(out.Columns))
			for j, label := range f.Columns {
				merged[pos[label]] = row[j]
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}
