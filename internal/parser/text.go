package parser

import (
	"sort"

	"github.com/dgallion1/invoicesheet/internal/table"
)

type segment struct {
	x0, x1 float64
	glyphs []glyph
}

// findText infers a table from alignment alone. Each text line is split
// into segments at wide gaps; the longest run of consecutive lines with at
// least MinCols segments is the table, and its columns are the bands
// formed by overlapping segment extents.
func (f *Finder) findText(glyphs []glyph) table.RawTable {
	if len(glyphs) == 0 {
		return nil
	}
	lines := f.groupLines(glyphs)
	segs := make([][]segment, len(lines))
	for i, line := range lines {
		segs[i] = f.segments(line)
	}

	bestStart, bestLen := -1, 0
	for i := 0; i < len(segs); {
		if len(segs[i]) < f.cfg.MinCols {
			i++
			continue
		}
		j := i
		for j < len(segs) && len(segs[j]) >= f.cfg.MinCols {
			j++
		}
		if j-i > bestLen {
			bestStart, bestLen = i, j-i
		}
		i = j
	}
	if bestLen < f.cfg.MinRows {
		return nil
	}
	run := segs[bestStart : bestStart+bestLen]

	bands := columnBands(run)
	out := make(table.RawTable, len(run))
	for i, lineSegs := range run {
		row := make([]*string, len(bands))
		for _, s := range lineSegs {
			col := bandOf(bands, s)
			text := f.joinGlyphs(s.glyphs)
			if row[col] != nil {
				text = *row[col] + " " + text
			}
			row[col] = &text
		}
		out[i] = row
	}
	return out
}

// segments splits a sorted line wherever the gap between neighbouring
// glyphs exceeds the column gap.
func (f *Finder) segments(line []glyph) []segment {
	var out []segment
	for _, g := range line {
		n := len(out)
		if n > 0 && g.x0-out[n-1].x1 <= f.cfg.ColumnGap*g.size {
			out[n-1].glyphs = append(out[n-1].glyphs, g)
			if g.x1 > out[n-1].x1 {
				out[n-1].x1 = g.x1
			}
			continue
		}
		out = append(out, segment{x0: g.x0, x1: g.x1, glyphs: []glyph{g}})
	}
	return out
}

type band struct{ x0, x1 float64 }

func columnBands(rows [][]segment) []band {
	var all []band
	for _, row := range rows {
		for _, s := range row {
			all = append(all, band{s.x0, s.x1})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].x0 < all[j].x0 })

	var out []band
	for _, b := range all {
		n := len(out)
		if n > 0 && b.x0 <= out[n-1].x1 {
			if b.x1 > out[n-1].x1 {
				out[n-1].x1 = b.x1
			}
			continue
		}
		out = append(out, b)
	}
	return out
}

func bandOf(bands []band, s segment) int {
	mid := (s.x0 + s.x1) / 2
	for i, b := range bands {
		if mid >= b.x0 && mid <= b.x1 {
			return i
		}
	}
	return len(bands) - 1
}
