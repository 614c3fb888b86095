package parser

import (
	"math"
	"sort"

	"github.com/dgallion1/invoicesheet/internal/table"
	pdflib "github.com/ledongthuc/pdf"
)

// edge is a horizontal or vertical rule: pos is its y (horizontal) or x
// (vertical) and lo..hi its extent along the other axis.
type edge struct {
	pos, lo, hi float64
}

type cell struct {
	x0, y0, x1, y1 float64 // y1 is the top
}

// findLines builds a table from ruling lines: rectangles become edges,
// edges snap to a grid, grid points where a horizontal and a vertical edge
// cross become intersections, and the smallest box with intersections at
// all four corners and edges along all four sides becomes a cell.
func (f *Finder) findLines(rects []pdflib.Rect, glyphs []glyph) table.RawTable {
	hs, vs := f.edges(rects)
	if len(hs) < 2 || len(vs) < 2 {
		return nil
	}
	hs = f.snap(hs)
	vs = f.snap(vs)

	ys := positions(hs)
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))
	xs := positions(vs)
	sort.Float64s(xs)

	tol := f.cfg.SnapTolerance
	onH := func(y, a, b float64) bool { return covers(hs, y, a, b, tol) }
	onV := func(x, a, b float64) bool { return covers(vs, x, a, b, tol) }
	isX := func(i, j int) bool {
		return onH(ys[i], xs[j], xs[j]) && onV(xs[j], ys[i], ys[i])
	}

	var cells []cell
	for i := range ys {
		for j := range xs {
			if !isX(i, j) {
				continue
			}
			if c, ok := smallestCell(i, j, xs, ys, isX, onH, onV); ok {
				cells = append(cells, c)
			}
		}
	}
	if len(cells) == 0 {
		return nil
	}

	best := largestGroup(cells)
	return f.cellsToTable(best, glyphs)
}

func smallestCell(i, j int, xs, ys []float64, isX func(i, j int) bool, onH, onV func(p, a, b float64) bool) (cell, bool) {
	for k := i + 1; k < len(ys); k++ {
		if !isX(k, j) || !onV(xs[j], ys[k], ys[i]) {
			continue
		}
		for l := j + 1; l < len(xs); l++ {
			if !isX(i, l) || !onH(ys[i], xs[j], xs[l]) {
				continue
			}
			if isX(k, l) && onH(ys[k], xs[j], xs[l]) && onV(xs[l], ys[k], ys[i]) {
				return cell{x0: xs[j], y0: ys[k], x1: xs[l], y1: ys[i]}, true
			}
		}
	}
	return cell{}, false
}

// edges converts drawn rectangles to rules. Thin rectangles are a single
// rule; larger ones contribute their four sides.
func (f *Finder) edges(rects []pdflib.Rect) (hs, vs []edge) {
	t := f.cfg.LineThickness
	for _, r := range rects {
		x0, x1 := math.Min(r.Min.X, r.Max.X), math.Max(r.Min.X, r.Max.X)
		y0, y1 := math.Min(r.Min.Y, r.Max.Y), math.Max(r.Min.Y, r.Max.Y)
		w, h := x1-x0, y1-y0
		switch {
		case h <= t && w > t:
			hs = append(hs, edge{pos: (y0 + y1) / 2, lo: x0, hi: x1})
		case w <= t && h > t:
			vs = append(vs, edge{pos: (x0 + x1) / 2, lo: y0, hi: y1})
		case w > t && h > t:
			hs = append(hs, edge{pos: y0, lo: x0, hi: x1}, edge{pos: y1, lo: x0, hi: x1})
			vs = append(vs, edge{pos: x0, lo: y0, hi: y1}, edge{pos: x1, lo: y0, hi: y1})
		}
	}
	return hs, vs
}

// snap aligns edges whose positions are within the snap tolerance to
// their cluster mean, then joins collinear edges that touch or overlap.
func (f *Finder) snap(es []edge) []edge {
	tol := f.cfg.SnapTolerance
	sort.Slice(es, func(i, j int) bool { return es[i].pos < es[j].pos })

	for start := 0; start < len(es); {
		end := start + 1
		sum := es[start].pos
		for end < len(es) && es[end].pos-es[end-1].pos <= tol {
			sum += es[end].pos
			end++
		}
		mean := sum / float64(end-start)
		for k := start; k < end; k++ {
			es[k].pos = mean
		}
		start = end
	}

	sort.Slice(es, func(i, j int) bool {
		if es[i].pos != es[j].pos {
			return es[i].pos < es[j].pos
		}
		return es[i].lo < es[j].lo
	})
	var out []edge
	for _, e := range es {
		n := len(out)
		if n > 0 && out[n-1].pos == e.pos && e.lo <= out[n-1].hi+tol {
			if e.hi > out[n-1].hi {
				out[n-1].hi = e.hi
			}
			continue
		}
		out = append(out, e)
	}
	return out
}

func positions(es []edge) []float64 {
	var out []float64
	for _, e := range es {
		if n := len(out); n == 0 || out[n-1] != e.pos {
			out = append(out, e.pos)
		}
	}
	return out
}

// covers reports whether a single edge at pos spans a..b.
func covers(es []edge, pos, a, b, tol float64) bool {
	if a > b {
		a, b = b, a
	}
	for _, e := range es {
		if math.Abs(e.pos-pos) <= tol/2 && e.lo-tol <= a && b <= e.hi+tol {
			return true
		}
	}
	return false
}

// largestGroup partitions cells into tables (cells sharing a corner
// belong together) and returns the one with the most cells. Ties go to
// the table found first, which is the top-most.
func largestGroup(cells []cell) []cell {
	parent := make([]int, len(cells))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	owner := make(map[[2]float64]int)
	for i, c := range cells {
		for _, pt := range [][2]float64{{c.x0, c.y0}, {c.x0, c.y1}, {c.x1, c.y0}, {c.x1, c.y1}} {
			if o, ok := owner[pt]; ok {
				parent[find(i)] = find(o)
			} else {
				owner[pt] = i
			}
		}
	}

	groups := make(map[int][]cell)
	var order []int
	for i, c := range cells {
		root := find(i)
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], c)
	}
	best := order[0]
	for _, root := range order[1:] {
		if len(groups[root]) > len(groups[best]) {
			best = root
		}
	}
	return groups[best]
}

// cellsToTable lays cells out by their top edge (rows) and left edge
// (columns). Grid positions with no cell starting there stay nil.
func (f *Finder) cellsToTable(cells []cell, glyphs []glyph) table.RawTable {
	var tops, lefts []float64
	for _, c := range cells {
		tops = appendUnique(tops, c.y1)
		lefts = appendUnique(lefts, c.x0)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(tops)))
	sort.Float64s(lefts)

	rowOf := indexOf(tops)
	colOf := indexOf(lefts)

	members := make(map[cell][]glyph, len(cells))
	for _, g := range glyphs {
		x, y := g.cx(), g.cy()
		for _, c := range cells {
			if x >= c.x0 && x < c.x1 && y >= c.y0 && y < c.y1 {
				members[c] = append(members[c], g)
				break
			}
		}
	}

	out := make(table.RawTable, len(tops))
	for i := range out {
		out[i] = make([]*string, len(lefts))
	}
	for _, c := range cells {
		text := f.joinGlyphs(members[c])
		out[rowOf[c.y1]][colOf[c.x0]] = &text
	}
	return out
}

func appendUnique(vals []float64, v float64) []float64 {
	for _, x := range vals {
		if x == v {
			return vals
		}
	}
	return append(vals, v)
}

func indexOf(vals []float64) map[float64]int {
	m := make(map[float64]int, len(vals))
	for i, v := range vals {
		m[v] = i
	}
	return m
}
