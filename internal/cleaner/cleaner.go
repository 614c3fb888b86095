package cleaner

import "github.com/dgallion1/invoicesheet/internal/table"

// Report summarizes what a Clean call removed.
type Report struct {
	RowsDropped    int
	ColumnsDropped int
	Hits           map[Rule]int
}

func (r *Report) hit(rule Rule) {
	if r.Hits == nil {
		r.Hits = make(map[Rule]int)
	}
	r.Hits[rule]++
}

// Add accumulates other into r.
func (r *Report) Add(other Report) {
	r.RowsDropped += other.RowsDropped
	r.ColumnsDropped += other.ColumnsDropped
	for rule, n := range other.Hits {
		if r.Hits == nil {
			r.Hits = make(map[Rule]int)
		}
		r.Hits[rule] += n
	}
}

// Cleaner normalizes raw tables and removes sensitive rows and columns.
type Cleaner struct {
	classifier *Classifier
}

func NewCleaner(c *Classifier) *Cleaner {
	return &Cleaner{classifier: c}
}

// Clean normalizes every cell, drops rows the classifier flags, then drops
// columns flagged over the surviving rows only. Row filtering always runs
// first: a column whose only sensitive value sat in a removed row is kept.
func (c *Cleaner) Clean(raw table.RawTable) (*table.Frame, Report) {
	var rep Report
	f := table.FromRaw(raw, NormalizeCell)
	if f.NumCols() == 0 {
		return f, rep
	}

	keepRows := make([]int, 0, f.NumRows())
	for i, row := range f.Rows {
		if rule, hit := c.classifier.Match(row); hit {
			rep.RowsDropped++
			rep.hit(rule)
			continue
		}
		keepRows = append(keepRows, i)
	}
	f.KeepRows(keepRows)

	keepCols := make([]int, 0, f.NumCols())
	for j := range f.Columns {
		if rule, hit := c.classifier.Match(f.Column(j)); hit {
			rep.ColumnsDropped++
			rep.hit(rule)
			continue
		}
		keepCols = append(keepCols, j)
	}
	f.KeepColumns(keepCols)

	return f, rep
}
