package parser

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/dgallion1/invoicesheet/internal/table"
	pdflib "github.com/ledongthuc/pdf"
)

// Strategy selects how table boundaries are detected on a page.
type Strategy string

const (
	// StrategyAuto tries ruling lines first and falls back to text alignment.
	StrategyAuto Strategy = "auto"
	// StrategyLines builds cells from drawn rectangles and rules.
	StrategyLines Strategy = "lines"
	// StrategyText infers rows and columns from glyph positions alone.
	StrategyText Strategy = "text"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyAuto, StrategyLines, StrategyText:
		return st, nil
	case "":
		return StrategyAuto, nil
	}
	return "", fmt.Errorf("unknown extraction strategy %q", s)
}

// FinderConfig tunes table detection. Distances are in points unless
// noted as a fraction of the font size.
type FinderConfig struct {
	Strategy Strategy

	// SnapTolerance merges ruling lines whose positions differ by less
	// than this.
	SnapTolerance float64
	// LineThickness is the widest a filled rectangle can be and still
	// count as a single rule.
	LineThickness float64

	// RowTolerance groups glyphs into one text line when baselines are
	// within this fraction of the font size.
	RowTolerance float64
	// WordGap inserts a space between glyphs further apart than this
	// fraction of the font size.
	WordGap float64
	// ColumnGap splits a text line into cells at gaps wider than this
	// fraction of the font size.
	ColumnGap float64
	// MinRows and MinCols bound the smallest text-aligned table.
	MinRows int
	MinCols int
}

// DefaultFinderConfig returns settings that work for typical generated
// invoices.
func DefaultFinderConfig() FinderConfig {
	return FinderConfig{
		Strategy:      StrategyAuto,
		SnapTolerance: 3,
		LineThickness: 2,
		RowTolerance:  0.5,
		WordGap:       0.25,
		ColumnGap:     1.2,
		MinRows:       2,
		MinCols:       2,
	}
}

// Finder locates the primary table on a page.
type Finder struct {
	cfg FinderConfig
}

// NewFinder returns a finder; zero fields in cfg take their defaults.
func NewFinder(cfg FinderConfig) *Finder {
	def := DefaultFinderConfig()
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.SnapTolerance <= 0 {
		cfg.SnapTolerance = def.SnapTolerance
	}
	if cfg.LineThickness <= 0 {
		cfg.LineThickness = def.LineThickness
	}
	if cfg.RowTolerance <= 0 {
		cfg.RowTolerance = def.RowTolerance
	}
	if cfg.WordGap <= 0 {
		cfg.WordGap = def.WordGap
	}
	if cfg.ColumnGap <= 0 {
		cfg.ColumnGap = def.ColumnGap
	}
	if cfg.MinRows <= 0 {
		cfg.MinRows = def.MinRows
	}
	if cfg.MinCols <= 0 {
		cfg.MinCols = def.MinCols
	}
	return &Finder{cfg: cfg}
}

// Find returns the largest table in the page content, or nil.
func (f *Finder) Find(c pdflib.Content) table.RawTable {
	glyphs := toGlyphs(c.Text)
	switch f.cfg.Strategy {
	case StrategyLines:
		return f.findLines(c.Rect, glyphs)
	case StrategyText:
		return f.findText(glyphs)
	default:
		if t := f.findLines(c.Rect, glyphs); t != nil {
			return t
		}
		return f.findText(glyphs)
	}
}

type glyph struct {
	x0, x1 float64
	y      float64
	size   float64
	s      string
}

func (g glyph) cx() float64 { return (g.x0 + g.x1) / 2 }
func (g glyph) cy() float64 { return g.y + g.size*0.3 }

// toGlyphs drops whitespace and TJ line markers. Fonts without width
// tables report W == 0, so half an em is assumed.
func toGlyphs(texts []pdflib.Text) []glyph {
	out := make([]glyph, 0, len(texts))
	for _, t := range texts {
		if strings.TrimFunc(t.S, unicode.IsSpace) == "" {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = 1
		}
		w := t.W
		if w <= 0 {
			w = size * 0.5
		}
		out = append(out, glyph{x0: t.X, x1: t.X + w, y: t.Y, size: size, s: t.S})
	}
	return out
}

// joinGlyphs renders glyphs as text: baselines close together form a line,
// lines are joined with "\n" and wide gaps within a line become spaces.
func (f *Finder) joinGlyphs(gs []glyph) string {
	if len(gs) == 0 {
		return ""
	}
	lines := f.groupLines(gs)
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		var sb strings.Builder
		for i, g := range line {
			if i > 0 && g.x0-line[i-1].x1 > f.cfg.WordGap*g.size {
				sb.WriteByte(' ')
			}
			sb.WriteString(g.s)
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n")
}

// groupLines clusters glyphs by baseline, top line first, each line sorted
// left to right.
func (f *Finder) groupLines(gs []glyph) [][]glyph {
	sorted := make([]glyph, len(gs))
	copy(sorted, gs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].y > sorted[j].y })

	var lines [][]glyph
	var lineY float64
	for _, g := range sorted {
		n := len(lines)
		if n > 0 && math.Abs(g.y-lineY) <= f.cfg.RowTolerance*g.size {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []glyph{g})
		lineY = g.y
	}
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].x0 < line[j].x0 })
	}
	return lines
}
