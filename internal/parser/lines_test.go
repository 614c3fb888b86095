package parser

import (
	"testing"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hline(x0, x1, y float64) pdflib.Rect {
	return pdflib.Rect{Min: pdflib.Point{X: x0, Y: y - 0.25}, Max: pdflib.Point{X: x1, Y: y + 0.25}}
}

func vline(x, y0, y1 float64) pdflib.Rect {
	return pdflib.Rect{Min: pdflib.Point{X: x - 0.25, Y: y0}, Max: pdflib.Point{X: x + 0.25, Y: y1}}
}

// grid rules a table with columns at xs and rows at ys (top first).
func grid(xs, ys []float64) []pdflib.Rect {
	var out []pdflib.Rect
	for _, y := range ys {
		out = append(out, hline(xs[0], xs[len(xs)-1], y))
	}
	for _, x := range xs {
		out = append(out, vline(x, ys[len(ys)-1], ys[0]))
	}
	return out
}

func TestFindLines_RuledGrid(t *testing.T) {
	c := textContent(
		word(52, 686, "Item"), word(152, 686, "Qty"),
		word(52, 666, "Widget"), word(152, 666, "2"),
		word(52, 646, "Gadget"),
	)
	c.Rect = grid([]float64{50, 150, 250}, []float64{700, 680, 660, 640})

	raw := NewFinder(FinderConfig{Strategy: StrategyLines}).Find(c)
	require.NotNil(t, raw)
	assert.Equal(t, [][]string{
		{"Item", "Qty"},
		{"Widget", "2"},
		{"Gadget", ""},
	}, cells(t, raw))
}

func TestFindLines_SnapsNearbyRules(t *testing.T) {
	c := textContent(word(52, 686, "A"), word(152, 686, "B"), word(52, 666, "C"), word(152, 666, "D"))
	// The middle rule and the inner column rule are each drawn in two
	// slightly misaligned halves.
	c.Rect = []pdflib.Rect{
		hline(50, 250, 700), hline(50, 150, 681.5), hline(150, 250, 680), hline(50, 250, 660),
		vline(50, 660, 700), vline(151, 680, 700), vline(149, 660, 681), vline(250, 660, 700),
	}
	raw := NewFinder(FinderConfig{Strategy: StrategyLines}).Find(c)
	assert.Equal(t, [][]string{{"A", "B"}, {"C", "D"}}, cells(t, raw))
}

func TestFindLines_MergedCellLeavesNil(t *testing.T) {
	// The top row has no rule at x=150, so it is one cell spanning both columns.
	c := textContent(word(52, 686, "Header"), word(52, 666, "a"), word(152, 666, "b"))
	c.Rect = []pdflib.Rect{
		hline(50, 250, 700), hline(50, 250, 680), hline(50, 250, 660),
		vline(50, 660, 700), vline(250, 660, 700), vline(150, 660, 680),
	}
	raw := NewFinder(FinderConfig{Strategy: StrategyLines}).Find(c)
	assert.Equal(t, [][]string{{"Header", "<nil>"}, {"a", "b"}}, cells(t, raw))
}

func TestFindLines_BoxOutlineIsFourEdges(t *testing.T) {
	c := textContent(word(60, 670, "Total"), word(160, 670, "1,500"))
	c.Rect = []pdflib.Rect{
		{Min: pdflib.Point{X: 50, Y: 660}, Max: pdflib.Point{X: 150, Y: 690}},
		{Min: pdflib.Point{X: 150, Y: 660}, Max: pdflib.Point{X: 250, Y: 690}},
	}
	raw := NewFinder(FinderConfig{Strategy: StrategyLines}).Find(c)
	assert.Equal(t, [][]string{{"Total", "1,500"}}, cells(t, raw))
}

func TestFindLines_PicksLargestTable(t *testing.T) {
	c := textContent(word(52, 786, "logo"), word(52, 486, "x"))
	c.Rect = append(grid([]float64{50, 150}, []float64{800, 780}),
		grid([]float64{50, 150, 250}, []float64{500, 480, 460})...)
	raw := NewFinder(FinderConfig{Strategy: StrategyLines}).Find(c)
	require.Len(t, raw, 2)
	assert.Equal(t, "x", *raw[0][0])
}

func TestFindLines_MultilineCellText(t *testing.T) {
	c := textContent(word(52, 690, "Line"), word(52, 675, "two"), word(152, 685, "v"))
	c.Rect = grid([]float64{50, 150, 250}, []float64{700, 660})
	raw := NewFinder(FinderConfig{Strategy: StrategyLines}).Find(c)
	require.Len(t, raw, 1)
	assert.Equal(t, "Line\ntwo", *raw[0][0])
}

func TestFind_AutoFallsBackToText(t *testing.T) {
	c := textContent(
		word(50, 680, "Item"), word(200, 680, "Qty"),
		word(50, 665, "Pen"), word(200, 665, "4"),
	)
	raw := NewFinder(DefaultFinderConfig()).Find(c)
	assert.Equal(t, [][]string{{"Item", "Qty"}, {"Pen", "4"}}, cells(t, raw))

	assert.Nil(t, NewFinder(FinderConfig{Strategy: StrategyLines}).Find(c))
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": StrategyAuto, "AUTO": StrategyAuto, "lines": StrategyLines, " text ": StrategyText} {
		got, err := ParseStrategy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStrategy("stream")
	assert.Error(t, err)
}
