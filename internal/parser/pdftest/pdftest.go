// Package pdftest writes small PDF documents for tests: text in a single
// embedded-metrics font plus filled rectangles for table rulings.
package pdftest

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GlyphWidth is the advance of every glyph in the test font, in 1/1000 em.
const GlyphWidth = 500

// Doc is a PDF under construction.
type Doc struct {
	pages []*Page
	codes map[rune]byte
	next  byte
}

// New returns an empty document.
func New() *Doc {
	return &Doc{codes: make(map[rune]byte), next: 0x01}
}

// Page collects content-stream operators for one page.
type Page struct {
	doc *Doc
	ops strings.Builder
}

// AddPage appends a blank US-letter page.
func (d *Doc) AddPage() *Page {
	p := &Page{doc: d}
	d.pages = append(d.pages, p)
	return p
}

// code maps r to a single-byte font code. Printable ASCII maps to itself;
// other runes get codes from the unused low and high ranges.
func (d *Doc) code(r rune) byte {
	if r >= 0x20 && r <= 0x7E {
		return byte(r)
	}
	if c, ok := d.codes[r]; ok {
		return c
	}
	c := d.next
	switch {
	case c == 0x1F:
		d.next = 0x80
	case c == 0xFF:
		panic("pdftest: too many distinct non-ASCII runes")
	default:
		d.next++
	}
	d.codes[r] = c
	return c
}

// Text draws s with its baseline starting at (x, y).
func (p *Page) Text(x, y, size float64, s string) {
	var hex strings.Builder
	for _, r := range s {
		fmt.Fprintf(&hex, "%02X", p.doc.code(r))
	}
	fmt.Fprintf(&p.ops, "BT /F1 %s Tf %s %s Td <%s> Tj ET\n", num(size), num(x), num(y), hex.String())
}

// Rect fills a rectangle with lower-left corner (x, y).
func (p *Page) Rect(x, y, w, h float64) {
	fmt.Fprintf(&p.ops, "%s %s %s %s re f\n", num(x), num(y), num(w), num(h))
}

// Grid draws ruling lines for a table whose top-left corner is (x, top).
// Column widths run left to right and row heights top to bottom. It
// returns the lower-left corner of every cell, indexed [row][col].
func (p *Page) Grid(x, top float64, colWidths, rowHeights []float64) [][][2]float64 {
	const t = 0.5
	width, height := 0.0, 0.0
	for _, w := range colWidths {
		width += w
	}
	for _, h := range rowHeights {
		height += h
	}

	y := top
	p.Rect(x, y-t/2, width, t)
	for _, h := range rowHeights {
		y -= h
		p.Rect(x, y-t/2, width, t)
	}
	cx := x
	p.Rect(cx-t/2, top-height, t, height)
	for _, w := range colWidths {
		cx += w
		p.Rect(cx-t/2, top-height, t, height)
	}

	cells := make([][][2]float64, len(rowHeights))
	y = top
	for i, h := range rowHeights {
		y -= h
		cx = x
		cells[i] = make([][2]float64, len(colWidths))
		for j, w := range colWidths {
			cells[i][j] = [2]float64{cx, y}
			cx += w
		}
	}
	return cells
}

// Table draws a ruled grid with uniform cell sizes and writes rows into
// it. An empty string leaves the cell blank.
func (p *Page) Table(x, top, colWidth, rowHeight, size float64, rows [][]string) {
	ncols := 0
	for _, r := range rows {
		if len(r) > ncols {
			ncols = len(r)
		}
	}
	widths := make([]float64, ncols)
	for i := range widths {
		widths[i] = colWidth
	}
	heights := make([]float64, len(rows))
	for i := range heights {
		heights[i] = rowHeight
	}
	cells := p.Grid(x, top, widths, heights)
	for i, row := range rows {
		for j, v := range row {
			if v == "" {
				continue
			}
			origin := cells[i][j]
			p.Text(origin[0]+2, origin[1]+(rowHeight-size)/2+1, size, v)
		}
	}
}

// Bytes serializes the document.
func (d *Doc) Bytes() []byte {
	var objs []string
	add := func(body string) int {
		objs = append(objs, body)
		return len(objs)
	}

	catalog := add("")
	pagesObj := add("")

	cmap := d.toUnicode()
	toUni := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(cmap), cmap))

	widths := make([]string, 256)
	for i := range widths {
		widths[i] = fmt.Sprint(GlyphWidth)
	}
	font := add(fmt.Sprintf(
		"<< /Type /Font /Subtype /Type1 /BaseFont /TestSans /FirstChar 0 /LastChar 255 /Widths [%s] /ToUnicode %d 0 R >>",
		strings.Join(widths, " "), toUni))

	var kids []string
	for _, p := range d.pages {
		content := p.ops.String()
		c := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
		pg := add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesObj, font, c))
		kids = append(kids, fmt.Sprintf("%d 0 R", pg))
	}
	objs[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	objs[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, catalog, xref)
	return buf.Bytes()
}

func (d *Doc) toUnicode() string {
	type pair struct {
		code byte
		r    rune
	}
	pairs := make([]pair, 0, len(d.codes))
	for r, c := range d.codes {
		pairs = append(pairs, pair{c, r})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].code < pairs[j].code })

	var b strings.Builder
	b.WriteString("begincmap\n1 begincodespacerange\n<00> <FF>\nendcodespacerange\n")
	if len(pairs) > 0 {
		fmt.Fprintf(&b, "%d beginbfchar\n", len(pairs))
		for _, p := range pairs {
			fmt.Fprintf(&b, "<%02X> <%04X>\n", p.code, p.r)
		}
		b.WriteString("endbfchar\n")
	}
	b.WriteString("1 beginbfrange\n<20> <7E> <0020>\nendbfrange\nendcmap")
	return b.String()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
