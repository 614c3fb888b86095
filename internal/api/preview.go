package api

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"

	"github.com/dgallion1/invoicesheet/internal/table"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	`|`, `\|`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`&`, `\&`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// previewMarkdown writes the first maxRows rows of frame as a GFM table.
// maxRows <= 0 disables the preview.
func previewMarkdown(frame *table.Frame, maxRows int) string {
	if frame.Empty() || frame.NumCols() == 0 || maxRows <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('|')
	for _, label := range frame.Columns {
		sb.WriteString(" " + strconv.Itoa(label) + " |")
	}
	sb.WriteString("\n|")
	for range frame.Columns {
		sb.WriteString(" --- |")
	}
	sb.WriteByte('\n')

	rows := frame.Rows
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	for _, row := range rows {
		sb.WriteByte('|')
		for _, cell := range row {
			sb.WriteString(" " + mdEscaper.Replace(cell) + " |")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// renderPreview renders the preview table to HTML. Raw HTML in cells is
// escaped by goldmark's default renderer.
func renderPreview(frame *table.Frame, maxRows int) (template.HTML, error) {
	md := previewMarkdown(frame, maxRows)
	if md == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
