package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/dgallion1/invoicesheet/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/page.html"))

const uploadPrompt = "Please upload one or more PDF files to begin."

// pageCopy is the visible text of one variant's page.
type pageCopy struct {
	Title    string
	Upload   string
	Button   string
	Success  string
	NoData   string
	Download string
}

var copies = map[pipeline.Variant]pageCopy{
	pipeline.VariantClean: {
		Title:    "📄 Clean Invoice PDF Tables and Export to Excel",
		Upload:   "Upload PDF invoice files",
		Button:   "Convert to Excel",
		Success:  "✅ Cleaned data extracted successfully!",
		NoData:   "⚠️ No valid table data found after filtering.",
		Download: "📥 Download Excel File",
	},
	pipeline.VariantExtract: {
		Title:    "📄 PDF Table Extractor to Excel",
		Upload:   "Upload PDF files",
		Button:   "Convert to Excel",
		Success:  "✅ Data extracted successfully!",
		NoData:   "⚠️ No tables found in the uploaded PDF files.",
		Download: "📥 Download Excel File",
	},
}

type notice struct {
	Kind string // info, success, warning or error
	Text string
}

type variantOption struct {
	Value   pipeline.Variant
	Label   string
	Checked bool
}

type pageData struct {
	Copy     pageCopy
	Variants []variantOption
	Notice   *notice
	Result   *pipeline.Result
	Preview  template.HTML
}

func newPage(v pipeline.Variant) *pageData {
	return &pageData{
		Copy: copies[v],
		Variants: []variantOption{
			{Value: pipeline.VariantClean, Label: "Remove contact and address rows", Checked: v == pipeline.VariantClean},
			{Value: pipeline.VariantExtract, Label: "Extract tables as is", Checked: v == pipeline.VariantExtract},
		},
	}
}

func (s *Server) renderPage(w http.ResponseWriter, status int, p *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, p); err != nil {
		s.log.Error("render page", "error", err)
	}
}
