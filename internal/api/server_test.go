package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/invoicesheet/internal/cleaner"
	"github.com/dgallion1/invoicesheet/internal/config"
	"github.com/dgallion1/invoicesheet/internal/export"
	"github.com/dgallion1/invoicesheet/internal/metrics"
	"github.com/dgallion1/invoicesheet/internal/parser"
	"github.com/dgallion1/invoicesheet/internal/parser/pdftest"
	"github.com/dgallion1/invoicesheet/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"
)

func testConfig() config.Config {
	return config.Config{
		MaxUploadBytes: 1 << 20,
		MaxFiles:       3,
		DefaultVariant: "clean",
		DownloadTTL:    time.Hour,
		PreviewRows:    10,
		StatsWindow:    time.Hour,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := pipeline.NewAggregator(
		pipeline.OpenPDF(parser.NewFinder(parser.DefaultFinderConfig()), false),
		cleaner.NewCleaner(cleaner.MustClassifier(cleaner.DefaultRules())),
		cfg.MaxUploadBytes,
		log,
	)
	m := metrics.New()
	return NewServer(pipeline.NewConverter(cfg, agg, m, log), m, log, cfg)
}

func invoicePDF(rows ...[]string) []byte {
	doc := pdftest.New()
	doc.AddPage().Table(50, 700, 100, 20, 10, rows)
	return doc.Bytes()
}

type formFile struct {
	name string
	data []byte
}

func convertRequest(t *testing.T, path string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// downloadHref returns the href of the download link, or "".
func downloadHref(t *testing.T, page string) string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)

	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "a" {
			var id, href string
			for _, a := range n.Attr {
				switch a.Key {
				case "id":
					id = a.Val
				case "href":
					href = a.Val
				}
			}
			if id == "download" {
				return href
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if h := walk(c); h != "" {
				return h
			}
		}
		return ""
	}
	return walk(doc)
}

func sheet(t *testing.T, data []byte, name string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(name)
	require.NoError(t, err)
	return rows
}

var mixedInvoice = invoicePDF(
	[]string{"Item", "Qty", "Price"},
	[]string{"Widget", "2", "1,000"},
	[]string{"〒150-0001", "Tokyo", "Shibuya"},
)

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndexShowsPrompt(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "📄 Clean Invoice PDF Tables and Export to Excel")
	assert.Contains(t, rec.Body.String(), uploadPrompt)
	assert.Contains(t, rec.Body.String(), "Upload PDF invoice files")
	assert.Contains(t, rec.Body.String(), `<button type="submit">Convert to Excel</button>`)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/?variant=extract", nil))
	assert.Contains(t, rec.Body.String(), "📄 PDF Table Extractor to Excel")
	assert.Contains(t, rec.Body.String(), "Upload PDF files")
	assert.Contains(t, rec.Body.String(), `<button type="submit">Convert to Excel</button>`)
}

func TestConvertPageAndDownload(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, convertRequest(t, "/convert", map[string]string{"variant": "clean"},
		formFile{"invoice.pdf", mixedInvoice}))
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "✅ Cleaned data extracted successfully!")
	assert.Contains(t, page, "📥 Download Excel File")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "Widget")
	assert.NotContains(t, page, "Shibuya")

	href := downloadHref(t, page)
	require.True(t, strings.HasPrefix(href, "/download/"), "href %q", href)

	rec = serve(s, httptest.NewRequest(http.MethodGet, href, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=filtered_invoice_data.xlsx`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, [][]string{
		{"0", "1", "2"},
		{"Item", "Qty", "Price"},
		{"Widget", "2", "1,000"},
	}, sheet(t, rec.Body.Bytes(), "Cleaned Data"))
}

func TestConvertPageNoData(t *testing.T) {
	s := newTestServer(t, testConfig())
	contact := invoicePDF([]string{"連絡先", "03-1234-5678"})

	rec := serve(s, convertRequest(t, "/convert", map[string]string{"variant": "clean"},
		formFile{"contact.pdf", contact}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "⚠️ No valid table data found after filtering.")
	assert.Empty(t, downloadHref(t, rec.Body.String()))
}

func TestConvertPageNoFiles(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := serve(s, convertRequest(t, "/convert", map[string]string{"variant": "extract"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), uploadPrompt)
	assert.Contains(t, rec.Body.String(), "📄 PDF Table Extractor to Excel")
}

func TestConvertPageRejectsNonPDF(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := serve(s, convertRequest(t, "/convert", nil, formFile{"notes.txt", []byte("hello")}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type: .txt")
}

func TestConvertPageTooManyFiles(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFiles = 1
	s := newTestServer(t, cfg)
	rec := serve(s, convertRequest(t, "/convert", nil,
		formFile{"a.pdf", mixedInvoice}, formFile{"b.pdf", mixedInvoice}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertPageUnreadablePDF(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := serve(s, convertRequest(t, "/convert", nil, formFile{"broken.pdf", []byte("%PDF-1.4 nothing else here")}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "broken.pdf")
}

func TestConvertAPI(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, convertRequest(t, "/api/convert", map[string]string{"variant": "extract"},
		formFile{"invoice.pdf", mixedInvoice}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=combined_output.xlsx`, rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Header().Get("X-Result-Id"))
	rows := sheet(t, rec.Body.Bytes(), "Extracted Data")
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"〒150-0001", "Tokyo", "Shibuya"}, rows[3])
}

func TestConvertAPINoData(t *testing.T) {
	s := newTestServer(t, testConfig())
	contact := invoicePDF([]string{"連絡先", "03-1234-5678"})

	rec := serve(s, convertRequest(t, "/api/convert", nil, formFile{"contact.pdf", contact}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, pipeline.ErrNoData.Error(), body["error"])
}

func TestConvertAPIAuth(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "secret"
	s := newTestServer(t, cfg)

	rec := serve(s, convertRequest(t, "/api/convert", nil, formFile{"invoice.pdf", mixedInvoice}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := convertRequest(t, "/api/convert", nil, formFile{"invoice.pdf", mixedInvoice})
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(s, req).Code)

	req = convertRequest(t, "/api/convert", nil, formFile{"invoice.pdf", mixedInvoice})
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, serve(s, req).Code)

	// Browser pages stay open.
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestDownloadUnknown(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/download/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsAndMetrics(t *testing.T) {
	s := newTestServer(t, testConfig())
	serve(s, convertRequest(t, "/api/convert", nil, formFile{"invoice.pdf", mixedInvoice}))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Window      string `json:"window"`
		Conversions struct {
			Count int `json:"count"`
		} `json:"conversions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, "1h0m0s", stats.Window)
	assert.Equal(t, 1, stats.Conversions.Count)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `invoicesheet_conversions_total{outcome="ok",variant="clean"} 1`)
	assert.Contains(t, rec.Body.String(), `invoicesheet_suppressed_total{axis="row"} 1`)
}

func TestSanitizeFilename(t *testing.T) {
	for in, want := range map[string]string{
		"invoice.pdf":        "invoice.pdf",
		"../../etc/passwd":   "passwd",
		`C:\Users\me\a.pdf`:  "a.pdf",
		"":                   "unnamed",
		"dir/..":             "_",
		"march..invoice.pdf": "march_invoice.pdf",
	} {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
}
