package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/invoicesheet/internal/cleaner"
	"github.com/dgallion1/invoicesheet/internal/parser"
	"github.com/dgallion1/invoicesheet/internal/table"
)

var (
	// ErrNoData means no page of any upload produced a non-empty table.
	ErrNoData = errors.New("no table data found")
	// ErrNoFiles means the request carried no uploads. The HTTP layer
	// reports it before conversion; Run itself treats an empty batch as
	// ErrNoData.
	ErrNoFiles = errors.New("no files uploaded")
	// ErrFileTooLarge means an upload exceeded the per-file size limit.
	ErrFileTooLarge = errors.New("file exceeds max size")
)

// Upload is one uploaded file. Open is called once; the handle is closed
// as soon as the bytes are read.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Document is an opened PDF.
type Document interface {
	NumPage() int
	ExtractTable(page int) (table.RawTable, error)
}

// OpenFunc opens PDF bytes, trying password if the file is encrypted.
type OpenFunc func(data []byte, password string) (Document, error)

// OpenPDF returns an OpenFunc backed by the PDF parser.
func OpenPDF(finder *parser.Finder, validate bool) OpenFunc {
	return func(data []byte, password string) (Document, error) {
		doc, err := parser.Open(data, parser.Options{Password: password, Validate: validate, Finder: finder})
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

// Summary describes one aggregation run.
type Summary struct {
	Frame  *table.Frame
	Files  int
	Pages  int
	Tables int
	Report cleaner.Report
}

// Aggregator turns a batch of uploads into one combined frame.
type Aggregator struct {
	open     OpenFunc
	cleaner  *cleaner.Cleaner
	maxBytes int64
	log      *slog.Logger
}

func NewAggregator(open OpenFunc, c *cleaner.Cleaner, maxBytes int64, log *slog.Logger) *Aggregator {
	return &Aggregator{open: open, cleaner: c, maxBytes: maxBytes, log: log}
}

// Run processes uploads in order and each file's pages in order. Pages
// without a table are skipped; frames left empty after cleaning are
// dropped. The remaining frames are concatenated in encounter order.
//
// Any read or extraction error aborts the whole batch. When nothing
// survives, including when there are no uploads at all, Run returns the
// summary alongside ErrNoData.
func (a *Aggregator) Run(ctx context.Context, variant Variant, uploads []Upload, password string) (*Summary, error) {
	sum := &Summary{}
	var frames []*table.Frame
	for _, up := range uploads {
		log := a.log.With("file", up.Name, "variant", variant)

		data, err := a.read(up)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", up.Name, err)
		}
		doc, err := a.open(data, password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", up.Name, err)
		}
		sum.Files++

		pages, tables := doc.NumPage(), 0
		for p := 1; p <= pages; p++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			raw, err := doc.ExtractTable(p)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", up.Name, err)
			}
			sum.Pages++
			if len(raw) == 0 {
				continue
			}
			tables++

			frame := a.frame(variant, raw, sum)
			if !frame.Empty() {
				frames = append(frames, frame)
			}
		}
		sum.Tables += tables
		log.Info("file processed",
			"pages", pages,
			"tables", tables,
			"bytes", len(data),
			"sha256", ContentHashHex(data)[:16],
		)
	}

	sum.Frame = table.Concat(frames)
	if len(frames) == 0 {
		return sum, ErrNoData
	}
	return sum, nil
}

func (a *Aggregator) frame(variant Variant, raw table.RawTable, sum *Summary) *table.Frame {
	if variant == VariantClean {
		f, rep := a.cleaner.Clean(raw)
		sum.Report.Add(rep)
		return f
	}
	return table.FromRaw(raw, rawCell)
}

// rawCell keeps extracted text as is; absent cells export as blanks.
func rawCell(cell *string) string {
	if cell == nil {
		return ""
	}
	return *cell
}

func (a *Aggregator) read(up Upload) ([]byte, error) {
	rc, err := up.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	r := io.Reader(rc)
	if a.maxBytes > 0 {
		r = io.LimitReader(rc, a.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if a.maxBytes > 0 && int64(len(data)) > a.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, a.maxBytes)
	}
	return data, nil
}
