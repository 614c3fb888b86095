package parser

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dgallion1/invoicesheet/internal/table"
	pdflib "github.com/ledongthuc/pdf"
)

// ErrUnreadablePDF is returned when a file cannot be opened as a PDF.
var ErrUnreadablePDF = errors.New("unreadable pdf")

// Options controls how a document is opened.
type Options struct {
	// Password is tried once when the file is encrypted.
	Password string
	// Validate runs a structural check before extraction.
	Validate bool
	Finder   *Finder
}

// Document is an opened PDF ready for page-by-page table extraction.
type Document struct {
	reader *pdflib.Reader
	finder *Finder
}

// Open parses data as a PDF. The PDF library panics on some malformed
// input; those panics are returned as errors wrapping ErrUnreadablePDF.
func Open(data []byte, opts Options) (doc *Document, err error) {
	if opts.Validate {
		if err := Validate(data, opts.Password); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnreadablePDF, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, r)
		}
	}()

	tried := false
	password := func() string {
		if tried {
			return ""
		}
		tried = true
		return opts.Password
	}
	reader, err := pdflib.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePDF, err)
	}

	finder := opts.Finder
	if finder == nil {
		finder = NewFinder(DefaultFinderConfig())
	}
	return &Document{reader: reader, finder: finder}, nil
}

// NumPage returns the page count from the document catalog.
func (d *Document) NumPage() int {
	return d.reader.NumPage()
}

// ExtractTable returns the primary table on page pageNum (1-based), or nil
// when the page has none.
func (d *Document) ExtractTable(pageNum int) (t table.RawTable, err error) {
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("page %d: malformed content: %v", pageNum, r)
		}
	}()

	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, nil
	}
	return d.finder.Find(page.Content()), nil
}
