// Package parser extracts coordinate-addressed text blocks, document
// metadata and outline bookmarks from PDF bytes. It is the only package
// that talks to the PDF library; everything downstream works on
// doc.ParsedDocument values.
package parser

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/dgallion1/docstruct/internal/doc"
)

// ErrPDFOpen marks bytes that cannot be opened as a PDF. It is fatal: the
// strategy chain does not retry on it.
var ErrPDFOpen = errors.New("cannot open pdf")

// Extractor turns PDF bytes into a ParsedDocument.
type Extractor struct {
	log *slog.Logger
}

func NewExtractor(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{log: log}
}

// ExtractFile reads and extracts a PDF from disk.
func (e *Extractor) ExtractFile(path string) (*doc.ParsedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return e.Extract(data)
}

// Extract parses raw PDF bytes into reading-ordered text blocks plus
// metadata, page sizes and bookmarks. The returned document's FileHash is
// the SHA-256 hex of data.
func (e *Extractor) Extract(data []byte) (*doc.ParsedDocument, error) {
	hash := sha256.Sum256(data)

	r, err := openReader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFOpen, err)
	}

	pageCount := r.NumPage()
	d := &doc.ParsedDocument{
		PageCount: pageCount,
		FileHash:  fmt.Sprintf("%x", hash[:]),
		PageSizes: make([]doc.PageSize, pageCount),
	}

	for i := 1; i <= pageCount; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		size := pageMediaSize(page)
		d.PageSizes[i-1] = size

		spans, err := pageSpans(page)
		if err != nil {
			e.log.Warn("page content unreadable, skipping", "page", i, "error", err)
			continue
		}
		blocks := buildLineBlocks(spans, i, size)
		blocks = orderBlocks(blocks, size.Width)
		d.Blocks = append(d.Blocks, blocks...)
	}

	d.Metadata = readMetadata(r, d)
	d.Bookmarks = readBookmarks(r)

	e.log.Debug("extracted document",
		"pages", d.PageCount,
		"blocks", len(d.Blocks),
		"bookmarks", len(d.Bookmarks),
		"title", d.Metadata.Title,
	)
	return d, nil
}

// openReader isolates the PDF library's habit of panicking on malformed
// cross-reference tables.
func openReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while opening: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// pageSpans pulls the raw text spans of one page, recovering from content
// stream panics so a single bad page never kills the document.
func pageSpans(page pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			texts = nil
			err = fmt.Errorf("panic while reading content: %v", rec)
		}
	}()
	content := page.Content()
	return content.Text, nil
}

// pageMediaSize reads the page MediaBox, walking up Parent nodes for
// inherited values and defaulting to US Letter.
func pageMediaSize(page pdf.Page) doc.PageSize {
	v := page.V
	for depth := 0; depth < 16 && !v.IsNull(); depth++ {
		mb := v.Key("MediaBox")
		if mb.Kind() == pdf.Array && mb.Len() >= 4 {
			x1 := numValue(mb.Index(0))
			y1 := numValue(mb.Index(1))
			x2 := numValue(mb.Index(2))
			y2 := numValue(mb.Index(3))
			w, h := x2-x1, y2-y1
			if w > 0 && h > 0 {
				return doc.PageSize{Width: w, Height: h}
			}
		}
		v = v.Key("Parent")
	}
	return doc.PageSize{Width: 612, Height: 792}
}

func numValue(v pdf.Value) float64 {
	switch v.Kind() {
	case pdf.Integer:
		return float64(v.Int64())
	case pdf.Real:
		return v.Float64()
	}
	return 0
}
