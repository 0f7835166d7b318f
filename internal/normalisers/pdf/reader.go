// Package pdf extracts per-page text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
	"github.com/custodia-labs/tutor/internal/logger"
)

// Ensure Reader implements the interface.
var _ driven.PageReader = (*Reader)(nil)

// Reader handles PDF documents using a pure Go parser, so indexing needs no
// external tools.
type Reader struct{}

// NewReader creates a new PDF page reader.
func NewReader() *Reader {
	return &Reader{}
}

// SupportedMIMETypes returns the MIME types this reader handles.
func (r *Reader) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// ReadPages returns the plain text of every page. Pages that cannot be
// decoded are returned with empty text so page numbering stays aligned
// with the source document.
func (r *Reader) ReadPages(ctx context.Context, data []byte) ([]domain.Page, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf: %w", domain.ErrInvalidInput)
	}

	doc, err := openReader(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %v: %w", err, domain.ErrUnsupportedType)
	}

	total := doc.NumPage()
	pages := make([]domain.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, domain.Page{Number: i, Text: pageText(doc, i)})
	}
	logger.Debug("pdf: extracted %d pages", total)
	return pages, nil
}

// openReader wraps pdf.NewReader, which panics on some malformed inputs.
func openReader(data []byte) (doc *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageText(doc *pdf.Reader, n int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("pdf: page %d unreadable: %v", n, rec)
			text = ""
		}
	}()

	p := doc.Page(n)
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		logger.Warn("pdf: page %d: %v", n, err)
		return ""
	}
	return text
}
