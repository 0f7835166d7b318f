package text

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.PageReader = (*Reader)(nil)

// pageBreak separates pages in plain text exports (pdftotext writes one per page).
const pageBreak = "\f"

// Reader handles plain text documents. Form feeds delimit pages; a document
// without any is a single page.
type Reader struct{}

// NewReader creates a new plain text page reader.
func NewReader() *Reader {
	return &Reader{}
}

// SupportedMIMETypes returns the MIME types this reader handles.
func (r *Reader) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
	}
}

// ReadPages splits the document on form feeds.
func (r *Reader) ReadPages(ctx context.Context, data []byte) ([]domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, domain.ErrUnsupportedType
	}

	content := strings.TrimSuffix(string(data), pageBreak)
	if content == "" {
		return nil, nil
	}

	raw := strings.Split(content, pageBreak)
	pages := make([]domain.Page, len(raw))
	for i, text := range raw {
		pages[i] = domain.Page{Number: i + 1, Text: text}
	}
	return pages, nil
}
