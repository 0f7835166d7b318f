package driven

import (
	"context"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

// PageReader extracts per-page text from a source document.
// Each reader handles specific MIME types (e.g., PDF, plain text).
type PageReader interface {
	// SupportedMIMETypes returns the MIME types this reader handles.
	SupportedMIMETypes() []string

	// ReadPages returns the pages of the document in order.
	// Page numbers are 1-based.
	ReadPages(ctx context.Context, data []byte) ([]domain.Page, error)
}

// PageReaderRegistry selects the reader for a source document.
type PageReaderRegistry interface {
	// ForPath returns the reader for a file based on its name.
	// Returns domain.ErrUnsupportedType for unknown file types.
	ForPath(path string) (PageReader, error)
}
