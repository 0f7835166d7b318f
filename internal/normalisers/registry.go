package normalisers

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
	"github.com/custodia-labs/tutor/internal/normalisers/pdf"
	"github.com/custodia-labs/tutor/internal/normalisers/text"
)

// Ensure Registry implements the interface.
var _ driven.PageReaderRegistry = (*Registry)(nil)

// Registry selects a page reader by MIME type.
type Registry struct {
	readers map[string]driven.PageReader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]driven.PageReader)}
}

// DefaultRegistry returns a registry with the PDF and plain text readers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.NewReader())
	r.Register(text.NewReader())
	return r
}

// Register adds a reader for each of its MIME types, replacing earlier ones.
func (r *Registry) Register(reader driven.PageReader) {
	for _, mt := range reader.SupportedMIMETypes() {
		r.readers[mt] = reader
	}
}

// Get returns the reader for a MIME type. Parameters such as charset are ignored.
func (r *Registry) Get(mimeType string) (driven.PageReader, error) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	reader, ok := r.readers[mediaType]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return reader, nil
}

// ForPath returns the reader for a file based on its extension.
// Files without a known extension are read as plain text.
func (r *Registry) ForPath(path string) (driven.PageReader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return r.Get("application/pdf")
	case "", ".txt", ".text":
		return r.Get("text/plain")
	case ".md", ".markdown":
		return r.Get("text/markdown")
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return r.Get(mt)
	}
	return nil, domain.ErrUnsupportedType
}
