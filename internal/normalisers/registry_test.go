package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/normalisers/pdf"
	"github.com/custodia-labs/tutor/internal/normalisers/text"
)

func TestRegistry_ForPath(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		path     string
		expected any
	}{
		{"books/philosophy.pdf", &pdf.Reader{}},
		{"BOOK.PDF", &pdf.Reader{}},
		{"notes.txt", &text.Reader{}},
		{"README", &text.Reader{}},
		{"chapter.md", &text.Reader{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			reader, err := r.ForPath(tt.path)
			require.NoError(t, err)
			assert.IsType(t, tt.expected, reader)
		})
	}
}

func TestRegistry_Unsupported(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.ForPath("slides.pptx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = r.Get("image/png")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_GetIgnoresParameters(t *testing.T) {
	reader, err := DefaultRegistry().Get("text/plain; charset=utf-8")

	require.NoError(t, err)
	assert.IsType(t, &text.Reader{}, reader)
}

func TestRegistry_EmptyRegistry(t *testing.T) {
	_, err := NewRegistry().ForPath("book.pdf")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
