package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DefaultChunkTextCap bounds the text of a chunk read back from storage.
// It keeps memory and prompt size predictable regardless of what was indexed.
const DefaultChunkTextCap = 8000

// Chunk is the atomic retrievable unit of a collection.
// Chunks are immutable once written; re-indexing replaces them.
type Chunk struct {
	// CollectionID is the logical grouping, e.g. a book slug.
	CollectionID string

	// ChunkID is unique within the collection and derived from
	// block/sub-chunk position, see ChunkID.
	ChunkID string

	// Text is the normalised passage text.
	Text string

	// PageStart is the first source page (1-based), if known.
	PageStart *int

	// PageEnd is the last source page (inclusive), if known.
	PageEnd *int

	// Title is the human-readable label.
	Title string

	// Subject is the high-level subject folder (e.g. "philosophy").
	Subject string

	// SourceFile is the base name of the indexed document.
	SourceFile string

	// CreatedAt is when the indexing run produced this chunk.
	CreatedAt time.Time
}

// ChunkID builds the stable chunk identifier for a block/sub-chunk position.
// It is stable across re-indexing only while chunking parameters are unchanged.
func ChunkID(collectionID string, blockIndex, subIndex int) string {
	return fmt.Sprintf("%s-b%d-s%d", collectionID, blockIndex, subIndex)
}

// Validate checks the fields every persisted chunk must carry.
func (c *Chunk) Validate() error {
	if c.CollectionID == "" {
		return NewValidationError("collection_id", ErrInvalidInput)
	}
	if c.ChunkID == "" {
		return NewValidationError("chunk_id", ErrInvalidInput)
	}
	return nil
}

// Capped returns a copy whose text is truncated to at most maxChars
// characters. A non-positive maxChars leaves the text intact.
func (c Chunk) Capped(maxChars int) Chunk {
	c.Text = TruncateRunes(c.Text, maxChars)
	return c
}

// DisplayTitle returns the title, falling back to "section".
func (c *Chunk) DisplayTitle() string {
	if c.Title == "" {
		return "section"
	}
	return c.Title
}

// PageRange renders the page provenance as "start–end", using "?" for
// unknown bounds.
func (c *Chunk) PageRange() string {
	return pageString(c.PageStart) + "–" + pageString(c.PageEnd)
}

func pageString(p *int) string {
	if p == nil {
		return "?"
	}
	return strconv.Itoa(*p)
}

// PageNum returns a pointer to p, for populating optional page fields.
func PageNum(p int) *int {
	return &p
}

// TruncateRunes cuts s to at most maxChars characters.
func TruncateRunes(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}

// chunkRecord is the persisted JSON layout of a chunk.
type chunkRecord struct {
	CollectionID string `json:"book_id"`
	ChunkID      string `json:"section_id"`
	Subject      string `json:"subject,omitempty"`
	Title        string `json:"title,omitempty"`
	PageStart    *int   `json:"page_start,omitempty"`
	PageEnd      *int   `json:"page_end,omitempty"`
	Text         string `json:"text"`
	SourceFile   string `json:"source_pdf,omitempty"`
	CreatedAt    int64  `json:"created_at"`

	// Legacy keys accepted on read.
	LegacyID         string `json:"id,omitempty"`
	LegacyCollection string `json:"collection_id,omitempty"`
}

// MarshalJSON writes the chunk in the persisted record layout.
func (c Chunk) MarshalJSON() ([]byte, error) {
	rec := chunkRecord{
		CollectionID: c.CollectionID,
		ChunkID:      c.ChunkID,
		Subject:      c.Subject,
		Title:        c.Title,
		PageStart:    c.PageStart,
		PageEnd:      c.PageEnd,
		Text:         c.Text,
		SourceFile:   c.SourceFile,
	}
	if !c.CreatedAt.IsZero() {
		rec.CreatedAt = c.CreatedAt.Unix()
	}
	return json.Marshal(rec)
}

// UnmarshalJSON reads the persisted record layout, accepting legacy keys.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var rec chunkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*c = Chunk{
		CollectionID: firstNonEmpty(rec.CollectionID, rec.LegacyCollection),
		ChunkID:      firstNonEmpty(rec.ChunkID, rec.LegacyID),
		Subject:      rec.Subject,
		Title:        rec.Title,
		PageStart:    rec.PageStart,
		PageEnd:      rec.PageEnd,
		Text:         rec.Text,
		SourceFile:   rec.SourceFile,
	}
	if rec.CreatedAt > 0 {
		c.CreatedAt = time.Unix(rec.CreatedAt, 0).UTC()
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// TableOfContents summarises all chunks of a collection.
// It is built once per indexing run and read-only afterwards.
type TableOfContents struct {
	CollectionID string     `json:"book_id"`
	Subject      string     `json:"subject,omitempty"`
	SourceFile   string     `json:"source_pdf,omitempty"`
	CreatedAt    int64      `json:"created_at"`
	Entries      []TOCEntry `json:"sections"`
}

// TOCEntry describes one chunk in the table of contents.
type TOCEntry struct {
	ChunkID   string `json:"section_id"`
	Title     string `json:"title"`
	PageStart *int   `json:"page_start,omitempty"`
	PageEnd   *int   `json:"page_end,omitempty"`
	ByteSize  int    `json:"bytes"`

	// Checksum is a content hash of the chunk text, hex encoded.
	Checksum string `json:"checksum,omitempty"`
}

// ScoredChunk is a request-scoped ranking result. It is never persisted.
type ScoredChunk struct {
	Chunk   Chunk
	Score   float64
	Excerpt string
}
