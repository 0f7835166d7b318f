// Package chunker groups paragraphs into size-bounded chunks and tags them
// with page provenance.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/normalisers/text"
)

// DefaultMaxChars is the default chunk budget in characters.
const DefaultMaxChars = 1800

// DefaultPagesPerBlock is the default number of pages grouped before chunking.
const DefaultPagesPerBlock = 3

// separator joins paragraphs inside one chunk.
const separator = " "

// Chunk accumulates paragraphs into chunks of at most maxChars characters.
//
// Before a paragraph is added, the buffer is flushed if it is non-empty and
// adding the paragraph plus one separator would exceed maxChars. A paragraph
// longer than maxChars is never split; it becomes its own oversized chunk.
// Joining the output with a single space reproduces the input paragraphs in
// order. A non-positive maxChars uses DefaultMaxChars.
func Chunk(paragraphs []string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var (
		chunks []string
		buf    []string
		curLen int
	)
	for _, p := range paragraphs {
		n := utf8.RuneCountInString(p)
		if len(buf) > 0 && curLen+n+1 > maxChars {
			chunks = append(chunks, strings.Join(buf, separator))
			buf = buf[:0]
			curLen = 0
		}
		buf = append(buf, p)
		curLen += n + 1
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, separator))
	}
	return chunks
}

// Candidate is a chunk produced from a block of pages, before it is
// turned into a persisted record.
type Candidate struct {
	ChunkID    string
	BlockIndex int
	SubIndex   int
	Text       string
	PageStart  int
	PageEnd    int
}

// Processor splits page-grouped text into chunk candidates.
type Processor struct {
	maxChars      int
	pagesPerBlock int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxChars sets the chunk budget in characters.
func WithMaxChars(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// WithPagesPerBlock sets how many pages are grouped into one block.
func WithPagesPerBlock(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.pagesPerBlock = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxChars:      DefaultMaxChars,
		pagesPerBlock: DefaultPagesPerBlock,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// MaxChars returns the configured chunk budget.
func (p *Processor) MaxChars() int {
	return p.maxChars
}

// PagesPerBlock returns the configured block size in pages.
func (p *Processor) PagesPerBlock() int {
	return p.pagesPerBlock
}

// ChunkPages groups pages into blocks, splits each block into paragraphs
// and chunks them. Blocks without any text are skipped and do not consume a
// block index, so IDs stay dense.
func (p *Processor) ChunkPages(collectionID string, pages []domain.Page) []Candidate {
	var (
		candidates []Candidate
		block      int
	)
	for start := 0; start < len(pages); start += p.pagesPerBlock {
		end := min(start+p.pagesPerBlock, len(pages))

		texts := make([]string, 0, end-start)
		for _, page := range pages[start:end] {
			texts = append(texts, page.Text)
		}
		raw := strings.Join(texts, "\n")
		if text.Normalize(raw) == "" {
			continue
		}

		for sub, body := range Chunk(text.SplitParagraphs(raw), p.maxChars) {
			candidates = append(candidates, Candidate{
				ChunkID:    domain.ChunkID(collectionID, block, sub),
				BlockIndex: block,
				SubIndex:   sub,
				Text:       body,
				PageStart:  pageNumber(pages[start], start),
				PageEnd:    pageNumber(pages[end-1], end-1),
			})
		}
		block++
	}
	return candidates
}

// pageNumber returns the page's own number, or its 1-based position when
// the reader did not number it.
func pageNumber(page domain.Page, index int) int {
	if page.Number > 0 {
		return page.Number
	}
	return index + 1
}
