package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
	"github.com/custodia-labs/tutor/internal/logger"
)

// Ensure PromptAssembler implements the interface.
var _ driven.PromptStoreAware = (*PromptAssembler)(nil)

// DefaultContextBudget caps the grounding context in characters.
const DefaultContextBudget = 12000

// noExcerpts is the context line used when nothing was retrieved.
const noExcerpts = "(no excerpts available)"

// PromptAssembler renders the grounding prompt sent to a generator.
type PromptAssembler struct {
	budget      int
	template    string
	useExcerpts bool
	promptStore driven.PromptStore
}

// PromptOption configures a PromptAssembler.
type PromptOption func(*PromptAssembler)

// WithContextBudget sets the context budget in characters.
func WithContextBudget(chars int) PromptOption {
	return func(p *PromptAssembler) {
		if chars > 0 {
			p.budget = chars
		}
	}
}

// WithTemplate replaces the built-in template. It must contain two %s
// verbs: the question, then the context.
func WithTemplate(tmpl string) PromptOption {
	return func(p *PromptAssembler) {
		p.template = tmpl
	}
}

// WithExcerpts makes blocks carry the ranked excerpt instead of the full text.
func WithExcerpts(on bool) PromptOption {
	return func(p *PromptAssembler) {
		p.useExcerpts = on
	}
}

// NewPromptAssembler creates an assembler with the default budget and template.
func NewPromptAssembler(opts ...PromptOption) *PromptAssembler {
	p := &PromptAssembler{
		budget:   DefaultContextBudget,
		template: driven.DefaultAnswerTemplate,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetPromptStore makes the assembler read its template from store.
func (p *PromptAssembler) SetPromptStore(store driven.PromptStore) {
	p.promptStore = store
}

// Budget returns the context budget in characters.
func (p *PromptAssembler) Budget() int {
	return p.budget
}

// Assemble renders the template with the question and the numbered context.
func (p *PromptAssembler) Assemble(question string, chunks []domain.ScoredChunk) string {
	return fmt.Sprintf(p.loadTemplate(), question, p.Context(chunks))
}

// Context renders numbered blocks "[i] <title> (pp. a–b)\n<text>" joined by a
// blank line. Blocks are added while they fit the budget; when even the
// first does not fit it is cut to the budget. The cut never goes below the
// first block's header plus one character of its text.
func (p *PromptAssembler) Context(chunks []domain.ScoredChunk) string {
	if len(chunks) == 0 {
		return noExcerpts
	}

	var b strings.Builder
	used := 0
	for i := range chunks {
		header, body := p.block(i+1, &chunks[i])
		block := header + body
		size := utf8.RuneCountInString(block)

		if i == 0 {
			if size > p.budget {
				cut := max(p.budget, utf8.RuneCountInString(header)+1)
				logger.Debug("First context block (%d chars) cut to %d for budget %d", size, cut, p.budget)
				return string([]rune(block)[:cut])
			}
			b.WriteString(block)
			used = size
			continue
		}

		if used+2+size > p.budget {
			logger.Debug("Context budget reached after %d of %d blocks", i, len(chunks))
			break
		}
		b.WriteString("\n\n")
		b.WriteString(block)
		used += 2 + size
	}
	return b.String()
}

// block returns the citation header, newline included, and the body.
func (p *PromptAssembler) block(n int, sc *domain.ScoredChunk) (string, string) {
	body := sc.Chunk.Text
	if p.useExcerpts && sc.Excerpt != "" {
		body = sc.Excerpt
	}
	return fmt.Sprintf("[%d] %s (pp. %s)\n", n, sc.Chunk.DisplayTitle(), sc.Chunk.PageRange()), body
}

// loadTemplate reads the template from the prompt store, if any, falling
// back to the configured one when the stored one is unusable.
func (p *PromptAssembler) loadTemplate() string {
	if p.promptStore == nil {
		return p.template
	}
	tmpl, err := p.promptStore.Load(driven.PromptAnswerSystem)
	if err != nil || strings.Count(tmpl, "%s") != 2 {
		return p.template
	}
	return tmpl
}
