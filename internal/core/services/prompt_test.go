package services

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

type stubPromptStore struct {
	templates map[string]string
}

func (s *stubPromptStore) Load(name string) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", errors.New("missing")
	}
	return tmpl, nil
}

func (s *stubPromptStore) Reload() {}

func scored(id, title, text string, pages ...int) domain.ScoredChunk {
	c := domain.Chunk{CollectionID: "philosophy", ChunkID: id, Title: title, Text: text}
	if len(pages) == 2 {
		c.PageStart = domain.PageNum(pages[0])
		c.PageEnd = domain.PageNum(pages[1])
	}
	return domain.ScoredChunk{Chunk: c, Score: 1, Excerpt: "excerpt of " + id}
}

func TestPromptAssembler_Context_BlockFormat(t *testing.T) {
	p := NewPromptAssembler()

	got := p.Context([]domain.ScoredChunk{
		scored("a", "Ethics", "Virtue is a habit.", 3, 4),
		scored("b", "", "Untitled text."),
	})

	assert.Equal(t, "[1] Ethics (pp. 3–4)\nVirtue is a habit.\n\n[2] section (pp. ?–?)\nUntitled text.", got)
}

func TestPromptAssembler_Context_NoChunks(t *testing.T) {
	p := NewPromptAssembler()
	assert.Equal(t, "(no excerpts available)", p.Context(nil))
	assert.Contains(t, p.Assemble("what is virtue", nil), "(no excerpts available)")
}

func TestPromptAssembler_Context_TruncatesAtBlockBoundary(t *testing.T) {
	first := scored("a", "A", strings.Repeat("x", 50))
	second := scored("b", "B", strings.Repeat("y", 50))
	firstBlock := "[1] A (pp. ?–?)\n" + strings.Repeat("x", 50)

	p := NewPromptAssembler(WithContextBudget(utf8.RuneCountInString(firstBlock) + 10))
	got := p.Context([]domain.ScoredChunk{first, second})

	assert.Equal(t, firstBlock, got)
	assert.NotContains(t, got, "[2]")
}

func TestPromptAssembler_Context_CutsOversizedFirstBlock(t *testing.T) {
	p := NewPromptAssembler(WithContextBudget(20))

	got := p.Context([]domain.ScoredChunk{scored("a", "A", strings.Repeat("é", 100))})

	assert.Equal(t, 20, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(got, "[1] A (pp. ?–?)\n"))
	assert.True(t, utf8.ValidString(got))
}

func TestPromptAssembler_Context_BudgetBelowHeaderKeepsText(t *testing.T) {
	p := NewPromptAssembler(WithContextBudget(5))

	got := p.Context([]domain.ScoredChunk{scored("a", "Ethics", "Virtue is a habit.", 3, 4)})

	assert.Equal(t, "[1] Ethics (pp. 3–4)\nV", got)
}

func TestPromptAssembler_Context_WithinBudget(t *testing.T) {
	chunks := make([]domain.ScoredChunk, 10)
	for i := range chunks {
		chunks[i] = scored("c", "T", strings.Repeat("w ", 40))
	}
	p := NewPromptAssembler(WithContextBudget(300))

	got := p.Context(chunks)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 300)
	assert.Contains(t, got, "[1] ")
	assert.Contains(t, got, "[2] ")
}

func TestPromptAssembler_Context_UseExcerpts(t *testing.T) {
	p := NewPromptAssembler(WithExcerpts(true))

	got := p.Context([]domain.ScoredChunk{scored("a", "A", "full text")})
	assert.Contains(t, got, "excerpt of a")
	assert.NotContains(t, got, "full text")
}

func TestPromptAssembler_Assemble_DefaultTemplate(t *testing.T) {
	p := NewPromptAssembler()

	got := p.Assemble("What is 100% certain?", []domain.ScoredChunk{scored("a", "A", "Doubt everything.")})

	assert.Contains(t, got, "Answer ONLY using the provided textbook excerpts")
	assert.Contains(t, got, "QUESTION:\nWhat is 100% certain?")
	assert.Contains(t, got, "TEXTBOOK EXCERPTS:\n[1] A (pp. ?–?)\nDoubt everything.")
	assert.Contains(t, got, "like [1], [3]")
	assert.Less(t, strings.Index(got, "QUESTION"), strings.Index(got, "TEXTBOOK EXCERPTS"))
}

func TestPromptAssembler_PromptStore(t *testing.T) {
	t.Run("uses stored template", func(t *testing.T) {
		p := NewPromptAssembler()
		p.SetPromptStore(&stubPromptStore{templates: map[string]string{
			driven.PromptAnswerSystem: "Q=%s C=%s",
		}})
		assert.Equal(t, "Q=why C=(no excerpts available)", p.Assemble("why", nil))
	})

	t.Run("falls back on malformed template", func(t *testing.T) {
		p := NewPromptAssembler(WithTemplate("Q=%s C=%s!"))
		p.SetPromptStore(&stubPromptStore{templates: map[string]string{
			driven.PromptAnswerSystem: "no placeholders",
		}})
		assert.Equal(t, "Q=why C=(no excerpts available)!", p.Assemble("why", nil))
	})

	t.Run("falls back on load error", func(t *testing.T) {
		p := NewPromptAssembler()
		p.SetPromptStore(&stubPromptStore{})
		require.Contains(t, p.Assemble("why", nil), "QUESTION:\nwhy")
	})
}

func TestPromptAssembler_Budget(t *testing.T) {
	assert.Equal(t, DefaultContextBudget, NewPromptAssembler().Budget())
	assert.Equal(t, 500, NewPromptAssembler(WithContextBudget(500)).Budget())
	assert.Equal(t, DefaultContextBudget, NewPromptAssembler(WithContextBudget(-1)).Budget())
}
