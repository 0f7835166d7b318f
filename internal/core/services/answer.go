package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
	"github.com/custodia-labs/tutor/internal/core/ports/driving"
	"github.com/custodia-labs/tutor/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Answer texts that do not come from a provider.
const (
	InsufficientInformation = "I don't have enough information in the textbook to answer that question."

	degradedPrefix   = "The answer service is busy, so here are the most relevant textbook passages:"
	degradedExcerpts = 3
	degradedChars    = 300
)

// DefaultProviderTimeout bounds each provider call.
const DefaultProviderTimeout = 30 * time.Second

// AnswerService turns a question into a grounded, cited answer. It retrieves
// once, calls the primary provider and, on throttling or timeout, makes at
// most one hop to the secondary before degrading to an excerpt answer.
type AnswerService struct {
	retriever driving.RetrievalService
	assembler *PromptAssembler
	primary   driven.Generator
	secondary driven.Generator
	genOpts   driven.GenerateOptions
	timeout   time.Duration
	now       func() time.Time
	newID     func() string
}

// AnswerOption configures an AnswerService.
type AnswerOption func(*AnswerService)

// WithSecondary sets the fallback provider. Nil means no fallback hop.
func WithSecondary(gen driven.Generator) AnswerOption {
	return func(s *AnswerService) {
		s.secondary = gen
	}
}

// WithGenerationOptions sets the options passed to every provider call.
func WithGenerationOptions(opts driven.GenerateOptions) AnswerOption {
	return func(s *AnswerService) {
		s.genOpts = opts
	}
}

// WithTimeout sets the per-call provider timeout.
func WithTimeout(d time.Duration) AnswerOption {
	return func(s *AnswerService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock replaces time.Now for latency measurement.
func WithClock(now func() time.Time) AnswerOption {
	return func(s *AnswerService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRequestIDs replaces the request id generator.
func WithRequestIDs(newID func() string) AnswerOption {
	return func(s *AnswerService) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewAnswerService creates an answer service. A nil assembler uses the defaults.
func NewAnswerService(
	retriever driving.RetrievalService,
	assembler *PromptAssembler,
	primary driven.Generator,
	opts ...AnswerOption,
) *AnswerService {
	if assembler == nil {
		assembler = NewPromptAssembler()
	}
	s := &AnswerService{
		retriever: retriever,
		assembler: assembler,
		primary:   primary,
		genOpts:   driven.DefaultGenerateOptions(),
		timeout:   DefaultProviderTimeout,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer validates the question, retrieves grounding chunks and generates a
// cited answer.
//
// Validation failures and unknown collections return a *domain.ValidationError
// before any provider call. Hard provider failures return a
// *domain.RequestFailure wrapping domain.ErrGenerationFailed; the provider
// detail is only logged. Throttling never surfaces as an error.
func (s *AnswerService) Answer(ctx context.Context, collectionID, question string, topK int) (*domain.AnswerResult, error) {
	start := s.now()

	q, err := domain.NewQuery(question, collectionID, topK)
	if err != nil {
		return nil, err
	}

	result := &domain.AnswerResult{
		Question:     q.Text,
		CollectionID: q.CollectionID,
		Sources:      []domain.SourceRef{},
		RequestID:    s.newID(),
	}
	result.Trace.Enter(domain.StateNotStarted)

	logger.Section("Answer")
	logger.Debug("Request %s: collection=%s top_k=%d", result.RequestID, q.CollectionID, q.TopK)

	chunks, err := s.retriever.Retrieve(ctx, q.CollectionID, q.Text, q.TopK)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, domain.ErrUnknownCollection) {
			return nil, domain.NewValidationError("book_id", domain.ErrUnknownCollection)
		}
		return nil, s.fail(result, "retrieval", err)
	}

	if len(chunks) == 0 {
		logger.Debug("No chunks scored above zero, skipping generation")
		result.Answer = InsufficientInformation
		result.Degraded = true
		return s.finish(result, start), nil
	}
	result.Sources = sourcesOf(chunks)

	prompt := s.assembler.Assemble(q.Text, chunks)
	logger.Debug("Prompt assembled: %d chunks, %d bytes", len(chunks), len(prompt))

	result.Trace.Enter(domain.StatePrimaryAttempted)
	res := s.call(ctx, s.primary, prompt)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch res.Outcome {
	case domain.OutcomeSuccess:
		return s.succeed(result, s.primary, res, start), nil
	case domain.OutcomeFailed:
		return nil, s.fail(result, s.primary.Name(), res.Detail)
	}

	logger.Warn("%s throttled: %v", s.primary.Name(), res.Detail)
	result.Trace.Enter(domain.StateFallbackAttempted)

	if s.secondary == nil {
		return s.degrade(result, chunks, start), nil
	}

	res = s.call(ctx, s.secondary, prompt)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch res.Outcome {
	case domain.OutcomeSuccess:
		return s.succeed(result, s.secondary, res, start), nil
	case domain.OutcomeFailed:
		return nil, s.fail(result, s.secondary.Name(), res.Detail)
	}

	logger.Warn("%s throttled: %v", s.secondary.Name(), res.Detail)
	return s.degrade(result, chunks, start), nil
}

// call runs one provider call under the per-call timeout. A call that ran
// out of time while the parent context is alive counts as throttled. A
// success without text counts as failed.
func (s *AnswerService) call(ctx context.Context, gen driven.Generator, prompt string) domain.GenerationResult {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger.Debug("Calling %s", gen.Name())
	res := gen.Generate(callCtx, prompt, s.genOpts)

	if res.Outcome == domain.OutcomeSuccess && res.Text() == "" {
		return domain.Failed(fmt.Errorf("%s returned no text", gen.Name()))
	}
	if res.Outcome == domain.OutcomeFailed && ctx.Err() == nil &&
		errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return domain.Throttled(fmt.Errorf("%s timed out after %s: %w", gen.Name(), s.timeout, context.DeadlineExceeded))
	}
	return res
}

func (s *AnswerService) succeed(result *domain.AnswerResult, gen driven.Generator, res domain.GenerationResult, start time.Time) *domain.AnswerResult {
	result.Answer = res.Text()
	result.Provider = gen.Name()
	return s.finish(result, start)
}

// degrade answers with the leading excerpts instead of a provider response.
func (s *AnswerService) degrade(result *domain.AnswerResult, chunks []domain.ScoredChunk, start time.Time) *domain.AnswerResult {
	logger.Debug("Degrading to an excerpt answer")
	result.Answer = DegradedAnswer(chunks)
	result.Degraded = true
	return s.finish(result, start)
}

func (s *AnswerService) finish(result *domain.AnswerResult, start time.Time) *domain.AnswerResult {
	result.Trace.Enter(domain.StateSuccess)
	result.LatencyMS = s.now().Sub(start).Milliseconds()
	logger.Debug("Request %s answered in %dms via %v", result.RequestID, result.LatencyMS, result.Trace.States)
	return result
}

func (s *AnswerService) fail(result *domain.AnswerResult, stage string, detail error) error {
	result.Trace.Enter(domain.StateFailure)
	logger.RequestError(result.RequestID, "%s failed: %v", stage, detail)
	return &domain.RequestFailure{RequestID: result.RequestID, Err: domain.ErrGenerationFailed}
}

// DegradedAnswer lists up to three excerpts with their citation markers.
func DegradedAnswer(chunks []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString(degradedPrefix)
	for i, sc := range chunks {
		if i == degradedExcerpts {
			break
		}
		text := sc.Excerpt
		if text == "" {
			text = sc.Chunk.Text
		}
		text = strings.Join(strings.Fields(text), " ")
		if r := []rune(text); len(r) > degradedChars {
			text = strings.TrimSpace(string(r[:degradedChars])) + "..."
		}
		fmt.Fprintf(&b, " [%d] %s", i+1, text)
	}
	return b.String()
}

func sourcesOf(chunks []domain.ScoredChunk) []domain.SourceRef {
	refs := make([]domain.SourceRef, len(chunks))
	for i, sc := range chunks {
		refs[i] = domain.SourceRef{
			ChunkID:   sc.Chunk.ChunkID,
			Title:     sc.Chunk.DisplayTitle(),
			PageStart: sc.Chunk.PageStart,
			PageEnd:   sc.Chunk.PageEnd,
			Score:     sc.Score,
		}
	}
	return refs
}
