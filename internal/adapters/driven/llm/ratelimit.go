package llm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
	"github.com/custodia-labs/tutor/internal/logger"
)

// Ensure RateLimited implements the interfaces.
var (
	_ driven.Generator = (*RateLimited)(nil)
	_ driven.Pinger    = (*RateLimited)(nil)
)

// RateLimited wraps a generator with a token bucket so bursts are smoothed
// before they reach the provider's own limits.
type RateLimited struct {
	next   driven.Generator
	bucket *rate.Limiter
}

// NewRateLimited allows rps requests per second with a burst of one.
// A non-positive rps returns next unchanged.
func NewRateLimited(next driven.Generator, rps float64) driven.Generator {
	if rps <= 0 {
		return next
	}
	return &RateLimited{
		next:   next,
		bucket: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name returns the wrapped generator's name.
func (r *RateLimited) Name() string {
	return r.next.Name()
}

// Generate waits for a token, then delegates. When no token becomes
// available before the context ends, the call counts as throttled.
func (r *RateLimited) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) domain.GenerationResult {
	if err := r.bucket.Wait(ctx); err != nil {
		logger.Debug("%s: rate limiter: %v", r.next.Name(), err)
		if errors.Is(ctx.Err(), context.Canceled) {
			return domain.Failed(ctx.Err())
		}
		return domain.Throttled(fmt.Errorf("%w: %s: %w", domain.ErrRateLimited, r.next.Name(), err))
	}
	return r.next.Generate(ctx, prompt, opts)
}

// Ping delegates when the wrapped generator supports it.
func (r *RateLimited) Ping(ctx context.Context) error {
	if p, ok := r.next.(driven.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
