package driven

import (
	"context"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

// Generator produces an answer from a grounding prompt.
//
// Implementations may include:
//   - Anthropic (Claude)
//   - AWS Bedrock (Claude on Bedrock)
//   - OpenAI (GPT-4o)
//   - Ollama (local models)
//
// Generate never returns raw transport errors: rate limiting and capacity
// errors become domain.Throttled, everything else domain.Failed.
type Generator interface {
	// Name identifies the provider and model, e.g. "anthropic/claude-3-5-haiku-latest".
	Name() string

	// Generate produces text for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) domain.GenerationResult
}

// Pinger is implemented by generators that can verify connectivity
// with a lightweight request.
type Pinger interface {
	// Ping validates the service is reachable.
	Ping(ctx context.Context) error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// DefaultGenerateOptions returns the options used for grounded answers.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{MaxTokens: 500, Temperature: 0.2}
}
