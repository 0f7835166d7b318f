// Package ai provides factory functions for creating generation adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/tutor/internal/adapters/driven/llm"
	anthropicllm "github.com/custodia-labs/tutor/internal/adapters/driven/llm/anthropic"
	bedrockllm "github.com/custodia-labs/tutor/internal/adapters/driven/llm/bedrock"
	mockllm "github.com/custodia-labs/tutor/internal/adapters/driven/llm/mock"
	ollamallm "github.com/custodia-labs/tutor/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/tutor/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Generators holds the configured primary and optional secondary providers.
type Generators struct {
	Primary   driven.Generator
	Secondary driven.Generator // nil means no fallback hop.
	Warnings  []string         // Non-fatal issues, e.g. an unreachable secondary.
}

// CreateGenerators builds both provider roles from settings. The primary is
// required; a secondary that cannot be created is dropped with a warning.
func CreateGenerators(settings *domain.AppSettings) (*Generators, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no settings", domain.ErrProviderUnavailable)
	}

	primary, err := CreateGenerator(&settings.Primary, settings.Generation)
	if err != nil {
		return nil, fmt.Errorf("%w: primary: %w. Run 'tutor settings wizard' to fix",
			domain.ErrProviderUnavailable, err)
	}
	if primary == nil {
		return nil, fmt.Errorf("%w: primary provider is not configured. Run 'tutor settings wizard' to fix",
			domain.ErrProviderUnavailable)
	}

	result := &Generators{Primary: primary}
	secondary, err := CreateGenerator(&settings.Secondary, settings.Generation)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("secondary provider disabled: %v", err))
		return result, nil
	}
	result.Secondary = secondary
	return result, nil
}

// CreateAndValidateGenerator creates a generator and validates connectivity.
// Returns the generator if successful, or an error with guidance.
func CreateAndValidateGenerator(settings *domain.LLMSettings, gen domain.GenerationSettings) (driven.Generator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	g, err := CreateGenerator(settings, gen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'tutor settings wizard' to fix",
			domain.ErrProviderUnavailable, err)
	}

	if err := ping(g); err != nil {
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'tutor settings wizard' to fix",
			domain.ErrProviderUnavailable, err)
	}

	return g, nil
}

// ValidateLLMConfig validates a provider configuration by creating a generator and pinging it.
// This is intended for use in the settings wizard to validate credentials on configuration.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	g, err := CreateGenerator(settings, domain.GenerationSettings{})
	if err != nil {
		return err
	}
	return ping(g)
}

// CreateGenerator creates the appropriate generator based on settings, wrapped
// in a proactive rate limiter when gen.RateLimit is positive.
// Returns nil if the provider is not configured.
func CreateGenerator(settings *domain.LLMSettings, gen domain.GenerationSettings) (driven.Generator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		g   driven.Generator
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		g = ollamallm.NewGenerator(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		g, err = openaillm.NewGenerator(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		g, err = anthropicllm.NewGenerator(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderBedrock:
		g, err = bedrockllm.NewGenerator(bedrockllm.Config{
			Region:   settings.Region,
			ModelID:  settings.Model,
			Endpoint: settings.BaseURL,
		})

	case domain.AIProviderMock:
		g = mockllm.NewGenerator(settings.Model)

	default:
		return nil, fmt.Errorf("%w: generation provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return llm.NewRateLimited(g, gen.RateLimit), nil
}

// ping validates connectivity when the generator supports it.
func ping(g driven.Generator) error {
	p, ok := g.(driven.Pinger)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}
