// Package mock provides a generator that answers from the prompt's own
// excerpts without calling a provider. It is meant for local runs and demos.
package mock

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

// Ensure Generator implements the interfaces.
var (
	_ driven.Generator = (*Generator)(nil)
	_ driven.Pinger    = (*Generator)(nil)
)

// previewChars is how much of the grounding context is echoed back.
const previewChars = 200

var blockMarker = regexp.MustCompile(`(?m)^\[\d+\] `)

// Generator echoes the start of the grounding context.
type Generator struct {
	model string
}

// NewGenerator creates a mock generator. An empty model becomes "mock".
func NewGenerator(model string) *Generator {
	if model == "" {
		model = "mock"
	}
	return &Generator{model: model}
}

// Name returns "mock/<model>".
func (g *Generator) Name() string {
	return "mock/" + g.model
}

// Generate never throttles. It fails only when ctx is already done.
func (g *Generator) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) domain.GenerationResult {
	if err := ctx.Err(); err != nil {
		return domain.Failed(err)
	}

	markers := blockMarker.FindAllStringIndex(prompt, -1)
	grounding := ""
	if len(markers) > 0 {
		grounding = prompt[markers[0][0]:]
	}
	grounding = strings.Join(strings.Fields(grounding), " ")
	preview := []rune(grounding)
	if len(preview) > previewChars {
		preview = preview[:previewChars]
	}

	return domain.Generated(fmt.Sprintf(
		"Based on curriculum content: %s... [Mock mode - %d sections found]",
		string(preview), len(markers),
	))
}

// Ping always succeeds.
func (g *Generator) Ping(context.Context) error {
	return nil
}
