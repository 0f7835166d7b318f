// Package bedrock provides a generation adapter for Anthropic models served
// by AWS Bedrock. Credentials come from the standard AWS provider chain.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/bedrockruntime"
	"github.com/aws/aws-sdk-go/service/bedrockruntime/bedrockruntimeiface"

	"github.com/custodia-labs/tutor/internal/adapters/driven/llm"
	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultRegion  = "us-east-1"
	DefaultModelID = "anthropic.claude-3-haiku-20240307-v1:0"

	// anthropicVersion is the body version Bedrock expects for Anthropic models.
	anthropicVersion = "bedrock-2023-05-31"

	providerName = "bedrock"
)

// Config holds configuration for the Bedrock generator.
type Config struct {
	// Region is the AWS region (default: us-east-1).
	Region string

	// ModelID is the Bedrock model identifier.
	ModelID string

	// Endpoint overrides the service endpoint, for VPC endpoints or tests.
	Endpoint string

	// Client replaces the SDK client entirely. Region and Endpoint are ignored.
	Client bedrockruntimeiface.BedrockRuntimeAPI
}

// Generator produces answers through Bedrock InvokeModel.
type Generator struct {
	client  bedrockruntimeiface.BedrockRuntimeAPI
	modelID string
}

type invokeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []invokeMessage `json:"messages"`
}

type invokeMessage struct {
	Role    string          `json:"role"`
	Content []invokeContent `json:"content"`
}

type invokeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type invokeResponse struct {
	Content    []invokeContent `json:"content"`
	StopReason string          `json:"stop_reason"`
}

// throttleCodes are error codes that warrant a fallback hop.
var throttleCodes = map[string]bool{
	bedrockruntime.ErrCodeThrottlingException:   true,
	bedrockruntime.ErrCodeModelTimeoutException: true,
	"ServiceQuotaExceededException":             true,
	"ModelNotReadyException":                    true,
	"ServiceUnavailableException":               true,
}

// NewGenerator creates a Bedrock generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	client := cfg.Client
	if client == nil {
		if cfg.Region == "" {
			cfg.Region = DefaultRegion
		}
		awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
		if cfg.Endpoint != "" {
			awsCfg.Endpoint = aws.String(cfg.Endpoint)
		}
		sess, err := session.NewSession(awsCfg)
		if err != nil {
			return nil, fmt.Errorf("bedrock: create session: %w", err)
		}
		client = bedrockruntime.New(sess)
	}
	return &Generator{client: client, modelID: cfg.ModelID}, nil
}

// Name returns "bedrock/<model id>".
func (g *Generator) Name() string {
	return providerName + "/" + g.modelID
}

// Generate invokes the model with a single user message.
func (g *Generator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) domain.GenerationResult {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = driven.DefaultGenerateOptions().MaxTokens
	}
	body, err := json.Marshal(invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      opts.Temperature,
		Messages: []invokeMessage{{
			Role:    "user",
			Content: []invokeContent{{Type: "text", Text: prompt}},
		}},
	})
	if err != nil {
		return domain.Failed(fmt.Errorf("bedrock: marshal request: %w", err))
	}

	out, err := g.client.InvokeModelWithContext(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return classify(err)
	}

	var resp invokeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return domain.Failed(fmt.Errorf("bedrock: decode response: %w", err))
	}
	segments := make([]string, 0, len(resp.Content))
	for _, block := range resp.Content {
		if block.Type == "text" {
			segments = append(segments, block.Text)
		}
	}
	return llm.FromSegments(providerName, segments)
}

func classify(err error) domain.GenerationResult {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		detail := fmt.Errorf("bedrock: %s: %s", aerr.Code(), aerr.Message())
		if throttleCodes[aerr.Code()] || llm.IsThrottleMessage(aerr.Message()) {
			return domain.Throttled(fmt.Errorf("%w: %w", domain.ErrRateLimited, detail))
		}
		if aerr.Code() == request.CanceledErrorCode && errors.Is(aerr.OrigErr(), context.DeadlineExceeded) {
			return domain.Throttled(detail)
		}
		return domain.Failed(detail)
	}
	return llm.FromTransportError(providerName, err)
}
