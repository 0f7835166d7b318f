package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/bedrockruntime"
	"github.com/aws/aws-sdk-go/service/bedrockruntime/bedrockruntimeiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

type fakeRuntime struct {
	bedrockruntimeiface.BedrockRuntimeAPI

	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeRuntime) InvokeModelWithContext(_ aws.Context, in *bedrockruntime.InvokeModelInput, _ ...request.Option) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func newFake(t *testing.T, fake *fakeRuntime) *Generator {
	t.Helper()
	gen, err := NewGenerator(Config{Client: fake, ModelID: "anthropic.test-v1:0"})
	require.NoError(t, err)
	return gen
}

func TestGenerate_Success(t *testing.T) {
	fake := &fakeRuntime{body: `{"content":[{"type":"text","text":"Reason commands [1]."}],"stop_reason":"end_turn"}`}
	gen := newFake(t, fake)

	res := gen.Generate(context.Background(), "What is duty?", driven.DefaultGenerateOptions())
	require.Equal(t, domain.OutcomeSuccess, res.Outcome, "detail: %v", res.Detail)
	assert.Equal(t, "Reason commands [1].", res.Text())
	assert.Equal(t, "bedrock/anthropic.test-v1:0", gen.Name())

	require.NotNil(t, fake.input)
	assert.Equal(t, "anthropic.test-v1:0", aws.StringValue(fake.input.ModelId))

	var body invokeRequest
	require.NoError(t, json.Unmarshal(fake.input.Body, &body))
	assert.Equal(t, "bedrock-2023-05-31", body.AnthropicVersion)
	assert.Equal(t, 500, body.MaxTokens)
	assert.InDelta(t, 0.2, body.Temperature, 1e-9)
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "What is duty?", body.Messages[0].Content[0].Text)
}

func TestGenerate_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.GenerationOutcome
	}{
		{"throttling", awserr.New(bedrockruntime.ErrCodeThrottlingException, "Too many requests", nil), domain.OutcomeThrottled},
		{"model timeout", awserr.New(bedrockruntime.ErrCodeModelTimeoutException, "timed out", nil), domain.OutcomeThrottled},
		{"quota", awserr.New("ServiceQuotaExceededException", "quota", nil), domain.OutcomeThrottled},
		{"too many tokens", awserr.New("ValidationException", "Too many tokens in input", nil), domain.OutcomeThrottled},
		{"access denied", awserr.New("AccessDeniedException", "not authorised", nil), domain.OutcomeFailed},
		{"canceled by deadline", awserr.New(request.CanceledErrorCode, "canceled", context.DeadlineExceeded), domain.OutcomeThrottled},
		{"plain error", errors.New("no route"), domain.OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newFake(t, &fakeRuntime{err: tt.err})
			res := gen.Generate(context.Background(), "q", driven.DefaultGenerateOptions())
			assert.Equal(t, tt.want, res.Outcome)
			assert.Error(t, res.Detail)
		})
	}
}

func TestGenerate_BadBody(t *testing.T) {
	gen := newFake(t, &fakeRuntime{body: `not json`})
	res := gen.Generate(context.Background(), "q", driven.DefaultGenerateOptions())
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
}
