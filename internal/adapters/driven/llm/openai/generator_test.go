package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	gen, err := NewGenerator(Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-test"})
	require.NoError(t, err)
	return gen
}

func TestNewGenerator_RequiresAPIKey(t *testing.T) {
	_, err := NewGenerator(Config{})
	assert.Error(t, err)
}

func TestGenerate_Success(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		assert.Equal(t, 500, req.MaxTokens)
		require.Len(t, req.Messages, 1)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Kant grounds duty in reason [1]."},"finish_reason":"stop"}]}`))
	})

	res := gen.Generate(context.Background(), "What is duty?", driven.DefaultGenerateOptions())
	require.Equal(t, domain.OutcomeSuccess, res.Outcome, "detail: %v", res.Detail)
	assert.Equal(t, "Kant grounds duty in reason [1].", res.Text())
	assert.Equal(t, "openai/gpt-test", gen.Name())
}

func TestGenerate_RateLimited(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	})
	res := gen.Generate(context.Background(), "q", driven.DefaultGenerateOptions())
	assert.Equal(t, domain.OutcomeThrottled, res.Outcome)
	assert.ErrorIs(t, res.Detail, domain.ErrRateLimited)
}

func TestGenerate_ContextLengthIsThrottled(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"maximum context length","code":"context_length_exceeded"}}`))
	})
	res := gen.Generate(context.Background(), "q", driven.DefaultGenerateOptions())
	assert.Equal(t, domain.OutcomeThrottled, res.Outcome)
}

func TestGenerate_NoChoicesFails(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	res := gen.Generate(context.Background(), "q", driven.DefaultGenerateOptions())
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
}

func TestGenerate_ServerError(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	res := gen.Generate(context.Background(), "q", driven.DefaultGenerateOptions())
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
}

func TestPing(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	assert.NoError(t, gen.Ping(context.Background()))
}
