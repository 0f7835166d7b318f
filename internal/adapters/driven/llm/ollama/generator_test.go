package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

func TestNewGenerator_Defaults(t *testing.T) {
	gen := NewGenerator(Config{})
	assert.Equal(t, DefaultBaseURL, gen.baseURL)
	assert.Equal(t, "ollama/"+DefaultModel, gen.Name())
}

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.NotNil(t, req.Options)
		assert.Equal(t, 500, req.Options.NumPredict)

		_, _ = w.Write([]byte(`{"response":"Mill answered [1].","done":true}`))
	}))
	defer srv.Close()

	gen := NewGenerator(Config{BaseURL: srv.URL, Model: "llama-test"})
	res := gen.Generate(context.Background(), "q", driven.DefaultGenerateOptions())
	require.Equal(t, domain.OutcomeSuccess, res.Outcome, "detail: %v", res.Detail)
	assert.Equal(t, "Mill answered [1].", res.Text())
}

func TestGenerate_ModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'x' not found"}`))
	}))
	defer srv.Close()

	res := NewGenerator(Config{BaseURL: srv.URL}).Generate(context.Background(), "q", driven.DefaultGenerateOptions())
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
}

func TestGenerate_ClientTimeoutIsThrottled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	gen := NewGenerator(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	res := gen.Generate(context.Background(), "q", driven.DefaultGenerateOptions())
	assert.Equal(t, domain.OutcomeThrottled, res.Outcome)
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Error(t, NewGenerator(Config{BaseURL: url}).Ping(context.Background()))
}
