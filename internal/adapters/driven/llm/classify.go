// Package llm holds what the generation provider adapters share: mapping
// provider responses onto domain.GenerationResult variants, and a
// proactive rate limiter that wraps any driven.Generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

// throttleMarkers are body fragments that providers use for rate limiting,
// overload and request-too-large conditions.
var throttleMarkers = []string{
	"too many tokens",
	"too many requests",
	"rate limit",
	"rate_limit",
	"throttl",
	"overloaded",
	"request_too_large",
	"request too large",
	"context_length_exceeded",
	"quota",
}

// IsThrottleStatus reports whether an HTTP status signals a transient
// capacity condition worth one fallback hop.
func IsThrottleStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusRequestEntityTooLarge,
		http.StatusServiceUnavailable,
		529: // Anthropic "overloaded"
		return true
	default:
		return false
	}
}

// IsThrottleMessage reports whether a provider message describes throttling.
func IsThrottleMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range throttleMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// FromStatus classifies a non-2xx provider response.
func FromStatus(provider string, status int, body []byte) domain.GenerationResult {
	detail := fmt.Errorf("%s: status %d: %s", provider, status, truncate(string(body), 512))
	if IsThrottleStatus(status) || IsThrottleMessage(string(body)) {
		return domain.Throttled(fmt.Errorf("%w: %w", domain.ErrRateLimited, detail))
	}
	return domain.Failed(detail)
}

// FromTransportError classifies an error returned by the HTTP client.
// Client-side timeouts are transient; a cancelled context is not.
func FromTransportError(provider string, err error) domain.GenerationResult {
	detail := fmt.Errorf("%s: send request: %w", provider, err)
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Throttled(detail)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.Throttled(detail)
	}
	return domain.Failed(detail)
}

// FromSegments builds a success result, or a failure when every segment is blank.
func FromSegments(provider string, segments []string) domain.GenerationResult {
	result := domain.Generated(segments...)
	if result.Text() == "" {
		return domain.Failed(fmt.Errorf("%s: no response content returned", provider))
	}
	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
