package domain

import "strings"

// GenerationOutcome classifies a provider call.
type GenerationOutcome int

// Possible generation outcomes.
const (
	// OutcomeSuccess means the provider returned text segments.
	OutcomeSuccess GenerationOutcome = iota

	// OutcomeThrottled means the provider signalled throttling, a
	// request-too-large condition, or the call timed out.
	OutcomeThrottled

	// OutcomeFailed is any other provider error.
	OutcomeFailed
)

// String returns the string representation.
func (o GenerationOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeThrottled:
		return "throttled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GenerationResult is the explicit result of one provider call.
// Generators never signal throttling through panics or bare errors.
type GenerationResult struct {
	Outcome  GenerationOutcome
	Segments []string

	// Detail carries the provider error for Throttled and Failed.
	// It is for operator logs only.
	Detail error
}

// Generated builds a successful result.
func Generated(segments ...string) GenerationResult {
	return GenerationResult{Outcome: OutcomeSuccess, Segments: segments}
}

// Throttled builds a throttled result.
func Throttled(detail error) GenerationResult {
	return GenerationResult{Outcome: OutcomeThrottled, Detail: detail}
}

// Failed builds a failed result.
func Failed(detail error) GenerationResult {
	return GenerationResult{Outcome: OutcomeFailed, Detail: detail}
}

// Text concatenates all segments in order and trims the result.
func (r GenerationResult) Text() string {
	return strings.TrimSpace(strings.Join(r.Segments, ""))
}
