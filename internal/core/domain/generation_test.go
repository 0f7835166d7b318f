package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationResult_Text(t *testing.T) {
	r := Generated(" Kant argues ", "that duty [1]. ")
	assert.Equal(t, OutcomeSuccess, r.Outcome)
	assert.Equal(t, "Kant argues that duty [1].", r.Text())

	assert.Equal(t, "", Generated().Text())
}

func TestGenerationResult_Constructors(t *testing.T) {
	detail := errors.New("slow down")

	th := Throttled(detail)
	assert.Equal(t, OutcomeThrottled, th.Outcome)
	assert.Equal(t, detail, th.Detail)
	assert.Empty(t, th.Segments)

	f := Failed(detail)
	assert.Equal(t, OutcomeFailed, f.Outcome)
	assert.Equal(t, detail, f.Detail)
}

func TestGenerationOutcome_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "throttled", OutcomeThrottled.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", GenerationOutcome(42).String())
}

func TestAnswerTrace(t *testing.T) {
	var trace AnswerTrace
	assert.Equal(t, StateNotStarted, trace.Current())

	trace.Enter(StateNotStarted)
	trace.Enter(StatePrimaryAttempted)
	trace.Enter(StateFallbackAttempted)
	trace.Enter(StateSuccess)

	assert.Equal(t, StateSuccess, trace.Current())
	assert.True(t, trace.Current().IsTerminal())
	assert.True(t, trace.Visited(StateFallbackAttempted))
	assert.False(t, trace.Visited(StateFailure))
	assert.False(t, StatePrimaryAttempted.IsTerminal())
}
