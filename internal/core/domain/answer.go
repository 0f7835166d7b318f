package domain

// AnswerResult is the grounded answer returned for one question.
// It is constructed once per request and not retained server-side.
type AnswerResult struct {
	Question     string      `json:"question"`
	CollectionID string      `json:"book_id"`
	Answer       string      `json:"answer"`
	Sources      []SourceRef `json:"sources"`
	LatencyMS    int64       `json:"latency_ms"`

	// Provider names the generator that produced the answer.
	// Empty when no provider call was made.
	Provider string `json:"provider,omitempty"`

	// Degraded is true when the answer was built from excerpts
	// instead of a provider response.
	Degraded bool `json:"degraded,omitempty"`

	// RequestID correlates the response with operator logs.
	RequestID string `json:"request_id"`

	// Trace records the orchestrator state transitions.
	Trace AnswerTrace `json:"-"`
}

// SourceRef cites one ranked chunk. Raw text is never included.
type SourceRef struct {
	ChunkID   string  `json:"section_id"`
	Title     string  `json:"title"`
	PageStart *int    `json:"page_start"`
	PageEnd   *int    `json:"page_end"`
	Score     float64 `json:"score"`
}

// AnswerState is a state of the answer orchestrator.
type AnswerState string

// Orchestrator states.
const (
	StateNotStarted        AnswerState = "not_started"
	StatePrimaryAttempted  AnswerState = "primary_attempted"
	StateFallbackAttempted AnswerState = "fallback_attempted"
	StateSuccess           AnswerState = "success"
	StateFailure           AnswerState = "failure"
)

// IsTerminal returns true for Success and Failure.
func (s AnswerState) IsTerminal() bool {
	return s == StateSuccess || s == StateFailure
}

// String returns the string representation.
func (s AnswerState) String() string {
	return string(s)
}

// AnswerTrace is the ordered list of states a request passed through.
type AnswerTrace struct {
	States []AnswerState
}

// Enter appends a state.
func (t *AnswerTrace) Enter(s AnswerState) {
	t.States = append(t.States, s)
}

// Current returns the latest state, or NotStarted for an empty trace.
func (t *AnswerTrace) Current() AnswerState {
	if len(t.States) == 0 {
		return StateNotStarted
	}
	return t.States[len(t.States)-1]
}

// Visited reports whether the trace passed through s.
func (t *AnswerTrace) Visited(s AnswerState) bool {
	for _, st := range t.States {
		if st == s {
			return true
		}
	}
	return false
}
