package domain

import (
	"strings"
	"unicode/utf8"
)

// Query limits and defaults.
const (
	// MaxQuestionLength caps the question in characters after trimming.
	MaxQuestionLength = 1000

	// MinQuestionLength is the shortest acceptable question after trimming.
	MinQuestionLength = 3

	// DefaultTopK is the number of chunks retrieved when none is requested.
	DefaultTopK = 5

	// MaxTopK bounds the number of chunks a caller may request.
	MaxTopK = 50

	// DefaultCollectionID is used when the caller names no collection.
	DefaultCollectionID = "philosophy"
)

// Query is a validated question against one collection.
type Query struct {
	Text         string
	CollectionID string
	TopK         int
}

// NewQuery trims and length-caps the question and normalises the
// collection and top-k. It returns a *ValidationError for empty or
// too-short questions.
func NewQuery(text, collectionID string, topK int) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, NewValidationError("question", ErrEmptyQuestion)
	}
	if utf8.RuneCountInString(text) > MaxQuestionLength {
		text = strings.TrimSpace(string([]rune(text)[:MaxQuestionLength]))
	}
	if utf8.RuneCountInString(text) < MinQuestionLength {
		return Query{}, NewValidationError("question", ErrQuestionTooShort)
	}

	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		collectionID = DefaultCollectionID
	}
	if strings.ContainsAny(collectionID, `/\`) || strings.Contains(collectionID, "..") {
		return Query{}, NewValidationError("book_id", ErrInvalidInput)
	}

	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	return Query{Text: text, CollectionID: collectionID, TopK: topK}, nil
}
