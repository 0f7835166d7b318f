package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrEmptyQuestion", ErrEmptyQuestion},
		{"ErrQuestionTooShort", ErrQuestionTooShort},
		{"ErrUnknownCollection", ErrUnknownCollection},
		{"ErrGenerationFailed", ErrGenerationFailed},
		{"ErrProviderUnavailable", ErrProviderUnavailable},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrInvalidInput))
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("question", ErrQuestionTooShort)
	assert.Equal(t, "question: question is too short", err.Error())

	noField := &ValidationError{Err: ErrEmptyQuestion}
	assert.Equal(t, "question is empty", noField.Error())
}

func TestValidationError_Unwrap(t *testing.T) {
	err := fmt.Errorf("answer: %w", NewValidationError("question", ErrEmptyQuestion))

	assert.True(t, errors.Is(err, ErrEmptyQuestion))
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrQuestionTooShort))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("book_id", ErrUnknownCollection)))
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", NewValidationError("q", ErrEmptyQuestion))))
	assert.False(t, IsValidation(ErrInvalidInput))
	assert.False(t, IsValidation(nil))
}

func TestRequestFailure(t *testing.T) {
	err := fmt.Errorf("answer: %w", &RequestFailure{RequestID: "req-1", Err: ErrGenerationFailed})

	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, "req-1", RequestIDOf(err))
	assert.Contains(t, err.Error(), "(request req-1)")
	assert.False(t, IsValidation(err))
	assert.Empty(t, RequestIDOf(errors.New("plain")))
}
