package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionErrorUnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewSelectionError("provider call failed", "OpenRouter", cause)

	assert.Equal(t, CodeSelectionFailed, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "provider call failed: connection reset", err.Error())
}

func TestKindHelpersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("oracle: %w", NewSelectionError("empty content", "Gemini", nil))
	assert.True(t, IsSelectionFailed(wrapped))
	assert.False(t, IsValidation(wrapped))

	validation := fmt.Errorf("bind: %w", NewValidationError("username is required", "username", ""))
	assert.True(t, IsValidation(validation))
	assert.False(t, IsSelectionFailed(validation))

	assert.True(t, IsSourceUnavailable(NewSourceError("no items", "apify", "joana", nil)))
	assert.True(t, IsStoreUnavailable(NewStoreError("query failed", "list", nil)))
}

func TestValidationErrorCarriesField(t *testing.T) {
	err := NewValidationError("instagram_handle is required", "instagram_handle", nil)

	assert.Equal(t, 400, err.StatusCode)
	assert.Equal(t, "instagram_handle", err.Field)
	assert.Equal(t, "instagram_handle", err.Context["field"])
}

func TestWithCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewAppError("failed", CodeAppError, 500, nil).WithCause(cause)

	assert.Same(t, cause, err.Unwrap())
}
