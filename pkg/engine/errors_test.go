package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	v := NewValidationError("Missing required placeholder {input}")
	assert.True(t, IsValidation(v))
	assert.True(t, IsPermanent(v))
	assert.False(t, IsRetryable(v))
	assert.Equal(t, "Missing required placeholder {input}", UserMessage(fmt.Errorf("wrapped: %w", v)))

	nf := NewNotFoundError("use case not found", nil).WithResource("abc")
	assert.True(t, IsNotFound(fmt.Errorf("outer: %w", nf)))
	assert.False(t, IsValidation(nf))

	cause := errors.New("disk I/O error")
	se := NewStoreError("put_use_case", cause)
	assert.True(t, IsStoreError(se))
	assert.True(t, IsRetryable(se))
	assert.ErrorIs(t, se, cause)
	assert.Contains(t, se.Error(), "operation=put_use_case")
	assert.Contains(t, se.Error(), "disk I/O error")

	assert.True(t, IsPermissionDenied(NewPermissionError("admin required")))
}

func TestEngineErrorIs(t *testing.T) {
	a := NewValidationError("a")
	b := NewValidationError("b")
	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, NewNotFoundError("x", nil)))
}

func TestErrorFormatting(t *testing.T) {
	err := NewPermanentError("bad input", nil)
	assert.Equal(t, "[permanent] bad input", err.Error())

	err = NewConflictError("busy", errors.New("in progress")).WithResource("stack-1")
	assert.Equal(t, "[conflict] busy (resource=stack-1): in progress", err.Error())
}

func TestStatus(t *testing.T) {
	assert.NoError(t, StatusSuccess.Validate())
	assert.NoError(t, StatusFailed.Validate())
	assert.Error(t, Status("").Validate())
	assert.True(t, StatusSuccess.Succeeded())
	assert.False(t, StatusFailed.Succeeded())
}
