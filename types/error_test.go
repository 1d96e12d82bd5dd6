package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormat(t *testing.T) {
	e := NewError(ErrRoutingError, "unclassifiable state").WithNode("reviewer")
	assert.Equal(t, "[ROUTING_ERROR] unclassifiable state", e.Error())
	assert.Equal(t, "reviewer", e.Node)

	cause := errors.New("boom")
	e = NewError(ErrStepFailure, "writer failed").WithCause(cause)
	assert.Contains(t, e.Error(), "boom")
	assert.Equal(t, cause, errors.Unwrap(e))
}

func TestErrorCodeExtraction(t *testing.T) {
	e := Errorf(ErrInstanceBusy, "instance %s has an in-flight run", "wf-1")
	wrapped := fmt.Errorf("resume: %w", e)

	assert.Equal(t, ErrInstanceBusy, GetErrorCode(wrapped))
	assert.True(t, HasCode(wrapped, ErrInstanceBusy))
	assert.False(t, HasCode(wrapped, ErrRoutingError))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}

func TestRetryable(t *testing.T) {
	e := NewError(ErrModelUnavailable, "upstream 503").WithRetryable(true)
	assert.True(t, IsRetryable(fmt.Errorf("call: %w", e)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
