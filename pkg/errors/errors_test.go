package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := &Error{Type: ErrorTypeAction, Message: "comment box missing", Stage: "engagement"}
	assert.Equal(t, "action error in engagement: comment box missing", err.Error())

	wrapped := Wrap(ErrorTypeGeneration, "provider failed", stderrors.New("503"))
	assert.Equal(t, "generation error: provider failed: 503", wrapped.Error())
}

func TestTypeOfAndIs(t *testing.T) {
	inner := RateLimitSignal("too many comments")
	chained := fmt.Errorf("react: %w", ActionFailure("click failed", inner))

	assert.Equal(t, ErrorTypeAction, TypeOf(chained))
	assert.True(t, Is(chained, ErrorTypeRateLimit))
	assert.True(t, Is(chained, ErrorTypeAction))
	assert.False(t, Is(chained, ErrorTypeAuth))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeGeneration, true},
		{ErrorTypeGenerationTimeout, true},
		{ErrorTypeAuth, false},
		{ErrorTypeRateLimit, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.errType))
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrorTypeAuth))
	assert.True(t, IsFatal(ErrorTypeRecoveryExhausted))
	assert.False(t, IsFatal(ErrorTypeRateLimit))
	assert.False(t, IsFatal(ErrorTypeAction))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(fmt.Errorf("stage: %w", context.DeadlineExceeded)))
	assert.True(t, IsTimeout(GenerationTimeout(nil)))
	assert.False(t, IsTimeout(stderrors.New("boom")))
}
