package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		errType   ErrorType
		retryable bool
	}{
		{"unauthorized", errors.New("401 unauthorized"), ErrorTypeAuth, false},
		{"invalid key", errors.New("invalid api key provided"), ErrorTypeAuth, false},
		{"model missing", errors.New("model gpt-9 does not exist"), ErrorTypeModel, false},
		{"endpoint missing", errors.New("404 page not found"), ErrorTypeEndpoint, false},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrorTypeEndpoint, true},
		{"timeout", errors.New("context deadline exceeded"), ErrorTypeEndpoint, true},
		{"rate limited", errors.New("429 too many requests"), ErrorTypeUnknown, true},
		{"overloaded", errors.New("anthropic: overloaded_error"), ErrorTypeUnknown, true},
		{"server error", errors.New("503 service unavailable"), ErrorTypeEndpoint, true},
		{"unknown", errors.New("something odd"), ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			require.NotNil(t, classified)
			assert.Equal(t, tt.errType, classified.Type)
			assert.Equal(t, tt.retryable, classified.Retryable)
			assert.True(t, errors.Is(classified, tt.err), "cause must unwrap")
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))
}

func TestClassifyError_PassesThroughStructured(t *testing.T) {
	orig := NewError(ErrorTypeAuth, "bad key", false, nil)
	wrapped := fmt.Errorf("request failed: %w", orig)
	assert.Same(t, orig, ClassifyError(wrapped))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(ErrorTypeEndpoint, "server error", true, nil)))
	assert.False(t, IsRetryable(NewError(ErrorTypeAuth, "bad key", false, nil)))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestError_Message(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeEndpoint,
		Message:    "server error",
		StatusCode: 503,
		Model:      "gpt-4o",
		Cause:      errors.New("boom"),
	}
	msg := err.Error()
	assert.Contains(t, msg, "endpoint")
	assert.Contains(t, msg, "HTTP 503")
	assert.Contains(t, msg, "model=gpt-4o")
	assert.Contains(t, msg, "boom")
}
