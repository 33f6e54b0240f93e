package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeEmptyMessage, "message text is empty"),
			expected: "EMPTY_MESSAGE: message text is empty",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("connection refused"), ErrCodeProviderAPI, "provider API call failed"),
			expected: "PROVIDER_API: provider API call failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(cause, ErrCodeStorage, "registry add failed")
	assert.Equal(t, cause, err.Unwrap())

	plain := New(ErrCodeNoSuchSMS, "no such SMS")
	assert.Nil(t, plain.Unwrap())
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidNumber, GetCode(NewInvalidNumberError("***1234")))
	assert.Equal(t, ErrCodeInternalError, GetCode(fmt.Errorf("plain error")))

	wrapped := fmt.Errorf("outer: %w", NewNoSuchSMSError("12345"))
	assert.Equal(t, ErrCodeNoSuchSMS, GetCode(wrapped))
}

func TestIsCode(t *testing.T) {
	err := NewNoPushTokenError("***7890")
	assert.True(t, IsCode(err, ErrCodeNoPushToken))
	assert.False(t, IsCode(err, ErrCodeStorage))
}

func TestIsRetryable(t *testing.T) {
	retryable := NewProviderError("/api/v1/rest.php", 503, "upstream down", fmt.Errorf("status 503"))
	assert.True(t, IsRetryable(retryable))

	fatal := NewProviderError("/api/v1/rest.php", 400, "bad request", fmt.Errorf("status 400"))
	assert.False(t, IsRetryable(fatal))

	assert.False(t, IsRetryable(fmt.Errorf("plain error")))
}

func TestWithContext(t *testing.T) {
	err := New(ErrCodeProviderAPI, "provider API call failed").
		WithContext("status_code", 500).
		WithContext("body", "internal error")

	assert.Equal(t, 500, err.Context["status_code"])
	assert.Equal(t, "internal error", err.Context["body"])
}

func TestGetUserMessage(t *testing.T) {
	err := NewEmptyMessageError()
	assert.Equal(t, "Empty message", GetUserMessage(err))

	assert.Equal(t, "An internal error occurred", GetUserMessage(fmt.Errorf("raw")))
}
