package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voipbits/internal/errors"
	"voipbits/internal/models"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  attempts,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastPolicy(3), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastPolicy(5), func() error {
		attempts++
		if attempts < 3 {
			return assert.AnError
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastPolicy(3), func() error {
		attempts++
		return assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 3, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := Do(ctx, Policy{
		InitialDelay: time.Hour,
		MaxDelay:     time.Hour,
		Multiplier:   2.0,
		MaxAttempts:  3,
	}, func() error {
		attempts++
		cancel()
		return assert.AnError
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDoRetryable_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New(errors.ErrCodeInvalidConfig, "bad config")

	attempts := 0
	err := DoRetryable(context.Background(), fastPolicy(5), func() error {
		attempts++
		return permanent
	}, errors.IsRetryable)

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestDoRetryable_RetriesRetryableError(t *testing.T) {
	transient := errors.NewStorageError("connect", assert.AnError)
	require.True(t, errors.IsRetryable(transient))

	attempts := 0
	err := DoRetryable(context.Background(), fastPolicy(3), func() error {
		attempts++
		return transient
	}, errors.IsRetryable)

	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, attempts)
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(models.RetryConfig{InitialBackoffMs: 250, MaxBackoffMs: 5000}, 7)

	assert.Equal(t, 250*time.Millisecond, p.InitialDelay)
	assert.Equal(t, 5*time.Second, p.MaxDelay)
	assert.Equal(t, 7, p.MaxAttempts)
	assert.True(t, p.Jitter)
}

func TestPolicyFromConfig_Defaults(t *testing.T) {
	p := PolicyFromConfig(models.RetryConfig{}, 0)
	assert.Equal(t, DefaultPolicy(), p)
}

func TestDelay_GrowsAndCaps(t *testing.T) {
	p := Policy{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		MaxAttempts:  10,
	}

	assert.Equal(t, 100*time.Millisecond, p.delay(1))
	assert.Equal(t, 200*time.Millisecond, p.delay(2))
	assert.Equal(t, 400*time.Millisecond, p.delay(3))
	assert.Equal(t, time.Second, p.delay(10))
}

func TestDelay_JitterStaysBounded(t *testing.T) {
	p := Policy{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		MaxAttempts:  5,
		Jitter:       true,
	}

	for i := 0; i < 100; i++ {
		d := p.delay(2)
		assert.GreaterOrEqual(t, d, 150*time.Millisecond)
		assert.LessOrEqual(t, d, 250*time.Millisecond)
	}
}
