package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"voipbits/internal/models"
)

// Policy describes exponential backoff between attempts.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int
	Jitter       bool
}

func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		MaxAttempts:  3,
		Jitter:       true,
	}
}

// PolicyFromConfig builds a policy from the configured backoff bounds,
// falling back to defaults for anything unset.
func PolicyFromConfig(cfg models.RetryConfig, maxAttempts int) Policy {
	p := DefaultPolicy()
	if cfg.InitialBackoffMs > 0 {
		p.InitialDelay = time.Duration(cfg.InitialBackoffMs) * time.Millisecond
	}
	if cfg.MaxBackoffMs > 0 {
		p.MaxDelay = time.Duration(cfg.MaxBackoffMs) * time.Millisecond
	}
	if maxAttempts > 0 {
		p.MaxAttempts = maxAttempts
	}
	return p
}

// Do runs op until it succeeds, attempts are exhausted, or the context
// is cancelled. Every error is treated as retryable.
func Do(ctx context.Context, p Policy, op func() error) error {
	return DoRetryable(ctx, p, op, func(error) bool { return true })
}

// DoRetryable runs op with backoff, stopping early on errors the
// predicate rejects.
func DoRetryable(ctx context.Context, p Policy, op func() error, isRetryable func(error) bool) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay(attempt)):
		}
	}

	return lastErr
}

// delay computes the pause after the given attempt, capped at MaxDelay
// with up to 25% jitter either way.
func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	if p.Jitter {
		d += (rand.Float64() - 0.5) * 0.5 * d
	}

	if d < 0 {
		d = float64(p.InitialDelay)
	}
	return time.Duration(d)
}
