package sync

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultMaxAttempts         = 3
	DefaultBaseDelay           = 2 * time.Second
	DefaultFailureWriteTimeout = 10 * time.Second
)

// RetryPolicy bounds the reverse flow. Zero fields take the defaults.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// FailureWriteTimeout bounds the terminal failure marker write, which runs detached
	// from the caller's cancellation.
	FailureWriteTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:         DefaultMaxAttempts,
		BaseDelay:           DefaultBaseDelay,
		FailureWriteTimeout: DefaultFailureWriteTimeout,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	defaults := DefaultRetryPolicy()

	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaults.MaxAttempts
	}

	if p.BaseDelay <= 0 {
		p.BaseDelay = defaults.BaseDelay
	}

	if p.FailureWriteTimeout <= 0 {
		p.FailureWriteTimeout = defaults.FailureWriteTimeout
	}

	return p
}

// Delays returns the sleep before each retry: entry n is waited after attempt n fails,
// so there are MaxAttempts-1 of them. They double from BaseDelay and depend only on the index.
func (p RetryPolicy) Delays() []time.Duration {
	p = p.withDefaults()

	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.BaseDelay << 16,
	}
	b.Reset()

	delays := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := 0; i < p.MaxAttempts-1; i++ {
		delays = append(delays, b.NextBackOff())
	}

	return delays
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
