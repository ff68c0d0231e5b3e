package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Policy wraps fallible operations with bounded retries and
// exponential backoff.
//
// The zero value retries nothing useful; construct with DefaultPolicy
// and override fields as needed:
//
//	p := retry.DefaultPolicy()
//	p.Retryable = suno.IsRetryable
//	attempts, err := p.Do(ctx, func() error {
//	    return client.DownloadAudio(ctx, url, dest, nil)
//	})
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; each further
	// attempt doubles it (BaseDelay × 2^(attempt−1)).
	BaseDelay time.Duration

	// Jitter randomizes each delay uniformly within [delay/2, delay).
	// Leave false for deterministic backoff timing.
	Jitter bool

	// Retryable reports whether an error is worth another attempt.
	// A nil classifier retries every error.
	Retryable func(error) bool

	// sleep is a test seam; nil means a context-aware real sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the standard download policy: 3 attempts with
// a 2 second base delay and no jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, or
// exhausts MaxAttempts. It returns the number of attempts actually
// made and the final error: nil on success, the operation's last error
// unmodified on exhaustion or a non-retryable failure, or the context
// error when the backoff sleep is interrupted.
func (p Policy) Do(ctx context.Context, op func() error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := op()
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return attempt, err
		}
		if attempt == maxAttempts {
			break
		}

		if err := p.wait(ctx, p.delay(attempt)); err != nil {
			return attempt, err
		}
	}
	return maxAttempts, lastErr
}

// delay computes the backoff after the given 1-based failed attempt.
func (p Policy) delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if p.Jitter && d >= 2 {
		d = d/2 + rand.N(d/2)
	}
	return d
}

// wait sleeps for d or until the context is done, whichever is first.
func (p Policy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
