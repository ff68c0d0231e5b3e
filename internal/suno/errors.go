package suno

import (
	"context"
	"errors"
	"fmt"

	"github.com/sunodl/suno-dl/internal/http"
)

// Sentinel errors classifying every failure the Suno API and CDN can
// produce. Wrapped errors keep the original detail; use errors.Is to
// test the class.
var (
	// ErrAuth means the bearer token was rejected (HTTP 401/403).
	// Fatal for the whole run: the credential is equally invalid for
	// every later call, so it is never retried.
	ErrAuth = errors.New("authorization rejected")

	// ErrRateLimited means the API asked us to back off (HTTP 429).
	// Retryable with exponential delay.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient covers server-side failures (5xx) and transport
	// errors such as timeouts, resets and DNS hiccups. Retryable.
	ErrTransient = errors.New("transient error")

	// ErrUnexpected covers everything else: unexplained status codes
	// and listing responses that do not match the feed schema. Not
	// retryable; a retry would just replay the same surprise.
	ErrUnexpected = errors.New("unexpected response")
)

// IsRetryable reports whether another attempt at the failed operation
// could plausibly succeed. Feed this to retry.Policy.Retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}

// classify maps a transport-level failure onto the error taxonomy.
// Context cancellation passes through untouched so that an interrupted
// run is not mistaken for a network fault.
func classify(err error) error {
	var statusErr *http.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == 401 || statusErr.Code == 403:
			return fmt.Errorf("%w: %v", ErrAuth, err)
		case statusErr.Code == 429:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case statusErr.Code >= 500:
			return fmt.Errorf("%w: %v", ErrTransient, err)
		default:
			return fmt.Errorf("%w: %v", ErrUnexpected, err)
		}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %v", ErrTransient, err)
}
