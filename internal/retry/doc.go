// Package retry provides bounded retry with exponential backoff for
// network operations.
//
// A Policy decides how many attempts an operation gets, how long to
// back off between them, and which errors are worth retrying at all.
// The classifier comes from the caller; auth failures, for example,
// are never retried:
//
//	p := retry.DefaultPolicy()
//	p.Retryable = suno.IsRetryable
//	attempts, err := p.Do(ctx, fetchPage)
//
// Backoff doubles per attempt from BaseDelay. With Jitter disabled the
// delays are fully deterministic, which the tests rely on.
package retry
