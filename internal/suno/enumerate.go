package suno

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sunodl/suno-dl/internal/model"
	"github.com/sunodl/suno-dl/internal/retry"
)

// Enumerator discovers how many feed pages a library spans and yields
// every song strictly oldest-first.
//
// The feed is newest-first and paginated, so producing a chronological
// stream takes three steps:
//
//  1. Find the last page (exponential probing, then binary search).
//  2. Walk pages from last to first.
//  3. Within each page, reverse the native newest-first order.
//
// Version suffixes on duplicate titles depend on this order: the
// oldest take of a title gets the bare name, later takes get " v2",
// " v3" and so on, matching how the library grew.
type Enumerator struct {
	client *Client
	retry  retry.Policy
	log    *slog.Logger
}

// NewEnumerator creates an Enumerator over the given client.
//
// The policy's Retryable classifier is fixed to the package taxonomy;
// callers only choose attempt counts and delays. A nil logger falls
// back to slog.Default.
func NewEnumerator(client *Client, policy retry.Policy, logger *slog.Logger) *Enumerator {
	policy.Retryable = IsRetryable
	if logger == nil {
		logger = slog.Default()
	}

	return &Enumerator{
		client: client,
		retry:  policy,
		log:    logger,
	}
}

// FindLastPage returns the index of the last feed page that holds any
// clips, or 0 for an empty library.
//
// Discovery probes page 1, doubles an upper bound until a probe comes
// back empty, then binary-searches the boundary. Probes are single
// attempts: an auth failure aborts immediately, anything else counts
// as "no page there".
func (e *Enumerator) FindLastPage(ctx context.Context) (int, error) {
	exists, err := e.client.PageExists(ctx, 1)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	low, high := 1, 2
	for {
		exists, err := e.client.PageExists(ctx, high)
		if err != nil {
			return 0, err
		}
		if !exists {
			break
		}
		low = high
		high *= 2
	}

	// The last page is now somewhere in [low, high-1].
	lo, hi := low, high-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		exists, err := e.client.PageExists(ctx, mid)
		if err != nil {
			return 0, err
		}
		if exists {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	e.log.Debug("discovered last feed page", "page", lo)
	return lo, nil
}

// StreamPages fetches pages lastPage down to 1 and sends their songs
// oldest-first on out. It returns the number of songs sent.
//
// Each page fetch is wrapped in the retry policy; a page that fails
// every attempt aborts the stream with its error, because a stream
// with a silent hole would corrupt version numbering and the run's
// completeness claim. The channel is left open; the caller owns its
// lifecycle. Sends respect context cancellation.
func (e *Enumerator) StreamPages(ctx context.Context, lastPage int, out chan<- *model.Song) (int, error) {
	sent := 0

	for page := lastPage; page >= 1; page-- {
		var songs []*model.Song
		attempts, err := e.retry.Do(ctx, func() error {
			var ferr error
			songs, ferr = e.client.FetchPage(ctx, page)
			return ferr
		})
		if err != nil {
			return sent, fmt.Errorf("feed page %d failed after %d attempts: %w", page, attempts, err)
		}

		// The API lists newest first; walking each page backwards makes
		// the overall stream strictly oldest to newest.
		for i := len(songs) - 1; i >= 0; i-- {
			select {
			case out <- songs[i]:
				sent++
			case <-ctx.Done():
				return sent, ctx.Err()
			}
		}
	}

	return sent, nil
}
