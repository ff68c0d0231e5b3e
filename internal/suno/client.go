package suno

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sunodl/suno-dl/internal/http"
	"github.com/sunodl/suno-dl/internal/model"
	"github.com/sunodl/suno-dl/internal/suno/dto"
)

const (
	// DefaultBaseURL is the production Suno studio API.
	DefaultBaseURL = "https://studio-api.prod.suno.com"

	// feedPath lists the account's clips, newest first. The hide_*
	// filters match what the studio library view shows by default.
	feedPath = "/api/feed/v2?hide_disliked=true&hide_gen_stems=true&hide_studio_clips=true"

	// defaultProbeTimeout bounds individual page-existence probes
	// during last-page discovery. Probes are cheap and unretried, so
	// a hung probe must not stall the whole run.
	defaultProbeTimeout = 10 * time.Second
)

// Client fetches library listing pages and raw assets from Suno.
//
// All failures are classified into the package's error taxonomy
// (ErrAuth, ErrRateLimited, ErrTransient, ErrUnexpected) so that the
// retry policy and the orchestrator can react per class.
//
// Example usage:
//
//	client := suno.NewClient(httpClient, "", logger)
//
//	songs, err := client.FetchPage(ctx, 1)
//	if errors.Is(err, suno.ErrAuth) {
//	    // token invalid, abort the run
//	}
type Client struct {
	http         *http.Client
	baseURL      string
	log          *slog.Logger
	probeTimeout time.Duration
}

// NewClient creates a Suno API client on top of the given transport.
//
// An empty baseURL selects DefaultBaseURL. A nil logger falls back to
// slog.Default; page fetches are logged at debug level.
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:         httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		log:          logger,
		probeTimeout: defaultProbeTimeout,
	}
}

// FetchPage retrieves one feed page and converts its clips to Songs,
// preserving the API's newest-first order.
//
// Pages are numbered from 1. A page past the end of the library
// returns an empty slice and no error. Clips missing their ID or audio
// URL fail the whole page with ErrUnexpected: silently dropping items
// would let a run claim completeness it does not have.
func (c *Client) FetchPage(ctx context.Context, page int) ([]*model.Song, error) {
	url := fmt.Sprintf("%s%s&page=%d", c.baseURL, feedPath, page)

	start := time.Now()
	body, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, classify(err)
	}

	var feed dto.Feed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: parse feed page %d: %v", ErrUnexpected, page, err)
	}

	songs := make([]*model.Song, 0, len(feed.Clips))
	for i := range feed.Clips {
		clip := &feed.Clips[i]
		if err := clip.Validate(); err != nil {
			return nil, fmt.Errorf("%w: feed page %d entry %d: %v", ErrUnexpected, page, i, err)
		}
		songs = append(songs, clip.ToSong())
	}

	c.log.Debug("fetched feed page",
		"page", page,
		"clips", len(songs),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return songs, nil
}

// PageExists probes whether the given feed page holds any clips.
//
// Probes drive last-page discovery and deliberately do not retry:
// an auth failure aborts with an error, while any other failure is
// treated as "page absent" so discovery can keep narrowing. A probe
// that errors because the surrounding run was canceled propagates the
// cancellation instead.
func (c *Client) PageExists(ctx context.Context, page int) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	songs, err := c.FetchPage(probeCtx, page)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			return false, err
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		c.log.Debug("page probe failed, treating as absent", "page", page, "error", err)
		return false, nil
	}

	return len(songs) > 0, nil
}

// DownloadAudio streams a clip's MP3 into destPath. onProgress, when
// non-nil, receives (bytesWritten, totalBytes) as the body arrives.
func (c *Client) DownloadAudio(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error {
	if err := c.http.DownloadFile(ctx, url, destPath, onProgress); err != nil {
		return classify(err)
	}
	return nil
}

// FetchImage downloads a cover image into memory.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	data, err := c.http.DownloadBytes(ctx, url)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}
