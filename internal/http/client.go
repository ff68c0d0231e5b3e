package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// defaultTimeout bounds every request issued by the client. Individual
// call sites tighten this further with context deadlines (page probes
// use a short one).
const defaultTimeout = 60 * time.Second

// browserUserAgent mimics a desktop browser; the Suno CDN serves asset
// requests from unknown agents more reluctantly.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// StatusError reports a non-2xx HTTP response. Callers classify the
// code into the error taxonomy; this package only transports it.
type StatusError struct {
	// Code is the HTTP status code.
	Code int

	// Status is the full status line, e.g. "401 Unauthorized".
	Status string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// Client wraps HTTP operations with Suno-specific configuration.
//
// Client provides:
//   - Bearer-token authorization on every request
//   - A browser-like User-Agent header
//   - Optional proxy routing through a ProxyPool
//   - File downloads streamed to disk with progress tracking
//
// Example usage:
//
//	client := http.NewClient(token, nil)
//
//	// Fetch a JSON listing page
//	body, err := client.Get(ctx, feedURL)
//
//	// Stream an MP3 to disk
//	err = client.DownloadFile(ctx, audioURL, "/music/song.mp3.part", nil)
type Client struct {
	httpClient *http.Client
	userAgent  string
	token      string
}

// NewClient creates a new HTTP client for the Suno API and CDN.
//
// token is sent as a bearer Authorization header on every request; an
// empty token sends no header. pool may be nil for direct connections.
func NewClient(token string, pool *ProxyPool) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}
	if pool.Len() > 0 {
		transport.Proxy = pool.proxyFor
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
		userAgent: browserUserAgent,
		token:     token,
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	// Parameters are (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// newRequest builds a GET request with the authorization and
// User-Agent headers applied.
func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// Get performs a GET request and returns the response body as bytes.
//
// A non-200 response yields a *StatusError carrying the status code;
// transport failures are returned as-is.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := c.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}

// DownloadFile downloads a file to the specified path with optional
// progress callback.
//
// The file is created (or truncated if it exists) and the content is
// streamed directly to disk, avoiding loading whole MP3s into memory.
// The destination is closed and flushed before returning, so a nil
// error means the bytes are on disk (callers typically rename a temp
// path into place afterwards).
//
// Parameters:
//   - ctx: Context for cancellation
//   - url: URL to download from
//   - destPath: Local file path to save to
//   - onProgress: Optional callback called with (bytesWritten, totalBytes);
//     pass nil to disable progress tracking
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error {
	req, err := c.newRequest(ctx, url)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	file, err := os.Create(destPath)
	if err != nil {
		return err
	}

	var writer io.Writer = file
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   file,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	_, copyErr := io.Copy(writer, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// DownloadBytes downloads a resource and returns the bytes in memory.
//
// Use this for small payloads like cover art images. For MP3 audio,
// use DownloadFile to stream directly to disk.
func (c *Client) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url)
}
