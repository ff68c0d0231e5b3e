// Package http provides an HTTP client configured for the Suno API
// and asset CDN.
//
// The Client in this package handles:
//   - Bearer-token authorization headers
//   - A browser-like User-Agent header
//   - Optional proxy routing (rotate / sticky / random strategies)
//   - File downloads streamed to disk with progress tracking
//
// # Basic Usage
//
//	pool, _ := http.NewProxyPool(proxyURLs, http.ProxyRotate)
//	client := http.NewClient(token, pool)
//
//	// Fetch a listing page
//	body, err := client.Get(ctx, feedURL)
//
//	// Download audio with a progress callback
//	err = client.DownloadFile(ctx, audioURL, "/music/song.mp3.part", func(written, total int64) {
//	    fmt.Printf("%d bytes\n", written)
//	})
//
// Non-2xx responses surface as *StatusError so that callers can map
// status codes onto their own error taxonomy; this package stays
// policy-free.
//
// # Sticky proxies
//
// With ProxySticky, each download worker tags its requests via
// WithWorkerSlot and the pool pins that slot to one proxy endpoint.
package http
