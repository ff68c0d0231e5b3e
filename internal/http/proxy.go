package http

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync/atomic"
)

// ProxyStrategy selects how requests are distributed over a proxy pool.
type ProxyStrategy int

const (
	// ProxyRotate cycles through the pool round-robin, one proxy per
	// request. Spreads rate-limit pressure evenly.
	ProxyRotate ProxyStrategy = iota

	// ProxySticky pins each worker slot to one proxy for its whole
	// lifetime. Requests without a worker slot in their context fall
	// back to rotation.
	ProxySticky

	// ProxyRandom picks a proxy uniformly at random per request.
	ProxyRandom
)

// ParseProxyStrategy converts a configuration string into a strategy.
// The empty string means ProxyRotate.
func ParseProxyStrategy(s string) (ProxyStrategy, error) {
	switch s {
	case "", "rotate":
		return ProxyRotate, nil
	case "sticky":
		return ProxySticky, nil
	case "random":
		return ProxyRandom, nil
	default:
		return ProxyRotate, fmt.Errorf("unknown proxy strategy %q (want rotate, sticky or random)", s)
	}
}

// String returns the configuration name of the strategy.
func (s ProxyStrategy) String() string {
	switch s {
	case ProxySticky:
		return "sticky"
	case ProxyRandom:
		return "random"
	default:
		return "rotate"
	}
}

// ProxyPool distributes requests over a fixed list of proxy endpoints.
//
// A nil pool is valid and means "connect directly"; NewClient accepts
// it without special casing.
type ProxyPool struct {
	proxies  []*url.URL
	strategy ProxyStrategy
	next     atomic.Uint64
}

// NewProxyPool parses the given proxy URLs into a pool.
//
// An empty list returns a nil pool. URLs must carry a scheme
// (http://host:port, socks5://host:port, ...).
func NewProxyPool(rawURLs []string, strategy ProxyStrategy) (*ProxyPool, error) {
	if len(rawURLs) == 0 {
		return nil, nil
	}

	proxies := make([]*url.URL, 0, len(rawURLs))
	for _, raw := range rawURLs {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse proxy URL %q: %w", raw, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("proxy URL %q must include scheme and host", raw)
		}
		proxies = append(proxies, u)
	}

	return &ProxyPool{proxies: proxies, strategy: strategy}, nil
}

// Len returns the number of proxies in the pool. Safe on a nil pool.
func (p *ProxyPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// proxyFor implements http.Transport.Proxy over the pool.
func (p *ProxyPool) proxyFor(req *http.Request) (*url.URL, error) {
	n := len(p.proxies)

	switch p.strategy {
	case ProxySticky:
		if slot, ok := workerSlot(req.Context()); ok {
			return p.proxies[slot%n], nil
		}
		return p.proxies[int(p.next.Add(1)-1)%n], nil
	case ProxyRandom:
		return p.proxies[rand.IntN(n)], nil
	default:
		return p.proxies[int(p.next.Add(1)-1)%n], nil
	}
}

// workerSlotKey carries a worker's pool slot through the request
// context for sticky proxy assignment.
type workerSlotKey struct{}

// WithWorkerSlot tags ctx with the issuing worker's slot index.
// The download pool applies it so ProxySticky can pin proxies.
func WithWorkerSlot(ctx context.Context, slot int) context.Context {
	return context.WithValue(ctx, workerSlotKey{}, slot)
}

// workerSlot extracts the worker slot from ctx, if present.
func workerSlot(ctx context.Context) (int, bool) {
	slot, ok := ctx.Value(workerSlotKey{}).(int)
	return slot, ok
}
