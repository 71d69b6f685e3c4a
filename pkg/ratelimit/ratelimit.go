// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-sss.
//
// go-sss is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package ratelimit provides per-client token bucket rate limiting for the
// HTTP service.
package ratelimit

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultCleanupInterval = 10 * time.Minute
	defaultMaxIdle         = 30 * time.Minute
)

// Config holds rate limiter configuration.
type Config struct {
	Enabled bool `yaml:"enabled"`

	// RequestsPerMinute is the sustained rate per client.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// Burst is the bucket size. Zero means RequestsPerMinute.
	Burst int `yaml:"burst"`

	// TrustProxyHeaders identifies clients by X-Forwarded-For and X-Real-IP.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`

	// CleanupInterval is how often idle clients are evicted. Zero means
	// ten minutes.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	// MaxIdle is how long a client may go unseen before eviction. Zero
	// means thirty minutes.
	MaxIdle time.Duration `yaml:"max_idle"`
}

// Stats is a snapshot of limiter state.
type Stats struct {
	Enabled       bool    `json:"enabled"`
	ActiveClients int     `json:"active_clients"`
	RatePerMinute float64 `json:"rate_per_min"`
	Burst         int     `json:"burst"`
	Rejected      uint64  `json:"rejected"`
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client.
type Limiter struct {
	limit   rate.Limit
	burst   int
	enabled bool
	trust   bool
	maxIdle time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	rejected atomic.Uint64
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter from config. A nil config or a zero rate disables
// limiting. An enabled limiter runs an eviction goroutine until Stop.
func New(config *Config) *Limiter {
	var cfg Config
	if config != nil {
		cfg = *config
	}
	if cfg.Burst == 0 {
		cfg.Burst = cfg.RequestsPerMinute
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	if cfg.MaxIdle == 0 {
		cfg.MaxIdle = defaultMaxIdle
	}

	l := &Limiter{
		limit:   rate.Every(time.Minute / time.Duration(max(cfg.RequestsPerMinute, 1))),
		burst:   cfg.Burst,
		enabled: cfg.Enabled && cfg.RequestsPerMinute > 0,
		trust:   cfg.TrustProxyHeaders,
		maxIdle: cfg.MaxIdle,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if l.enabled {
		go l.evictLoop(cfg.CleanupInterval)
	}
	return l
}

// bucketFor returns the bucket of clientID, creating it on first sight.
func (l *Limiter) bucketFor(clientID string) *rate.Limiter {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[clientID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[clientID] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Allow consumes a token for clientID and reports whether one was
// available.
func (l *Limiter) Allow(clientID string) bool {
	ok, _ := l.reserve(clientID)
	return ok
}

// reserve consumes a token for clientID. When none is available it returns
// false and the time until the next one.
func (l *Limiter) reserve(clientID string) (bool, time.Duration) {
	if !l.enabled {
		return true, 0
	}
	res := l.bucketFor(clientID).Reserve()
	if !res.OK() {
		l.rejected.Add(1)
		return false, time.Minute
	}
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		l.rejected.Add(1)
		return false, delay
	}
	return true, 0
}

// Wait blocks until clientID may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, clientID string) error {
	if !l.enabled {
		return nil
	}
	return l.bucketFor(clientID).Wait(ctx)
}

func (l *Limiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			l.cleanup(now)
		case <-l.stop:
			return
		}
	}
}

// cleanup evicts clients last seen more than maxIdle before now.
func (l *Limiter) cleanup(now time.Time) {
	cutoff := now.Add(-l.maxIdle)

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, id)
		}
	}
}

// Stop ends the eviction goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	active := len(l.buckets)
	l.mu.Unlock()

	s := Stats{
		Enabled:       l.enabled,
		ActiveClients: active,
		Burst:         l.burst,
		Rejected:      l.rejected.Load(),
	}
	if l.enabled {
		s.RatePerMinute = float64(l.limit) * 60
	}
	return s
}

func (l *Limiter) IsEnabled() bool {
	return l.enabled
}

// Middleware rejects requests over the client's limit with 429, a JSON
// error body, and a Retry-After header in whole seconds.
func Middleware(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.reserve(limiter.ClientIP(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retry := int(math.Ceil(wait.Seconds()))
			if retry < 1 {
				retry = 1
			}
			h := w.Header()
			h.Set("Retry-After", strconv.Itoa(retry))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "rate limit exceeded",
				"code":  "rate_limited",
			})
		})
	}
}

// ClientIP identifies the client of r. Proxy headers are read only when the
// limiter trusts them; the first X-Forwarded-For hop wins over X-Real-IP.
func (l *Limiter) ClientIP(r *http.Request) string {
	if l.trust {
		if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
