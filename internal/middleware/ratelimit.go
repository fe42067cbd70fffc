// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Decision is a limiter's verdict on one request. RetryAfter is only
// meaningful when Allowed is false.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// KeyFunc derives the rate limit key from a request.
type KeyFunc func(r *http.Request) string

// ByClientIP keys requests by client IP.
func ByClientIP(r *http.Request) string {
	return clientIP(r)
}

// ByUser keys requests by local user id, falling back to the client IP
// for callers that have not synced yet. Must run after Authenticate.
func ByUser(r *http.Request) string {
	if u := UserFromCtx(r.Context()); u != nil {
		return "user:" + u.ID.String()
	}
	return "ip:" + clientIP(r)
}

// RateLimit rejects requests with 429 and a Retry-After header once l
// denies their key. If the limiter itself fails the request is let through.
func RateLimit(l Limiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), key(r))
			if err != nil {
				slog.Warn("rate limiter unavailable", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}
			if !d.Allowed {
				w.Header().Set("Retry-After", retryAfterSeconds(d.RetryAfter))
				WriteError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up to whole seconds, never below one.
func retryAfterSeconds(d time.Duration) string {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return strconv.Itoa(s)
}

// SlidingWindow limits each key to limit requests in any window-long
// span. State is per process.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time // ascending

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSlidingWindow creates the limiter and starts a goroutine that drops
// idle keys. Call Stop to end it.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	sw := &SlidingWindow{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
		stop:   make(chan struct{}),
	}

	every := max(window, time.Minute)
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sw.sweep()
			case <-sw.stop:
				return
			}
		}
	}()

	return sw
}

// Stop ends the sweeping goroutine. It is safe to call more than once.
func (sw *SlidingWindow) Stop() {
	sw.stopOnce.Do(func() { close(sw.stop) })
}

// Allow implements Limiter. It never returns an error.
func (sw *SlidingWindow) Allow(_ context.Context, key string) (Decision, error) {
	now := sw.now()

	sw.mu.Lock()
	defer sw.mu.Unlock()

	hits := dropBefore(sw.hits[key], now.Add(-sw.window))
	if len(hits) >= sw.limit {
		sw.hits[key] = hits
		return Decision{RetryAfter: hits[0].Add(sw.window).Sub(now)}, nil
	}
	sw.hits[key] = append(hits, now)
	return Decision{Allowed: true}, nil
}

// sweep forgets keys with no hit inside the current window.
func (sw *SlidingWindow) sweep() {
	cutoff := sw.now().Add(-sw.window)

	sw.mu.Lock()
	defer sw.mu.Unlock()
	for key, hits := range sw.hits {
		if len(dropBefore(hits, cutoff)) == 0 {
			delete(sw.hits, key)
		}
	}
}

// dropBefore returns the suffix of hits later than cutoff.
func dropBefore(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// clientIP returns the caller's address: the first X-Forwarded-For hop,
// then X-Real-IP, then the connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
