package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type ctxKey struct{}

// KeyFromContext returns the API key that authenticated the request.
func KeyFromContext(ctx context.Context) *APIKey {
	k, _ := ctx.Value(ctxKey{}).(*APIKey)
	return k
}

// WithKey attaches an authenticated key to ctx.
func WithKey(ctx context.Context, k *APIKey) context.Context {
	return context.WithValue(ctx, ctxKey{}, k)
}

// rateLimiter counts events per key within a sliding window.
type rateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	max      int
	attempts map[string][]time.Time
	now      func() time.Time
}

func newRateLimiter(window time.Duration, max int) *rateLimiter {
	return &rateLimiter{
		window:   window,
		max:      max,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// prune drops entries outside the window. Callers hold mu.
func (rl *rateLimiter) prune(key string) []time.Time {
	cutoff := rl.now().Add(-rl.window)
	valid := rl.attempts[key][:0]
	for _, t := range rl.attempts[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, key)
		return nil
	}
	rl.attempts[key] = valid
	return valid
}

// limited reports whether key has reached the limit without recording.
func (rl *rateLimiter) limited(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(key)) >= rl.max
}

// record records an event and returns true if key is now over the limit.
func (rl *rateLimiter) record(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := append(rl.prune(key), rl.now())
	rl.attempts[key] = valid
	return len(valid) > rl.max
}

// allow records an event for key unless the limit is already reached.
// Rejected events are not recorded, so a client regains access as soon as
// old events leave the window.
func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.prune(key)
	if len(valid) >= rl.max {
		return false
	}
	rl.attempts[key] = append(valid, rl.now())
	return true
}

// Middleware authenticates /api/ routes with Bearer API keys.
type Middleware struct {
	keys     *APIKeyStore
	failures *rateLimiter
	requests *rateLimiter
}

// NewMiddleware creates the API key middleware. perMinute limits requests
// per key; 0 disables the limit. Failed attempts are always limited per IP.
func NewMiddleware(keys *APIKeyStore, perMinute int) *Middleware {
	m := &Middleware{
		keys:     keys,
		failures: newRateLimiter(rateLimitWindow, rateLimitMaxFail),
	}
	if perMinute > 0 {
		m.requests = newRateLimiter(rateLimitWindow, perMinute)
	}
	return m
}

// RequireAPIKey validates Bearer token auth for /api/ routes.
// Non-API routes pass through untouched.
// Returns 401 for missing/invalid keys, 429 for rate-limited IPs or keys.
func (m *Middleware) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only intercept /api/ paths
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}

		if m.failures.limited(ip) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		key, err := m.keys.Validate(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			slog.Error("api key validation failed", "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		if key == nil {
			if m.failures.record(ip) {
				slog.Warn("api key attempts rate limited", "ip", ip, "telegram", true)
			}
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		if m.requests != nil && !m.requests.allow(strconv.FormatInt(key.ID, 10)) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithKey(r.Context(), key)))
	})
}

// clientIP strips the port from the remote address.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		return addr[:i]
	}
	return addr
}
