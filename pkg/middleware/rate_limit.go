package middleware

import (
	"net"
	"net/http"
	"staybook/pkg/logger"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RequesterRateLimiter keeps one token bucket per caller. Callers are the
// authenticated requester when known, otherwise the client IP.
type RequesterRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idle     time.Duration
	log      *logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRequesterRateLimiter allows requests per window for each caller, with
// the whole allowance usable as a burst.
func NewRequesterRateLimiter(requests int, window time.Duration, log *logger.Logger) *RequesterRateLimiter {
	rl := &RequesterRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		idle:     max(window, time.Minute),
		log:      log,
		stopCh:   make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (rl *RequesterRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = time.Now()
	rl.mu.Unlock()

	return e.limiter.Allow()
}

func (rl *RequesterRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, e := range rl.limiters {
				if time.Since(e.lastSeen) > rl.idle {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RequesterRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func RateLimit(limiter *RequesterRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := callerKey(r)
			if !limiter.Allow(key) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"caller", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Rate limit exceeded","code":"RATE_LIMITED"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if id, ok := RequesterFromContext(r.Context()); ok {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
