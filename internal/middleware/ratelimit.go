package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mindease/backend/pkg/utils"
)

const (
	limiterTTL   = 30 * time.Minute
	sweepEvery   = 5 * time.Minute
	headerLimit  = "X-RateLimit-Limit"
	headerRemain = "X-RateLimit-Remaining"
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// RateLimiter hands out one token bucket per client IP. Idle buckets are
// dropped during later lookups.
type RateLimiter struct {
	rps    rate.Limit
	burst  int
	reject any

	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter builds a limiter whose 429 responses carry rejectBody as
// JSON. A nil rejectBody falls back to {"error":"too many requests"}.
func NewRateLimiter(rps float64, burst int, rejectBody any) *RateLimiter {
	if rejectBody == nil {
		rejectBody = map[string]string{"error": "too many requests"}
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		reject:  rejectBody,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (l *RateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > sweepEvery {
		for key, e := range l.entries {
			if now.Sub(e.lastUse) > limiterTTL {
				delete(l.entries, key)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = now
	return e.limiter
}

// Handler rejects requests over the limit with 429.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lim := l.limiter(clientIP(r))

		w.Header().Set(headerLimit, strconv.Itoa(l.burst))
		if !lim.AllowN(l.now(), 1) {
			w.Header().Set(headerRemain, "0")
			utils.RespondJSON(w, http.StatusTooManyRequests, l.reject)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP reads RemoteAddr, which chi's RealIP middleware has already
// rewritten from X-Forwarded-For or X-Real-IP when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
