package handlers

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a redis-backed fixed-window limiter keyed by client IP.
// Requests that complete successfully are removed from the count, so only
// failed attempts burn the budget.
type RateLimiter struct {
	rdb    *redis.Client
	prefix string
	max    int64
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, prefix string, max int64, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, prefix: prefix, max: max, window: window}
}

func (l *RateLimiter) key(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return l.prefix + ":" + host
}

// Limit wraps a handler with the rate-limit check. When redis is unreachable
// the limiter fails open: an outage degrades protection, not availability.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.rdb == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := l.key(r)
		count, err := l.rdb.Incr(r.Context(), key).Result()
		if err != nil {
			slog.WarnContext(r.Context(), "rate limiter unavailable", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			if err := l.rdb.Expire(r.Context(), key, l.window).Err(); err != nil {
				slog.WarnContext(r.Context(), "rate limiter expire failed", "err", err)
			}
		}
		if count > l.max {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if recorder.status < http.StatusBadRequest {
			_ = l.rdb.Decr(r.Context(), key).Err()
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}
