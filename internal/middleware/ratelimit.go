package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/devconnector/backend/internal/models"
)

// RateLimit allows at most limit requests per client IP per window, counted
// in Redis with SET NX EX and INCR. A nil client or a limit of zero disables it.
// Redis errors let the request through.
func RateLimit(rdb redis.Cmdable, name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rdb == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := fmt.Sprintf("ratelimit:%s:%s", name, clientIP(r))

			// The window key is created with its TTL before it is counted, and
			// INCR keeps that TTL, so a counter can never outlive its window.
			if err := rdb.SetNX(ctx, key, 0, window).Err(); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("limiter", name).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("limiter", name).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(limit) {
				rateLimited.WithLabelValues(name).Inc()
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				writeJSON(w, http.StatusTooManyRequests, models.NewMessageResponse("Too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
