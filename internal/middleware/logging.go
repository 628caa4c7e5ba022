package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// RequestLogger puts a request-scoped logger carrying the chi request id into
// the context and writes one access line per request. It must run after
// chi's RequestID middleware.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		})(next)
		h = withRequestID(h)
		return hlog.NewHandler(logger)(h)
	}
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			l := zerolog.Ctx(r.Context()).With().Str("request_id", id).Logger()
			r = r.WithContext(l.WithContext(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}
