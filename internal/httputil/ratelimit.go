package httputil

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit builds an IP-based rate limiter for credential endpoints.
// Exceeded requests are logged and answered with 429.
func RateLimit(requests int, window time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if log != nil {
				log.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("ip", r.RemoteAddr),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
				)
			}
			Error(w, http.StatusTooManyRequests, "too many requests, try again later")
		}),
	)
}
