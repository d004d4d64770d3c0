package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/finanzas-be/internal/observability"
)

// Logging writes one structured line per request.
func Logging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &observability.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
