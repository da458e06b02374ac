package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"nsproxy/observability/logging"
)

const headerRequestID = "X-Request-ID"

// RequestLogger assigns each request a correlation id, echoes it back in the
// response, and emits one structured line per request. Header values that
// look like credentials are redacted before they reach the log.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(headerRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(headerRequestID, requestID)
			ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestID)

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			logger.Info("request",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"remote", r.RemoteAddr,
				logging.MaskField("account", r.Header.Get("X-NetSuite-Account")),
			)
		})
	}
}
