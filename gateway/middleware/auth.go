// Package middleware holds the HTTP middleware stack for the proxy gateway:
// credential extraction, service-level auth, rate limiting, CORS, request
// logging and observability.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"nsproxy/netsuite"
	"nsproxy/netsuite/auth"
)

type contextKey string

const (
	// ContextKeyAuthService carries the per-request *auth.Service.
	ContextKeyAuthService contextKey = "nsproxy.auth"
	// ContextKeyRequestID carries the request correlation id.
	ContextKeyRequestID contextKey = "nsproxy.request_id"
)

// CredentialExtractor turns X-NetSuite-* request headers into an auth.Service
// and stores it on the request context. Requests that fail classification are
// rejected before any handler runs, with the uniform error body.
type CredentialExtractor struct {
	logger      *slog.Logger
	exemptPaths []string
}

// NewCredentialExtractor builds the extractor. exemptPaths are path prefixes
// (health probes, metrics) that pass through without credentials.
func NewCredentialExtractor(logger *slog.Logger, exemptPaths []string) *CredentialExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialExtractor{logger: logger, exemptPaths: exemptPaths}
}

func (e *CredentialExtractor) isExempt(path string) bool {
	for _, prefix := range e.exemptPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware performs the header classification. The extracted identity is
// request scoped: nothing is cached across requests, so concurrent calls with
// different credentials never observe each other.
func (e *CredentialExtractor) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if e.isExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			cfg, err := netsuite.FromHeaders(r.Header)
			if err != nil {
				e.logger.Warn("credential extraction failed",
					"path", r.URL.Path,
					"error", err.Error(),
				)
				netsuite.WriteError(w, err)
				return
			}
			service := auth.NewService(cfg, e.logger)
			ctx := context.WithValue(r.Context(), ContextKeyAuthService, service)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthServiceFromContext returns the extracted identity, or nil on exempt
// routes.
func AuthServiceFromContext(ctx context.Context) *auth.Service {
	service, _ := ctx.Value(ContextKeyAuthService).(*auth.Service)
	return service
}

// RequestIDFromContext returns the correlation id assigned by RequestLogger.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}
