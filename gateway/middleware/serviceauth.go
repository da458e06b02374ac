package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"nsproxy/netsuite"
)

// ServiceAuthConfig gates the proxy's own surface with an HMAC-signed bearer
// token. This is service-to-proxy authentication, unrelated to the NetSuite
// credentials the proxy forwards.
type ServiceAuthConfig struct {
	Enabled    bool
	HMACSecret string
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
}

type ServiceAuthenticator struct {
	cfg    ServiceAuthConfig
	logger *slog.Logger
	secret []byte
}

func NewServiceAuthenticator(cfg ServiceAuthConfig, logger *slog.Logger) *ServiceAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &ServiceAuthenticator{
		cfg:    cfg,
		logger: logger,
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
	}
}

// Middleware validates the Authorization bearer token when the gate is
// enabled. Rejections use the uniform error body so callers see one failure
// shape regardless of which layer refused them.
func (a *ServiceAuthenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				netsuite.WriteError(w, netsuite.NewAuthentication("Missing bearer token"))
				return
			}
			if err := a.validate(token); err != nil {
				a.logger.Warn("service token rejected", "error", err.Error())
				netsuite.WriteError(w, netsuite.NewAuthentication("Invalid service token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *ServiceAuthenticator) validate(tokenString string) error {
	if len(a.secret) == 0 {
		return errors.New("service auth secret not configured")
	}
	opts := []jwt.ParserOption{jwt.WithLeeway(a.cfg.ClockSkew)}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("token invalid")
	}
	return nil
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
