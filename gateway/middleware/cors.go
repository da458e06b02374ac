package middleware

import (
	"net/http"
	"strings"
)

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// netsuiteHeaders are always allowed so browser clients can send the
// credential headers the extractor consumes.
var netsuiteHeaders = []string{
	"X-NetSuite-Account",
	"X-NetSuite-Email",
	"X-NetSuite-Password",
	"X-NetSuite-Role",
	"X-NetSuite-Consumer-Key",
	"X-NetSuite-Consumer-Secret",
	"X-NetSuite-Token-Id",
	"X-NetSuite-Token-Secret",
	"X-NetSuite-Script-Id",
	"X-NetSuite-Deploy-Id",
	"X-NetSuite-Api-Version",
	"X-Request-ID",
}

func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	headers := append([]string{"Content-Type", "Authorization"}, netsuiteHeaders...)
	headers = append(headers, cfg.AllowedHeaders...)
	allowCredentials := "false"
	if cfg.AllowCredentials {
		allowCredentials = "true"
	}
	allowMethods := strings.Join(methods, ", ")
	allowHeaders := strings.Join(headers, ", ")
	wildcard := len(origins) == 1 && origins[0] == "*"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The allowed origin is matched per request; a mismatched Origin
			// gets no Allow-Origin header at all.
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			default:
				w.Header().Add("Vary", "Origin")
				if origin := r.Header.Get("Origin"); originAllowed(origins, origin) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			w.Header().Set("Access-Control-Allow-Credentials", allowCredentials)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origins []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range origins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
