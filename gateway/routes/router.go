// Package routes wires the proxy's HTTP surface: health probes, auth info,
// RESTlet passthrough and the SOAP server-time endpoint.
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nsproxy/gateway/middleware"
	"nsproxy/netsuite"
	"nsproxy/netsuite/auth"
)

// Config assembles the router from its middleware collaborators. Extractor is
// mandatory; the rest degrade to pass-through when nil.
type Config struct {
	APIPrefix     string
	Extractor     *middleware.CredentialExtractor
	ServiceAuth   *middleware.ServiceAuthenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Health        *HealthHandler
}

// New builds the chi router. Health and metrics sit outside the credential
// gate; everything under the API prefix passes service auth, credential
// extraction and rate limiting in that order.
func New(cfg Config) http.Handler {
	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability
	if obs != nil {
		r.Use(obs.Middleware("root"))
	}

	health := cfg.Health
	if health == nil {
		health = NewHealthHandler(nil, "")
	}

	r.Route(prefix, func(sr chi.Router) {
		// Health probes stay outside the credential gate.
		sr.Get("/health", health.Basic)
		sr.Get("/health/detailed", health.Detailed)

		sr.Group(func(g chi.Router) {
			if cfg.ServiceAuth != nil {
				g.Use(cfg.ServiceAuth.Middleware())
			}
			if cfg.Extractor != nil {
				g.Use(cfg.Extractor.Middleware())
			}
			if cfg.RateLimiter != nil {
				g.Use(cfg.RateLimiter.Middleware("api"))
			}
			if obs != nil {
				g.Use(obs.Middleware("api"))
			}

			g.Get("/auth/info", AuthInfo)
			g.Get("/soap/server-time", SOAPServerTime)

			g.Get("/restlet", RESTletGet)
			g.Post("/restlet", RESTletPost)
			g.Put("/restlet", RESTletPut)
			g.Delete("/restlet", RESTletDelete)
		})
	})

	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// requireAuthService fetches the per-request identity placed by the
// extractor. A miss means the route was mounted outside the credential gate,
// which is a wiring bug surfaced as a configuration error.
func requireAuthService(w http.ResponseWriter, r *http.Request) *auth.Service {
	service := middleware.AuthServiceFromContext(r.Context())
	if service == nil {
		netsuite.WriteError(w, netsuite.NewConfiguration("no authentication context on request"))
		return nil
	}
	return service
}
