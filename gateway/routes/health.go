package routes

import (
	"net/http"
	"time"

	"nsproxy/netsuite"
)

// HealthHandler answers liveness probes. The detailed variant reports how the
// process-wide NetSuite identity is configured; it never calls NetSuite, so a
// probe cannot consume API quota or hang on a slow upstream.
type HealthHandler struct {
	account *netsuite.AccountConfig
	version string
	started time.Time
}

// NewHealthHandler takes the optional process-wide account config and the
// build version string.
func NewHealthHandler(account *netsuite.AccountConfig, version string) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{account: account, version: version, started: time.Now()}
}

func (h *HealthHandler) Basic(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.version,
	})
}

func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":         "ok",
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"netsuite": map[string]any{
			"auth_configured":    false,
			"auth_type":          string(netsuite.AuthNone),
			"restlet_configured": false,
		},
	}
	if h.account != nil {
		body["netsuite"] = map[string]any{
			"account":            h.account.Account,
			"api_version":        h.account.APIVersion,
			"environment":        h.account.Environment(),
			"auth_configured":    h.account.AuthType() != netsuite.AuthNone,
			"auth_type":          string(h.account.AuthType()),
			"restlet_configured": h.account.HasRESTletConfig(),
		}
	}
	writeJSON(w, http.StatusOK, body)
}
