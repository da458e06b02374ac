package routes

import "net/http"

// AuthInfo echoes the authenticated identity extracted from the request
// headers. Useful for callers verifying which credential shape the proxy
// resolved; no secrets are included.
func AuthInfo(w http.ResponseWriter, r *http.Request) {
	service := requireAuthService(w, r)
	if service == nil {
		return
	}
	writeJSON(w, http.StatusOK, service.AccountInfo())
}
