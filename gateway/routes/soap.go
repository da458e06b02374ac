package routes

import (
	"net/http"

	"nsproxy/netsuite"
)

// SOAPServerTime issues the SuiteTalk getServerTime operation with the
// request's credentials. The call exercises the full passport path, so a 200
// here proves the supplied credentials sign correctly.
func SOAPServerTime(w http.ResponseWriter, r *http.Request) {
	service := requireAuthService(w, r)
	if service == nil {
		return
	}
	serverTime, err := service.SOAPClient().GetServerTime(r.Context())
	if err != nil {
		netsuite.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"server_time": netsuite.FormatTimestamp(serverTime),
	})
}
