package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nsproxy/netsuite"
	"nsproxy/netsuite/restlet"
)

// RESTletGet forwards a GET to the RESTlet configured by the request headers.
func RESTletGet(w http.ResponseWriter, r *http.Request) {
	forwardRESTlet(w, r, false)
}

// RESTletPost forwards a POST with the caller's JSON body.
func RESTletPost(w http.ResponseWriter, r *http.Request) {
	forwardRESTlet(w, r, true)
}

// RESTletPut forwards a PUT with the caller's JSON body.
func RESTletPut(w http.ResponseWriter, r *http.Request) {
	forwardRESTlet(w, r, true)
}

// RESTletDelete forwards a DELETE to the RESTlet.
func RESTletDelete(w http.ResponseWriter, r *http.Request) {
	forwardRESTlet(w, r, false)
}

func forwardRESTlet(w http.ResponseWriter, r *http.Request, withBody bool) {
	service := requireAuthService(w, r)
	if service == nil {
		return
	}
	client, err := service.RESTletClient()
	if err != nil {
		netsuite.WriteError(w, err)
		return
	}

	params, timeout, err := splitQuery(r.URL.RawQuery)
	if err != nil {
		netsuite.WriteError(w, err)
		return
	}

	var body any
	if withBody {
		body, err = decodeBody(r.Body)
		if err != nil {
			netsuite.WriteError(w, err)
			return
		}
	}

	var result any
	switch r.Method {
	case http.MethodGet:
		result, err = client.Get(r.Context(), params, timeout)
	case http.MethodPost:
		result, err = client.Post(r.Context(), body, params, timeout)
	case http.MethodPut:
		result, err = client.Put(r.Context(), body, params, timeout)
	case http.MethodDelete:
		result, err = client.Delete(r.Context(), params, timeout)
	}
	if err != nil {
		netsuite.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// splitQuery separates the reserved timeout parameter from the caller's
// RESTlet parameters, preserving the caller's ordering. url.Values cannot be
// used here: it is a map and loses the order the RESTlet may depend on.
func splitQuery(rawQuery string) ([]restlet.Param, time.Duration, error) {
	var params []restlet.Param
	var timeout time.Duration
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, 0, netsuite.NewValidation("query", rawKey, "malformed query parameter")
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, 0, netsuite.NewValidation(key, rawValue, "malformed query parameter")
		}
		if key == "timeout" {
			seconds, err := strconv.Atoi(value)
			if err != nil || seconds <= 0 {
				return nil, 0, netsuite.NewValidation("timeout", value, "timeout must be a positive integer of seconds")
			}
			timeout = time.Duration(seconds) * time.Second
			continue
		}
		params = append(params, restlet.Param{Key: key, Value: value})
	}
	return params, timeout, nil
}

// decodeBody parses an optional JSON request body. Empty bodies are allowed
// and forwarded as no body at all.
func decodeBody(body io.Reader) (any, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, netsuite.NewValidation("body", nil, "failed to read request body")
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		var syntaxErr *json.SyntaxError
		reason := "request body must be valid JSON"
		if errors.As(err, &syntaxErr) {
			reason = "request body must be valid JSON: " + err.Error()
		}
		return nil, netsuite.NewValidation("body", nil, reason)
	}
	return decoded, nil
}
