package restlet

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsproxy/netsuite"
)

func oauthRESTletConfig() *netsuite.AccountConfig {
	return &netsuite.AccountConfig{
		Account:        "TEST123",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		TokenID:        "tid",
		TokenSecret:    "tsec",
		ScriptID:       "42",
		DeployID:       "1",
	}
}

func passwordRESTletConfig() *netsuite.AccountConfig {
	return &netsuite.AccountConfig{
		Account:  "TEST123",
		Email:    "user@example.com",
		Password: "hunter2",
		Role:     "3",
		ScriptID: "42",
		DeployID: "1",
	}
}

func TestNewRequiresScriptDeploy(t *testing.T) {
	cfg := oauthRESTletConfig()
	cfg.ScriptID = ""
	cfg.DeployID = ""
	_, err := New(cfg)
	require.Error(t, err)
	nsErr := netsuite.AsError(err)
	assert.Equal(t, netsuite.KindConfiguration, nsErr.Kind)
	assert.Equal(t, "RESTlet script_id and deploy_id are required", nsErr.Message)
}

func TestBuildURLParameterOrder(t *testing.T) {
	client, err := New(oauthRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL("https://example.test/restlet.nl")

	url := client.BuildURL([]Param{
		{Key: "zeta", Value: "1"},
		{Key: "alpha", Value: "two words"},
	})
	// script and deploy always lead; caller parameters keep their order.
	assert.Equal(t, "https://example.test/restlet.nl?script=42&deploy=1&zeta=1&alpha=two+words", url)
}

func TestGetSignsWithOAuth(t *testing.T) {
	var authorization string
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"7"}`))
	}))
	defer server.Close()

	client, err := New(oauthRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	result, err := client.Get(context.Background(), []Param{{Key: "recordtype", Value: "customer"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "7"}, result)

	assert.Equal(t, "script=42&deploy=1&recordtype=customer", query)
	assert.True(t, strings.HasPrefix(authorization, "OAuth"), "authorization %q", authorization)
	assert.Contains(t, authorization, `realm="TEST123"`)
	assert.Contains(t, authorization, `oauth_signature_method="HMAC-SHA256"`)
	assert.Contains(t, authorization, `oauth_consumer_key="ck"`)
	assert.Contains(t, authorization, `oauth_token="tid"`)
}

func TestPasswordModeSendsNSHeaders(t *testing.T) {
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := New(passwordRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	_, err = client.Get(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "TEST123", headers.Get("NS-Account"))
	assert.Equal(t, "user@example.com", headers.Get("NS-Email"))
	assert.Equal(t, "hunter2", headers.Get("NS-Password"))
	assert.Equal(t, "3", headers.Get("NS-Role"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, userAgent, headers.Get("User-Agent"))
}

func TestPostForwardsBody(t *testing.T) {
	var method string
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":true}`))
	}))
	defer server.Close()

	client, err := New(oauthRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	result, err := client.Post(context.Background(), map[string]any{"name": "Acme"}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.JSONEq(t, `{"name":"Acme"}`, body)
	assert.Equal(t, map[string]any{"created": true}, result)
}

func TestUnauthorizedTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := New(oauthRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	_, err = client.Get(context.Background(), nil, 0)
	require.Error(t, err)
	nsErr := netsuite.AsError(err)
	assert.Equal(t, netsuite.KindAuthentication, nsErr.Kind)
	assert.Equal(t, "RESTlet authentication failed", nsErr.Message)
}

func TestForbiddenTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, err := New(oauthRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	_, err = client.Get(context.Background(), nil, 0)
	require.Error(t, err)
	nsErr := netsuite.AsError(err)
	assert.Equal(t, netsuite.KindAuthentication, nsErr.Kind)
	assert.Equal(t, "Insufficient permissions for RESTlet", nsErr.Message)
}

func TestHTTPErrorTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Missing recordtype"}}`))
	}))
	defer server.Close()

	client, err := New(oauthRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	_, err = client.Get(context.Background(), nil, 0)
	require.Error(t, err)
	nsErr := netsuite.AsError(err)
	assert.Equal(t, netsuite.KindRESTletFault, nsErr.Kind)
	assert.Equal(t, "400", nsErr.Details["error_code"])
	details, ok := nsErr.Details["error_details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Missing recordtype", details["message"])
}

func TestInvalidJSONTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client, err := New(oauthRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	_, err = client.Get(context.Background(), nil, 0)
	require.Error(t, err)
	nsErr := netsuite.AsError(err)
	assert.Equal(t, netsuite.KindRESTletFault, nsErr.Kind)
	assert.Equal(t, "INVALID_JSON", nsErr.Details["error_code"])
}

func TestEmbeddedErrorTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"INVALID_RECORD","message":"No such record"}}`))
	}))
	defer server.Close()

	client, err := New(oauthRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	_, err = client.Get(context.Background(), nil, 0)
	require.Error(t, err)
	nsErr := netsuite.AsError(err)
	assert.Equal(t, netsuite.KindRESTletFault, nsErr.Kind)
	assert.Equal(t, "RESTlet error in script 42: INVALID_RECORD", nsErr.Message)
}

func TestEmptyEmbeddedErrorIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{},"data":[1,2]}`))
	}))
	defer server.Close()

	client, err := New(oauthRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	result, err := client.Get(context.Background(), nil, 0)
	require.NoError(t, err)
	object, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, object, "data")
}

func TestTimeoutTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1500 * time.Millisecond)
	}))
	defer server.Close()

	client, err := New(oauthRESTletConfig())
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	_, err = client.Get(context.Background(), nil, 1*time.Second)
	require.Error(t, err)
	nsErr := netsuite.AsError(err)
	assert.Equal(t, netsuite.KindTimeout, nsErr.Kind)
	assert.Equal(t, "Operation 'RESTlet GET' timed out after 1 seconds", nsErr.Message)
}
