// Package restlet implements the NetSuite RESTlet client. OAuth sessions are
// signed per request with OAuth1 HMAC-SHA256 (RFC 5849, via dghubble/oauth1);
// password sessions carry static NS-* headers.
package restlet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"nsproxy/netsuite"
)

const userAgent = "NetSuite-Proxy/1.0"

// Param is one query parameter. Parameters are appended to the outbound URL
// in the order supplied, after the mandatory script/deploy pair.
type Param struct {
	Key   string
	Value string
}

// Client talks to one account's RESTlet deployment. The HTTP session is
// built once per client and scoped to a single authentication identity.
type Client struct {
	cfg            *netsuite.AccountConfig
	baseURL        string
	defaultTimeout time.Duration
	http           *http.Client
}

// New builds a RESTlet client. Missing script or deploy ids are a fatal
// configuration error, not something to discover at call time.
func New(cfg *netsuite.AccountConfig) (*Client, error) {
	if !cfg.HasRESTletConfig() {
		return nil, netsuite.NewConfiguration("RESTlet script_id and deploy_id are required")
	}
	session, err := newSession(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:            cfg,
		baseURL:        cfg.RESTletBaseURL(),
		defaultTimeout: netsuite.DefaultRESTletTimeout,
		http:           session,
	}, nil
}

// WithBaseURL overrides the RESTlet endpoint; tests point it at a local
// server.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// newSession dispatches on the resolved auth type: OAuth1 signing transport
// or static password headers, both stacked on an instrumented base.
func newSession(cfg *netsuite.AccountConfig) (*http.Client, error) {
	base := &headerTransport{
		next: otelhttp.NewTransport(http.DefaultTransport),
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"User-Agent":   userAgent,
		},
	}
	switch cfg.AuthType() {
	case netsuite.AuthOAuth:
		oauthCfg := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
		oauthCfg.Realm = cfg.Account
		oauthCfg.Signer = &oauth1.HMAC256Signer{ConsumerSecret: cfg.ConsumerSecret}
		ctx := context.WithValue(context.Background(), oauth1.HTTPClient, &http.Client{Transport: base})
		return oauthCfg.Client(ctx, oauth1.NewToken(cfg.TokenID, cfg.TokenSecret)), nil
	case netsuite.AuthPassword:
		headers := map[string]string{
			"NS-Account":  cfg.Account,
			"NS-Email":    cfg.Email,
			"NS-Password": cfg.Password,
		}
		if cfg.Role != "" {
			headers["NS-Role"] = cfg.Role
		}
		return &http.Client{Transport: &headerTransport{next: base, headers: headers}}, nil
	default:
		return nil, netsuite.NewAuthentication("Unsupported auth type: none")
	}
}

// headerTransport adds fixed headers to every request without clobbering
// values a caller already set.
type headerTransport struct {
	next    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for key, value := range t.headers {
		if clone.Header.Get(key) == "" {
			clone.Header.Set(key, value)
		}
	}
	return t.next.RoundTrip(clone)
}

// BuildURL composes the outbound URL: script and deploy first, then caller
// parameters in caller order.
func (c *Client) BuildURL(params []Param) string {
	var query strings.Builder
	query.WriteString("script=" + url.QueryEscape(c.cfg.ScriptID))
	query.WriteString("&deploy=" + url.QueryEscape(c.cfg.DeployID))
	for _, p := range params {
		query.WriteString("&" + url.QueryEscape(p.Key) + "=" + url.QueryEscape(p.Value))
	}
	return c.baseURL + "?" + query.String()
}

// Get executes a GET against the RESTlet. timeout zero means the default.
func (c *Client) Get(ctx context.Context, params []Param, timeout time.Duration) (any, error) {
	return c.do(ctx, http.MethodGet, "RESTlet GET", nil, params, timeout)
}

// Post executes a POST with a JSON body.
func (c *Client) Post(ctx context.Context, body any, params []Param, timeout time.Duration) (any, error) {
	return c.do(ctx, http.MethodPost, "RESTlet POST", body, params, timeout)
}

// Put executes a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, body any, params []Param, timeout time.Duration) (any, error) {
	return c.do(ctx, http.MethodPut, "RESTlet PUT", body, params, timeout)
}

// Delete executes a DELETE against the RESTlet.
func (c *Client) Delete(ctx context.Context, params []Param, timeout time.Duration) (any, error) {
	return c.do(ctx, http.MethodDelete, "RESTlet DELETE", nil, params, timeout)
}

func (c *Client) do(ctx context.Context, method, operation string, body any, params []Param, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, netsuite.NewGeneric(fmt.Sprintf("RESTlet request failed: encode body: %v", err), err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BuildURL(params), payload)
	if err != nil {
		return nil, netsuite.NewGeneric(fmt.Sprintf("RESTlet request failed: %v", err), err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, translateRequestError(operation, err, timeout)
	}
	defer res.Body.Close()
	return c.handleResponse(res)
}

// translateRequestError distinguishes timeouts, connection failures and
// everything else, in that order.
func translateRequestError(operation string, err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return netsuite.NewTimeout(operation, int(timeout.Seconds()))
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return netsuite.NewGeneric(fmt.Sprintf("Failed to connect to NetSuite: %v", err), err)
	}
	return netsuite.NewGeneric(fmt.Sprintf("RESTlet request failed: %v", err), err)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// handleResponse applies the response taxonomy: auth statuses first, then
// generic HTTP failures, then the NetSuite convention of embedding an error
// object in a 200 body.
func (c *Client) handleResponse(res *http.Response) (any, error) {
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, netsuite.NewGeneric(fmt.Sprintf("RESTlet request failed: read response: %v", err), err)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return nil, netsuite.NewAuthentication("RESTlet authentication failed")
	case res.StatusCode == http.StatusForbidden:
		return nil, netsuite.NewAuthentication("Insufficient permissions for RESTlet")
	case res.StatusCode >= 400:
		message := string(raw)
		var parsed struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		return nil, netsuite.NewRESTletFault(c.cfg.ScriptID, strconv.Itoa(res.StatusCode), map[string]any{
			"message":       message,
			"response_text": string(raw),
		})
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, netsuite.NewRESTletFault(c.cfg.ScriptID, "INVALID_JSON", map[string]any{
			"message": fmt.Sprintf("Invalid JSON response: %v", err),
		})
	}

	// A 200 with an embedded error object is still a failure.
	if object, ok := data.(map[string]any); ok {
		if embedded, ok := object["error"].(map[string]any); ok && len(embedded) > 0 {
			code, _ := embedded["code"].(string)
			return nil, netsuite.NewRESTletFault(c.cfg.ScriptID, code, embedded)
		}
	}
	return data, nil
}
