package netsuite

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Header names consumed by the credential extractor. Matching is
// case-insensitive on receipt; these are the canonical spellings.
const (
	HeaderAccount        = "X-NetSuite-Account"
	HeaderEmail          = "X-NetSuite-Email"
	HeaderPassword       = "X-NetSuite-Password"
	HeaderRole           = "X-NetSuite-Role"
	HeaderConsumerKey    = "X-NetSuite-Consumer-Key"
	HeaderConsumerSecret = "X-NetSuite-Consumer-Secret"
	HeaderTokenID        = "X-NetSuite-Token-Id"
	HeaderTokenSecret    = "X-NetSuite-Token-Secret"
	HeaderScriptID       = "X-NetSuite-Script-Id"
	HeaderDeployID       = "X-NetSuite-Deploy-Id"
	HeaderAPIVersion     = "X-NetSuite-Api-Version"
)

const (
	// DefaultAPIVersion is used when the caller does not supply one.
	DefaultAPIVersion = "2024_2"
	// DefaultSOAPTimeout bounds SuiteTalk calls.
	DefaultSOAPTimeout = 1200 * time.Second
	// DefaultRESTletTimeout bounds RESTlet calls.
	DefaultRESTletTimeout = 300 * time.Second
	// DefaultApplicationID identifies this proxy in SOAP applicationInfo headers.
	DefaultApplicationID = "netsuite-proxy"

	minTimeout = 1 * time.Second
	maxTimeout = 3600 * time.Second
)

// AuthType classifies which credential shape an AccountConfig satisfies.
type AuthType string

const (
	AuthPassword AuthType = "password"
	AuthOAuth    AuthType = "oauth"
	AuthNone     AuthType = "none"
)

var apiVersionPattern = regexp.MustCompile(`^[0-9]{4}_[0-9]+$`)

// AccountConfig carries the identity and credentials for one outbound call
// context. It is immutable once validated: the extractor builds it per
// request, handlers only read it.
type AccountConfig struct {
	Account    string
	APIVersion string
	WSDLURL    string
	Timeout    time.Duration

	// Password credentials.
	Email    string
	Password string
	Role     string

	// OAuth1 token credentials.
	ConsumerKey    string
	ConsumerSecret string
	TokenID        string
	TokenSecret    string

	// RESTlet addressing; both set or both empty.
	ScriptID string
	DeployID string

	ApplicationID string
}

// HasPasswordAuth reports whether both password fields are populated.
func (c *AccountConfig) HasPasswordAuth() bool {
	return c.Email != "" && c.Password != ""
}

// HasOAuthAuth reports whether all four OAuth1 fields are populated.
func (c *AccountConfig) HasOAuthAuth() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.TokenID != "" && c.TokenSecret != ""
}

// AuthType resolves the credential shape. OAuth wins when both shapes are
// fully populated.
func (c *AccountConfig) AuthType() AuthType {
	if c.HasOAuthAuth() {
		return AuthOAuth
	}
	if c.HasPasswordAuth() {
		return AuthPassword
	}
	return AuthNone
}

// HasRESTletConfig reports whether both RESTlet identifiers are present.
func (c *AccountConfig) HasRESTletConfig() bool {
	return c.ScriptID != "" && c.DeployID != ""
}

// Environment guesses sandbox vs production from the account suffix.
func (c *AccountConfig) Environment() string {
	account := strings.ToLower(c.Account)
	for _, suffix := range []string{"-sb1", "-sb2", "_sb1", "_sb2"} {
		if strings.HasSuffix(account, suffix) {
			return "sandbox"
		}
	}
	return "production"
}

// Validate enforces the construction-time invariants: account present, API
// version well formed, timeout bounded, RESTlet ids paired, and no partial
// credential set. Partial sets fail here rather than at first use.
func (c *AccountConfig) Validate() error {
	if strings.TrimSpace(c.Account) == "" {
		return NewValidation("account", c.Account, "account is required")
	}
	if c.APIVersion != "" && !apiVersionPattern.MatchString(c.APIVersion) {
		return NewValidation("api_version", c.APIVersion,
			fmt.Sprintf("invalid API version format: %s. Expected format: YYYY_N (e.g. 2024_2)", c.APIVersion))
	}
	if c.Timeout != 0 && (c.Timeout < minTimeout || c.Timeout > maxTimeout) {
		return NewValidation("timeout", c.Timeout.String(),
			fmt.Sprintf("timeout must be between %s and %s", minTimeout, maxTimeout))
	}
	if (c.ScriptID == "") != (c.DeployID == "") {
		return NewValidation("script_id", c.ScriptID,
			"RESTlet script_id and deploy_id must be provided together")
	}
	oauthSet := 0
	for _, v := range []string{c.ConsumerKey, c.ConsumerSecret, c.TokenID, c.TokenSecret} {
		if v != "" {
			oauthSet++
		}
	}
	if oauthSet > 0 && oauthSet < 4 {
		return NewValidation("oauth", nil,
			"OAuth credentials require consumer_key, consumer_secret, token_id and token_secret")
	}
	if (c.Email == "") != (c.Password == "") {
		return NewValidation("password", nil,
			"password authentication requires both email and password")
	}
	return nil
}

// withDefaults fills in the fields that have documented fallbacks.
func (c *AccountConfig) withDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultSOAPTimeout
	}
	if c.ApplicationID == "" {
		c.ApplicationID = DefaultApplicationID
	}
}

// accountDomain converts the account id to its hostname form: lowercased
// with underscores flattened to hyphens.
func (c *AccountConfig) accountDomain() string {
	return strings.ReplaceAll(strings.ToLower(c.Account), "_", "-")
}

// ResolveWSDLURL returns the explicit WSDL override when set, otherwise the
// account-scoped SuiteTalk WSDL location.
func (c *AccountConfig) ResolveWSDLURL() string {
	if c.WSDLURL != "" {
		return c.WSDLURL
	}
	return fmt.Sprintf("https://%s.suitetalk.api.netsuite.com/wsdl/v%s_0/netsuite.wsdl",
		c.accountDomain(), c.APIVersion)
}

// SOAPEndpoint is the SuiteTalk service endpoint SOAP envelopes are posted to.
func (c *AccountConfig) SOAPEndpoint() string {
	return fmt.Sprintf("https://%s.suitetalk.api.netsuite.com/services/NetSuitePort_%s",
		c.accountDomain(), c.APIVersion)
}

// RESTletBaseURL is the account-scoped RESTlet dispatch endpoint.
func (c *AccountConfig) RESTletBaseURL() string {
	return fmt.Sprintf("https://%s.restlets.api.netsuite.com/app/site/hosting/restlet.nl",
		c.accountDomain())
}

// FromHeaders classifies the request's credential headers into an
// AccountConfig, the proxy's per-request auth context.
//
// The classification is a fixed state machine: no account header is a
// validation failure; with the account present, a complete OAuth1 set wins,
// then a complete password pair, and anything else - including partial
// sets - is rejected as an authentication failure. Partial sets are never
// merged or downgraded.
func FromHeaders(h http.Header) (*AccountConfig, error) {
	account := strings.TrimSpace(h.Get(HeaderAccount))
	if account == "" {
		return nil, &Error{
			Kind:    KindValidation,
			Message: "Missing required header: " + HeaderAccount,
			Details: map[string]any{"field": "account", "header": HeaderAccount},
		}
	}

	cfg := &AccountConfig{
		Account:        account,
		APIVersion:     strings.TrimSpace(h.Get(HeaderAPIVersion)),
		Email:          strings.TrimSpace(h.Get(HeaderEmail)),
		Password:       strings.TrimSpace(h.Get(HeaderPassword)),
		Role:           strings.TrimSpace(h.Get(HeaderRole)),
		ConsumerKey:    strings.TrimSpace(h.Get(HeaderConsumerKey)),
		ConsumerSecret: strings.TrimSpace(h.Get(HeaderConsumerSecret)),
		TokenID:        strings.TrimSpace(h.Get(HeaderTokenID)),
		TokenSecret:    strings.TrimSpace(h.Get(HeaderTokenSecret)),
	}

	switch {
	case cfg.HasOAuthAuth():
		// OAuth wins the tie; password headers that also arrived are ignored.
		cfg.Email = ""
		cfg.Password = ""
	case cfg.HasPasswordAuth():
		cfg.ConsumerKey = ""
		cfg.ConsumerSecret = ""
		cfg.TokenID = ""
		cfg.TokenSecret = ""
	default:
		return nil, NewAuthentication(
			"No valid authentication credentials provided. " +
				"Either provide email/password or OAuth credentials.")
	}

	// RESTlet ids are only honoured as a pair; a lone script or deploy id is
	// treated as no RESTlet configuration at all.
	scriptID := strings.TrimSpace(h.Get(HeaderScriptID))
	deployID := strings.TrimSpace(h.Get(HeaderDeployID))
	if scriptID != "" && deployID != "" {
		cfg.ScriptID = scriptID
		cfg.DeployID = deployID
	}

	cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
