package netsuite

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oauthHeaders(account string) http.Header {
	h := http.Header{}
	h.Set(HeaderAccount, account)
	h.Set(HeaderConsumerKey, "ck")
	h.Set(HeaderConsumerSecret, "cs")
	h.Set(HeaderTokenID, "tid")
	h.Set(HeaderTokenSecret, "ts")
	return h
}

func passwordHeaders(account string) http.Header {
	h := http.Header{}
	h.Set(HeaderAccount, account)
	h.Set(HeaderEmail, "user@example.com")
	h.Set(HeaderPassword, "hunter2")
	return h
}

func TestFromHeadersMissingAccount(t *testing.T) {
	_, err := FromHeaders(http.Header{})
	require.Error(t, err)
	nsErr := AsError(err)
	assert.Equal(t, KindValidation, nsErr.Kind)
	assert.Equal(t, "Missing required header: X-NetSuite-Account", nsErr.Message)
	assert.Equal(t, http.StatusBadRequest, nsErr.HTTPStatus())
}

func TestFromHeadersOAuth(t *testing.T) {
	cfg, err := FromHeaders(oauthHeaders("TEST123"))
	require.NoError(t, err)
	assert.Equal(t, AuthOAuth, cfg.AuthType())
	assert.Equal(t, "TEST123", cfg.Account)
	assert.Equal(t, "ck", cfg.ConsumerKey)
	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, DefaultSOAPTimeout, cfg.Timeout)
}

func TestFromHeadersPassword(t *testing.T) {
	h := passwordHeaders("TEST123")
	h.Set(HeaderRole, "3")
	cfg, err := FromHeaders(h)
	require.NoError(t, err)
	assert.Equal(t, AuthPassword, cfg.AuthType())
	assert.Equal(t, "user@example.com", cfg.Email)
	assert.Equal(t, "3", cfg.Role)
}

func TestFromHeadersOAuthWinsOverPassword(t *testing.T) {
	h := oauthHeaders("TEST123")
	h.Set(HeaderEmail, "user@example.com")
	h.Set(HeaderPassword, "hunter2")
	cfg, err := FromHeaders(h)
	require.NoError(t, err)
	assert.Equal(t, AuthOAuth, cfg.AuthType())
	// The losing credential set is dropped, not merged.
	assert.Empty(t, cfg.Email)
	assert.Empty(t, cfg.Password)
}

func TestFromHeadersPartialOAuthRejected(t *testing.T) {
	h := oauthHeaders("TEST123")
	h.Del(HeaderTokenSecret)
	_, err := FromHeaders(h)
	require.Error(t, err)
	nsErr := AsError(err)
	assert.Equal(t, KindAuthentication, nsErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, nsErr.HTTPStatus())
}

func TestFromHeadersPartialPasswordRejected(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderAccount, "TEST123")
	h.Set(HeaderEmail, "user@example.com")
	_, err := FromHeaders(h)
	require.Error(t, err)
	assert.Equal(t, KindAuthentication, AsError(err).Kind)
}

func TestFromHeadersNoCredentials(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderAccount, "TEST123")
	_, err := FromHeaders(h)
	require.Error(t, err)
	nsErr := AsError(err)
	assert.Equal(t, KindAuthentication, nsErr.Kind)
	assert.Contains(t, nsErr.Message, "No valid authentication credentials provided")
}

func TestFromHeadersLoneScriptIDIgnored(t *testing.T) {
	h := oauthHeaders("TEST123")
	h.Set(HeaderScriptID, "42")
	cfg, err := FromHeaders(h)
	require.NoError(t, err)
	assert.False(t, cfg.HasRESTletConfig())
}

func TestFromHeadersScriptDeployPair(t *testing.T) {
	h := oauthHeaders("TEST123")
	h.Set(HeaderScriptID, "42")
	h.Set(HeaderDeployID, "1")
	cfg, err := FromHeaders(h)
	require.NoError(t, err)
	assert.True(t, cfg.HasRESTletConfig())
}

func TestFromHeadersInvalidAPIVersion(t *testing.T) {
	h := oauthHeaders("TEST123")
	h.Set(HeaderAPIVersion, "24-2")
	_, err := FromHeaders(h)
	require.Error(t, err)
	assert.Equal(t, KindValidation, AsError(err).Kind)
}

func TestEnvironmentDetection(t *testing.T) {
	cases := map[string]string{
		"TEST123":     "production",
		"TEST123-SB1": "sandbox",
		"TEST123-sb2": "sandbox",
		"test123_sb1": "sandbox",
		"TEST123_SB2": "sandbox",
		"SB1TEST":     "production",
	}
	for account, want := range cases {
		cfg := AccountConfig{Account: account}
		assert.Equal(t, want, cfg.Environment(), "account %s", account)
	}
}

func TestURLGeneration(t *testing.T) {
	cfg := AccountConfig{Account: "TEST_123", APIVersion: "2024_2"}
	assert.Equal(t,
		"https://test-123.suitetalk.api.netsuite.com/services/NetSuitePort_2024_2",
		cfg.SOAPEndpoint())
	assert.Equal(t,
		"https://test-123.suitetalk.api.netsuite.com/wsdl/v2024_2_0/netsuite.wsdl",
		cfg.ResolveWSDLURL())
	assert.Equal(t,
		"https://test-123.restlets.api.netsuite.com/app/site/hosting/restlet.nl",
		cfg.RESTletBaseURL())

	cfg.WSDLURL = "https://example.com/custom.wsdl"
	assert.Equal(t, "https://example.com/custom.wsdl", cfg.ResolveWSDLURL())
}

func TestValidateTimeoutBounds(t *testing.T) {
	cfg := AccountConfig{Account: "TEST123", Timeout: 1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, KindValidation, AsError(err).Kind)
}

func TestValidateScriptDeployPairing(t *testing.T) {
	cfg := AccountConfig{Account: "TEST123", ScriptID: "42"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script_id and deploy_id")
}
