package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestServiceAuthDisabledPassesThrough(t *testing.T) {
	auth := NewServiceAuthenticator(ServiceAuthConfig{Enabled: false}, nil)
	ran := false
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/restlet", nil))
	if !ran {
		t.Fatal("disabled gate must pass requests through")
	}
}

func TestServiceAuthMissingToken(t *testing.T) {
	auth := NewServiceAuthenticator(ServiceAuthConfig{Enabled: true, HMACSecret: "secret"}, nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restlet", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestServiceAuthValidToken(t *testing.T) {
	auth := NewServiceAuthenticator(ServiceAuthConfig{
		Enabled:    true,
		HMACSecret: "secret",
		Issuer:     "nsproxy",
		Audience:   "internal",
	}, nil)
	token := signedToken(t, "secret", jwt.MapClaims{
		"iss": "nsproxy",
		"aud": "internal",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	ran := false
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/restlet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !ran {
		t.Fatalf("valid token rejected: %d %s", rec.Code, rec.Body.String())
	}
}

func TestServiceAuthWrongIssuer(t *testing.T) {
	auth := NewServiceAuthenticator(ServiceAuthConfig{
		Enabled:    true,
		HMACSecret: "secret",
		Issuer:     "nsproxy",
	}, nil)
	token := signedToken(t, "secret", jwt.MapClaims{
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("wrong issuer must be rejected")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/restlet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestServiceAuthExpiredToken(t *testing.T) {
	auth := NewServiceAuthenticator(ServiceAuthConfig{
		Enabled:    true,
		HMACSecret: "secret",
		ClockSkew:  time.Second,
	}, nil)
	token := signedToken(t, "secret", jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expired token must be rejected")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/restlet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestExtractBearer(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"Bearer abc":    "abc",
		"bearer abc":    "abc",
		"Basic Zm9v":    "",
		"Bearer":        "",
		"Bearer  token": "token",
	}
	for header, want := range cases {
		if got := extractBearer(header); got != want {
			t.Fatalf("extractBearer(%q) = %q, want %q", header, got, want)
		}
	}
}
