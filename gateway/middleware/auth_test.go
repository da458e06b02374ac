package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nsproxy/netsuite"
)

func oauthRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(netsuite.HeaderAccount, "TEST123")
	req.Header.Set(netsuite.HeaderConsumerKey, "ck")
	req.Header.Set(netsuite.HeaderConsumerSecret, "cs")
	req.Header.Set(netsuite.HeaderTokenID, "tid")
	req.Header.Set(netsuite.HeaderTokenSecret, "tsec")
	return req
}

func TestCredentialExtractorSuccess(t *testing.T) {
	extractor := NewCredentialExtractor(nil, nil)
	var sawAccount string
	handler := extractor.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		service := AuthServiceFromContext(r.Context())
		if service == nil {
			t.Fatal("expected auth service on context")
		}
		sawAccount = service.Config().Account
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, oauthRequest("/api/auth/info"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sawAccount != "TEST123" {
		t.Fatalf("expected account TEST123, got %q", sawAccount)
	}
}

func TestCredentialExtractorMissingAccount(t *testing.T) {
	extractor := NewCredentialExtractor(nil, nil)
	handler := extractor.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/info", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error_type"] != "ValidationError" {
		t.Fatalf("expected ValidationError, got %v", body["error_type"])
	}
}

func TestCredentialExtractorPartialCredentials(t *testing.T) {
	extractor := NewCredentialExtractor(nil, nil)
	handler := extractor.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with partial credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/info", nil)
	req.Header.Set(netsuite.HeaderAccount, "TEST123")
	req.Header.Set(netsuite.HeaderEmail, "user@example.com")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCredentialExtractorExemptPath(t *testing.T) {
	extractor := NewCredentialExtractor(nil, []string{"/api/health"})
	ran := false
	handler := extractor.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
		if AuthServiceFromContext(r.Context()) != nil {
			t.Fatal("exempt path must not carry an auth service")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/detailed", nil))
	if !ran {
		t.Fatal("exempt path did not reach the handler")
	}
}

func TestCredentialExtractorIsolatesIdentities(t *testing.T) {
	extractor := NewCredentialExtractor(nil, nil)
	var accounts []string
	handler := extractor.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accounts = append(accounts, AuthServiceFromContext(r.Context()).Config().Account)
	}))

	first := oauthRequest("/api/auth/info")
	second := oauthRequest("/api/auth/info")
	second.Header.Set(netsuite.HeaderAccount, "OTHER456")

	handler.ServeHTTP(httptest.NewRecorder(), first)
	handler.ServeHTTP(httptest.NewRecorder(), second)

	if len(accounts) != 2 || accounts[0] != "TEST123" || accounts[1] != "OTHER456" {
		t.Fatalf("identities leaked across requests: %v", accounts)
	}
}
