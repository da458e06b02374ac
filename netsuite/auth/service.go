// Package auth owns per-identity client construction: one service instance
// per AccountConfig, each lazily building and caching at most one SOAP and
// one RESTlet client.
package auth

import (
	"log/slog"
	"sync"

	"nsproxy/netsuite"
	"nsproxy/netsuite/restlet"
	"nsproxy/netsuite/soap"
)

// Service hands out clients bound to a single authentication identity.
// Clients are built on first use and cached for the service's lifetime;
// identities never share sessions.
type Service struct {
	cfg    *netsuite.AccountConfig
	logger *slog.Logger

	soapOnce sync.Once
	soap     *soap.Client

	restletOnce sync.Once
	restlet     *restlet.Client
	restletErr  error
}

// NewService wraps a validated AccountConfig. logger may be nil.
func NewService(cfg *netsuite.AccountConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("netsuite auth service created",
		"account", cfg.Account,
		"auth_type", string(cfg.AuthType()),
		"restlet_configured", cfg.HasRESTletConfig(),
	)
	return &Service{cfg: cfg, logger: logger}
}

// Config returns the identity this service is bound to.
func (s *Service) Config() *netsuite.AccountConfig {
	return s.cfg
}

// SOAPClient returns the cached SuiteTalk client, building it on first call.
func (s *Service) SOAPClient() *soap.Client {
	s.soapOnce.Do(func() {
		s.logger.Debug("creating SOAP client", "account", s.cfg.Account)
		s.soap = soap.New(s.cfg)
	})
	return s.soap
}

// RESTletClient returns the cached RESTlet client. Construction fails when
// the config carries no script/deploy pair, and the failure is sticky.
func (s *Service) RESTletClient() (*restlet.Client, error) {
	s.restletOnce.Do(func() {
		s.logger.Debug("creating RESTlet client", "account", s.cfg.Account)
		s.restlet, s.restletErr = restlet.New(s.cfg)
	})
	return s.restlet, s.restletErr
}

// AccountInfo summarises the identity for the auth info endpoint. No
// outbound call is made.
func (s *Service) AccountInfo() map[string]any {
	return map[string]any{
		"account":     s.cfg.Account,
		"auth_type":   string(s.cfg.AuthType()),
		"api_version": s.cfg.APIVersion,
		"environment": s.cfg.Environment(),
		"has_restlet": s.cfg.HasRESTletConfig(),
	}
}
