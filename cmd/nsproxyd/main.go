package main

import (
	"context"
	"crypto/tls"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"nsproxy/config"
	"nsproxy/gateway/middleware"
	"nsproxy/gateway/routes"
	"nsproxy/observability/logging"
	telemetry "nsproxy/observability/otel"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to proxy configuration")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		// Logging is not configured yet; stderr is all we have.
		os.Stderr.WriteString("nsproxyd: " + err.Error() + "\n")
		os.Exit(1)
	}

	var fileCfg *logging.FileConfig
	if cfg.Logging.File != "" {
		fileCfg = &logging.FileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		}
	}
	logger := logging.Setup(cfg.Observability.ServiceName, cfg.Environment, cfg.Logging.Level, fileCfg)

	otlpEndpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    otlpEndpoint,
		Insecure:    insecure,
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Metrics:     cfg.Observability.Metrics,
		Traces:      cfg.Observability.Tracing,
	})
	if err != nil {
		logger.Error("failed to initialise telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = shutdownTelemetry(context.Background())
	}()

	account, err := cfg.AccountConfig()
	if err != nil {
		logger.Error("invalid NetSuite configuration", "error", err)
		os.Exit(1)
	}
	if account != nil {
		logger.Info("process-wide NetSuite identity configured",
			"account", account.Account,
			"auth_type", string(account.AuthType()),
			"environment", account.Environment(),
		)
	}

	rateLimits := make(map[string]middleware.RateLimit)
	for _, entry := range cfg.RateLimits {
		rateLimits[entry.ID] = middleware.RateLimit{
			RatePerSecond: entry.RatePerSecond,
			Burst:         entry.Burst,
		}
	}

	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName:   cfg.Observability.ServiceName,
		MetricsPrefix: cfg.Observability.MetricsPrefix,
		LogRequests:   cfg.Observability.LogRequests,
		Enabled:       cfg.Observability.Metrics || cfg.Observability.Tracing,
	}, logger)

	router := routes.New(routes.Config{
		APIPrefix: cfg.APIPrefix,
		Extractor: middleware.NewCredentialExtractor(logger, []string{
			cfg.APIPrefix + "/health",
		}),
		ServiceAuth: middleware.NewServiceAuthenticator(middleware.ServiceAuthConfig{
			Enabled:    cfg.ServiceAuth.Enabled,
			HMACSecret: cfg.ServiceAuth.HMACSecret,
			Issuer:     cfg.ServiceAuth.Issuer,
			Audience:   cfg.ServiceAuth.Audience,
			ClockSkew:  cfg.ServiceAuth.ClockSkew,
		}, logger),
		RateLimiter:   middleware.NewRateLimiter(rateLimits, logger),
		Observability: obs,
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   cfg.CORS.AllowedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
		},
		Health: routes.NewHealthHandler(account, version),
	})

	handler := middleware.RequestLogger(logger)(router)
	if cfg.Observability.Tracing {
		handler = otelhttp.NewHandler(handler, cfg.Observability.ServiceName)
	}

	server := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var tlsConfig *tls.Config
	if cfg.Security.TLSCertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.Security.TLSCertFile, cfg.Security.TLSKeyFile)
		if err != nil {
			logger.Error("load TLS key pair", "error", err)
			os.Exit(1)
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
		server.TLSConfig = tlsConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		logger.Error("listen", "address", cfg.ListenAddress, "error", err)
		os.Exit(1)
	}
	go func() {
		scheme := "http"
		if tlsConfig != nil {
			scheme = "https"
		}
		logger.Info("listening", "url", scheme+"://"+listener.Addr().String(), "version", version)
		var serveErr error
		if tlsConfig != nil {
			serveErr = server.Serve(tls.NewListener(listener, tlsConfig))
		} else {
			serveErr = server.Serve(listener)
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("serve", "error", serveErr)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
}
