// Package config loads the proxy service configuration: a YAML file with
// defaulting and validation, plus NETSUITE_* environment overrides for the
// process-wide account credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"nsproxy/netsuite"
)

type Config struct {
	ListenAddress string        `yaml:"listen"`
	Environment   string        `yaml:"environment"`
	APIPrefix     string        `yaml:"apiPrefix"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`
	IdleTimeout   time.Duration `yaml:"idleTimeout"`

	NetSuite      NetSuiteConfig      `yaml:"netsuite"`
	ServiceAuth   ServiceAuthConfig   `yaml:"serviceAuth"`
	CORS          CORSConfig          `yaml:"cors"`
	RateLimits    []RateLimitConfig   `yaml:"rateLimits"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
	Security      SecurityConfig      `yaml:"security"`
}

// NetSuiteConfig is the optional process-wide account identity, used by the
// detailed health report and by deployments serving a single account.
// Per-request headers always take precedence over these values.
type NetSuiteConfig struct {
	Account        string        `yaml:"account"`
	APIVersion     string        `yaml:"apiVersion"`
	WSDLURL        string        `yaml:"wsdlURL"`
	Email          string        `yaml:"email"`
	Password       string        `yaml:"password"`
	RoleID         string        `yaml:"roleID"`
	ConsumerKey    string        `yaml:"consumerKey"`
	ConsumerSecret string        `yaml:"consumerSecret"`
	TokenID        string        `yaml:"tokenID"`
	TokenSecret    string        `yaml:"tokenSecret"`
	ScriptID       string        `yaml:"scriptID"`
	DeployID       string        `yaml:"deployID"`
	Timeout        time.Duration `yaml:"timeout"`
}

// ServiceAuthConfig optionally gates the proxy's own endpoints with a bearer
// token, independent of the forwarded NetSuite credentials.
type ServiceAuthConfig struct {
	Enabled    bool          `yaml:"enabled"`
	HMACSecret string        `yaml:"hmacSecret"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	ClockSkew  time.Duration `yaml:"clockSkew"`
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowedMethods   []string `yaml:"allowedMethods"`
	AllowedHeaders   []string `yaml:"allowedHeaders"`
	AllowCredentials bool     `yaml:"allowCredentials"`
}

type RateLimitConfig struct {
	ID            string  `yaml:"id"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
	Burst         int     `yaml:"burst"`
}

type ObservabilityConfig struct {
	ServiceName   string `yaml:"serviceName"`
	MetricsPrefix string `yaml:"metricsPrefix"`
	Metrics       bool   `yaml:"metrics"`
	Tracing       bool   `yaml:"tracing"`
	LogRequests   bool   `yaml:"logRequests"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

type SecurityConfig struct {
	TLSCertFile string `yaml:"tlsCertFile"`
	TLSKeyFile  string `yaml:"tlsKeyFile"`
}

// Load reads the configuration file, applies defaults and environment
// overrides, and validates the result. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		ListenAddress: ":8000",
		Environment:   "development",
		APIPrefix:     "/api",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   120 * time.Second,
		Observability: ObservabilityConfig{
			ServiceName:   "netsuite-proxy",
			MetricsPrefix: "nsproxy",
			Metrics:       true,
			Tracing:       true,
			LogRequests:   true,
		},
		Logging: LoggingConfig{Level: "INFO"},
	}
}

// applyEnvOverrides layers process environment values over the file. The
// NETSUITE_* names match what existing deployment tooling exports.
func (c *Config) applyEnvOverrides() {
	setIfPresent(&c.ListenAddress, "NSPROXY_LISTEN")
	setIfPresent(&c.Environment, "NSPROXY_ENV")
	setIfPresent(&c.Logging.Level, "NSPROXY_LOG_LEVEL")

	setIfPresent(&c.NetSuite.Account, "NETSUITE_ACCOUNT")
	setIfPresent(&c.NetSuite.APIVersion, "NETSUITE_API")
	setIfPresent(&c.NetSuite.WSDLURL, "NETSUITE_WSDL_URL")
	setIfPresent(&c.NetSuite.Email, "NETSUITE_EMAIL")
	setIfPresent(&c.NetSuite.Password, "NETSUITE_PASSWORD")
	setIfPresent(&c.NetSuite.RoleID, "NETSUITE_ROLE_ID")
	setIfPresent(&c.NetSuite.ConsumerKey, "NETSUITE_CONSUMER_KEY")
	setIfPresent(&c.NetSuite.ConsumerSecret, "NETSUITE_CONSUMER_SECRET")
	setIfPresent(&c.NetSuite.TokenID, "NETSUITE_TOKEN_ID")
	setIfPresent(&c.NetSuite.TokenSecret, "NETSUITE_TOKEN_SECRET")
	setIfPresent(&c.NetSuite.ScriptID, "NETSUITE_SCRIPT_ID")
	setIfPresent(&c.NetSuite.DeployID, "NETSUITE_DEPLOY_ID")
}

func setIfPresent(target *string, name string) {
	if value := os.Getenv(name); value != "" {
		*target = value
	}
}

// Validate rejects configurations that would otherwise only fail at request
// time.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen address required")
	}
	if c.ServiceAuth.Enabled && c.ServiceAuth.HMACSecret == "" {
		return fmt.Errorf("serviceAuth.hmacSecret required when service auth is enabled")
	}
	if (c.Security.TLSCertFile == "") != (c.Security.TLSKeyFile == "") {
		return fmt.Errorf("security.tlsCertFile and security.tlsKeyFile must be provided together")
	}
	for _, limit := range c.RateLimits {
		if limit.ID == "" {
			return fmt.Errorf("rate limit entries require an id")
		}
		if limit.RatePerSecond <= 0 || limit.Burst <= 0 {
			return fmt.Errorf("rate limit %q requires positive rate and burst", limit.ID)
		}
	}
	if _, err := c.AccountConfig(); err != nil {
		return err
	}
	return nil
}

// AccountConfig converts the process-wide NetSuite settings into a validated
// AccountConfig, or nil when no account is configured. Credential problems
// surface here, at startup, not on the first proxied call.
func (c *Config) AccountConfig() (*netsuite.AccountConfig, error) {
	if c.NetSuite.Account == "" {
		return nil, nil
	}
	account := &netsuite.AccountConfig{
		Account:        c.NetSuite.Account,
		APIVersion:     c.NetSuite.APIVersion,
		WSDLURL:        c.NetSuite.WSDLURL,
		Timeout:        c.NetSuite.Timeout,
		Email:          c.NetSuite.Email,
		Password:       c.NetSuite.Password,
		Role:           c.NetSuite.RoleID,
		ConsumerKey:    c.NetSuite.ConsumerKey,
		ConsumerSecret: c.NetSuite.ConsumerSecret,
		TokenID:        c.NetSuite.TokenID,
		TokenSecret:    c.NetSuite.TokenSecret,
		ScriptID:       c.NetSuite.ScriptID,
		DeployID:       c.NetSuite.DeployID,
	}
	if account.APIVersion == "" {
		account.APIVersion = netsuite.DefaultAPIVersion
	}
	if account.Timeout == 0 {
		account.Timeout = netsuite.DefaultSOAPTimeout
	}
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("netsuite config: %w", err)
	}
	return account, nil
}
