package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Hardcoded login-flow defaults.
const (
	DefaultLoginTTL      = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Config captures the full application configuration loaded from YAML
// and environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Helpdesk HelpdeskConfig `yaml:"helpdesk"`
}

// ServerConfig controls listener, TLS, and HTTP concerns.
type ServerConfig struct {
	PublicURL       string    `yaml:"public_url"`
	DevListenAddr   string    `yaml:"dev_listen_addr"`
	HTTPListenAddr  string    `yaml:"http_listen_addr"`
	HTTPSListenAddr string    `yaml:"https_listen_addr"`
	DevMode         bool      `yaml:"dev_mode"`
	CookieDomain    string    `yaml:"cookie_domain"`
	TLS             TLSConfig `yaml:"tls"`
}

// TLSConfig defines autocert behaviour and TLS constraints.
type TLSConfig struct {
	Domains    []string `yaml:"domains"`
	Email      string   `yaml:"email"`
	MinVersion string   `yaml:"min_version"`
	CachePath  string   `yaml:"cache_path"`
}

// HelpdeskConfig holds the provider integration settings: the tenant
// OAuth registration, the webhook shared secret, and defaults for the
// login flow.
type HelpdeskConfig struct {
	// Domain is the provider's base domain; tenant hosts are
	// {subdomain}.{domain}.
	Domain           string   `yaml:"domain"`
	ClientID         string   `yaml:"client_id"`
	ClientSecret     string   `yaml:"client_secret"`
	Scopes           []string `yaml:"scopes"`
	WebhookSecret    string   `yaml:"webhook_secret"`
	DefaultSubdomain string   `yaml:"default_subdomain"`
	// RedirectURL defaults to {public_url}/callback.
	RedirectURL string `yaml:"redirect_url"`
}

// LoadConfig reads the YAML config file and merges environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		sanitized := stripYAMLComments(b)

		decoder := yaml.NewDecoder(bytes.NewReader(sanitized))
		decoder.KnownFields(true)

		if err := decoder.Decode(&cfg); err != nil {
			if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
				slog.Error("Configuration contains unknown keys", "error", err, "file", path)
				return Config{}, fmt.Errorf("invalid config: %w (check for typos or deprecated fields)", err)
			}
			slog.Error("Failed to parse configuration", "error", err, "file", path)
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		return Config{}, err
	}

	return cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			PublicURL:       "http://127.0.0.1:8080",
			DevListenAddr:   "127.0.0.1:8080",
			HTTPListenAddr:  ":80",
			HTTPSListenAddr: ":443",
			DevMode:         true,
			TLS: TLSConfig{
				Domains:    []string{"localhost"},
				MinVersion: "1.2",
				CachePath:  ".secrets/tls",
			},
		},
		Helpdesk: HelpdeskConfig{
			Scopes: []string{"read"},
		},
	}
}

// DefaultConfig returns the default configuration template.
func DefaultConfig() Config {
	return defaultConfig()
}

func stripYAMLComments(in []byte) []byte {
	lines := bytes.Split(in, []byte("\n"))
	out := make([][]byte, 0, len(lines))
	for _, line := range lines {
		trim := bytes.TrimLeft(line, " \t")
		if len(trim) > 0 && trim[0] == '#' {
			continue
		}
		out = append(out, line)
	}
	return bytes.Join(out, []byte("\n"))
}

func applyEnvOverrides(cfg *Config) {
	overrides := map[string]func(string){
		"DESKD_SERVER_PUBLIC_URL":        func(v string) { cfg.Server.PublicURL = v },
		"DESKD_SERVER_DEV_LISTEN_ADDR":   func(v string) { cfg.Server.DevListenAddr = v },
		"DESKD_SERVER_HTTP_LISTEN_ADDR":  func(v string) { cfg.Server.HTTPListenAddr = v },
		"DESKD_SERVER_HTTPS_LISTEN_ADDR": func(v string) { cfg.Server.HTTPSListenAddr = v },
		"DESKD_SERVER_DEV_MODE":          func(v string) { cfg.Server.DevMode = parseBool(v, cfg.Server.DevMode) },
		"DESKD_SERVER_TLS_DOMAINS":       func(v string) { cfg.Server.TLS.Domains = splitAndTrim(v) },
		"DESKD_SERVER_TLS_EMAIL":         func(v string) { cfg.Server.TLS.Email = v },
		"DESKD_HELPDESK_DOMAIN":          func(v string) { cfg.Helpdesk.Domain = v },
		"DESKD_HELPDESK_CLIENT_ID":       func(v string) { cfg.Helpdesk.ClientID = v },
		"DESKD_HELPDESK_CLIENT_SECRET":   func(v string) { cfg.Helpdesk.ClientSecret = v },
		"DESKD_HELPDESK_SCOPES":          func(v string) { cfg.Helpdesk.Scopes = splitAndTrim(v) },
		"DESKD_HELPDESK_WEBHOOK_SECRET":  func(v string) { cfg.Helpdesk.WebhookSecret = v },
		"DESKD_HELPDESK_SUBDOMAIN":       func(v string) { cfg.Helpdesk.DefaultSubdomain = v },
	}

	for key, fn := range overrides {
		if val, ok := os.LookupEnv(key); ok {
			fn(val)
		}
	}
}

func parseBool(val string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate performs sanity checks on the config. Missing helpdesk
// client credentials are deliberately not an error: the process still
// starts and only network-facing operations degrade, so local
// operations like webhook verification keep working.
func (c Config) Validate() error {
	if c.Server.PublicURL == "" {
		slog.Error("Missing required configuration", "field", "server.public_url")
		return errors.New("server.public_url is required")
	}

	if !strings.HasPrefix(c.Server.PublicURL, "http://") && !strings.HasPrefix(c.Server.PublicURL, "https://") {
		slog.Error("Invalid configuration value", "field", "server.public_url", "value", c.Server.PublicURL, "reason", "must start with http:// or https://")
		return fmt.Errorf("server.public_url must start with http:// or https://, got: %s", c.Server.PublicURL)
	}

	if !c.Server.DevMode && len(c.Server.TLS.Domains) == 0 {
		slog.Error("Missing required configuration for production mode", "field", "server.tls.domains")
		return errors.New("server.tls.domains must be provided in production")
	}

	if c.Server.TLS.MinVersion != "" {
		validVersions := map[string]bool{"1.2": true, "1.3": true}
		if !validVersions[c.Server.TLS.MinVersion] {
			slog.Error("Invalid TLS minimum version", "field", "server.tls.min_version", "value", c.Server.TLS.MinVersion, "valid_values", []string{"1.2", "1.3"})
			return fmt.Errorf("server.tls.min_version must be '1.2' or '1.3', got: %s", c.Server.TLS.MinVersion)
		}
	}

	if c.Helpdesk.RedirectURL != "" &&
		!strings.HasPrefix(c.Helpdesk.RedirectURL, "http://") && !strings.HasPrefix(c.Helpdesk.RedirectURL, "https://") {
		slog.Error("Invalid redirect URL", "field", "helpdesk.redirect_url", "value", c.Helpdesk.RedirectURL)
		return fmt.Errorf("helpdesk.redirect_url must start with http:// or https://, got: %s", c.Helpdesk.RedirectURL)
	}

	if c.Helpdesk.ClientID == "" || c.Helpdesk.ClientSecret == "" {
		slog.Warn("Helpdesk client credentials missing",
			"fields", "helpdesk.client_id, helpdesk.client_secret",
			"note", "token and identity operations will fail until configured")
	}
	if c.Helpdesk.WebhookSecret == "" {
		slog.Warn("Helpdesk webhook secret missing",
			"field", "helpdesk.webhook_secret",
			"note", "all inbound webhooks will be rejected")
	}

	return nil
}

// CallbackURL resolves the redirect URI presented to the provider.
func (c Config) CallbackURL() string {
	if c.Helpdesk.RedirectURL != "" {
		return c.Helpdesk.RedirectURL
	}
	return strings.TrimSuffix(c.Server.PublicURL, "/") + "/callback"
}
