package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Server.DevMode {
		t.Errorf("default DevMode = false, want true")
	}
	if cfg.Server.PublicURL != "http://127.0.0.1:8080" {
		t.Errorf("PublicURL = %q", cfg.Server.PublicURL)
	}
	if len(cfg.Helpdesk.Scopes) != 1 || cfg.Helpdesk.Scopes[0] != "read" {
		t.Errorf("Scopes = %v, want [read]", cfg.Helpdesk.Scopes)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeTempConfig(t, `
# deskd configuration
server:
  public_url: https://desk.example.com
  dev_mode: false
  tls:
    domains:
      - desk.example.com
    email: ops@example.com
helpdesk:
  domain: example-helpdesk.com
  client_id: cid
  client_secret: csecret
  scopes:
    - read
    - write
  webhook_secret: whsecret
  default_subdomain: acme
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.PublicURL != "https://desk.example.com" {
		t.Errorf("PublicURL = %q", cfg.Server.PublicURL)
	}
	if cfg.Server.DevMode {
		t.Errorf("DevMode = true, want false")
	}
	if cfg.Helpdesk.ClientID != "cid" || cfg.Helpdesk.ClientSecret != "csecret" {
		t.Errorf("credentials not loaded: %+v", cfg.Helpdesk)
	}
	if len(cfg.Helpdesk.Scopes) != 2 {
		t.Errorf("Scopes = %v", cfg.Helpdesk.Scopes)
	}
	if cfg.Helpdesk.DefaultSubdomain != "acme" {
		t.Errorf("DefaultSubdomain = %q", cfg.Helpdesk.DefaultSubdomain)
	}
}

func TestLoadConfigUnknownField(t *testing.T) {
	path := writeTempConfig(t, `
server:
  public_url: http://127.0.0.1:8080
  legacy_addr: ":9090"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("error = %v, want unknown-field complaint", err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("DESKD_SERVER_PUBLIC_URL", "https://env.example.com")
	t.Setenv("DESKD_HELPDESK_CLIENT_ID", "env-cid")
	t.Setenv("DESKD_HELPDESK_SCOPES", "read, tickets:manage")
	t.Setenv("DESKD_SERVER_DEV_MODE", "yes")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.PublicURL != "https://env.example.com" {
		t.Errorf("PublicURL = %q", cfg.Server.PublicURL)
	}
	if cfg.Helpdesk.ClientID != "env-cid" {
		t.Errorf("ClientID = %q", cfg.Helpdesk.ClientID)
	}
	want := []string{"read", "tickets:manage"}
	if len(cfg.Helpdesk.Scopes) != 2 || cfg.Helpdesk.Scopes[0] != want[0] || cfg.Helpdesk.Scopes[1] != want[1] {
		t.Errorf("Scopes = %v, want %v", cfg.Helpdesk.Scopes, want)
	}
	if !cfg.Server.DevMode {
		t.Errorf("DevMode = false, want true from env")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"missing public_url", func(c *Config) { c.Server.PublicURL = "" }, true},
		{"bad public_url scheme", func(c *Config) { c.Server.PublicURL = "ftp://x" }, true},
		{"prod without tls domains", func(c *Config) {
			c.Server.DevMode = false
			c.Server.TLS.Domains = nil
		}, true},
		{"bad tls min version", func(c *Config) { c.Server.TLS.MinVersion = "1.1" }, true},
		{"bad redirect url", func(c *Config) { c.Helpdesk.RedirectURL = "desk.example.com/cb" }, true},
		{"missing credentials warn only", func(c *Config) {
			c.Helpdesk.ClientID = ""
			c.Helpdesk.ClientSecret = ""
			c.Helpdesk.WebhookSecret = ""
		}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCallbackURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.PublicURL = "https://desk.example.com/"
	if got := cfg.CallbackURL(); got != "https://desk.example.com/callback" {
		t.Errorf("CallbackURL = %q", got)
	}

	cfg.Helpdesk.RedirectURL = "https://other.example.com/oauth/cb"
	if got := cfg.CallbackURL(); got != "https://other.example.com/oauth/cb" {
		t.Errorf("CallbackURL = %q, want explicit redirect_url", got)
	}
}
