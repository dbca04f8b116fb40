// Package helpdesk implements the OAuth2 integration with the
// multi-tenant help-desk platform: authorization URL construction,
// CSRF state handling, the authorization-code and refresh-token
// grants, identity lookup, token introspection and revocation, and
// webhook signature verification.
//
// Every operation is stateless over an immutable Credentials value;
// tenants are addressed by subdomain on each call. The package holds
// no token store and performs no internal retries.
package helpdesk

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/oauth2"
)

// Per-tenant endpoint paths exposed by the provider.
const (
	authorizePath    = "/oauth/authorizations/new"
	tokenPath        = "/oauth/tokens"
	currentTokenPath = "/oauth/tokens/current"
	currentUserPath  = "/api/v2/users/me.json"
)

// Request bounds. Validation is advisory and gets a tighter budget.
const (
	grantTimeout    = 10 * time.Second
	identityTimeout = 10 * time.Second
	validateTimeout = 5 * time.Second
	revokeTimeout   = 10 * time.Second
)

// DefaultScope is assumed when neither the caller nor the provider
// supplies a scope.
const DefaultScope = "read"

// Tenant subdomains are a single DNS label.
var subdomainPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Credentials holds the integration's OAuth client registration.
// Loaded once at startup and never mutated.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Configured reports whether both credential halves are present.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Credentials Credentials

	// Domain is appended to the tenant subdomain to form the tenant
	// host ({subdomain}.{Domain}). When empty the subdomain is used as
	// the host verbatim.
	Domain string

	// Scheme defaults to https. Local stubs may set http.
	Scheme string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the provider on behalf of one OAuth registration.
// Safe for concurrent use.
type Client struct {
	creds  Credentials
	domain string
	scheme string
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client with sane defaults.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		creds:  cfg.Credentials,
		domain: cfg.Domain,
		scheme: scheme,
		http:   httpClient,
		logger: logger,
	}
}

// Credentials returns the immutable credential set the client was
// built with.
func (c *Client) Credentials() Credentials {
	return c.creds
}

func (c *Client) baseURL(subdomain string) string {
	host := subdomain
	if c.domain != "" {
		host = subdomain + "." + c.domain
	}
	return c.scheme + "://" + host
}

// scopesOrDefault resolves the effective scope list for a request.
func (c *Client) scopesOrDefault(scopes []string) []string {
	if len(scopes) > 0 {
		return scopes
	}
	if len(c.creds.Scopes) > 0 {
		return c.creds.Scopes
	}
	return []string{DefaultScope}
}

// oauthConfig builds the per-tenant oauth2 configuration. Client
// credentials always travel in the request body; the provider does
// not accept basic auth on its token endpoint.
func (c *Client) oauthConfig(subdomain, redirectURI string, scopes []string) *oauth2.Config {
	base := c.baseURL(subdomain)
	return &oauth2.Config{
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + authorizePath,
			TokenURL:  base + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// withHTTPClient routes oauth2 transport through the configured
// http.Client.
func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

func (c *Client) requireCredentials() error {
	if c.creds.Configured() {
		return nil
	}
	return &Error{Kind: KindConfiguration, Description: "helpdesk client credentials not configured"}
}
