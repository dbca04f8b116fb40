package helpdesk

import (
	"context"
	"strings"

	"golang.org/x/oauth2"
)

// TokenResponse is the provider's token grant result. The expiry is
// passed through as reported; this package does not validate it.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ExchangeCode redeems an authorization code at the tenant's token
// endpoint. The redirect URI must equal the one used to build the
// authorization URL. No retries; the call is bounded by a 10 second
// timeout.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI, subdomain string, scopes ...string) (*TokenResponse, error) {
	if err := c.requireCredentials(); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, validationError("authorization code required")
	}
	if subdomain == "" {
		return nil, validationError("subdomain required")
	}

	effective := c.scopesOrDefault(scopes)
	cfg := c.oauthConfig(subdomain, redirectURI, effective)

	ctx, cancel := context.WithTimeout(c.withHTTPClient(ctx), grantTimeout)
	defer cancel()

	tok, err := cfg.Exchange(ctx, code, oauth2.SetAuthURLParam("scope", strings.Join(effective, " ")))
	if err != nil {
		return nil, classifyGrantError("token exchange", err)
	}
	return tokenResponseFrom(tok), nil
}

// RefreshToken redeems a refresh token for a new token pair. Same
// transport contract as ExchangeCode, grant type refresh_token, no
// code or redirect URI.
func (c *Client) RefreshToken(ctx context.Context, refreshToken, subdomain string) (*TokenResponse, error) {
	if err := c.requireCredentials(); err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, validationError("refresh token required")
	}
	if subdomain == "" {
		return nil, validationError("subdomain required")
	}

	cfg := c.oauthConfig(subdomain, "", nil)

	ctx, cancel := context.WithTimeout(c.withHTTPClient(ctx), grantTimeout)
	defer cancel()

	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, classifyGrantError("token refresh", err)
	}
	return tokenResponseFrom(tok), nil
}

// tokenResponseFrom maps the provider's snake-cased response fields.
// A missing scope defaults to "read"; expires_in is carried verbatim
// from the response body rather than recomputed from the expiry time.
func tokenResponseFrom(tok *oauth2.Token) *TokenResponse {
	resp := &TokenResponse{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		Scope:        DefaultScope,
		RefreshToken: tok.RefreshToken,
	}
	if s, ok := tok.Extra("scope").(string); ok && s != "" {
		resp.Scope = s
	}
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		resp.ExpiresIn = int64(v)
	case int64:
		resp.ExpiresIn = v
	}
	return resp
}
