package helpdesk

// BuildAuthorizationURL constructs the provider login redirect for a
// tenant. The subdomain must be a single DNS label (letters, digits,
// hyphens); anything else fails before any URL is composed. Scopes
// default to the credential scopes, then to "read". Pure function; no
// network access.
func (c *Client) BuildAuthorizationURL(subdomain, redirectURI, state string, scopes ...string) (string, error) {
	if !subdomainPattern.MatchString(subdomain) {
		return "", validationError("invalid subdomain %q: must contain only letters, digits, and hyphens", subdomain)
	}
	if redirectURI == "" {
		return "", validationError("redirect URI required")
	}
	if state == "" {
		return "", validationError("state required")
	}

	cfg := c.oauthConfig(subdomain, redirectURI, c.scopesOrDefault(scopes))
	return cfg.AuthCodeURL(state), nil
}
