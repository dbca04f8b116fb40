package helpdesk

import (
	"context"
	"encoding/json"
	"net/http"
)

// UserIdentity is a read-only snapshot of the authenticated user.
// Fetched fresh on every call; never cached.
type UserIdentity struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Verified  bool   `json:"verified"`
	Active    bool   `json:"active"`
	TimeZone  string `json:"time_zone,omitempty"`
	Locale    string `json:"locale,omitempty"`
	Subdomain string `json:"subdomain"`
}

// FetchCurrentUser retrieves the identity behind an access token from
// the tenant's identity endpoint.
func (c *Client) FetchCurrentUser(ctx context.Context, accessToken, subdomain string) (*UserIdentity, error) {
	if accessToken == "" {
		return nil, validationError("access token required")
	}
	if subdomain == "" {
		return nil, validationError("subdomain required")
	}

	ctx, cancel := context.WithTimeout(ctx, identityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(subdomain)+currentUserPath, nil)
	if err != nil {
		return nil, networkError("identity fetch", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, networkError("identity fetch", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &Error{Kind: KindAuth, Description: "invalid or expired access token"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, rateLimitError(resp.Header.Get("Retry-After"), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, &Error{Kind: KindNetwork, Description: "identity fetch failed: " + resp.Status}
	}

	var body struct {
		User struct {
			ID       int64  `json:"id"`
			Email    string `json:"email"`
			Name     string `json:"name"`
			Role     string `json:"role"`
			Verified bool   `json:"verified"`
			Active   bool   `json:"active"`
			TimeZone string `json:"time_zone"`
			Locale   string `json:"locale"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, networkError("identity decode", err)
	}

	return &UserIdentity{
		ID:        body.User.ID,
		Email:     body.User.Email,
		Name:      body.User.Name,
		Role:      body.User.Role,
		Verified:  body.User.Verified,
		Active:    body.User.Active,
		TimeZone:  body.User.TimeZone,
		Locale:    body.User.Locale,
		Subdomain: subdomain,
	}, nil
}
