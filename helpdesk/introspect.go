package helpdesk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// Introspection responses are tiny; anything past this is discarded.
const maxIntrospectBody = 64 * 1024

// ValidateToken introspects a token's liveness against the tenant's
// current-token endpoint. Advisory: every failure mode, including
// transport errors, collapses to false so callers can treat the
// result as a plain liveness hint. The distinguishing cause is logged
// so systemic failures are visible to operators.
func (c *Client) ValidateToken(ctx context.Context, accessToken, subdomain string) bool {
	status, body, ok := c.currentTokenRequest(ctx, http.MethodPost, accessToken, subdomain, validateTimeout)
	if !ok {
		return false
	}
	if status != http.StatusOK {
		c.logger.Debug("token introspection rejected", "subdomain", subdomain, "status", status)
		return false
	}

	var parsed struct {
		Active bool `json:"active"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn("token introspection decode failed", "subdomain", subdomain, "error", err)
		return false
	}
	return parsed.Active
}

// RevokeToken invalidates a token at the tenant's current-token
// endpoint. Same advisory contract as ValidateToken: true on a 2xx
// response, false on any failure. Callers cannot distinguish
// "already revoked" from "revocation attempt failed".
func (c *Client) RevokeToken(ctx context.Context, accessToken, subdomain string) bool {
	status, _, ok := c.currentTokenRequest(ctx, http.MethodDelete, accessToken, subdomain, revokeTimeout)
	if !ok {
		return false
	}
	if status < 200 || status > 299 {
		c.logger.Debug("token revocation rejected", "subdomain", subdomain, "status", status)
		return false
	}
	return true
}

func (c *Client) currentTokenRequest(ctx context.Context, method, accessToken, subdomain string, timeout time.Duration) (int, []byte, bool) {
	if accessToken == "" || subdomain == "" {
		return 0, nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL(subdomain)+currentTokenPath, nil)
	if err != nil {
		c.logger.Warn("current-token request build failed", "subdomain", subdomain, "error", err)
		return 0, nil, false
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("current-token request failed", "subdomain", subdomain, "method", method, "error", err)
		return 0, nil, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIntrospectBody))
	if err != nil {
		c.logger.Warn("current-token response read failed", "subdomain", subdomain, "error", err)
		return 0, nil, false
	}
	return resp.StatusCode, body, true
}
