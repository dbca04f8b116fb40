package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"deskd/helpdesk"
)

// Webhook signatures arrive in this header as base64 HMAC-SHA256 of
// the raw body.
const webhookSignatureHeader = "X-Helpdesk-Signature"

// Webhook bodies beyond this size are rejected outright.
const maxWebhookBody = 1 << 20

// App bundles runtime dependencies for the HTTP service.
type App struct {
	Config   Config
	Logger   *slog.Logger
	Helpdesk *helpdesk.Client
	Store    *LoginStore
	Logins   *LoginManager
}

// NewApp wires together the application state from configuration.
func NewApp(cfg Config, logger *slog.Logger) (*App, error) {
	creds := helpdesk.Credentials{
		ClientID:     cfg.Helpdesk.ClientID,
		ClientSecret: cfg.Helpdesk.ClientSecret,
		Scopes:       cfg.Helpdesk.Scopes,
	}
	if !creds.Configured() {
		logger.Warn("helpdesk credentials not configured; token and identity operations will fail")
	}

	client := helpdesk.NewClient(helpdesk.ClientConfig{
		Credentials: creds,
		Domain:      cfg.Helpdesk.Domain,
		Logger:      logger,
	})

	store := NewLoginStore()
	logins := NewLoginManager(cfg, store, logger)

	if err := RegisterMetrics(nil); err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Helpdesk: client,
		Store:    store,
		Logins:   logins,
	}, nil
}

// handleLogin validates the tenant, generates single-use CSRF state,
// and redirects the browser to the provider's authorization endpoint.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	subdomain := r.URL.Query().Get("subdomain")
	if subdomain == "" {
		subdomain = a.Config.Helpdesk.DefaultSubdomain
	}

	state, err := helpdesk.GenerateState()
	if err != nil {
		a.Logger.Error("state generation failed", "error", err)
		a.writeError(w, http.StatusInternalServerError, "server_error", "could not start login")
		return
	}

	redirectURI := a.Config.CallbackURL()
	scopes := a.Config.Helpdesk.Scopes

	authURL, err := a.Helpdesk.BuildAuthorizationURL(subdomain, redirectURI, state, scopes...)
	if err != nil {
		a.Logger.Warn("login rejected", "subdomain", subdomain, "error", err)
		a.writeHelpdeskError(w, err)
		return
	}

	a.Logins.Begin(w, subdomain, state, redirectURI, scopes)
	loginStarts.Inc()

	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback consumes the pending login exactly once, checks the
// echoed state in constant time, exchanges the code, and returns the
// token alongside the authenticated identity. Nothing is stored; the
// caller owns the token from here on.
func (a *App) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if code := q.Get("error"); code != "" {
		msg := helpdesk.DescribeErrorCode(code, q.Get("error_description"))
		a.Logger.Warn("provider rejected authorization", "code", code)
		callbackResults.WithLabelValues("provider_error").Inc()
		a.writeError(w, http.StatusBadGateway, code, msg)
		return
	}

	pending, ok := a.Logins.Consume(w, r)
	if !ok {
		callbackResults.WithLabelValues("unknown_login").Inc()
		a.writeError(w, http.StatusBadRequest, "invalid_request", "login expired or unknown")
		return
	}

	if !helpdesk.ValidateState(q.Get("state"), pending.State) {
		a.Logger.Warn("state mismatch on callback", "subdomain", pending.Subdomain)
		callbackResults.WithLabelValues("state_mismatch").Inc()
		a.writeError(w, http.StatusBadRequest, "invalid_request", "state mismatch")
		return
	}

	code := q.Get("code")
	if code == "" {
		callbackResults.WithLabelValues("missing_code").Inc()
		a.writeError(w, http.StatusBadRequest, "invalid_request", "missing authorization code")
		return
	}

	ctx := r.Context()
	token, err := a.Helpdesk.ExchangeCode(ctx, code, pending.RedirectURI, pending.Subdomain, pending.Scopes...)
	if err != nil {
		a.Logger.Error("code exchange failed", "subdomain", pending.Subdomain, "error", err)
		callbackResults.WithLabelValues("exchange_failed").Inc()
		a.writeHelpdeskError(w, err)
		return
	}

	identity, err := a.Helpdesk.FetchCurrentUser(ctx, token.AccessToken, pending.Subdomain)
	if err != nil {
		a.Logger.Error("identity fetch failed", "subdomain", pending.Subdomain, "error", err)
		callbackResults.WithLabelValues("identity_failed").Inc()
		a.writeHelpdeskError(w, err)
		return
	}

	callbackResults.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"subdomain": pending.Subdomain,
		"token":     token,
		"user":      identity,
	})
}

// handleWebhook authenticates an inbound provider webhook against the
// shared secret. The signature is computed over the exact bytes
// received; the body is never re-serialized before verification.
func (a *App) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil || len(body) > maxWebhookBody {
		webhookVerifications.WithLabelValues("unreadable").Inc()
		a.writeError(w, http.StatusBadRequest, "invalid_request", "unreadable webhook body")
		return
	}

	signature := r.Header.Get(webhookSignatureHeader)
	if !helpdesk.VerifyWebhookSignature(body, signature, a.Config.Helpdesk.WebhookSecret) {
		a.Logger.Warn("webhook signature rejected", "request_id", RequestIDFromContext(r.Context()))
		webhookVerifications.WithLabelValues("rejected").Inc()
		a.writeError(w, http.StatusUnauthorized, "invalid_signature", "webhook signature verification failed")
		return
	}

	webhookVerifications.WithLabelValues("verified").Inc()

	var event struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &event)

	writeJSON(w, http.StatusOK, map[string]any{"verified": true, "event_id": event.ID})
}

// handleValidate reports token liveness. Advisory by contract: the
// response is always 200 with a boolean, regardless of why an invalid
// verdict was reached.
func (a *App) handleValidate(w http.ResponseWriter, r *http.Request) {
	token, subdomain, ok := a.tokenParams(w, r)
	if !ok {
		return
	}
	active := a.Helpdesk.ValidateToken(r.Context(), token, subdomain)
	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

// handleRevoke invalidates a token; same advisory contract as
// validation.
func (a *App) handleRevoke(w http.ResponseWriter, r *http.Request) {
	token, subdomain, ok := a.tokenParams(w, r)
	if !ok {
		return
	}
	revoked := a.Helpdesk.RevokeToken(r.Context(), token, subdomain)
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
}

// handleRefresh exchanges a refresh token for a new token pair.
func (a *App) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid_request", "invalid form")
		return
	}
	refreshToken := r.FormValue("refresh_token")
	subdomain := r.FormValue("subdomain")
	if subdomain == "" {
		subdomain = a.Config.Helpdesk.DefaultSubdomain
	}

	token, err := a.Helpdesk.RefreshToken(r.Context(), refreshToken, subdomain)
	if err != nil {
		a.Logger.Warn("refresh failed", "subdomain", subdomain, "error", err)
		a.writeHelpdeskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) tokenParams(w http.ResponseWriter, r *http.Request) (token, subdomain string, ok bool) {
	if err := r.ParseForm(); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid_request", "invalid form")
		return "", "", false
	}
	token = r.FormValue("token")
	subdomain = r.FormValue("subdomain")
	if subdomain == "" {
		subdomain = a.Config.Helpdesk.DefaultSubdomain
	}
	if token == "" {
		a.writeError(w, http.StatusBadRequest, "invalid_request", "missing token")
		return "", "", false
	}
	return token, subdomain, true
}

// writeHelpdeskError maps the integration error taxonomy onto HTTP
// statuses for the gateway's own callers. Rate limits carry the
// provider's retry-after hint through verbatim.
func (a *App) writeHelpdeskError(w http.ResponseWriter, err error) {
	he, ok := helpdesk.AsError(err)
	if !ok {
		a.writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	status := http.StatusBadGateway
	switch he.Kind {
	case helpdesk.KindValidation:
		status = http.StatusBadRequest
	case helpdesk.KindConfiguration:
		status = http.StatusServiceUnavailable
	case helpdesk.KindNotFound:
		status = http.StatusNotFound
	case helpdesk.KindAuth:
		status = http.StatusUnauthorized
	case helpdesk.KindRateLimit:
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", strconv.Itoa(he.RetryAfter))
	}

	a.writeError(w, status, string(he.Kind), he.Description)
}

func (a *App) writeError(w http.ResponseWriter, status int, code, desc string) {
	writeJSON(w, status, map[string]string{"error": code, "error_description": desc})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
