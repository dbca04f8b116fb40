package server

import (
	"log/slog"
	"net/http"
	"time"
)

const loginCookieName = "deskd_login"

// LoginManager binds pending logins to a browser via a short-lived
// cookie. The cookie carries only an opaque store key; the CSRF state
// itself never leaves the server.
type LoginManager struct {
	store        *LoginStore
	logger       *slog.Logger
	ttl          time.Duration
	secure       bool
	sameSite     http.SameSite
	cookieDomain string
}

// NewLoginManager constructs a login manager honouring config.
func NewLoginManager(cfg Config, store *LoginStore, logger *slog.Logger) *LoginManager {
	sameSite := http.SameSiteLaxMode
	secure := !cfg.Server.DevMode

	return &LoginManager{
		store:        store,
		logger:       logger,
		ttl:          DefaultLoginTTL,
		secure:       secure,
		sameSite:     sameSite,
		cookieDomain: cfg.Server.CookieDomain,
	}
}

// Begin records a pending login and sets the tracking cookie.
func (lm *LoginManager) Begin(w http.ResponseWriter, subdomain, state, redirectURI string, scopes []string) PendingLogin {
	now := time.Now()
	p := PendingLogin{
		ID:          lm.store.NewID(),
		Subdomain:   subdomain,
		State:       state,
		RedirectURI: redirectURI,
		Scopes:      scopes,
		CreatedAt:   now,
		ExpiresAt:   now.Add(lm.ttl),
	}
	lm.store.Save(p)

	http.SetCookie(w, &http.Cookie{
		Name:     loginCookieName,
		Value:    p.ID,
		Path:     "/",
		Domain:   lm.cookieDomain,
		HttpOnly: true,
		Secure:   lm.secure,
		SameSite: lm.sameSite,
		MaxAge:   int(lm.ttl.Seconds()),
	})

	return p
}

// Consume resolves the request's pending login, removes it from the
// store, and clears the cookie. Returns false when there is no
// cookie, the entry is unknown, or it has expired.
func (lm *LoginManager) Consume(w http.ResponseWriter, r *http.Request) (PendingLogin, bool) {
	cookie, err := r.Cookie(loginCookieName)
	if err != nil {
		return PendingLogin{}, false
	}
	lm.clear(w)

	p, ok := lm.store.Consume(cookie.Value)
	if !ok {
		lm.logger.Warn("pending login missing or expired", "cookie", "present")
		return PendingLogin{}, false
	}
	return p, true
}

func (lm *LoginManager) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     loginCookieName,
		Value:    "",
		Path:     "/",
		Domain:   lm.cookieDomain,
		HttpOnly: true,
		Secure:   lm.secure,
		SameSite: lm.sameSite,
		MaxAge:   -1,
	})
}
