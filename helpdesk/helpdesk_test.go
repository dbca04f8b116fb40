package helpdesk

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestClient spins a stub provider and returns a client pointed at
// it. The server host doubles as the tenant subdomain, which network
// operations accept verbatim.
func newTestClient(t *testing.T, handler http.Handler) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(ClientConfig{
		Credentials: Credentials{ClientID: "client-id", ClientSecret: "client-secret"},
		Scheme:      "http",
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return c, strings.TrimPrefix(srv.URL, "http://")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	he, ok := AsError(err)
	if !ok {
		t.Fatalf("expected helpdesk.Error, got %T: %v", err, err)
	}
	return he.Kind
}
