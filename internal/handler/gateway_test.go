package handler

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"workspace-gateway/internal/client"
	"workspace-gateway/internal/config"
	"workspace-gateway/internal/credential"
	"workspace-gateway/internal/service"
	"workspace-gateway/internal/storage"
)

// newTestGateway assembles the full route surface against the given
// upstream and agent test servers.
func newTestGateway(t *testing.T, upstreamURL, agentURL string) *echo.Echo {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.DevMode = true
	cfg.OAuth = config.OAuthConfig{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		RedirectURI:  "https://dash.example.com/auth/callback",
		AuthURL:      upstreamURL + "/oauth_authorize",
		TokenURL:     upstreamURL + "/oauth_token",
	}
	cfg.Provider.BaseURL = upstreamURL
	cfg.Provider.TimeoutSeconds = 5
	cfg.Agent.BaseURL = agentURL
	cfg.Agent.TimeoutSeconds = 5
	cfg.Sessions.DBPath = filepath.Join(t.TempDir(), "sessions.db")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := credential.NewCookieStore(cfg)

	pc := client.NewProviderClient(cfg, logger, nil)
	ac, err := client.NewAgentClient(cfg, logger)
	if err != nil {
		t.Fatalf("NewAgentClient() error = %v", err)
	}

	authSvc := service.NewAuthService(cfg, pc, logger)
	proxySvc, err := service.NewProxyService(pc, cfg, logger)
	if err != nil {
		t.Fatalf("NewProxyService() error = %v", err)
	}

	reg, err := storage.Open(cfg.Sessions.DBPath)
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	sessSvc := service.NewSessionService(reg, logger)

	e := echo.New()
	RegisterRoutes(e,
		NewAuthHandler(authSvc, store, logger),
		NewProxyHandler(proxySvc, logger),
		NewSessionHandler(sessSvc, logger),
		NewAgentHandler(ac, logger),
		NewHealthHandler(cfg, "test"),
		store,
	)
	return e
}

// authCookie builds a credential cookie the gateway accepts.
func authCookie(accessToken string) *http.Cookie {
	value := base64.RawURLEncoding.EncodeToString([]byte(
		`{"access_token":"` + accessToken + `","token_type":"bearer","expires_in":3600}`))
	return &http.Cookie{Name: credential.CookieName, Value: value}
}

// envelope mirrors the gateway response wrapper for assertions.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

// clearedCookie reports whether the response deletes the credential cookie.
func clearedCookie(rec *httptest.ResponseRecorder) bool {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == credential.CookieName && ck.Value == "" && ck.MaxAge < 0 {
			return true
		}
	}
	return false
}
