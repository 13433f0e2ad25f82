// Package credential persists the OAuth credential as an http-only
// browser cookie. The cookie is the only credential store: there is no
// server-side session table, so every request re-parses it.
package credential

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"workspace-gateway/internal/config"
	"workspace-gateway/internal/model"
)

// CookieName is the browser cookie holding the serialized credential.
const CookieName = "provider_token"

var (
	// ErrNoCredential means no credential cookie is present. This is a
	// normal state, not a failure.
	ErrNoCredential = errors.New("no credential cookie")

	// ErrInvalidCredential means a cookie is present but its content does
	// not parse as a credential. Callers should treat it as absent and
	// clear it.
	ErrInvalidCredential = errors.New("invalid credential cookie")
)

// Store abstracts credential persistence so a server-side session table
// could later replace the cookie without touching callers.
type Store interface {
	// Load returns the parsed credential, ErrNoCredential when the cookie
	// is absent, or ErrInvalidCredential when it is malformed. It never
	// returns a partially populated credential.
	Load(c echo.Context) (*model.Credential, error)

	// Save writes the credential cookie on the current response. The
	// cookie lifetime is the credential's expiry window.
	Save(c echo.Context, cred *model.Credential)

	// Clear deletes the credential cookie. Idempotent.
	Clear(c echo.Context)
}

// CookieStore implements Store over an http-only, SameSite=Lax cookie
// scoped to path /. The value is base64url-encoded JSON so no
// cookie-hostile characters appear on the wire.
type CookieStore struct {
	secure bool
}

// NewCookieStore creates a CookieStore. The cookie carries the Secure
// attribute unless the server runs in dev mode.
func NewCookieStore(cfg *config.Config) *CookieStore {
	return &CookieStore{secure: !cfg.Server.DevMode}
}

// Load implements Store.
func (s *CookieStore) Load(c echo.Context) (*model.Credential, error) {
	ck, err := c.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return nil, ErrNoCredential
	}

	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	var cred model.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, ErrInvalidCredential
	}
	if cred.AccessToken == "" {
		return nil, ErrInvalidCredential
	}
	return &cred, nil
}

// Save implements Store.
func (s *CookieStore) Save(c echo.Context, cred *model.Credential) {
	raw, err := json.Marshal(cred)
	if err != nil {
		// model.Credential contains only plain fields; this cannot fail.
		return
	}
	c.SetCookie(s.cookie(base64.RawURLEncoding.EncodeToString(raw), cred.ExpiresIn))
}

// Clear implements Store.
func (s *CookieStore) Clear(c echo.Context) {
	c.SetCookie(s.cookie("", -1))
}

func (s *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
