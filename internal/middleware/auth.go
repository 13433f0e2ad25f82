package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"workspace-gateway/internal/credential"
	"workspace-gateway/internal/model"
)

// AccessTokenKey is the echo context key under which RequireCredential
// stashes the loaded access token.
const AccessTokenKey = "provider_access_token"

// RequireCredential gates provider proxy routes on a stored credential.
// Requests without a cookie are rejected before any network activity;
// malformed cookies are rejected with a distinct message for diagnostics
// but the same 401 status.
func RequireCredential(store credential.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cred, err := store.Load(c)
			if err != nil {
				if errors.Is(err, credential.ErrInvalidCredential) {
					return c.JSON(http.StatusUnauthorized, model.Fail("Invalid token"))
				}
				return c.JSON(http.StatusUnauthorized, model.Fail("Unauthorized"))
			}

			c.Set(AccessTokenKey, cred.AccessToken)
			return next(c)
		}
	}
}

// AccessToken returns the token stashed by RequireCredential, or empty.
func AccessToken(c echo.Context) string {
	tok, _ := c.Get(AccessTokenKey).(string)
	return tok
}
