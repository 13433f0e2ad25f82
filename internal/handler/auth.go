// Package handler exposes the gateway's HTTP surface over Echo.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"workspace-gateway/internal/credential"
	"workspace-gateway/internal/model"
	"workspace-gateway/internal/service"
)

// AuthHandler serves the OAuth flow and auth status endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	cookies credential.Store
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, cookies credential.Store, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		cookies: cookies,
		logger:  logger.With("component", "auth_handler"),
	}
}

// Provider redirects the browser to the provider authorization URL.
func (h *AuthHandler) Provider(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.auth.AuthorizeURL())
}

// Callback exchanges the authorization code and sets the credential
// cookie. Provider failure detail never reaches the browser.
func (h *AuthHandler) Callback(c echo.Context) error {
	cred, err := h.auth.Exchange(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		if errors.Is(err, service.ErrMissingCode) {
			return c.JSON(http.StatusBadRequest, model.Fail("Authorization code is missing"))
		}
		return c.JSON(http.StatusInternalServerError, model.Fail("Internal server error during token exchange"))
	}

	h.cookies.Save(c, cred)
	return c.JSON(http.StatusOK, model.OK(nil))
}

// Status reports the current user, or null when unauthenticated. Absence
// of auth is a normal state, never an HTTP error. A credential the
// provider rejects is cleared here so a dead cookie cannot wedge the
// browser in a broken-auth state.
func (h *AuthHandler) Status(c echo.Context) error {
	cred, err := h.cookies.Load(c)
	if err != nil {
		if errors.Is(err, credential.ErrInvalidCredential) {
			h.cookies.Clear(c)
		}
		return c.JSON(http.StatusOK, model.OK(map[string]any{"user": nil}))
	}

	profile, err := h.auth.FetchProfile(c.Request().Context(), cred.AccessToken)
	if err != nil {
		if !errors.Is(err, service.ErrUnauthorized) {
			h.logger.Error("auth status check failed", "err", err)
		}
		h.cookies.Clear(c)
		return c.JSON(http.StatusOK, model.OK(map[string]any{"user": nil}))
	}

	return c.JSON(http.StatusOK, model.OK(map[string]any{"user": profile}))
}

// Logout clears the credential cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookies.Clear(c)
	return c.JSON(http.StatusOK, model.OK(nil))
}
