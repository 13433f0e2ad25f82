package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"workspace-gateway/internal/client"
	"workspace-gateway/internal/config"
	"workspace-gateway/internal/model"
)

var (
	// ErrMissingCode is returned when the callback carries no authorization code.
	ErrMissingCode = errors.New("authorization code is missing")

	// ErrExchangeFailed is returned when the provider rejects the code
	// exchange. The upstream detail is logged, never surfaced.
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrUnauthorized is returned when the provider rejects the stored
	// access token.
	ErrUnauthorized = errors.New("provider rejected credential")
)

// AuthService performs the OAuth authorization-code exchange and resolves
// the current user's identity against the provider.
type AuthService struct {
	oauth   *oauth2.Config
	client  *client.ProviderClient
	baseURL string
	logger  *slog.Logger
}

// NewAuthService creates an AuthService from the configured OAuth application.
func NewAuthService(cfg *config.Config, c *client.ProviderClient, logger *slog.Logger) *AuthService {
	return &AuthService{
		oauth: &oauth2.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.OAuth.AuthURL,
				TokenURL:  cfg.OAuth.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client:  c,
		baseURL: strings.TrimSuffix(cfg.Provider.BaseURL, "/"),
		logger:  logger.With("component", "auth_service"),
	}
}

// AuthorizeURL returns the provider authorization URL the browser is
// redirected to at the start of the flow.
func (s *AuthService) AuthorizeURL() string {
	return s.oauth.AuthCodeURL("")
}

// Exchange trades an authorization code for a credential. An empty code
// fails with ErrMissingCode before any network call. A provider rejection
// fails with ErrExchangeFailed; the raw provider response is logged
// server-side only.
func (s *AuthService) Exchange(ctx context.Context, code string) (*model.Credential, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			s.logger.Error("token exchange rejected",
				"status", rerr.Response.StatusCode,
				"body", string(rerr.Body),
			)
		} else {
			s.logger.Error("token exchange failed", "err", err)
		}
		return nil, ErrExchangeFailed
	}

	cred := &model.Credential{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn(tok),
		SubjectGID:   subjectGID(tok),
	}
	return cred, nil
}

// FetchProfile looks up the token owner via the provider identity
// endpoint. A non-success provider status returns ErrUnauthorized so the
// caller can discard the dead credential.
func (s *AuthService) FetchProfile(ctx context.Context, accessToken string) (*model.UserProfile, error) {
	resp, err := s.client.Get(ctx, s.baseURL+"/users/me", accessToken)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		s.logger.Info("credential rejected by provider", "status", resp.StatusCode)
		return nil, ErrUnauthorized
	}

	var user struct {
		Data struct {
			GID   string `json:"gid"`
			Email string `json:"email"`
			Name  string `json:"name"`
			Photo struct {
				Image128 string `json:"image_128x128"`
			} `json:"photo"`
		} `json:"data"`
	}
	if err := client.ReadJSON(resp, &user); err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}

	return &model.UserProfile{
		GID:   user.Data.GID,
		Email: user.Data.Email,
		Name:  user.Data.Name,
		Photo: user.Data.Photo.Image128,
	}, nil
}

// expiresIn prefers the provider's explicit expires_in over the computed
// expiry so the cookie lifetime matches the token exactly.
func expiresIn(tok *oauth2.Token) int {
	if v, ok := tok.Extra("expires_in").(float64); ok && v > 0 {
		return int(v)
	}
	if !tok.Expiry.IsZero() {
		return int(time.Until(tok.Expiry).Seconds())
	}
	return 0
}

// subjectGID extracts the token owner id the provider embeds in the token
// response.
func subjectGID(tok *oauth2.Token) string {
	data, ok := tok.Extra("data").(map[string]any)
	if !ok {
		return ""
	}
	gid, _ := data["gid"].(string)
	return gid
}
