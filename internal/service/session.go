package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"workspace-gateway/internal/model"
	"workspace-gateway/internal/storage"
)

// SessionService manages the chat session registry. The registry owns
// storage; this service owns identifier policy.
type SessionService struct {
	registry storage.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionService creates a SessionService.
func NewSessionService(registry storage.Registry, logger *slog.Logger) *SessionService {
	return &SessionService{
		registry: registry,
		logger:   logger.With("component", "session_service"),
		now:      time.Now,
	}
}

// List returns all registered sessions, newest first.
func (s *SessionService) List(ctx context.Context) ([]model.SessionRecord, error) {
	return s.registry.List(ctx)
}

// Create registers a session. A missing id is minted server-side; a
// missing title is derived from the current time. Caller-supplied ids are
// accepted as-is: the registry drives listing, not access control.
func (s *SessionService) Create(ctx context.Context, sessionID, title string) (*model.SessionRecord, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := s.now()
	if title == "" {
		title = "Chat " + now.Format("2006-01-02 15:04:05")
	}

	rec := model.SessionRecord{
		SessionID: sessionID,
		Title:     title,
		CreatedAt: now,
	}
	if err := s.registry.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}

	s.logger.Info("session created", "session_id", sessionID)
	return &rec, nil
}

// Delete removes a session. Deleting an unknown id reports false, never
// an error.
func (s *SessionService) Delete(ctx context.Context, sessionID string) (bool, error) {
	deleted, err := s.registry.Delete(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("unregister session: %w", err)
	}
	if deleted {
		s.logger.Info("session deleted", "session_id", sessionID)
	}
	return deleted, nil
}
