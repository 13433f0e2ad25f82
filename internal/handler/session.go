package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"workspace-gateway/internal/model"
	"workspace-gateway/internal/service"
)

// SessionHandler serves the chat session registry endpoints.
type SessionHandler struct {
	sessions *service.SessionService
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *service.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger.With("component", "session_handler"),
	}
}

// List returns all registered sessions, newest first.
func (h *SessionHandler) List(c echo.Context) error {
	records, err := h.sessions.List(c.Request().Context())
	if err != nil {
		h.logger.Error("listing sessions", "err", err)
		return c.JSON(http.StatusInternalServerError, model.Fail("Failed to retrieve sessions"))
	}
	if records == nil {
		records = []model.SessionRecord{}
	}
	return c.JSON(http.StatusOK, model.OK(records))
}

type createSessionRequest struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
}

// Create registers a session. Both id and title are optional; an absent
// or unreadable body is treated as empty rather than rejected.
func (h *SessionHandler) Create(c echo.Context) error {
	var req createSessionRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		req = createSessionRequest{}
	}

	rec, err := h.sessions.Create(c.Request().Context(), req.SessionID, req.Title)
	if err != nil {
		h.logger.Error("creating session", "err", err)
		return c.JSON(http.StatusInternalServerError, model.Fail("Failed to create session"))
	}

	return c.JSON(http.StatusOK, model.OK(rec))
}

// Delete removes a session. Deleting an unknown id reports deleted:false
// inside a success envelope; deletion is idempotent for the caller.
func (h *SessionHandler) Delete(c echo.Context) error {
	deleted, err := h.sessions.Delete(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		h.logger.Error("deleting session", "err", err)
		return c.JSON(http.StatusInternalServerError, model.Fail("Failed to delete session"))
	}

	return c.JSON(http.StatusOK, model.OK(map[string]bool{"deleted": deleted}))
}
