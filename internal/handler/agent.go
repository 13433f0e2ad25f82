package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"workspace-gateway/internal/client"
	"workspace-gateway/internal/model"
)

// AgentHandler forwards chat traffic to the per-session agent instance.
type AgentHandler struct {
	client *client.AgentClient
	logger *slog.Logger
}

// NewAgentHandler creates an AgentHandler.
func NewAgentHandler(c *client.AgentClient, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{
		client: c,
		logger: logger.With("component", "agent_handler"),
	}
}

// Handle resolves the agent named by the session id and forwards the raw
// request, stripping the /api/chat/<id> prefix so the agent sees only its
// own sub-path. The response is streamed back verbatim. Any routing
// failure is a generic 500; the agent owns its own retry semantics.
func (h *AgentHandler) Handle(c echo.Context) error {
	req := c.Request()
	sessionID := c.Param("session_id")
	subPath := "/" + c.Param("*")

	// GET and DELETE forward without a body; everything else passes the
	// raw body through untouched so streamed or binary payloads survive.
	var body io.Reader
	if req.Method != http.MethodGet && req.Method != http.MethodDelete {
		body = req.Body
	}

	resp, err := h.client.Forward(req.Context(), sessionID, subPath, req.URL.RawQuery, req.Method, req.Header, body)
	if err != nil {
		h.logger.Error("agent routing error",
			"err", err,
			"session_id", sessionID,
			"path", subPath,
		)
		return c.JSON(http.StatusInternalServerError, model.Fail("Agent routing failed"))
	}
	defer func() { _ = resp.Body.Close() }()

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Stream the agent body directly to the client. If io.Copy fails
	// mid-stream the status has already been sent, so the client receives
	// a truncated response with the original status; we log it.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming agent response",
			"err", err,
			"session_id", sessionID,
		)
	}

	return nil
}
