package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"workspace-gateway/internal/middleware"
	"workspace-gateway/internal/model"
	"workspace-gateway/internal/service"
)

// maxProxyBody bounds how much of an upstream payload is buffered before
// wrapping it in the response envelope.
const maxProxyBody = 4 << 20

// ProxyHandler serves the workspace provider read endpoints.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Workspaces lists the user's workspaces.
func (h *ProxyHandler) Workspaces(c echo.Context) error {
	return h.fetch(c, service.RouteWorkspaces, nil)
}

// Projects lists projects in a workspace.
func (h *ProxyHandler) Projects(c echo.Context) error {
	return h.fetch(c, service.RouteProjects, map[string]string{
		"workspace_gid": c.QueryParam("workspace_gid"),
	})
}

// Project returns one project.
func (h *ProxyHandler) Project(c echo.Context) error {
	return h.fetch(c, service.RouteProject, map[string]string{
		"project_gid": c.Param("project_gid"),
	})
}

// ProjectTasks lists the tasks of one project.
func (h *ProxyHandler) ProjectTasks(c echo.Context) error {
	return h.fetch(c, service.RouteProjectTasks, map[string]string{
		"project_gid": c.Param("project_gid"),
	})
}

// Tasks lists tasks assigned to a user in a workspace.
func (h *ProxyHandler) Tasks(c echo.Context) error {
	return h.fetch(c, service.RouteTasks, map[string]string{
		"workspace_gid": c.QueryParam("workspace_gid"),
		"user_gid":      c.QueryParam("user_gid"),
		"limit":         c.QueryParam("limit"),
	})
}

func (h *ProxyHandler) fetch(c echo.Context, route service.Route, params map[string]string) error {
	if params == nil {
		params = map[string]string{}
	}

	resp, err := h.service.Fetch(c.Request().Context(), route, params, middleware.AccessToken(c))
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBody))
	if err != nil {
		h.logger.Error("reading provider response",
			"err", err,
			"route", route.Name,
		)
		return c.JSON(http.StatusBadGateway, model.Fail("Failed to fetch from workspace provider"))
	}

	// A provider failure keeps its status but the body is replaced with a
	// generic message; raw provider errors are logged server-side only.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Error("provider request rejected",
			"route", route.Name,
			"status", resp.StatusCode,
			"body", string(body),
		)
		return c.JSON(resp.StatusCode, model.Fail("Failed to fetch from workspace provider"))
	}

	// The envelope holds on every path: an empty 2xx body becomes null
	// data, and a non-JSON body is a provider fault, not a crash.
	if len(body) == 0 {
		return c.JSON(http.StatusOK, model.OK(nil))
	}
	if !json.Valid(body) {
		h.logger.Error("provider returned non-JSON body",
			"route", route.Name,
			"status", resp.StatusCode,
		)
		return c.JSON(http.StatusBadGateway, model.Fail("Failed to fetch from workspace provider"))
	}

	return c.JSON(http.StatusOK, model.OK(json.RawMessage(body)))
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	var missing *service.MissingParamError
	if errors.As(err, &missing) {
		return c.JSON(http.StatusBadRequest, model.Fail(paramMessage(missing.Param)))
	}

	h.logger.Error("proxy error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, model.Fail("Workspace provider timed out"))
	}

	if errors.Is(err, context.Canceled) {
		return c.JSON(http.StatusBadGateway, model.Fail("Client disconnected"))
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.JSON(http.StatusBadGateway, model.Fail("Workspace provider unreachable"))
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return c.JSON(http.StatusBadGateway, model.Fail("Workspace provider connection failed"))
	}

	return c.JSON(http.StatusBadGateway, model.Fail("Failed to fetch from workspace provider"))
}

// paramMessage renders a missing-parameter message, e.g. "Workspace GID
// is required" for workspace_gid.
func paramMessage(param string) string {
	words := strings.Split(param, "_")
	for i, w := range words {
		if w == "gid" {
			words[i] = "GID"
			continue
		}
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ") + " is required"
}
