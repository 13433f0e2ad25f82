// Package service implements the gateway's core logic: OAuth exchange,
// auth status resolution, provider proxying, and session management.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"workspace-gateway/internal/client"
	"workspace-gateway/internal/config"
	"workspace-gateway/internal/model"
)

// MissingParamError reports a proxy request missing a required parameter.
// It is detected before any upstream call is made.
type MissingParamError struct {
	Param string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// Route describes one forwarded read endpoint. The field selector is a
// fixed per-route policy limiting what the provider returns; it is never
// caller-controlled.
type Route struct {
	Name string

	// UpstreamPath is the provider path, with {param} placeholders filled
	// from the inbound path parameters.
	UpstreamPath string

	// Required lists inbound parameters that must be non-empty.
	Required []string

	// Query maps upstream query keys to inbound parameter names.
	Query map[string]string

	// Defaults supplies values for optional inbound parameters.
	Defaults map[string]string

	// FieldSelector is the opt_fields value appended to the upstream query.
	FieldSelector string
}

// The exposed provider routes. Field selectors are deliberately minimal:
// each route requests only what the dashboard renders.
var (
	RouteWorkspaces = Route{
		Name:         "workspaces",
		UpstreamPath: "/workspaces",
	}

	RouteProjects = Route{
		Name:          "projects",
		UpstreamPath:  "/projects",
		Required:      []string{"workspace_gid"},
		Query:         map[string]string{"workspace": "workspace_gid"},
		FieldSelector: "name,permalink_url,color,owner,current_status,due_on",
	}

	RouteProject = Route{
		Name:          "project",
		UpstreamPath:  "/projects/{project_gid}",
		Required:      []string{"project_gid"},
		FieldSelector: "name,notes,permalink_url,color,owner,current_status,due_on,created_at,modified_at,workspace.name",
	}

	RouteProjectTasks = Route{
		Name:          "project_tasks",
		UpstreamPath:  "/projects/{project_gid}/tasks",
		Required:      []string{"project_gid"},
		FieldSelector: "name,assignee.name,assignee.photo,due_on,completed,permalink_url",
	}

	RouteTasks = Route{
		Name:         "tasks",
		UpstreamPath: "/tasks",
		Required:     []string{"workspace_gid"},
		Query: map[string]string{
			"assignee":  "user_gid",
			"workspace": "workspace_gid",
			"limit":     "limit",
		},
		Defaults: map[string]string{
			"user_gid": "me",
			"limit":    "100",
		},
		FieldSelector: "name,assignee.name,assignee.photo,due_on,completed,projects.name,permalink_url",
	}
)

// ProxyService forwards read requests to the workspace provider API,
// attaching the caller's access token.
type ProxyService struct {
	client  *client.ProviderClient
	logger  *slog.Logger
	baseURL *url.URL
}

// NewProxyService creates a ProxyService.
func NewProxyService(c *client.ProviderClient, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	u, err := url.Parse(cfg.Provider.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse provider base_url: %w", err)
	}

	return &ProxyService{
		client:  c,
		logger:  logger.With("component", "proxy_service"),
		baseURL: u,
	}, nil
}

// Fetch validates the route's parameters and issues the upstream GET.
// Validation failures return a MissingParamError before any network call.
// The caller is responsible for closing the response body.
func (s *ProxyService) Fetch(ctx context.Context, route Route, params map[string]string, accessToken string) (*model.ProxyResponse, error) {
	for _, p := range route.Required {
		if params[p] == "" {
			return nil, &MissingParamError{Param: p}
		}
	}

	for p, v := range route.Defaults {
		if params[p] == "" {
			params[p] = v
		}
	}

	upstreamURL := s.buildUpstreamURL(route, params)

	s.logger.Debug("forwarding request",
		"route", route.Name,
		"path", route.UpstreamPath,
	)

	resp, err := s.client.Get(ctx, upstreamURL, accessToken)
	if err != nil {
		return nil, fmt.Errorf("forward %s: %w", route.Name, err)
	}
	return resp, nil
}

func (s *ProxyService) buildUpstreamURL(route Route, params map[string]string) string {
	u := *s.baseURL

	path := route.UpstreamPath
	for p, v := range params {
		path = strings.ReplaceAll(path, "{"+p+"}", url.PathEscape(v))
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path

	q := make(url.Values)
	for key, p := range route.Query {
		q.Set(key, params[p])
	}
	if route.FieldSelector != "" {
		q.Set("opt_fields", route.FieldSelector)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
