package handler

import (
	"github.com/labstack/echo/v4"

	"workspace-gateway/internal/credential"
	"workspace-gateway/internal/middleware"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, auth *AuthHandler, proxy *ProxyHandler, sessions *SessionHandler, agent *AgentHandler, health *HealthHandler, store credential.Store) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	api := e.Group("/api")

	api.GET("/auth/provider", auth.Provider)
	api.GET("/auth/callback", auth.Callback)
	api.GET("/auth/status", auth.Status)
	api.POST("/auth/logout", auth.Logout)

	// Provider reads sit behind the credential gate; everything under the
	// prefix is rejected before any upstream call when no credential is set.
	wp := api.Group("/workspace-provider", middleware.RequireCredential(store))
	wp.GET("/workspaces", proxy.Workspaces)
	wp.GET("/projects", proxy.Projects)
	wp.GET("/projects/:project_gid", proxy.Project)
	wp.GET("/projects/:project_gid/tasks", proxy.ProjectTasks)
	wp.GET("/tasks", proxy.Tasks)

	api.GET("/sessions", sessions.List)
	api.POST("/sessions", sessions.Create)
	api.DELETE("/sessions/:session_id", sessions.Delete)

	api.Any("/chat/:session_id/*", agent.Handle)
}
