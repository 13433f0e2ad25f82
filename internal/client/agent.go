package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"workspace-gateway/internal/config"
	"workspace-gateway/internal/model"
)

// AgentClient forwards raw chat traffic to the agent service. Agent
// instance identity is the session name in the URL; nothing is held in
// memory between requests.
type AgentClient struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *slog.Logger
}

// NewAgentClient creates an AgentClient for the configured agent service.
func NewAgentClient(cfg *config.Config, logger *slog.Logger) (*AgentClient, error) {
	u, err := url.Parse(cfg.Agent.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse agent base_url: %w", err)
	}

	return &AgentClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
		},
		baseURL: u,
		logger:  logger.With("component", "agent_client"),
	}, nil
}

// Forward sends one request to the agent instance named by sessionID and
// returns the raw response. The body is passed through unmodified so
// streamed or binary payloads are never corrupted. The caller is
// responsible for closing the response body.
func (c *AgentClient) Forward(ctx context.Context, sessionID, subPath, rawQuery, method string, header http.Header, body io.Reader) (*model.ProxyResponse, error) {
	u := *c.baseURL
	u.Path = u.Path + "/agents/" + url.PathEscape(sessionID) + subPath
	u.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build agent request: %w", err)
	}
	req.Header = header

	c.logger.Debug("agent request",
		"method", method,
		"session_id", sessionID,
		"path", subPath,
	)

	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via ProxyResponse
	if err != nil {
		return nil, fmt.Errorf("agent request: %w", err)
	}

	return &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}
