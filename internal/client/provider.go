// Package client provides the upstream HTTP clients for the workspace
// provider API and the chat agent service.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"workspace-gateway/internal/config"
	"workspace-gateway/internal/metrics"
	"workspace-gateway/internal/model"
)

const userAgent = "workspace-gateway/1.0"

// ProviderClient sends authenticated requests to the workspace provider API.
type ProviderClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewProviderClient creates a ProviderClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewProviderClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *ProviderClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Provider.IdleConnections,
		MaxIdleConnsPerHost: cfg.Provider.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &ProviderClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "provider_client"),
		metrics: m,
	}
}

// Do executes an HTTP request against the provider and returns the raw response.
// The caller is responsible for closing the response body.
func (c *ProviderClient) Do(req *http.Request) (*model.ProxyResponse, error) {
	c.logger.Debug("provider request",
		"method", req.Method,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via ProxyResponse
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(method).Observe(duration)
		}
		return nil, fmt.Errorf("provider request: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.UpstreamDuration.WithLabelValues(method).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(method, status).Inc()
	}

	return &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// Get issues an authenticated GET and returns the raw response. The
// access token is attached as a Bearer credential; it never appears in
// the URL. The caller is responsible for closing the response body.
// The context controls the lifetime of the upstream request: when it is
// canceled (e.g. client disconnect), the upstream request is canceled too.
func (c *ProviderClient) Get(ctx context.Context, url, accessToken string) (*model.ProxyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	return c.Do(req)
}

// ReadJSON decodes a provider response body into v and closes the body.
func ReadJSON(resp *model.ProxyResponse, v any) error {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read provider response: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
