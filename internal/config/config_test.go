package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

// writeConfig writes a TOML snippet to a temp file and returns its path.
func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// minimalConfig carries the fields without which validation fails.
const minimalConfig = `
[oauth]
client_id = "client-123"
client_secret = "secret-456"
redirect_uri = "https://dash.example.com/auth/callback"

[agent]
base_url = "https://agents.example.com"
`

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
body_max_bytes = 5242880

[oauth]
client_id = "client-123"
client_secret = "secret-456"
redirect_uri = "https://dash.example.com/auth/callback"

[provider]
base_url = "https://app.asana.com/api/1.0"
timeout_seconds = 60
idle_connections = 50

[agent]
base_url = "https://agents.example.com"
timeout_seconds = 90

[sessions]
db_path = "/var/lib/workspace-gateway/sessions.db"

[log]
level = "debug"
format = "text"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.OAuth.ClientID != "client-123" {
		t.Errorf("OAuth.ClientID = %q, want %q", cfg.OAuth.ClientID, "client-123")
	}
	if cfg.Provider.TimeoutSeconds != 60 {
		t.Errorf("Provider.TimeoutSeconds = %d, want %d", cfg.Provider.TimeoutSeconds, 60)
	}
	if cfg.Agent.TimeoutSeconds != 90 {
		t.Errorf("Agent.TimeoutSeconds = %d, want %d", cfg.Agent.TimeoutSeconds, 90)
	}
	if cfg.Sessions.DBPath != "/var/lib/workspace-gateway/sessions.db" {
		t.Errorf("Sessions.DBPath = %q", cfg.Sessions.DBPath)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoad_MissingClientID(t *testing.T) {
	path := writeConfig(t, `
[oauth]
client_secret = "secret-456"
redirect_uri = "https://dash.example.com/auth/callback"

[agent]
base_url = "https://agents.example.com"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for missing client_id")
	}
	if !strings.Contains(err.Error(), "oauth.client_id") {
		t.Errorf("error = %q, want mention of oauth.client_id", err)
	}
}

func TestLoad_MissingClientSecret(t *testing.T) {
	path := writeConfig(t, `
[oauth]
client_id = "client-123"
redirect_uri = "https://dash.example.com/auth/callback"

[agent]
base_url = "https://agents.example.com"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for missing client_secret")
	}
	if !strings.Contains(err.Error(), "oauth.client_secret") {
		t.Errorf("error = %q, want mention of oauth.client_secret", err)
	}
}

func TestLoad_PlaceholderClientSecret(t *testing.T) {
	path := writeConfig(t, `
[oauth]
client_id = "client-123"
client_secret = "YOUR_CLIENT_SECRET_HERE"
redirect_uri = "https://dash.example.com/auth/callback"

[agent]
base_url = "https://agents.example.com"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for placeholder client_secret")
	}
	if !strings.Contains(err.Error(), "placeholder") {
		t.Errorf("error = %q, want mention of placeholder", err)
	}
}

func TestLoad_MissingRedirectURI(t *testing.T) {
	path := writeConfig(t, `
[oauth]
client_id = "client-123"
client_secret = "secret-456"

[agent]
base_url = "https://agents.example.com"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for missing redirect_uri")
	}
	if !strings.Contains(err.Error(), "oauth.redirect_uri") {
		t.Errorf("error = %q, want mention of oauth.redirect_uri", err)
	}
}

func TestLoad_MissingAgentBaseURL(t *testing.T) {
	path := writeConfig(t, `
[oauth]
client_id = "client-123"
client_secret = "secret-456"
redirect_uri = "https://dash.example.com/auth/callback"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for missing agent.base_url")
	}
	if !strings.Contains(err.Error(), "agent.base_url") {
		t.Errorf("error = %q, want mention of agent.base_url", err)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[log]
level = "verbose"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "log.level") {
		t.Errorf("error = %q, want mention of log.level", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8787 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8787)
	}
	if cfg.Server.BodyMaxBytes != 10*1024*1024 {
		t.Errorf("Server.BodyMaxBytes = %d, want %d", cfg.Server.BodyMaxBytes, 10*1024*1024)
	}
	if cfg.OAuth.AuthURL != "https://app.asana.com/-/oauth_authorize" {
		t.Errorf("OAuth.AuthURL = %q", cfg.OAuth.AuthURL)
	}
	if cfg.OAuth.TokenURL != "https://app.asana.com/-/oauth_token" {
		t.Errorf("OAuth.TokenURL = %q", cfg.OAuth.TokenURL)
	}
	if cfg.Provider.BaseURL != "https://app.asana.com/api/1.0" {
		t.Errorf("Provider.BaseURL = %q", cfg.Provider.BaseURL)
	}
	if cfg.Provider.TimeoutSeconds != 30 {
		t.Errorf("Provider.TimeoutSeconds = %d, want %d", cfg.Provider.TimeoutSeconds, 30)
	}
	if cfg.Provider.IdleConnections != 100 {
		t.Errorf("Provider.IdleConnections = %d, want %d", cfg.Provider.IdleConnections, 100)
	}
	if cfg.Agent.TimeoutSeconds != 120 {
		t.Errorf("Agent.TimeoutSeconds = %d, want %d", cfg.Agent.TimeoutSeconds, 120)
	}
	if cfg.Sessions.DBPath != "data/sessions.db" {
		t.Errorf("Sessions.DBPath = %q, want %q", cfg.Sessions.DBPath, "data/sessions.db")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(cliWithPath("/nonexistent/config.toml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[server]
host = "0.0.0.0"
port = 8000
`)

	cli := &CLI{
		Config:       path,
		Host:         "127.0.0.1",
		Port:         9999,
		ClientID:     "cli-client",
		ClientSecret: "cli-secret",
		LogLevel:     "warn",
	}
	cfg, err := Load(cli)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want CLI override %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want CLI override %d", cfg.Server.Port, 9999)
	}
	if cfg.OAuth.ClientID != "cli-client" {
		t.Errorf("OAuth.ClientID = %q, want CLI override %q", cfg.OAuth.ClientID, "cli-client")
	}
	if cfg.OAuth.ClientSecret != "cli-secret" {
		t.Errorf("OAuth.ClientSecret = %q, want CLI override %q", cfg.OAuth.ClientSecret, "cli-secret")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want CLI override %q", cfg.Log.Level, "warn")
	}
}

func TestLoad_HTTPUpstreamRejected(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[provider]
base_url = "http://app.asana.com/api/1.0"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for http provider URL")
	}
	if !strings.Contains(err.Error(), "HTTPS") {
		t.Errorf("error = %q, want mention of HTTPS", err)
	}
}

func TestLoad_HTTPUpstreamAllowedInDevMode(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[server]
dev_mode = true

[provider]
base_url = "http://localhost:9090"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider.BaseURL != "http://localhost:9090" {
		t.Errorf("Provider.BaseURL = %q", cfg.Provider.BaseURL)
	}
}

func TestLoad_NegativePort(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[server]
port = -1
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for negative port")
	}
	if !strings.Contains(err.Error(), "server.port") {
		t.Errorf("error = %q, want mention of server.port", err)
	}
}

func TestLoad_NegativeTimeout(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[provider]
timeout_seconds = -5
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for negative timeout")
	}
	if !strings.Contains(err.Error(), "provider.timeout_seconds") {
		t.Errorf("error = %q, want mention of provider.timeout_seconds", err)
	}
}

func TestLoad_RateLimitConfig_Enabled(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[server.rate_limit]
enabled = true
requests_per_second = 25.5
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Server.RateLimit.Enabled {
		t.Error("RateLimit.Enabled = false, want true")
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 25.5 {
		t.Errorf("RateLimit.RequestsPerSecond = %v, want 25.5", cfg.Server.RateLimit.RequestsPerSecond)
	}
}

func TestLoad_RateLimitConfig_BadValue(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[server.rate_limit]
enabled = true
requests_per_second = 0
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for zero rate limit")
	}
	if !strings.Contains(err.Error(), "requests_per_second") {
		t.Errorf("error = %q, want mention of requests_per_second", err)
	}
}

func TestWarnPermissions_Loose(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("# test"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	if !strings.Contains(buf.String(), "readable by group/others") {
		t.Errorf("expected permission warning, got: %q", buf.String())
	}
}

func TestWarnPermissions_Strict(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("# test"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	if buf.Len() != 0 {
		t.Errorf("expected no warning for 0600 file, got: %q", buf.String())
	}
}

func TestFindConfigInPaths_Found(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	got := findConfigInPaths([]string{path})
	if got != path {
		t.Errorf("findConfigInPaths() = %q, want %q", got, path)
	}
}

func TestFindConfigInPaths_NotFound(t *testing.T) {
	got := findConfigInPaths([]string{"/nonexistent/a.toml", "/nonexistent/b.toml"})
	if got != "" {
		t.Errorf("findConfigInPaths() = %q, want empty", got)
	}
}

func TestFindConfigInPaths_Priority(t *testing.T) {
	path1 := writeConfig(t, minimalConfig)
	path2 := writeConfig(t, minimalConfig)

	got := findConfigInPaths([]string{path1, path2})
	if got != path1 {
		t.Errorf("findConfigInPaths() = %q, want first match %q", got, path1)
	}
}

func TestLoad_MetricsPathDefault(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[metrics]
enabled = true
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_MetricsPathNoLeadingSlash(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[metrics]
enabled = true
path = "metrics"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for metrics path without leading slash")
	}
	if !strings.Contains(err.Error(), "metrics.path") {
		t.Errorf("error = %q, want mention of metrics.path", err)
	}
}

func TestLoad_MetricsPathConflictsWithAPIRoute(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[metrics]
enabled = true
path = "/api/sessions"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for metrics path under /api")
	}
	if !strings.Contains(err.Error(), "conflicts") {
		t.Errorf("error = %q, want mention of conflicts", err)
	}
}

func TestLoad_MetricsDisabledSkipsPathValidation(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[metrics]
enabled = false
path = "/api/sessions"
`)

	if _, err := Load(cliWithPath(path)); err != nil {
		t.Fatalf("Load() error = %v, want nil when metrics disabled", err)
	}
}

func TestServerConfig_Addr(t *testing.T) {
	sc := &ServerConfig{Host: "127.0.0.1", Port: 8787}
	if got := sc.Addr(); got != "127.0.0.1:8787" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8787")
	}
}
