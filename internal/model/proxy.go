// Package model defines shared types for the gateway.
package model

import (
	"io"
	"net/http"
)

// ProxyResponse represents the upstream response to be streamed back.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
