// Package model defines shared types for the proxy.
package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// Function is a single pass-through endpoint: calls to Method Path are
// forwarded to the same path on the upstream host.
type Function struct {
	Name        string
	Method      string
	Path        string
	ForwardBody bool
}

// ProxyRequest represents a function call to be forwarded upstream.
type ProxyRequest struct {
	Ctx      context.Context
	Function Function
	RawQuery string // incoming query string without the leading '?'
	Body     io.Reader
}

// UpstreamResponse is the raw response returned by the upstream host.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// ProxyResponse is the validated JSON payload relayed back to the caller.
type ProxyResponse struct {
	StatusCode int
	Payload    json.RawMessage
}
