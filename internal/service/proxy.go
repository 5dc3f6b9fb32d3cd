// Package service implements the core proxy forwarding logic.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"mp-proxy-go/internal/client"
	"mp-proxy-go/internal/config"
	"mp-proxy-go/internal/model"
)

var (
	// ErrInvalidJSON is returned when the upstream body is not a JSON document.
	ErrInvalidJSON = errors.New("upstream returned invalid JSON")
	// ErrResponseTooLarge is returned when the upstream body exceeds upstream.response_max_bytes.
	ErrResponseTooLarge = errors.New("upstream response exceeds size limit")
)

const defaultResponseMaxBytes = 10 * 1024 * 1024

// ProxyService forwards function calls to the upstream host.
type ProxyService struct {
	client  *client.UpstreamClient
	cfg     *config.Config
	logger  *slog.Logger
	baseURL *url.URL
}

// NewProxyService creates a ProxyService.
func NewProxyService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("upstream base_url %q has no host", cfg.Upstream.BaseURL)
	}

	return &ProxyService{
		client:  c,
		cfg:     cfg,
		logger:  logger.With("component", "proxy_service"),
		baseURL: u,
	}, nil
}

// Forward sends pr to the upstream host and returns the JSON payload it answered with.
//
// The target is always the configured upstream base URL plus the function
// path; the incoming query string is appended verbatim. The request body is
// streamed through unmodified for functions that forward it, and omitted
// otherwise. The upstream status is ignored unless upstream.relay_status is
// set, but the body must be valid JSON either way.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	fn := pr.Function
	upstreamURL := s.buildUpstreamURL(fn.Path, pr.RawQuery)

	var body io.Reader
	if fn.ForwardBody && pr.Body != nil {
		body = pr.Body
	}

	s.logger.Debug("forwarding request",
		"function", fn.Name,
		"method", fn.Method,
		"path", fn.Path,
	)

	resp, err := s.client.DoStream(pr.Ctx, fn, upstreamURL, s.requestHeader(fn), body)
	if err != nil {
		return nil, fmt.Errorf("forward %s to upstream: %w", fn.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := s.readPayload(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response (status %d): %w", fn.Name, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("upstream returned non-2xx status",
			"function", fn.Name,
			"status", resp.StatusCode,
			"relayed", s.cfg.Upstream.RelayStatus,
		)
	}

	status := http.StatusOK
	if s.cfg.Upstream.RelayStatus {
		status = resp.StatusCode
	}

	return &model.ProxyResponse{
		StatusCode: status,
		Payload:    payload,
	}, nil
}

func (s *ProxyService) buildUpstreamURL(path, rawQuery string) string {
	u := *s.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = rawQuery
	u.Fragment = ""

	return u.String()
}

// requestHeader returns the only header the proxy sets itself: the JSON
// content type for functions that forward a body. Nothing else is added.
func (s *ProxyService) requestHeader(fn model.Function) http.Header {
	h := make(http.Header)
	if fn.ForwardBody {
		h.Set("Content-Type", "application/json")
	}
	return h
}

// readPayload reads at most upstream.response_max_bytes and checks the result is JSON.
func (s *ProxyService) readPayload(r io.Reader) (json.RawMessage, error) {
	limit := s.cfg.Upstream.ResponseMaxBytes
	if limit <= 0 {
		limit = defaultResponseMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrResponseTooLarge
	}
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(data), nil
}
