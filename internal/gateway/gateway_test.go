package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"

	"mp-proxy-go/internal/client"
	"mp-proxy-go/internal/config"
	"mp-proxy-go/internal/function"
	"mp-proxy-go/internal/service"
)

func newTestHandler(t *testing.T, upstream string) *Handler {
	t.Helper()
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:         upstream,
			TimeoutSeconds:  1,
			IdleConnections: 10,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg, err := function.NewRegistry(cfg)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	svc, err := service.NewProxyService(client.NewUpstreamClient(cfg, logger, nil), cfg, logger)
	if err != nil {
		t.Fatalf("NewProxyService: %v", err)
	}
	return NewHandler(reg, svc, logger)
}

func apiRequest(method, path, query, body string) events.APIGatewayV2HTTPRequest {
	req := events.APIGatewayV2HTTPRequest{
		RawPath:        path,
		RawQueryString: query,
		Body:           body,
	}
	req.RequestContext.HTTP.Method = method
	req.RequestContext.Stage = "$default"
	return req
}

func errorMessage(t *testing.T, body string) string {
	t.Helper()
	var e map[string]string
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("error body %q is not JSON: %v", body, err)
	}
	return e["error"]
}

func TestHandle_DraftAdd(t *testing.T) {
	const payload = `{"articles":[{"title":"hello"}]}`

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cgi-bin/draft/add", r.URL.Path)
		assert.Equal(t, "access_token=tok", r.URL.RawQuery)
		got, _ := io.ReadAll(r.Body)
		assert.Equal(t, payload, string(got))
		_, _ = w.Write([]byte(`{"media_id":"MEDIA_ID"}`))
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream.URL)
	resp, err := h.Handle(context.Background(), apiRequest(http.MethodPost, "/cgi-bin/draft/add", "access_token=tok", payload))

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.JSONEq(t, `{"media_id":"MEDIA_ID"}`, resp.Body)
}

func TestHandle_Base64Body(t *testing.T) {
	const payload = `{"articles":[]}`

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ := io.ReadAll(r.Body)
		assert.Equal(t, payload, string(got))
		_, _ = w.Write([]byte(`{"errcode":0}`))
	}))
	defer upstream.Close()

	req := apiRequest(http.MethodPost, "/cgi-bin/draft/add", "", base64.StdEncoding.EncodeToString([]byte(payload)))
	req.IsBase64Encoded = true

	resp, err := newTestHandler(t, upstream.URL).Handle(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandle_BadBase64Body(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1")

	req := apiRequest(http.MethodPost, "/cgi-bin/draft/add", "", "!!not base64!!")
	req.IsBase64Encoded = true

	resp, err := h.Handle(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request body", errorMessage(t, resp.Body))
}

func TestHandle_TokenWithNamedStage(t *testing.T) {
	const query = "grant_type=client_credential&appid=wx1&secret=s3"

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cgi-bin/token", r.URL.Path)
		assert.Equal(t, query, r.URL.RawQuery)
		got, _ := io.ReadAll(r.Body)
		assert.Empty(t, got)
		_, _ = w.Write([]byte(`{"access_token":"ACCESS_TOKEN","expires_in":7200}`))
	}))
	defer upstream.Close()

	req := apiRequest(http.MethodGet, "/prod/cgi-bin/token", query, "")
	req.RequestContext.Stage = "prod"

	resp, err := newTestHandler(t, upstream.URL).Handle(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"access_token":"ACCESS_TOKEN","expires_in":7200}`, resp.Body)
}

func TestHandle_UnknownRoute(t *testing.T) {
	h := newTestHandler(t, "http://127.0.0.1:1")

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"unknown path", http.MethodGet, "/cgi-bin/user/info"},
		{"wrong method", http.MethodGet, "/cgi-bin/draft/add"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.Handle(context.Background(), apiRequest(tt.method, tt.path, "", ""))

			assert.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Contains(t, errorMessage(t, resp.Body), tt.path)
		})
	}
}

func TestHandle_UpstreamFailures(t *testing.T) {
	notJSON := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer notJSON.Close()

	tests := []struct {
		name     string
		upstream string
		wantMsg  string
	}{
		{"non-json body", notJSON.URL, "upstream returned invalid JSON"},
		{"unreachable", "http://127.0.0.1:1", "upstream connection failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.upstream)
			resp, err := h.Handle(context.Background(), apiRequest(http.MethodGet, "/cgi-bin/token", "", ""))

			assert.NoError(t, err)
			assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
			assert.Equal(t, tt.wantMsg, errorMessage(t, resp.Body))
		})
	}
}

func TestRoutePath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		stage string
		want  string
	}{
		{"default stage", "/cgi-bin/token", "$default", "/cgi-bin/token"},
		{"named stage", "/prod/cgi-bin/token", "prod", "/cgi-bin/token"},
		{"stage name is a path prefix only", "/production/cgi-bin/token", "prod", "/production/cgi-bin/token"},
		{"stage root", "/prod", "prod", "/"},
		{"no stage", "/cgi-bin/token", "", "/cgi-bin/token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := events.APIGatewayV2HTTPRequest{RawPath: tt.path}
			req.RequestContext.Stage = tt.stage
			assert.Equal(t, tt.want, routePath(req))
		})
	}
}
