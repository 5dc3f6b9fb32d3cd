// Package gateway serves the proxy's functions as an AWS Lambda integration
// behind an API Gateway v2 (HTTP API). Requests are matched against the
// function registry by method and raw path and forwarded through the same
// ProxyService the HTTP server uses.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"

	"mp-proxy-go/internal/function"
	"mp-proxy-go/internal/model"
	"mp-proxy-go/internal/service"
)

// defaultStage is the API Gateway stage that does not prefix request paths.
const defaultStage = "$default"

// Handler is the Lambda entry point.
type Handler struct {
	registry *function.Registry
	service  *service.ProxyService
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(reg *function.Registry, svc *service.ProxyService, logger *slog.Logger) *Handler {
	return &Handler{
		registry: reg,
		service:  svc,
		logger:   logger.With("component", "lambda_gateway"),
	}
}

// Handle routes request to its function and relays the upstream JSON.
// Failures are answered with a JSON error body rather than a Lambda error so
// callers see the same status codes as with the HTTP server.
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := request.RequestContext.HTTP.Method
	path := routePath(request)

	fn, ok := h.registry.Lookup(method, path)
	if !ok {
		return errorResponse(http.StatusNotFound, fmt.Sprintf("'%s %s' not found", method, path)), nil
	}

	body, err := requestBody(request)
	if err != nil {
		h.logger.Warn("bad request body", "function", fn.Name, "err", err)
		return errorResponse(http.StatusBadRequest, "invalid request body"), nil
	}

	resp, err := h.service.Forward(&model.ProxyRequest{
		Ctx:      ctx,
		Function: fn,
		RawQuery: request.RawQueryString,
		Body:     body,
	})
	if err != nil {
		h.logger.Error("proxy error",
			"err", service.SanitizeError(err),
			"function", fn.Name,
			"request_id", request.RequestContext.RequestID,
		)
		status, msg := service.Describe(err)
		return errorResponse(status, msg), nil
	}

	return jsonResponse(resp.StatusCode, string(resp.Payload)), nil
}

// routePath strips the stage prefix API Gateway adds for named stages.
func routePath(request events.APIGatewayV2HTTPRequest) string {
	path := request.RawPath
	stage := request.RequestContext.Stage
	if stage != "" && stage != defaultStage {
		if trimmed := strings.TrimPrefix(path, "/"+stage); trimmed != path && (trimmed == "" || trimmed[0] == '/') {
			path = trimmed
		}
	}
	if path == "" {
		path = "/"
	}
	return path
}

// requestBody returns the raw request body, decoding it when API Gateway
// delivered it base64 encoded.
func requestBody(request events.APIGatewayV2HTTPRequest) (io.Reader, error) {
	if request.Body == "" {
		return nil, nil
	}
	if request.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to decode request body for %s %s", request.RequestContext.HTTP.Method, request.RawPath)
		}
		return strings.NewReader(string(b)), nil
	}
	return strings.NewReader(request.Body), nil
}

func jsonResponse(status int, body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Cache-Control": "no-store",
		},
		Body: body,
	}
}

func errorResponse(status int, msg string) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return jsonResponse(status, string(b))
}
