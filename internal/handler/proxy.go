package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"mp-proxy-go/internal/model"
	"mp-proxy-go/internal/service"
)

// ProxyHandler exposes pass-through functions over HTTP.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// For returns the echo handler serving fn. It forwards the incoming query
// string and, for functions that take one, the request body, then answers
// with the upstream JSON payload.
func (h *ProxyHandler) For(fn model.Function) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		pr := &model.ProxyRequest{
			Ctx:      req.Context(),
			Function: fn,
			RawQuery: req.URL.RawQuery,
			Body:     req.Body,
		}

		resp, err := h.service.Forward(pr)
		if err != nil {
			return h.mapError(c, fn, err)
		}

		return c.JSONBlob(resp.StatusCode, resp.Payload)
	}
}

func (h *ProxyHandler) mapError(c echo.Context, fn model.Function, err error) error {
	h.logger.Error("proxy error",
		"err", service.SanitizeError(err),
		"function", fn.Name,
		"path", c.Request().URL.Path,
	)

	// Inbound body limit tripped while the body was being streamed upstream.
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
		return c.JSON(he.Code, map[string]string{
			"error": "request body too large",
		})
	}

	status, msg := service.Describe(err)
	return c.JSON(status, map[string]string{
		"error": msg,
	})
}
