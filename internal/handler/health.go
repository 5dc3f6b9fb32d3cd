package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mp-proxy-go/internal/config"
	"mp-proxy-go/internal/function"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg      *config.Config
	registry *function.Registry
	version  Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, reg *function.Registry, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, registry: reg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type statusFunction struct {
	Name   string `json:"name"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

type statusResponse struct {
	Status      string           `json:"status"`
	Version     string           `json:"version"`
	UpstreamURL string           `json:"upstream_url"`
	Functions   []statusFunction `json:"functions"`
}

// Status returns proxy status information, including the served functions.
func (h *HealthHandler) Status(c echo.Context) error {
	resp := statusResponse{
		Status:      "ok",
		Version:     string(h.version),
		UpstreamURL: h.cfg.Upstream.BaseURL,
		Functions:   []statusFunction{},
	}
	for _, fn := range h.registry.All() {
		resp.Functions = append(resp.Functions, statusFunction{Name: fn.Name, Method: fn.Method, Path: fn.Path})
	}
	return c.JSON(http.StatusOK, resp)
}
