package main

import (
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"
	"go.uber.org/fx"

	"mp-proxy-go/internal/client"
	"mp-proxy-go/internal/config"
	"mp-proxy-go/internal/function"
	"mp-proxy-go/internal/handler"
	"mp-proxy-go/internal/logging"
	"mp-proxy-go/internal/server"
	"mp-proxy-go/internal/service"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("mp-proxy"),
		kong.Description("Pass-through proxy for the WeChat Official Account API."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			logging.New,
			function.NewRegistry,
			server.NewMetrics,
			server.NewEcho,
			client.NewUpstreamClient,
			service.NewProxyService,
			handler.NewProxyHandler,
			handler.NewHealthHandler,
		),
		fx.Invoke(handler.RegisterRoutes, handler.RegisterMetrics, warnConfigPermissions, server.Start),
	).Run()
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}
