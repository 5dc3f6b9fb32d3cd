package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/fx"

	"mp-proxy-go/internal/client"
	"mp-proxy-go/internal/config"
	"mp-proxy-go/internal/function"
	"mp-proxy-go/internal/gateway"
	"mp-proxy-go/internal/logging"
	"mp-proxy-go/internal/metrics"
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
		kong.Name("mp-proxy-lambda"),
		kong.Description("WeChat Official Account API pass-through as an AWS Lambda behind API Gateway."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	var h *gateway.Handler
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			func() *config.CLI { return &cli },
			config.Load,
			logging.New,
			function.NewRegistry,
			// No scrape endpoint inside a Lambda.
			func() *metrics.Metrics { return nil },
			client.NewUpstreamClient,
			service.NewProxyService,
			gateway.NewHandler,
		),
		fx.Populate(&h),
	)
	if err := app.Err(); err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
