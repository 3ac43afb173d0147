// Command devserver runs the in-memory notifications backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrymomot/garagedesk/pkg/config"
	"github.com/dmitrymomot/garagedesk/pkg/devserver"
	"github.com/dmitrymomot/garagedesk/pkg/httpserver"
	"github.com/dmitrymomot/garagedesk/pkg/logger"
	"github.com/dmitrymomot/garagedesk/pkg/requestid"
)

type appConfig struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	HTTP      httpserver.Config
	DevServer devserver.Config
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "devserver"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	backend := devserver.NewFromConfig(cfg.DevServer, devserver.WithLogger(log))
	defer backend.Close()

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithoutWriteTimeout(),
		httpserver.WithOnShutdown(func() { _ = backend.Close() }),
		httpserver.WithStopHook(func(l *slog.Logger) { l.Info("notifications backend stopped") }),
	)
	return srv.Run(context.Background(), backend)
}
