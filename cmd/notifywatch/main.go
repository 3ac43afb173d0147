// Command notifywatch follows a user's notifications from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/garagedesk/pkg/apiclient"
	"github.com/dmitrymomot/garagedesk/pkg/config"
	"github.com/dmitrymomot/garagedesk/pkg/logger"
	"github.com/dmitrymomot/garagedesk/pkg/provider"
	"github.com/dmitrymomot/garagedesk/pkg/requestid"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	API      apiclient.Config
	Provider provider.Config
}

type contextKey int

const (
	contextKeyConfig contextKey = iota
	contextKeyLogger
)

func getConfig(c *cli.Context) *appConfig {
	return c.Context.Value(contextKeyConfig).(*appConfig)
}

func getLogger(c *cli.Context) *slog.Logger {
	return c.Context.Value(contextKeyLogger).(*slog.Logger)
}

func getClient(c *cli.Context) *apiclient.Client {
	return apiclient.NewFromConfig(getConfig(c).API).ForUser(c.String("user"))
}

func prepareApp(c *cli.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if url := c.String("api"); url != "" {
		cfg.API.BaseURL = url
	}
	if url := c.String("push"); url != "" {
		cfg.Provider.Realtime.BaseURL = url
	}

	// stdout carries the rendered notifications; logs go to stderr.
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "notifywatch"),
		logger.WithOutput(os.Stderr),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if !c.Bool("verbose") {
		opts = append(opts, logger.WithLevel(slog.LevelWarn))
	}
	log := logger.New(opts...)

	ctx := context.WithValue(c.Context, contextKeyConfig, &cfg)
	c.Context = context.WithValue(ctx, contextKeyLogger, log)
	return nil
}

var userFlag = &cli.StringFlag{
	Name:     "user",
	Aliases:  []string{"u"},
	Usage:    "User id to act for",
	EnvVars:  []string{"NOTIFY_USER_ID"},
	Required: true,
}

func main() {
	app := &cli.App{
		Name:  "notifywatch",
		Usage: "Follow and manage notifications",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Usage: "REST origin, overrides API_BASE_URL"},
			&cli.StringFlag{Name: "push", Usage: "Push channel origin, overrides NOTIFY_WS_BASE_URL"},
			&cli.BoolFlag{Name: "verbose", Usage: "Log connection activity to stderr"},
		},
		Before: prepareApp,
		Commands: []*cli.Command{
			watchCommand,
			listCommand,
			readCommand,
			readAllCommand,
			deleteCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
