package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/garagedesk/pkg/apiclient"
	"github.com/dmitrymomot/garagedesk/pkg/notifications"
	"github.com/dmitrymomot/garagedesk/pkg/provider"
)

var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "Print the notification list whenever it changes",
	Flags: []cli.Flag{
		userFlag,
		&cli.StringFlag{Name: "filter", Usage: "all, unread or read", Value: "all"},
		&cli.BoolFlag{Name: "json", Usage: "Emit one JSON snapshot per line"},
	},
	Action: watch,
}

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "Print the notification history once",
	Flags: []cli.Flag{
		userFlag,
		&cli.BoolFlag{Name: "unread", Usage: "Only unread notifications"},
	},
	Action: func(c *cli.Context) error {
		list, err := getClient(c).List(c.Context, notifications.ListOptions{UnreadOnly: c.Bool("unread")})
		if err != nil {
			return err
		}
		return renderList(c.App.Writer, list)
	},
}

var readCommand = &cli.Command{
	Name:      "read",
	Usage:     "Mark notifications as read",
	ArgsUsage: "ID...",
	Flags:     []cli.Flag{userFlag},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit("at least one notification id is required", 2)
		}
		client := getClient(c)
		for _, id := range c.Args().Slice() {
			if err := client.MarkRead(c.Context, id); err != nil {
				return err
			}
		}
		return nil
	},
}

var readAllCommand = &cli.Command{
	Name:   "read-all",
	Usage:  "Mark every notification as read",
	Flags:  []cli.Flag{userFlag},
	Action: func(c *cli.Context) error { return getClient(c).MarkAllRead(c.Context) },
}

var deleteCommand = &cli.Command{
	Name:      "delete",
	Usage:     "Delete notifications",
	ArgsUsage: "ID...",
	Flags:     []cli.Flag{userFlag},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit("at least one notification id is required", 2)
		}
		client := getClient(c)
		for _, id := range c.Args().Slice() {
			if err := client.Delete(c.Context, id); err != nil {
				return err
			}
		}
		return nil
	},
}

func watch(c *cli.Context) error {
	cfg := getConfig(c)
	log := getLogger(c)
	filter := provider.ParseReadFilter(c.String("filter"))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := apiclient.NewFromConfig(cfg.API)
	p := provider.NewFromConfig(cfg.Provider, api.Remote, provider.WithLogger(log))
	defer p.Close()

	sub := p.Subscribe(ctx)
	defer sub.Close()

	if err := p.SetUser(ctx, c.String("user")); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "initial load failed: %v\n", err)
	}

	enc := json.NewEncoder(c.App.Writer)
	var last string
	for msg := range sub.Receive(ctx) {
		snap := msg.Data
		if c.Bool("json") {
			if err := enc.Encode(snap); err != nil {
				return err
			}
			continue
		}
		frame := renderSnapshot(snap, filter)
		if frame == last {
			continue
		}
		last = frame
		fmt.Fprint(c.App.Writer, frame)
	}
	return nil
}
