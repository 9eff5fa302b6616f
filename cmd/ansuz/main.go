package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
)

func newApp(cmd *cli.Command) (*internal.App, error) {
	cfg, err := internal.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return internal.New(internal.WithConfig(cfg))
}

func runSession(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.RunSession(ctx, os.Stdin)
}

func runNotify(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.RunNotify(ctx, cmd.Args().First())
}

func runReview(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.RunReview(ctx, os.Stdin)
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.RunWatch(ctx, cmd.String("dir"))
}

func runReindex(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.RunReindex(ctx)
}

func main() {
	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Export AI coding assistant conversations into a Markdown vault",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (optional; env vars suffice)",
				Sources: cli.EnvVars("ANSUZ_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "session",
				Usage:  "Merge a finished session's transcript into its note (hook payload on stdin)",
				Action: runSession,
			},
			{
				Name:      "notify",
				Usage:     "Record a completed turn (notification JSON or file path as argument)",
				ArgsUsage: "[payload]",
				Action:    runNotify,
			},
			{
				Name:   "review",
				Usage:  "Extract reusable skill proposals from a finished session (hook payload on stdin)",
				Action: runReview,
			},
			{
				Name:  "watch",
				Usage: "Watch a transcript directory and keep notes in sync",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Usage:    "Transcript directory to watch",
						Required: true,
						Sources:  cli.EnvVars("ANSUZ_WATCH_DIR"),
					},
				},
				Action: runWatch,
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the session index from notes on disk",
				Action: runReindex,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
