// Command bot plays a citygrid game over the REST API. A host creates a
// game as Orchestrator, bot players join and route towards their objective
// cards using the server's own movement rules.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "Play an automated citygrid game against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "server base URL"},
			&cli.IntFlag{Name: "players", Value: 2, Usage: "number of bot players (1-4)"},
			&cli.IntFlag{Name: "turns", Value: 40, Usage: "maximum committed turns"},
			&cli.StringFlag{Name: "board", Usage: "board id, empty for the server default"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between turns"},
			&cli.BoolFlag{Name: "debug", Usage: "log every move"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := zerolog.InfoLevel
			if cmd.Bool("debug") {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()

			client := NewClient(cmd.String("url"))
			b, err := Setup(ctx, client, logger, cmd.String("board"), cmd.Int("players"))
			if err != nil {
				return err
			}
			b.delay = cmd.Duration("delay")

			state, err := b.Play(ctx, cmd.Int("turns"))
			if state != nil {
				printReport(cmd.Root().Writer, state, b.Moves)
			}
			return err
		},
	}
}
