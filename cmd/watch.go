package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gigglobal/gigs/pkg/browse"
	"github.com/gigglobal/gigs/pkg/log"
	"github.com/gigglobal/gigs/pkg/realtime"
	"github.com/urfave/cli/v3"
)

// WatchCommand creates the watch command
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Show a saved search and refresh it as gigs change",
		Flags: []cli.Flag{viewFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watch(ctx, c)
		},
	}
}

func watch(ctx context.Context, c *cli.Command) error {
	logger := log.ForService("watch")

	var e *env
	e, err := openEnv(c, browse.WithObserver(func(s browse.Snapshot) {
		renderSnapshot(e.out, s)
		if err := e.save(); err != nil {
			logger.Warnf("%v", err)
		}
	}))
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.restore(); err != nil {
		return err
	}

	hub := realtime.NewHub(64)
	sub, err := realtime.NewSubscriber(e.cfg.SocketURL, hub)
	if err != nil {
		return fmt.Errorf("creating subscriber: %w", err)
	}

	if _, err := e.view.Open(ctx, e.view.Query()); err != nil {
		if err := e.show(err); err != nil {
			return err
		}
	}

	go func() {
		if err := sub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("subscriber stopped: %v", err)
		}
	}()
	logger.Infof("watching view %s via %s (Ctrl+C to stop)", e.view.ID(), e.cfg.SocketURL)

	if err := e.view.Follow(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(os.Stderr, "\nStopped watching")
	return nil
}
