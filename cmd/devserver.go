package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gigglobal/gigs/pkg/devserver"
	"github.com/gigglobal/gigs/pkg/log"
	"github.com/gigglobal/gigs/pkg/realtime"
	"github.com/urfave/cli/v3"
)

// DevServerCommand creates the devserver command
func DevServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "devserver",
		Usage: "Run a local search service with a sample catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: "localhost:4000",
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "JSON catalog file (reloaded on change); a generated catalog is used when empty",
			},
			&cli.IntFlag{
				Name:  "generate",
				Usage: "Number of gigs to generate when no catalog file is given",
				Value: 200,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Seed for the generated catalog",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Bool("debug") {
				log.SetGlobalDebug(true)
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDevServer(ctx, c.String("addr"), c.String("catalog"), c.Int("generate"), uint64(c.Int("seed")))
		},
	}
}

func runDevServer(ctx context.Context, addr, catalogPath string, generate int, seed uint64) error {
	logger := log.ForService("devserver")

	var catalog *devserver.Catalog
	var err error
	if catalogPath != "" {
		catalog, err = devserver.LoadCatalog(catalogPath)
	} else {
		catalog, err = devserver.NewCatalog(devserver.Generate(generate, seed))
	}
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	srv := devserver.NewServer(catalog, realtime.NewHub(64))
	if catalogPath != "" {
		go func() {
			if err := srv.Watch(ctx, catalogPath); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warnf("catalog reload disabled: %v", err)
			}
		}()
	}

	return srv.ListenAndServe(ctx, addr)
}
