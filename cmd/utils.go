package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/gigglobal/gigs/pkg/browse"
	"github.com/gigglobal/gigs/pkg/config"
	"github.com/gigglobal/gigs/pkg/gigapi"
	"github.com/gigglobal/gigs/pkg/log"
	"github.com/gigglobal/gigs/pkg/query"
	"github.com/gigglobal/gigs/pkg/session"
	"github.com/urfave/cli/v3"
)

// loadConfig reads the --config file and applies the logging settings.
// --debug wins over log_level.
func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.LogLevel != "" {
		if err := log.SetLevel(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
	}
	if c.Bool("debug") {
		log.SetGlobalDebug(true)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *gigapi.Client {
	opts := []gigapi.Option{
		gigapi.WithTimeout(cfg.Timeout.Duration),
		gigapi.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	}
	if cfg.Token != "" {
		opts = append(opts, gigapi.WithToken(cfg.Token))
	}
	return gigapi.New(cfg.APIURL, opts...)
}

// viewID returns the --view flag or the configured default view.
func viewID(c *cli.Command, cfg *config.Config) string {
	if id := c.String("view"); id != "" {
		return id
	}
	return cfg.DefaultView
}

// env bundles what listing commands need.
type env struct {
	cfg   *config.Config
	store *session.Store
	view  *browse.View
	out   io.Writer
}

// openEnv opens the session database and builds the view selected by
// --view. Callers must call close.
func openEnv(c *cli.Command, opts ...browse.Option) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	store, err := session.Open(cfg.SessionDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	id := viewID(c, cfg)
	opts = append([]browse.Option{
		browse.WithPageSize(cfg.PageSize),
		browse.WithFlags(store.Flags(id)),
	}, opts...)

	return &env{
		cfg:   cfg,
		store: store,
		view:  browse.NewView(id, newClient(cfg), opts...),
		out:   c.Root().Writer,
	}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		fmt.Printf("Warning: failed to close session store: %v\n", err)
	}
}

// restore resumes the saved position of the view.
func (e *env) restore() error {
	st, err := e.store.Load(e.view.ID())
	if errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("view %q has no saved search, run 'gigs search' first", e.view.ID())
	}
	if err != nil {
		return err
	}
	return e.view.Restore(st)
}

func (e *env) save() error {
	if err := e.store.Save(e.view.ID(), e.view.State()); err != nil {
		return fmt.Errorf("saving view: %w", err)
	}
	return nil
}

// show renders the view and persists its position. An empty query renders
// as "no results" rather than failing.
func (e *env) show(navErr error) error {
	if navErr != nil && !errors.Is(navErr, browse.ErrNoResults) {
		var ferr *browse.FetchError
		if !errors.As(navErr, &ferr) {
			return navErr
		}
	}
	renderSnapshot(e.out, e.view.Snapshot())
	return e.save()
}

// filterFlags are shared by search and category.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "min-price",
			Usage: "Minimum price",
		},
		&cli.IntFlag{
			Name:  "max-price",
			Usage: "Maximum price",
		},
		&cli.StringFlag{
			Name:  "delivery",
			Usage: "Maximum delivery time in days, or 'any'",
		},
		viewFlag(),
	}
}

func viewFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "view",
		Usage: "Listing view to use (defaults to default_view from the config)",
	}
}

// rawFilters collects the filter flags the user actually set.
func rawFilters(c *cli.Command) url.Values {
	raw := url.Values{}
	if c.IsSet("min-price") {
		raw.Set(query.KeyMinPrice, strconv.Itoa(c.Int("min-price")))
	}
	if c.IsSet("max-price") {
		raw.Set(query.KeyMaxPrice, strconv.Itoa(c.Int("max-price")))
	}
	if c.IsSet("delivery") {
		raw.Set(query.KeyDelivery, c.String("delivery"))
	}
	return raw
}
