package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gigglobal/gigs/pkg/query"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search gigs and show the first page",
		ArgsUsage: "[terms...]",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search terms (dashes are read as spaces)",
			},
		}, filterFlags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			terms := c.String("query")
			if terms == "" && c.Args().Present() {
				terms = query.Slugify(strings.Join(c.Args().Slice(), " "))
			}
			route := url.Values{query.KeyQuery: {terms}}.Encode()
			return openListing(ctx, c, query.RouteSearch, route)
		},
	}
}

// openListing composes the query for a route and shows its first page in
// the selected view.
func openListing(ctx context.Context, c *cli.Command, kind query.RouteKind, routeValue string) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	q := query.Compose(kind, routeValue, rawFilters(c))
	if q.Empty() {
		// An unknown category or blank search has nothing to page through.
		if err := e.store.Delete(e.view.ID()); err != nil {
			return fmt.Errorf("clearing view: %w", err)
		}
		_, err := e.view.Open(ctx, q)
		renderSnapshot(e.out, e.view.Snapshot())
		if errors.Is(err, query.ErrEmptyQuery) {
			return nil
		}
		return err
	}

	_, err = e.view.Open(ctx, q)
	return e.show(err)
}
