package cmd

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gigglobal/gigs/pkg/browse"
	"github.com/gigglobal/gigs/pkg/query"
	"github.com/urfave/cli/v3"
)

// BrowseCommand creates the browse command
func BrowseCommand() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Page through the results of a saved search",
		Commands: []*cli.Command{
			navCommand("next", "Show the next page", func(ctx context.Context, v *browse.View, _ *cli.Command) (bool, error) {
				return v.Next(ctx)
			}),
			navCommand("prev", "Show the previous page", func(ctx context.Context, v *browse.View, _ *cli.Command) (bool, error) {
				return v.Prev(ctx)
			}),
			pageCommand(),
			filterCommand(),
			navCommand("show", "Show the current page again", nil),
			resetCommand(),
			listCommand(),
		},
	}
}

type navFunc func(ctx context.Context, v *browse.View, c *cli.Command) (bool, error)

// navCommand restores the view, applies nav and renders the result. When
// nav is a no-op (nil, out of range) the current page is fetched again.
func navCommand(name, usage string, nav navFunc) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{viewFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			return navigate(ctx, c, nav)
		},
	}
}

func navigate(ctx context.Context, c *cli.Command, nav navFunc) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.restore(); err != nil {
		return err
	}

	moved := false
	if nav != nil {
		moved, err = nav(ctx, e.view, c)
		if err != nil {
			return e.show(err)
		}
	}
	if !moved {
		if nav != nil {
			fmt.Fprintln(e.out, metaStyle.Render("Nothing to do, showing the current page."))
		}
		_, err = e.view.Open(ctx, e.view.Query())
	}
	return e.show(err)
}

func pageCommand() *cli.Command {
	return &cli.Command{
		Name:      "page",
		Usage:     "Jump to page N",
		ArgsUsage: "<N>",
		Flags:     []cli.Flag{viewFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			n, err := strconv.Atoi(c.Args().First())
			if err != nil || n < 1 {
				return fmt.Errorf("invalid page number %q", c.Args().First())
			}
			return navigate(ctx, c, func(ctx context.Context, v *browse.View, _ *cli.Command) (bool, error) {
				return v.GoTo(ctx, n)
			})
		},
	}
}

func filterCommand() *cli.Command {
	return &cli.Command{
		Name:      "filter",
		Usage:     "Change one filter (minPrice, maxPrice, delivery_time); an empty value clears it",
		ArgsUsage: "<key> [value]",
		Flags:     []cli.Flag{viewFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			key := c.Args().Get(0)
			if key == "" {
				return fmt.Errorf("filter key required")
			}
			if !slices.Contains(query.FilterKeys, key) {
				return fmt.Errorf("unknown filter %q, valid filters: %s", key, strings.Join(query.FilterKeys, ", "))
			}
			value := c.Args().Get(1)
			return navigate(ctx, c, func(ctx context.Context, v *browse.View, _ *cli.Command) (bool, error) {
				return v.Filter(ctx, key, value)
			})
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Forget the saved search of a view",
		Flags: []cli.Flag{viewFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := openEnv(c)
			if err != nil {
				return err
			}
			defer e.close()
			if err := e.store.Delete(e.view.ID()); err != nil {
				return fmt.Errorf("resetting view: %w", err)
			}
			fmt.Fprintf(e.out, "View %s reset\n", e.view.ID())
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved views",
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := openEnv(c)
			if err != nil {
				return err
			}
			defer e.close()

			views, err := e.store.List()
			if err != nil {
				return err
			}
			if len(views) == 0 {
				fmt.Fprintln(e.out, noDataStyle.Render("No saved views"))
				return nil
			}
			for _, v := range views {
				fmt.Fprintf(e.out, "%-12s page %d, %s results  %s  %s\n",
					v.ID, v.PageIndex, formatNumber(v.Total), v.Query, metaStyle.Render(formatTime(v.UpdatedAt)))
			}
			return nil
		},
	}
}
