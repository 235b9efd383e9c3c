package cmd

import (
	"context"
	"fmt"

	"github.com/gigglobal/gigs/pkg/category"
	"github.com/gigglobal/gigs/pkg/query"
	"github.com/urfave/cli/v3"
)

// CategoryCommand creates the category command
func CategoryCommand() *cli.Command {
	return &cli.Command{
		Name:      "category",
		Usage:     "Browse a category by its slug (see 'gigs categories')",
		ArgsUsage: "<slug>",
		Flags:     filterFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if !c.Args().Present() {
				return fmt.Errorf("category slug required")
			}
			return openListing(ctx, c, query.RouteCategory, c.Args().First())
		},
	}
}

// CategoriesCommand creates the categories command
func CategoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List marketplace categories and their slugs",
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			fmt.Fprintln(w, titleStyle.Render("Categories"))
			for _, name := range category.Default().All() {
				fmt.Fprintf(w, "  %-24s %s\n", name, metaStyle.Render(query.Slugify(name)))
			}
			return nil
		},
	}
}
