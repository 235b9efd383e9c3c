package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/gigglobal/gigs/pkg/db"
	"github.com/gigglobal/gigs/pkg/log"
	"github.com/gigglobal/gigs/pkg/session"
	"github.com/urfave/cli/v3"
)

// MigrateCommand creates the migrate command
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply session database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show migration status without applying migrations",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return runMigrations(c.Root().Writer, cfg.SessionDBPath(), c.Bool("status"))
		},
	}
}

func runMigrations(w io.Writer, path string, statusOnly bool) error {
	sqlDB, err := session.OpenDB(path)
	if err != nil {
		return fmt.Errorf("opening session database: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.ForService("migrate").Warnf("failed to close session database: %v", err)
		}
	}()

	manager := db.NewMigrationManager(sqlDB)
	if !statusOnly {
		if err := manager.ApplyPending(); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
	}

	fmt.Fprintf(w, "Session database: %s\n", path)
	if err := showMigrationStatus(w, manager); err != nil {
		return fmt.Errorf("showing migration status: %w", err)
	}
	if !statusOnly {
		fmt.Fprintln(w, "All migrations completed successfully")
	}
	return nil
}

func showMigrationStatus(w io.Writer, manager *db.MigrationManager) error {
	status, err := manager.Status()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Applied migrations: %d\n", len(status.Applied))
	for _, mig := range status.Applied {
		applied := "unknown"
		if mig.AppliedAt != nil {
			applied = mig.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "  ✓ %03d: %s (applied: %s)\n", mig.Version, mig.Name, applied)
	}

	fmt.Fprintf(w, "Pending migrations: %d\n", len(status.Pending))
	for _, mig := range status.Pending {
		fmt.Fprintf(w, "  • %03d: %s\n", mig.Version, mig.Name)
	}
	if len(status.Pending) == 0 {
		fmt.Fprintln(w, "  (none - database is up to date)")
	}
	return nil
}
