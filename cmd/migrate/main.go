package main

// Apply, roll back or inspect schema migrations:
//   go run ./cmd/migrate up
//   go run ./cmd/migrate down
//   go run ./cmd/migrate version

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/storage/db"
	"sourcing-backend/internal/shared/telemetry"
)

// connect is swapped in tests.
var connect = func(ctx context.Context) (*sql.DB, error) {
	cfg := config.Load()
	return db.Open(ctx, cfg.DatabaseURL, db.ProfileMigrate)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the sourcing database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		dbCommand("up", "Apply all pending migrations", func(ctx context.Context, cmd *cobra.Command, conn *sql.DB) error {
			if err := db.RunMigrations(ctx, conn); err != nil {
				return err
			}
			return printVersion(ctx, cmd, conn)
		}),
		dbCommand("down", "Roll back the most recent migration", func(ctx context.Context, cmd *cobra.Command, conn *sql.DB) error {
			if err := db.RollbackMigration(ctx, conn); err != nil {
				return err
			}
			return printVersion(ctx, cmd, conn)
		}),
		dbCommand("version", "Print the current schema version", printVersion),
		&cobra.Command{
			Use:   "list",
			Short: "List migrations embedded in this binary",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				names, err := db.EmbeddedMigrations()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			},
		},
	)
	return root
}

func dbCommand(use, short string, run func(context.Context, *cobra.Command, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			conn, err := connect(ctx)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer conn.Close()
			return run(ctx, cmd, conn)
		},
	}
}

func printVersion(ctx context.Context, cmd *cobra.Command, conn *sql.DB) error {
	v, err := db.MigrationVersion(ctx, conn)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
	return nil
}

func main() {
	telemetry.SetService("sourcing-migrate")
	if err := newRootCmd().Execute(); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		os.Exit(1)
	}
}
