package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Strob0t/PropertyHub/internal/adapter/postgres"
	"github.com/Strob0t/PropertyHub/internal/config"
)

// runMigrate handles "propertyhub migrate [up|down|version]".
func runMigrate(args []string) error {
	action := "up"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("migrate "+action, flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back (down only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("migrate requires the postgres storage driver (got %q)", cfg.Storage.Driver)
	}

	ctx := context.Background()
	switch action {
	case "up":
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return err
		}
	case "down":
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *steps); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "schema version: %d\n", v)
	return nil
}
