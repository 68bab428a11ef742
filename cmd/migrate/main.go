// Package main provides a CLI tool for running database migrations.
package main

import (
	"flag"
	"fmt"

	"github.com/wallet-insight/internal/config"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/storage"
)

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version")
		path   = flag.String("path", "migrations", "Path to migration files")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.WithError(err).Fatal("failed to load configuration")
	}
	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))

	if err := run(cfg, *action, *path); err != nil {
		logging.WithError(err).Fatal("migration failed")
	}
}

func run(cfg *config.Config, action, path string) error {
	databaseURL := cfg.Database.Postgres.PostgresURL()

	switch action {
	case "up":
		logging.Info("running migrations")
		if err := storage.RunMigrations(databaseURL, path); err != nil {
			return err
		}
		logging.Info("migrations completed")

	case "down":
		logging.Info("rolling back last migration")
		if err := storage.RollbackMigrations(databaseURL, path); err != nil {
			return err
		}
		logging.Info("rollback completed")

	case "version":
		version, dirty, err := storage.MigrationVersion(databaseURL, path)
		if err != nil {
			return err
		}
		logging.WithFields(map[string]interface{}{
			"version": version,
			"dirty":   dirty,
		}).Info("current migration version")

	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	return nil
}
