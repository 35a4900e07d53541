// Package db runs schema migrations and bridges PostgreSQL notifications
// to live audit subscribers.
//
// Migrations are goose-annotated SQL files embedded from internal/db/migrations.
// They run on startup under a Postgres advisory lock so that several server
// replicas can start at once.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/dbpool"
)

// RunMigrations applies all pending migrations in fsys and logs each one.
func RunMigrations(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, fsys fs.FS) error {
	sqlDB, err := sql.Open("pgx", pool.ConnString())
	if err != nil {
		return fmt.Errorf("opening sql.DB for migrations: %w", err)
	}
	defer sqlDB.Close()

	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return fmt.Errorf("creating migration lock: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys, goose.WithSessionLocker(locker))
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		entry := log.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration,
		})

		if r.Error != nil {
			entry.WithError(r.Error).Error("migration.failed")
			continue
		}

		entry.Info("migration.applied")
	}

	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	log.WithFields(logrus.Fields{
		"applied": len(results),
		"version": version,
	}).Info("migrations.done")

	return nil
}
