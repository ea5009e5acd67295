// Package migrations holds the schema of the demo attribute grid.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"regexp"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql
var files embed.FS

const migrationsTable = "schema_migrations"

var prefixPattern = regexp.MustCompile(`^[a-zA-Z0-9_]*$`)

type settings struct {
	prefix string
}

// Option configures a migration run
type Option func(*settings)

// WithTablePrefix prepends prefix to every table, index, trigger and
// function the migrations create, including the version table
func WithTablePrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

// Up applies all pending migrations for the given driver
func Up(db *sql.DB, driverName string, opts ...Option) error {
	m, err := newMigrate(db, driverName, opts)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}
	return nil
}

// Down rolls back the last applied migration
func Down(db *sql.DB, driverName string, opts ...Option) error {
	m, err := newMigrate(db, driverName, opts)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("error rolling back migration: %w", err)
	}
	return nil
}

// Version returns the current schema version, or 0 when nothing is applied
func Version(db *sql.DB, driverName string, opts ...Option) (uint, error) {
	m, err := newMigrate(db, driverName, opts)
	if err != nil {
		return 0, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("migration %d is dirty", version)
	}
	return version, nil
}

func newMigrate(db *sql.DB, driverName string, opts []Option) (*migrate.Migrate, error) {
	cfg := &settings{}
	for _, opt := range opts {
		opt(cfg)
	}
	if !prefixPattern.MatchString(cfg.prefix) {
		return nil, fmt.Errorf("invalid table prefix %q", cfg.prefix)
	}

	var (
		driver database.Driver
		err    error
	)
	switch driverName {
	case "postgres":
		driver, err = postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.prefix + migrationsTable})
	case "sqlite3":
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: cfg.prefix + migrationsTable})
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driverName)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating migration driver: %w", err)
	}

	source, err := iofs.New(renderFS{base: files, data: templateData{Prefix: cfg.prefix}}, "sql/"+driverName)
	if err != nil {
		return nil, fmt.Errorf("error opening migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return nil, fmt.Errorf("error creating migration instance: %w", err)
	}
	return m, nil
}
