package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ammiranda/position_service/config"
	"github.com/ammiranda/position_service/position"
)

// Repository owns the database connection positions are read from and
// written to.
type Repository interface {
	// Open connects and pings the database without migrating it.
	Open(ctx context.Context) error

	// Initialize opens the connection and applies pending migrations.
	// Returns an error if the database is unreachable or a migration fails.
	Initialize(ctx context.Context) error

	// Cleanup closes the connection. It is safe to call before Initialize.
	Cleanup(ctx context.Context) error

	// DB returns the open connection pool, or nil before Initialize.
	DB() *sql.DB

	// Dialect returns the SQL dialect matching the driver.
	Dialect() position.Dialect

	// TablePrefix returns the prefix the schema's tables are created with.
	TablePrefix() string
}

// Option configures a repository
type Option func(*settings)

type settings struct {
	prefix string
}

// WithTablePrefix makes Initialize create prefixed tables, so the schema
// matches what an Updater built with the same prefix addresses
func WithTablePrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

func newSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// New creates the repository selected by the DB_DRIVER setting
func New(ctx context.Context, cfgProvider config.Provider) (Repository, error) {
	cfg, err := config.GetDatabaseConfig(ctx, cfgProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get database config: %w", err)
	}

	if _, err := position.DialectFor(cfg.Driver); err != nil {
		return nil, err
	}

	posCfg, err := config.GetPositionConfig(ctx, cfgProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get position config: %w", err)
	}
	prefix := WithTablePrefix(posCfg.TablePrefix)

	switch cfg.Driver {
	case config.DriverSQLite:
		return NewSQLiteRepository(cfg.Path, prefix), nil
	default:
		return NewPostgresRepository(cfg, prefix), nil
	}
}
