package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ammiranda/position_service/config"
	"github.com/ammiranda/position_service/migrations"
	"github.com/ammiranda/position_service/position"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL through lib/pq
// or pgx, whichever DatabaseConfig.Driver names
type PostgresRepository struct {
	db     *sql.DB
	config *config.DatabaseConfig
	prefix string
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(cfg *config.DatabaseConfig, opts ...Option) *PostgresRepository {
	return &PostgresRepository{
		config: cfg,
		prefix: newSettings(opts).prefix,
	}
}

// Open connects to PostgreSQL and configures the pool
func (r *PostgresRepository) Open(ctx context.Context) error {
	// Open database connection
	db, err := sql.Open(r.config.Driver, r.config.ConnectionString())
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("error pinging database: %w", err)
	}

	r.db = db
	return nil
}

// Initialize sets up the PostgreSQL database
func (r *PostgresRepository) Initialize(ctx context.Context) error {
	if err := r.Open(ctx); err != nil {
		return err
	}

	// Run migrations
	if err := migrations.Up(r.db, r.Dialect().Name(), migrations.WithTablePrefix(r.prefix)); err != nil {
		r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// Cleanup closes the database connection
func (r *PostgresRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB returns the connection pool
func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}

// Dialect returns the PostgreSQL dialect
func (r *PostgresRepository) Dialect() position.Dialect {
	return position.Postgres
}

// TablePrefix returns the configured table prefix
func (r *PostgresRepository) TablePrefix() string {
	return r.prefix
}
