package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ammiranda/position_service/migrations"
	"github.com/ammiranda/position_service/position"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db     *sql.DB
	dbPath string
	prefix string
}

// NewSQLiteRepository creates a new SQLite repository instance.
// An empty path selects ~/.position_service/positions.db.
func NewSQLiteRepository(path string, opts ...Option) *SQLiteRepository {
	s := newSettings(opts)
	if path != "" {
		return &SQLiteRepository{dbPath: path, prefix: s.prefix}
	}

	// Default to data directory in user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// Create data directory if it doesn't exist
	dataDir := filepath.Join(homeDir, ".position_service")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		// Fallback to current directory if home directory is not accessible
		dataDir = "."
	}

	return &SQLiteRepository{
		dbPath: filepath.Join(dataDir, "positions.db"),
		prefix: s.prefix,
	}
}

// Open opens the SQLite database file
func (r *SQLiteRepository) Open(ctx context.Context) error {
	// Foreign keys are off by default in SQLite
	db, err := sql.Open("sqlite3", r.dbPath+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("error pinging database: %w", err)
	}

	r.db = db
	return nil
}

// Initialize sets up the SQLite database
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	if err := r.Open(ctx); err != nil {
		return err
	}

	if err := migrations.Up(r.db, r.Dialect().Name(), migrations.WithTablePrefix(r.prefix)); err != nil {
		r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// Cleanup closes the database connection
func (r *SQLiteRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB returns the connection pool
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

// Dialect returns the SQLite dialect
func (r *SQLiteRepository) Dialect() position.Dialect {
	return position.SQLite
}

// TablePrefix returns the configured table prefix
func (r *SQLiteRepository) TablePrefix() string {
	return r.prefix
}
