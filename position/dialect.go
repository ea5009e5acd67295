package position

import (
	"fmt"
	"strconv"

	"github.com/lib/pq"
)

// Dialect holds the SQL differences between supported drivers.
type Dialect interface {
	// Name returns the database/sql driver name
	Name() string
	// Placeholder returns the bind parameter for the n-th (1-based) argument
	Placeholder(n int) string
	// QuoteIdentifier quotes a table or column name
	QuoteIdentifier(name string) string
	// RowSavepoints reports whether a failed statement aborts the
	// transaction, so each row write needs its own savepoint.
	RowSavepoints() bool
}

var (
	// Postgres is the dialect of github.com/lib/pq
	Postgres Dialect = postgresDialect{}
	// SQLite is the dialect of github.com/mattn/go-sqlite3
	SQLite Dialect = sqliteDialect{}
)

// DialectFor returns the dialect registered for a database/sql driver name
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driverName)
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string                       { return "postgres" }
func (postgresDialect) Placeholder(n int) string           { return "$" + strconv.Itoa(n) }
func (postgresDialect) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }
func (postgresDialect) RowSavepoints() bool                { return true }

type sqliteDialect struct{}

func (sqliteDialect) Name() string             { return "sqlite3" }
func (sqliteDialect) Placeholder(_ int) string { return "?" }

// SQLite accepts the same double-quoted identifiers as PostgreSQL.
func (sqliteDialect) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }
func (sqliteDialect) RowSavepoints() bool                { return false }
