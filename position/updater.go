// Package position keeps sibling rows of a parent densely ordered 0..N-1.
// Callers give some rows a new sort key; the rest keep their relative order
// and the whole scope is rewritten in one transaction.
package position

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DB is the part of *sql.DB the updater needs.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

const rowSavepoint = "position_row"

// Updater rewrites the positions of a parent scope inside one transaction.
// It keeps no state between calls and may be shared by goroutines; calls
// against the same scope are not coordinated.
type Updater struct {
	db                 DB
	prefix             string
	dialect            Dialect
	logger             logrus.FieldLogger
	errorDomain        string
	reportConnectivity bool
}

// Option configures an Updater
type Option func(*Updater)

// WithDialect sets the SQL dialect. The default is SQLite.
func WithDialect(d Dialect) Option {
	return func(u *Updater) {
		u.dialect = d
	}
}

// WithLogger sets the logger used for rollbacks and row failures
func WithLogger(logger logrus.FieldLogger) Option {
	return func(u *Updater) {
		u.logger = logger
	}
}

// WithErrorDomain sets the translation domain of returned FieldErrors
func WithErrorDomain(domain string) Option {
	return func(u *Updater) {
		u.errorDomain = domain
	}
}

// WithConnectivityErrors makes Update return an error wrapping
// ErrConnectivity when the transaction is rolled back after a connection
// failure. By default the rollback is logged and Update returns no error.
func WithConnectivityErrors(report bool) Option {
	return func(u *Updater) {
		u.reportConnectivity = report
	}
}

// NewUpdater creates an updater. prefix is prepended to every table name.
func NewUpdater(db DB, prefix string, opts ...Option) *Updater {
	u := &Updater{
		db:          db,
		prefix:      prefix,
		dialect:     SQLite,
		logger:      logrus.StandardLogger(),
		errorDomain: DefaultErrorDomain,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update computes the dense order of req's scope and persists it.
//
// The returned slice holds one FieldError per row whose write failed; it is
// empty when every row was written. A non-nil error means nothing was
// committed.
func (u *Updater) Update(ctx context.Context, req *Request) ([]FieldError, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := u.CurrentPositions(ctx, req.Definition, req.ParentID)
	if err != nil {
		return nil, err
	}

	newPositions := Resequence(mergeUpdates(current, req.RowUpdates))
	return u.updatePositions(ctx, req.Definition, newPositions)
}

// CurrentPositions returns the rows of parentID's scope ordered by their
// stored position. Rows sharing a position keep the order the database
// returned them in.
func (u *Updater) CurrentPositions(ctx context.Context, def Definition, parentID int64) ([]RowPosition, error) {
	rows, err := u.db.QueryContext(ctx, u.selectQuery(def), parentID)
	if err != nil {
		return nil, fmt.Errorf("error reading positions of %s: %w", def.Table, err)
	}
	defer rows.Close()

	positions := make([]RowPosition, 0)
	for rows.Next() {
		var row RowPosition
		if err := rows.Scan(&row.RowID, &row.Position); err != nil {
			return nil, fmt.Errorf("error scanning position: %w", err)
		}
		positions = append(positions, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

func (u *Updater) updatePositions(ctx context.Context, def Definition, positions []RowPosition) ([]FieldError, error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		if IsConnectivityError(err) {
			return u.abort(nil, def, err, nil)
		}
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}

	query := u.updateQuery(def)
	errs := make([]FieldError, 0)
	for _, row := range positions {
		err := u.writeRow(ctx, tx, query, row)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			u.rollback(tx, def)
			return nil, fmt.Errorf("position update of %s interrupted: %w", def.Table, ctxErr)
		}
		if IsConnectivityError(err) {
			return u.abort(tx, def, err, errs)
		}

		u.logger.WithError(err).WithFields(logrus.Fields{
			"table":  def.Table,
			"row_id": row.RowID,
		}).Warn("could not update row position")
		errs = append(errs, newRowError(u.errorDomain, row.RowID))
	}

	if err := tx.Commit(); err != nil {
		if IsConnectivityError(err) {
			return u.abort(nil, def, err, errs)
		}
		return nil, fmt.Errorf("error committing positions of %s: %w", def.Table, err)
	}
	return errs, nil
}

// writeRow updates one row. Under dialects where a failed statement poisons
// the transaction the write is isolated in a savepoint.
func (u *Updater) writeRow(ctx context.Context, tx *sql.Tx, query string, row RowPosition) error {
	if !u.dialect.RowSavepoints() {
		_, err := tx.ExecContext(ctx, query, row.Position, row.RowID)
		return err
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+rowSavepoint); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, row.Position, row.RowID); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+rowSavepoint); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	_, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+rowSavepoint)
	return err
}

// abort rolls back after a connection failure. Row errors collected so far
// are dropped with the transaction.
func (u *Updater) abort(tx *sql.Tx, def Definition, cause error, discarded []FieldError) ([]FieldError, error) {
	if tx != nil {
		u.rollback(tx, def)
	}

	u.logger.WithError(cause).WithFields(logrus.Fields{
		"table":              def.Table,
		"discarded_failures": len(discarded),
	}).Error("position update rolled back after connection failure")

	if u.reportConnectivity {
		return nil, fmt.Errorf("%w: %w", ErrConnectivity, cause)
	}
	return make([]FieldError, 0), nil
}

func (u *Updater) rollback(tx *sql.Tx, def Definition) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		u.logger.WithError(err).WithField("table", def.Table).Warn("error rolling back position update")
	}
}

func (u *Updater) table(name string) string {
	return u.dialect.QuoteIdentifier(u.prefix + name)
}

func (u *Updater) column(alias, name string) string {
	return alias + "." + u.dialect.QuoteIdentifier(name)
}

func (u *Updater) selectQuery(def Definition) string {
	return fmt.Sprintf(
		"SELECT %s, %s FROM %s t JOIN %s p ON %s = %s WHERE %s = %s ORDER BY %s ASC",
		u.column("t", def.IDField),
		u.column("t", def.PositionField),
		u.table(def.Table),
		u.table(def.ParentTable),
		u.column("p", def.ParentTableIDField),
		u.column("t", def.ParentIDField),
		u.column("p", def.ParentTableIDField),
		u.dialect.Placeholder(1),
		u.column("t", def.PositionField),
	)
}

func (u *Updater) updateQuery(def Definition) string {
	return fmt.Sprintf(
		"UPDATE %s SET %s = %s WHERE %s = %s",
		u.table(def.Table),
		u.dialect.QuoteIdentifier(def.PositionField),
		u.dialect.Placeholder(1),
		u.dialect.QuoteIdentifier(def.IDField),
		u.dialect.Placeholder(2),
	)
}
