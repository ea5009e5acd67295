package position

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	// RowUpdateErrorKey is the translatable message recorded for a failed row write
	RowUpdateErrorKey = "Could not update #%i"
	// DefaultErrorDomain is the translation domain of RowUpdateErrorKey
	DefaultErrorDomain = "Admin.Catalog.Notification"
)

// ErrConnectivity marks a position update aborted because the storage
// connection became unusable. The transaction was rolled back.
var ErrConnectivity = errors.New("storage connection lost")

// ErrInvalidRequest is returned before any storage access for a nil request
// or an incomplete definition
var ErrInvalidRequest = errors.New("invalid position request")

// FieldError is a user-displayable failure for one row.
type FieldError struct {
	Key        string `json:"key"`
	Domain     string `json:"domain"`
	Parameters []any  `json:"parameters"`
}

func newRowError(domain string, rowID int64) FieldError {
	return FieldError{
		Key:        RowUpdateErrorKey,
		Domain:     domain,
		Parameters: []any{rowID},
	}
}

// Message renders Key with its parameters substituted in order
func (e FieldError) Message() string {
	msg := e.Key
	for _, p := range e.Parameters {
		var value string
		switch v := p.(type) {
		case int64:
			value = strconv.FormatInt(v, 10)
		case int:
			value = strconv.Itoa(v)
		case string:
			value = v
		default:
			continue
		}
		msg = strings.Replace(msg, "%i", value, 1)
	}
	return msg
}

// Error implements error
func (e FieldError) Error() string {
	return e.Message()
}

// IsConnectivityError reports whether err means the connection itself
// is unusable, as opposed to a single statement failing.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	// context.DeadlineExceeded satisfies net.Error
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrConnectivity) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	// SQLSTATE class 08: connection exception
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return false
}
