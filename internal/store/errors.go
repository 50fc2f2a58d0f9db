package store

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a lookup an operation depends on
	// matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrMissingID is returned when an update is attempted on a record
	// that was never persisted.
	ErrMissingID = errors.New("record id is required")
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally for a specific named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
