package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes for undefined objects (Class 42).
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// MySQL error numbers for undefined objects.
const (
	mysqlNoSuchTable = 1146
	mysqlBadField    = 1054
)

// IsUndefinedTableError reports if the error resulted from a query against a
// table that does not exist.
func IsUndefinedTableError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqlState(err); ok {
		return code == pgUndefinedTable
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return e.Number == mysqlNoSuchTable
	}
	// Fallback to string matching for drivers without typed errors.
	return containsAny(err.Error(),
		"no such table",  // SQLite
		"does not exist", // Postgres (string fallback)
	) && !strings.Contains(err.Error(), "column")
}

// IsUndefinedColumnError reports if the error resulted from a query selecting
// or filtering on a column that does not exist.
func IsUndefinedColumnError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqlState(err); ok {
		return code == pgUndefinedColumn
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return e.Number == mysqlBadField
	}
	return containsAny(err.Error(),
		"no such column", // SQLite
		"Unknown column", // MySQL (string fallback)
		"column \"",      // Postgres (string fallback)
	)
}

// sqlState extracts a PostgreSQL SQLSTATE code from pq or pgx errors.
func sqlState(err error) (string, bool) {
	if e, ok := asError[*pq.Error](err); ok {
		return string(e.Code), true
	}
	if e, ok := asError[*pgconn.PgError](err); ok {
		return e.Code, true
	}
	return "", false
}

// asError attempts to extract an error of type T from the error chain.
func asError[T error](err error) (T, bool) {
	var target T
	if errors.As(err, &target) {
		return target, true
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
