package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUndefinedTableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq", &pq.Error{Code: "42P01"}, true},
		{"pq_column", &pq.Error{Code: "42703"}, false},
		{"pgx", fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01"}), true},
		{"mysql", &mysql.MySQLError{Number: 1146, Message: "Table 'db.x' doesn't exist"}, true},
		{"mysql_other", &mysql.MySQLError{Number: 1062}, false},
		{"sqlite", errors.New("SQL logic error: no such table: employees (1)"), true},
		{"postgres_string", errors.New(`relation "employees" does not exist`), true},
		{"postgres_column_string", errors.New(`column "x" does not exist`), false},
		{"other", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUndefinedTableError(tt.err))
		})
	}
}

func TestIsUndefinedColumnError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq", &pq.Error{Code: "42703"}, true},
		{"pgx", &pgconn.PgError{Code: "42703"}, true},
		{"pgx_table", &pgconn.PgError{Code: "42P01"}, false},
		{"mysql", &mysql.MySQLError{Number: 1054}, true},
		{"sqlite", errors.New("no such column: employees.salary"), true},
		{"mysql_string", errors.New("Error 1054: Unknown column 'salary'"), true},
		{"other", errors.New("deadlock"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUndefinedColumnError(tt.err))
		})
	}
}
