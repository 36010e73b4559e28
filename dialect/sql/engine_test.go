package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula/dialect"
)

func newMockEngine(t *testing.T, name string, opts ...EngineOption) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEngine(OpenDB(name, db), opts...), mock
}

func TestEngineQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine, mock := newMockEngine(t, dialect.Postgres, WithLogger(logger))

	sel := employeeSelect().WithWhere(employees.Column("id").GT(1))
	mock.ExpectQuery("SELECT employees.id AS employees__id, employees.name AS employees__name FROM employees WHERE employees.id > $1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"employees__id", "employees__name"}).
			AddRow(int64(2), "Bob").
			AddRow(int64(3), nil))

	it, err := engine.Query(context.Background(), sel)
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	v, ok := it.Row().Value("employees__name")
	assert.True(t, ok)
	assert.Equal(t, "Bob", v)

	require.True(t, it.Next())
	v, ok = it.Row().Value("employees__name")
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.False(t, it.Row().Has("employees__salary"))

	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
	assert.NoError(t, it.Close())
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, buf.String(), "executing query")
	assert.Equal(t, dialect.Postgres, engine.Dialect())
}

func TestEngineQueryError(t *testing.T) {
	engine, mock := newMockEngine(t, dialect.SQLite)
	mock.ExpectQuery("SELECT employees.id AS employees__id, employees.name AS employees__name FROM employees").
		WillReturnError(errors.New("no such table: employees"))

	_, err := engine.Query(context.Background(), employeeSelect())
	require.Error(t, err)
	assert.True(t, IsUndefinedTableError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngineRowError(t *testing.T) {
	engine, mock := newMockEngine(t, dialect.SQLite)
	mock.ExpectQuery("SELECT employees.id AS employees__id, employees.name AS employees__name FROM employees").
		WillReturnRows(sqlmock.NewRows([]string{"employees__id", "employees__name"}).
			AddRow(int64(1), "Alice").
			RowError(0, errors.New("connection reset")))

	it, err := engine.Query(context.Background(), employeeSelect())
	require.NoError(t, err)
	assert.False(t, it.Next())
	assert.ErrorContains(t, it.Err(), "connection reset")
	assert.NoError(t, it.Close())
}

func TestEngineQueryValue(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		engine, mock := newMockEngine(t, dialect.MySQL)
		mock.ExpectQuery("SELECT count(*) AS agg FROM employees").
			WillReturnRows(sqlmock.NewRows([]string{"agg"}).AddRow(int64(7)))

		v, ok, err := engine.QueryValue(context.Background(), employeeSelect().Count())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(7), v)
	})
	t.Run("no_rows", func(t *testing.T) {
		engine, mock := newMockEngine(t, dialect.MySQL)
		mock.ExpectQuery("SELECT count(*) AS agg FROM employees").
			WillReturnRows(sqlmock.NewRows([]string{"agg"}))

		_, ok, err := engine.QueryValue(context.Background(), employeeSelect().Count())
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("many_columns", func(t *testing.T) {
		engine, mock := newMockEngine(t, dialect.MySQL)
		mock.ExpectQuery("SELECT employees.id AS employees__id, employees.name AS employees__name FROM employees").
			WillReturnRows(sqlmock.NewRows([]string{"employees__id", "employees__name"}).AddRow(int64(1), "Alice"))

		_, _, err := engine.QueryValue(context.Background(), employeeSelect())
		require.ErrorContains(t, err, "single column")
	})
}

func TestEngineWithDialect(t *testing.T) {
	engine, _ := newMockEngine(t, "sqlite3", WithDialect(dialect.Postgres))
	query, args, err := engine.SQL(employeeSelect().WithWhere(employees.Column("id").EQ(1)))
	require.NoError(t, err)
	assert.Equal(t, "SELECT employees.id AS employees__id, employees.name AS employees__name FROM employees WHERE employees.id = $1", query)
	assert.Equal(t, []any{1}, args)
}

func TestRowLookup(t *testing.T) {
	row := NewRow([]string{"employees__id", "employees__name"}, []any{int64(1), []byte("Alice")})
	assert.Equal(t, 2, row.Len())

	// Upper-case lookups fall back to the folded label.
	v, ok := row.Value("Employees__ID")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	_, ok = row.Value("missing")
	assert.False(t, ok)

	m := RowOf(map[string]any{"a": 1, "b": nil})
	assert.True(t, m.Has("a"))
	assert.True(t, m.Has("b"))
	assert.False(t, m.Has("c"))
}
