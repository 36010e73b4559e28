package sequence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
	"github.com/syssam/tabula/sequence"
)

const selectEmployees = "SELECT employees.id AS employees__id, employees.name AS employees__name FROM employees"

func mockSequence(t *testing.T) (sequence.Sequence[*schema.Entity], *schema.Dynamic, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	tbl := schema.NewDynamic("employees")
	tbl.Column("id", schema.Int).PrimaryKey().BindTo("id")
	tbl.Column("name", schema.String).BindTo("name")
	require.NoError(t, tbl.Err())

	s, err := sequence.Of(sql.NewEngine(sql.OpenDB(dialect.SQLite, db)), tbl)
	require.NoError(t, err)
	return s, tbl, mock
}

func employeeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"employees__id", "employees__name"}).
		AddRow(int64(1), "Alice").
		AddRow(int64(2), "Bob")
}

func names(t *testing.T, es []*schema.Entity) []string {
	t.Helper()
	out := make([]string, len(es))
	for i, e := range es {
		v, _ := e.Get("name")
		out[i], _ = v.(string)
	}
	return out
}

func TestSequenceIsImmutable(t *testing.T) {
	s, tbl, mock := mockSequence(t)
	id := tbl.MustLookup("id").Ref()
	name := sql.Field[string]{ColumnRef: tbl.MustLookup("name").Ref()}

	mock.ExpectQuery(selectEmployees).WillReturnRows(employeeRows())
	before, err := s.ToSlice(context.Background())
	require.NoError(t, err)

	filtered := s.Filter(id.GT(1)).Filter(name.EQ("Bob"))
	query, args, err := filtered.SQL()
	require.NoError(t, err)
	assert.Equal(t, selectEmployees+" WHERE (employees.id > ? AND employees.name = ?)", query)
	assert.Equal(t, []any{1, "Bob"}, args)

	// Iterating s again runs the same query and yields the same elements.
	query, _, err = s.SQL()
	require.NoError(t, err)
	assert.Equal(t, selectEmployees, query)
	mock.ExpectQuery(selectEmployees).WillReturnRows(employeeRows())
	after, err := s.ToSlice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, names(t, before), names(t, after))
	assert.Equal(t, []string{"Alice", "Bob"}, names(t, after))
}

func TestSequencePaging(t *testing.T) {
	s, tbl, _ := mockSequence(t)

	paged := s.Take(5).Drop(2)
	assert.Equal(t, 5, paged.Expression().Limit)
	assert.Equal(t, 2, paged.Expression().Offset)
	assert.Equal(t, sql.NoLimit, s.Expression().Limit)
	assert.Zero(t, s.Expression().Offset)

	// Offsets and limits are replaced, not accumulated.
	assert.Equal(t, 3, paged.Drop(3).Expression().Offset)
	assert.Equal(t, 7, paged.Take(7).Expression().Limit)
	assert.Equal(t, paged, paged.Drop(0))
	assert.Equal(t, paged, paged.Drop(-1))
	assert.Equal(t, 0, s.Take(-3).Expression().Limit)

	sorted := s.SortedBy(tbl.MustLookup("name").Ref()).SortedByDescending(tbl.MustLookup("id").Ref())
	query, _, err := sorted.Take(5).Drop(2).SQL()
	require.NoError(t, err)
	assert.Equal(t, selectEmployees+" ORDER BY employees.name, employees.id DESC LIMIT 5 OFFSET 2", query)
	assert.Empty(t, s.Expression().OrderBy)
}

func TestSequenceFilterNot(t *testing.T) {
	s, tbl, _ := mockSequence(t)
	query, args, err := s.FilterNot(tbl.MustLookup("id").Ref().GT(1)).SQL()
	require.NoError(t, err)
	assert.Equal(t, selectEmployees+" WHERE NOT (employees.id > ?)", query)
	assert.Equal(t, []any{1}, args)
}

func TestSequenceCount(t *testing.T) {
	t.Run("filtered", func(t *testing.T) {
		s, tbl, mock := mockSequence(t)
		mock.ExpectQuery("SELECT count(*) AS agg FROM employees WHERE employees.id > ?").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"agg"}).AddRow(int64(1)))
		n, err := s.Count(context.Background(), tbl.MustLookup("id").Ref().GT(1))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("paged", func(t *testing.T) {
		s, _, mock := mockSequence(t)
		mock.ExpectQuery("SELECT count(*) AS agg FROM (" + selectEmployees + " LIMIT 5 OFFSET 2) AS paged").
			WillReturnRows(sqlmock.NewRows([]string{"agg"}).AddRow(int64(0)))
		n, err := s.Take(5).Drop(2).Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("any_none_all", func(t *testing.T) {
		s, tbl, mock := mockSequence(t)
		id := tbl.MustLookup("id").Ref()
		mock.ExpectQuery("SELECT count(*) AS agg FROM employees").
			WillReturnRows(sqlmock.NewRows([]string{"agg"}).AddRow(int64(2)))
		mock.ExpectQuery("SELECT count(*) AS agg FROM employees WHERE employees.id = ?").
			WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"agg"}).AddRow(int64(0)))
		mock.ExpectQuery("SELECT count(*) AS agg FROM employees WHERE NOT (employees.id > ?)").
			WithArgs(0).
			WillReturnRows(sqlmock.NewRows([]string{"agg"}).AddRow(int64(0)))

		ok, err := s.Any(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.None(context.Background(), id.EQ(9))
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.All(context.Background(), id.GT(0))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no_row", func(t *testing.T) {
		s, _, mock := mockSequence(t)
		mock.ExpectQuery("SELECT count(*) AS agg FROM employees").
			WillReturnRows(sqlmock.NewRows([]string{"agg"}))
		_, err := s.Count(context.Background())
		require.ErrorIs(t, err, tabula.ErrEmptyResult)
		var eErr *tabula.EmptyResultError
		require.ErrorAs(t, err, &eErr)
		assert.Equal(t, "employees", eErr.Table)
		assert.Equal(t, "SELECT count(*) AS agg FROM employees", eErr.SQL)
	})

	t.Run("query_error", func(t *testing.T) {
		s, _, mock := mockSequence(t)
		mock.ExpectQuery("SELECT count(*) AS agg FROM employees").
			WillReturnError(errors.New("no such table: employees"))
		_, err := s.Count(context.Background())
		require.True(t, tabula.IsQueryError(err))
		assert.True(t, sql.IsUndefinedTableError(err))
	})
}

func TestIterator(t *testing.T) {
	s, _, mock := mockSequence(t)
	mock.ExpectQuery(selectEmployees).WillReturnRows(employeeRows())

	it, err := s.Iterator(context.Background())
	require.NoError(t, err)
	defer it.Close()

	// HasNext does not consume rows.
	assert.True(t, it.HasNext())
	assert.True(t, it.HasNext())
	e, err := it.Next()
	require.NoError(t, err)
	id, _ := e.Get("id")
	assert.Equal(t, 1, id)

	assert.True(t, it.HasNext())
	e, err = it.Next()
	require.NoError(t, err)
	id, _ = e.Get("id")
	assert.Equal(t, 2, id)

	assert.False(t, it.HasNext())
	_, err = it.Next()
	require.ErrorIs(t, err, sequence.ErrIteratorDone)
	assert.NoError(t, it.Err())
	assert.NoError(t, it.Close())
}

func TestIteratorErrors(t *testing.T) {
	t.Run("materialization", func(t *testing.T) {
		s, _, mock := mockSequence(t)
		mock.ExpectQuery(selectEmployees).
			WillReturnRows(sqlmock.NewRows([]string{"employees__id", "employees__name"}).AddRow("x", "Alice"))
		var seen int
		var last error
		for _, err := range s.Seq(context.Background()) {
			seen++
			last = err
		}
		assert.Equal(t, 1, seen)
		require.ErrorIs(t, last, tabula.ErrMaterialization)
	})

	t.Run("rows", func(t *testing.T) {
		s, _, mock := mockSequence(t)
		mock.ExpectQuery(selectEmployees).
			WillReturnRows(employeeRows().RowError(1, errors.New("connection reset")))
		_, err := s.ToSlice(context.Background())
		require.True(t, tabula.IsQueryError(err))
		assert.ErrorContains(t, err, "connection reset")
	})

	t.Run("query", func(t *testing.T) {
		s, _, mock := mockSequence(t)
		mock.ExpectQuery(selectEmployees).WillReturnError(errors.New("boom"))
		_, err := s.First(context.Background())
		require.True(t, tabula.IsQueryError(err))
	})
}

func TestSeqBreak(t *testing.T) {
	s, _, mock := mockSequence(t)
	mock.ExpectQuery(selectEmployees).WillReturnRows(employeeRows()).RowsWillBeClosed()
	for e, err := range s.Seq(context.Background()) {
		require.NoError(t, err)
		name, _ := e.Get("name")
		assert.Equal(t, "Alice", name)
		break
	}
}

func TestFirst(t *testing.T) {
	s, tbl, mock := mockSequence(t)
	mock.ExpectQuery(selectEmployees + " WHERE employees.name = ? LIMIT 1").
		WithArgs("Bob").
		WillReturnRows(sqlmock.NewRows([]string{"employees__id", "employees__name"}).AddRow(int64(2), "Bob"))
	mock.ExpectQuery(selectEmployees + " WHERE employees.name = ? LIMIT 1").
		WithArgs("Zed").
		WillReturnRows(sqlmock.NewRows([]string{"employees__id", "employees__name"}))

	name := tbl.MustLookup("name").Ref()
	e, err := s.Find(context.Background(), name.EQ("Bob"))
	require.NoError(t, err)
	id, _ := e.Get("id")
	assert.Equal(t, 2, id)

	_, err = s.Find(context.Background(), name.EQ("Zed"))
	require.True(t, tabula.IsNotFound(err))
	assert.ErrorIs(t, err, tabula.ErrNotFound)
}
