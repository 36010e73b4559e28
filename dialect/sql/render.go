package sql

import (
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"

	"github.com/syssam/tabula/dialect"
)

// Render returns the SQL text and arguments of s for the given dialect.
func Render(s Select, dialectName string) (string, []any, error) {
	b, err := builder(s)
	if err != nil {
		return "", nil, err
	}
	return b.PlaceholderFormat(placeholder(dialectName)).ToSql()
}

// placeholder returns the bind-parameter style of a dialect.
func placeholder(dialectName string) sq.PlaceholderFormat {
	if dialectName == dialect.Postgres {
		return sq.Dollar
	}
	return sq.Question
}

// builder translates s into a squirrel select using "?" placeholders.
func builder(s Select) (sq.SelectBuilder, error) {
	if len(s.Columns) == 0 {
		return sq.SelectBuilder{}, fmt.Errorf("dialect/sql: select from %q has no columns", s.From.Ref())
	}
	columns := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		columns[i] = c.String()
	}
	b := sq.Select(columns...)
	if s.Sub != nil {
		sub, err := builder(*s.Sub)
		if err != nil {
			return sq.SelectBuilder{}, err
		}
		b = b.FromSelect(sub, s.From.Ref())
	} else {
		b = b.From(s.From.String())
	}
	for _, j := range s.Joins {
		on, args, err := j.On.ToSql()
		if err != nil {
			return sq.SelectBuilder{}, fmt.Errorf("dialect/sql: join %q: %w", j.Table.Ref(), err)
		}
		b = b.LeftJoin(j.Table.String()+" ON "+on, args...)
	}
	if s.Where != nil {
		b = b.Where(s.Where)
	}
	for _, o := range s.OrderBy {
		b = b.OrderBy(o.String())
	}
	switch {
	case s.Limit != NoLimit:
		b = b.Limit(uint64(max(s.Limit, 0)))
	case s.Offset > 0:
		// SQLite and MySQL accept OFFSET only together with LIMIT.
		b = b.Limit(math.MaxInt64)
	}
	if s.Offset > 0 {
		b = b.Offset(uint64(s.Offset))
	}
	return b, nil
}
