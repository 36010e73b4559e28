package sequence

import (
	"context"
	"fmt"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
)

// Engine runs selects. It is implemented by *sql.Engine.
type Engine interface {
	Query(ctx context.Context, s sql.Select) (*sql.RowIterator, error)
	SQL(s sql.Select) (string, []any, error)
}

var _ Engine = (*sql.Engine)(nil)

// Sequence is an immutable query over the entities of a table. Every
// builder method returns a new Sequence and leaves the receiver untouched;
// SQL only runs when a terminal operation enumerates the sequence, and
// every enumeration runs it again.
type Sequence[E any] struct {
	mapper         schema.Mapper[E]
	engine         Engine
	expr           sql.Select
	withReferences bool
}

// Option configures a Sequence created by Of.
type Option func(*options)

type options struct {
	withReferences bool
}

// WithoutReferences makes the sequence select only the columns of its
// table. Reference-bound properties then hold only the primary key.
func WithoutReferences() Option {
	return func(o *options) {
		o.withReferences = false
	}
}

// Of returns the sequence of all entities of mapper. By default referenced
// tables are joined and their entities materialized.
//
//	employees, err := sequence.Of(engine, employeesTable)
//	if err != nil {
//	    return err
//	}
//	n, err := employees.Filter(salary.GT(1000)).Count(ctx)
func Of[E any](engine Engine, mapper schema.Mapper[E], opts ...Option) (Sequence[E], error) {
	o := options{withReferences: true}
	for _, opt := range opts {
		opt(&o)
	}
	expr, err := mapper.Schema().Select(o.withReferences)
	if err != nil {
		return Sequence[E]{}, err
	}
	return Sequence[E]{
		mapper:         mapper,
		engine:         engine,
		expr:           expr,
		withReferences: o.withReferences,
	}, nil
}

// Table returns the table the sequence materializes entities of.
func (s Sequence[E]) Table() schema.Mapper[E] { return s.mapper }

// Expression returns the select the sequence runs.
func (s Sequence[E]) Expression() sql.Select { return s.expr }

// WithReferences reports whether referenced tables are joined.
func (s Sequence[E]) WithReferences() bool { return s.withReferences }

// SQL returns the rendered query and its arguments.
func (s Sequence[E]) SQL() (string, []any, error) {
	return s.engine.SQL(s.expr)
}

// Filter returns the sequence of entities also matching p.
func (s Sequence[E]) Filter(p sql.Predicate) Sequence[E] {
	s.expr = s.expr.WithWhere(sql.And(s.expr.Where, p))
	return s
}

// FilterNot returns the sequence of entities not matching p.
func (s Sequence[E]) FilterNot(p sql.Predicate) Sequence[E] {
	return s.Filter(sql.Not(p))
}

// Drop returns the sequence without its first n entities. The offset is
// replaced, not added to. Drop is a no-op for n <= 0.
func (s Sequence[E]) Drop(n int) Sequence[E] {
	if n <= 0 {
		return s
	}
	s.expr = s.expr.WithOffset(n)
	return s
}

// Take returns the sequence of at most n entities. The limit is replaced;
// a negative n is taken as zero.
func (s Sequence[E]) Take(n int) Sequence[E] {
	s.expr = s.expr.WithLimit(max(n, 0))
	return s
}

// SortedBy returns the sequence ordered by the given columns, after any
// ordering already in place.
func (s Sequence[E]) SortedBy(columns ...sql.ColumnRef) Sequence[E] {
	for _, c := range columns {
		s.expr = s.expr.WithOrder(sql.Order{Column: c})
	}
	return s
}

// SortedByDescending is like SortedBy with descending order.
func (s Sequence[E]) SortedByDescending(columns ...sql.ColumnRef) Sequence[E] {
	for _, c := range columns {
		s.expr = s.expr.WithOrder(sql.Order{Column: c, Desc: true})
	}
	return s
}

func (s Sequence[E]) tableName() string {
	return s.mapper.Schema().Ref()
}

// Count returns the number of entities in the sequence, optionally also
// matching ps. A limit or an offset is kept, so Count counts within the
// current page. An engine returning no row for the count is an error.
func (s Sequence[E]) Count(ctx context.Context, ps ...sql.Predicate) (int, error) {
	if len(ps) > 0 {
		s = s.Filter(sql.And(ps...))
	}
	v, err := s.aggregate(ctx, "count", sql.CountAll(), true)
	if err != nil {
		return 0, err
	}
	n, err := schema.Int.Decode(v)
	if err != nil {
		return 0, tabula.NewQueryError(s.tableName(), "count", err)
	}
	return n.(int), nil
}

// Any reports whether the sequence has entities, optionally matching ps.
func (s Sequence[E]) Any(ctx context.Context, ps ...sql.Predicate) (bool, error) {
	n, err := s.Count(ctx, ps...)
	return n > 0, err
}

// None reports whether the sequence has no entities, optionally matching ps.
func (s Sequence[E]) None(ctx context.Context, ps ...sql.Predicate) (bool, error) {
	n, err := s.Count(ctx, ps...)
	return err == nil && n == 0, err
}

// All reports whether every entity of the sequence matches p.
func (s Sequence[E]) All(ctx context.Context, p sql.Predicate) (bool, error) {
	return s.None(ctx, sql.Not(p))
}

// Aggregate runs agg over the sequence and returns its value, nil for a
// NULL result such as the max of an empty sequence.
//
//	maxSalary, err := employees.Aggregate(ctx, sql.Max(salary.Ref()))
func (s Sequence[E]) Aggregate(ctx context.Context, agg sql.Aggregation) (any, error) {
	return s.aggregate(ctx, "aggregate", agg, false)
}

func (s Sequence[E]) aggregate(ctx context.Context, op string, agg sql.Aggregation, required bool) (any, error) {
	expr := s.expr.Aggregate(agg)
	rows, err := s.engine.Query(ctx, expr)
	if err != nil {
		return nil, tabula.NewQueryError(s.tableName(), op, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, tabula.NewQueryError(s.tableName(), op, err)
		}
		if !required {
			return nil, nil
		}
		query, _, _ := s.engine.SQL(expr)
		return nil, tabula.NewEmptyResultError(s.tableName(), query)
	}
	v, ok := rows.Row().Value(sql.AggregateLabel)
	if !ok {
		return nil, tabula.NewQueryError(s.tableName(), op, fmt.Errorf("result has no %q column", sql.AggregateLabel))
	}
	if v == nil && required {
		return nil, tabula.NewQueryError(s.tableName(), op, fmt.Errorf("%s returned NULL", agg.Func))
	}
	return v, nil
}

// Iterator runs the query and returns an iterator over its entities.
// The iterator must be closed unless it is drained.
func (s Sequence[E]) Iterator(ctx context.Context) (*Iterator[E], error) {
	rows, err := s.engine.Query(ctx, s.expr)
	if err != nil {
		return nil, tabula.NewQueryError(s.tableName(), "select", err)
	}
	return &Iterator[E]{
		rows:           rows,
		mapper:         s.mapper,
		withReferences: s.withReferences,
		table:          s.tableName(),
	}, nil
}
