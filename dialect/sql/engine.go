package sql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syssam/tabula/dialect"
)

// Engine executes abstract selects against a driver.
type Engine struct {
	drv     dialect.ExecQuerier
	dialect string
	log     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for statement diagnostics.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithDialect overrides the dialect reported by the driver.
func WithDialect(name string) EngineOption {
	return func(e *Engine) {
		e.dialect = name
	}
}

// NewEngine returns an Engine running statements on drv.
//
// Example:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//	    return err
//	}
//	engine := sql.NewEngine(drv, sql.WithLogger(slog.Default()))
func NewEngine(drv dialect.Driver, opts ...EngineOption) *Engine {
	e := &Engine{
		drv:     drv,
		dialect: drv.Dialect(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dialect returns the dialect statements are rendered for.
func (e *Engine) Dialect() string { return e.dialect }

// SQL renders s for diagnostics and execution.
func (e *Engine) SQL(s Select) (string, []any, error) {
	return Render(s, e.dialect)
}

// Query renders and runs s. The caller must close the returned iterator,
// or drain it with Next.
func (e *Engine) Query(ctx context.Context, s Select) (*RowIterator, error) {
	query, args, err := e.SQL(s)
	if err != nil {
		return nil, err
	}
	e.log.DebugContext(ctx, "executing query", "sql", query, "args", args)
	rows := &Rows{}
	if err := e.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	return NewRowIterator(rows)
}

// QueryValue runs s, which must select a single column, and returns the
// value of its first row. ok is false when the query returned no row.
func (e *Engine) QueryValue(ctx context.Context, s Select) (v any, ok bool, err error) {
	it, err := e.Query(ctx, s)
	if err != nil {
		return nil, false, err
	}
	defer it.Close()
	if !it.Next() {
		return nil, false, it.Err()
	}
	row := it.Row()
	if row.Len() != 1 {
		return nil, false, fmt.Errorf("dialect/sql: expected a single column, got %d", row.Len())
	}
	return row.values[0], true, nil
}
