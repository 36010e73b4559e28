package schema

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect/sql"
)

// LevelTrace is the slog level materialization is reported at.
const LevelTrace = slog.Level(-8)

// Interface is implemented by every table variant. Schema returns the
// registry backing the variant.
type Interface interface {
	Schema() *Table
}

// Aliaser is implemented by table variants that can be copied under a new
// alias. Only aliasable tables can be the target of a reference binding,
// because every reference stores its own aliased copy of the target. Alias
// must return a new table owning its definitions, see CopyDefinitionsFrom.
type Aliaser interface {
	Interface
	Alias(alias string) (Interface, error)
}

// Mapper is implemented by table variants that build entities of type E.
type Mapper[E any] interface {
	Interface
	CreateEntity(row sql.Row, withReferences bool) (E, error)
}

// Aliased returns the copy of t under alias with the concrete type of t.
func Aliased[T Aliaser](t T, alias string) (T, error) {
	var zero T
	a, err := t.Alias(alias)
	if err != nil {
		return zero, err
	}
	typed, ok := a.(T)
	if !ok {
		return zero, fmt.Errorf("schema: alias of %T returned %T", t, a)
	}
	return typed, nil
}

// Table is the column registry of one logical table. It is built once by
// a single goroutine and is safe for concurrent reads afterwards.
type Table struct {
	name       string
	alias      string
	columns    []*Column
	index      map[string]int
	primaryKey string
	refCounter int
	log        *slog.Logger
	errs       []error
}

// Option configures a Table.
type Option func(*Table)

// WithAlias sets the alias the table is referred to by in queries.
func WithAlias(alias string) Option {
	return func(t *Table) {
		t.alias = alias
	}
}

// WithLogger sets the logger materialization is reported to.
func WithLogger(l *slog.Logger) Option {
	return func(t *Table) {
		t.log = l
	}
}

// NewTable returns an empty table.
func NewTable(name string, opts ...Option) *Table {
	t := &Table{
		name:  name,
		index: make(map[string]int),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Schema implements Interface.
func (t *Table) Schema() *Table { return t }

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Ref returns the alias, or the name for tables without alias.
func (t *Table) Ref() string { return t.TableRef().Ref() }

// TableRef returns the table as it appears in FROM and JOIN clauses.
func (t *Table) TableRef() sql.TableRef {
	return sql.TableRef{Name: t.name, Alias: t.alias}
}

// Logger returns the logger of the table.
func (t *Table) Logger() *slog.Logger { return t.log }

// Columns returns the columns in registration order.
func (t *Table) Columns() []*Column {
	cols := make([]*Column, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Lookup returns the column with the given name.
func (t *Table) Lookup(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, tabula.NewUnknownColumnError(t.name, name)
	}
	return t.columns[i], nil
}

// MustLookup is like Lookup but panics for unknown columns.
func (t *Table) MustLookup(name string) *Column {
	c, err := t.Lookup(name)
	if err != nil {
		panic(err)
	}
	return c
}

// PrimaryKey returns the primary-key column, or nil if none was marked.
func (t *Table) PrimaryKey() *Column {
	if t.primaryKey == "" {
		return nil
	}
	return t.columns[t.index[t.primaryKey]]
}

// RegisterColumn appends an unbound column.
func (t *Table) RegisterColumn(name string, typ Type) (*Column, error) {
	if _, ok := t.index[name]; ok {
		return nil, tabula.NewDuplicateColumnError(t.name, name)
	}
	if err := sql.CheckLabel(t.Ref(), name); err != nil {
		return nil, fmt.Errorf("schema: register %s.%s: %w", t.name, name, err)
	}
	c := &Column{table: t, name: name, typ: typ}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, c)
	return c, nil
}

// MarkPrimaryKey designates the primary-key column. The primary key of a
// table cannot be changed once set.
func (t *Table) MarkPrimaryKey(name string) error {
	if _, err := t.Lookup(name); err != nil {
		return err
	}
	if t.primaryKey != "" {
		return tabula.NewPrimaryKeyAlreadySetError(t.name, t.primaryKey, name)
	}
	t.primaryKey = name
	return nil
}

// Bind attaches b to the named column. The first binding of a column is its
// primary binding, later ones are extra bindings. A reference binding is
// checked for cycles and stores an aliased copy of its target. The table is
// left unchanged on error.
func (t *Table) Bind(name string, b Binding) error {
	c, err := t.Lookup(name)
	if err != nil {
		return err
	}
	if err := t.checkConflict(c, b); err != nil {
		return err
	}
	if rb, ok := b.(ReferenceBinding); ok {
		if err := t.checkCircularReference(rb.Table.Schema(), []string{t.name}); err != nil {
			return err
		}
		cp, next, err := copyReference(rb.Table, t.refCounter)
		if err != nil {
			return err
		}
		t.refCounter = next
		b = ReferenceBinding{Table: cp, Property: rb.Property}
	}
	t.replace(c.withBinding(b))
	return nil
}

// checkConflict scans every binding of every column for one targeting the
// same property as b.
func (t *Table) checkConflict(c *Column, b Binding) error {
	for _, other := range t.columns {
		for _, ob := range other.bindings {
			if ob.Conflicts(b) {
				return tabula.NewConflictingBindingError(t.name, c.name, other.name, b.String())
			}
		}
	}
	return nil
}

// Transform wraps the type of the named column so that decode is applied
// on read and encode on write. Columns must be transformed before they are
// bound.
func (t *Table) Transform(name string, decode, encode func(any) (any, error)) error {
	c, err := t.Lookup(name)
	if err != nil {
		return err
	}
	if len(c.bindings) > 0 {
		return tabula.NewAlreadyBoundError(t.name, name)
	}
	t.replace(c.withType(transformed{base: c.typ, decode: decode, encode: encode}))
	return nil
}

// TransformTo is the typed form of Table.Transform.
//
//	schema.TransformTo(t, "status", func(s string) Status { return Status(s) },
//	    func(s Status) string { return string(s) })
func TransformTo[T, R any](t *Table, name string, decode func(T) R, encode func(R) T) error {
	return t.Transform(name,
		func(v any) (any, error) {
			in, ok := v.(T)
			if !ok {
				return nil, fmt.Errorf("schema: transform %s.%s: unexpected %T", t.name, name, v)
			}
			return decode(in), nil
		},
		func(v any) (any, error) {
			in, ok := v.(R)
			if !ok {
				return nil, fmt.Errorf("schema: transform %s.%s: unexpected %T", t.name, name, v)
			}
			return encode(in), nil
		},
	)
}

// replace swaps the column with the same name, keeping its position.
func (t *Table) replace(c *Column) {
	t.columns[t.index[c.name]] = c
}

// Err returns the errors recorded by the fluent column builders.
func (t *Table) Err() error { return errors.Join(t.errs...) }

func (t *Table) record(err error) {
	if err != nil {
		t.errs = append(t.errs, err)
	}
}

// ColumnBuilder configures a column registered with Table.Column.
// Errors are recorded on the table and reported by Table.Err.
//
//	t := schema.NewDynamic("employees")
//	t.Column("id", schema.Int).PrimaryKey().BindTo("id")
//	t.Column("name", schema.String).BindTo("name")
//	t.Column("department_id", schema.Int).References(departments, "department")
//	if err := t.Err(); err != nil {
//	    return err
//	}
type ColumnBuilder struct {
	t    *Table
	name string
	ok   bool
}

// Column registers a column and returns a builder for it.
func (t *Table) Column(name string, typ Type) *ColumnBuilder {
	_, err := t.RegisterColumn(name, typ)
	t.record(err)
	return &ColumnBuilder{t: t, name: name, ok: err == nil}
}

// PrimaryKey marks the column as primary key.
func (b *ColumnBuilder) PrimaryKey() *ColumnBuilder {
	return b.apply(func() error { return b.t.MarkPrimaryKey(b.name) })
}

// BindTo binds the column to a property path.
func (b *ColumnBuilder) BindTo(path ...string) *ColumnBuilder {
	return b.apply(func() error { return b.t.Bind(b.name, BindTo(path...)) })
}

// References binds the column to the entity of ref at property.
func (b *ColumnBuilder) References(ref Interface, property string) *ColumnBuilder {
	return b.apply(func() error { return b.t.Bind(b.name, References(ref, property)) })
}

// Transform wraps the column type, see Table.Transform.
func (b *ColumnBuilder) Transform(decode, encode func(any) (any, error)) *ColumnBuilder {
	return b.apply(func() error { return b.t.Transform(b.name, decode, encode) })
}

// Column returns the current definition of the column.
func (b *ColumnBuilder) Column() *Column {
	if !b.ok {
		return nil
	}
	return b.t.MustLookup(b.name)
}

// apply runs fn unless the registration of the column failed, in which case
// the name belongs to another column.
func (b *ColumnBuilder) apply(fn func() error) *ColumnBuilder {
	if b.ok {
		b.t.record(fn())
	}
	return b
}
