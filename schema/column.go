package schema

import (
	"fmt"
	"slices"

	"github.com/syssam/tabula/dialect/sql"
)

// Column is an immutable column definition owned by a Table. Changing the
// type or bindings of a column replaces it in its table.
type Column struct {
	table    *Table
	name     string
	typ      Type
	bindings []Binding // bindings[0] is the primary binding.
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the storage type of the column.
func (c *Column) Type() Type { return c.typ }

// Table returns the owning table.
func (c *Column) Table() *Table { return c.table }

// Binding returns the primary binding, or nil for an unbound column.
func (c *Column) Binding() Binding {
	if len(c.bindings) == 0 {
		return nil
	}
	return c.bindings[0]
}

// ExtraBindings returns the bindings added after the primary one.
func (c *Column) ExtraBindings() []Binding {
	if len(c.bindings) < 2 {
		return nil
	}
	return slices.Clone(c.bindings[1:])
}

// Bindings returns the primary and extra bindings in order.
func (c *Column) Bindings() []Binding { return slices.Clone(c.bindings) }

// ReferenceTable returns the table referenced by the primary binding.
func (c *Column) ReferenceTable() (Interface, bool) {
	rb, ok := c.Binding().(ReferenceBinding)
	if !ok {
		return nil, false
	}
	return rb.Table, true
}

// Ref returns the column qualified by its table reference, for use in
// predicates and ordering.
func (c *Column) Ref() sql.ColumnRef {
	return c.table.TableRef().Column(c.name)
}

// Label returns the result label the column is selected under.
func (c *Column) Label() string { return c.Ref().Label() }

// Read returns the decoded value of c in row. ok is false for NULL.
// A row without the column's label is an error.
func (c *Column) Read(row sql.Row) (v any, ok bool, err error) {
	raw, found := row.Value(c.Label())
	if !found {
		return nil, false, fmt.Errorf("label %q not in row", c.Label())
	}
	if raw == nil {
		return nil, false, nil
	}
	if v, err = c.typ.Decode(raw); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (c *Column) String() string { return c.table.Ref() + "." + c.name }

// clone returns a copy of c owned by t.
func (c *Column) clone(t *Table) *Column {
	return &Column{table: t, name: c.name, typ: c.typ, bindings: slices.Clone(c.bindings)}
}

// withBinding returns a copy of c with b appended to its bindings.
func (c *Column) withBinding(b Binding) *Column {
	nc := c.clone(c.table)
	nc.bindings = append(nc.bindings, b)
	return nc
}

// withType returns a copy of c with typ as storage type.
func (c *Column) withType(typ Type) *Column {
	nc := c.clone(c.table)
	nc.typ = typ
	return nc
}
