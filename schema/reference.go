package schema

import (
	"fmt"
	"slices"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect/sql"
)

// refAlias returns the alias of the n-th reference copy of a table.
func refAlias(n int) string { return fmt.Sprintf("_ref%d", n) }

// checkCircularReference walks the reference bindings reachable from ref
// and fails if the name of t shows up on the way. path holds the table
// names visited so far.
func (t *Table) checkCircularReference(ref *Table, path []string) error {
	path = append(path, ref.name)
	if ref.name == t.name {
		return tabula.NewCircularReferenceError(t.name, path)
	}
	for _, c := range ref.columns {
		for _, b := range c.bindings {
			if rb, ok := b.(ReferenceBinding); ok {
				if err := t.checkCircularReference(rb.Table.Schema(), path); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// copyReference returns a copy of ref aliased "_ref<next>". The copy made by
// Alias already holds fresh copies of its reference targets, so they are only
// renamed from the same counter, keeping aliases unique within the tree of
// the table owning the counter. The advanced counter is returned.
func copyReference(ref Interface, next int) (Interface, int, error) {
	a, ok := ref.(Aliaser)
	if !ok {
		return nil, next, tabula.NewUnsupportedAliasError(ref.Schema().Name())
	}
	cp, err := a.Alias(refAlias(next))
	if err != nil {
		return nil, next, err
	}
	return cp, cp.Schema().renameReferences(next + 1), nil
}

// renameReferences aliases the reference copies below t in column order,
// depth first, starting from next.
func (t *Table) renameReferences(next int) int {
	_ = t.references(func(_ *Column, rb ReferenceBinding) error {
		s := rb.Table.Schema()
		s.alias = refAlias(next)
		next = s.renameReferences(next + 1)
		return nil
	})
	return next
}

// copyColumns returns copies of cols owned by t, with every reference
// target replaced by a fresh copy drawn from next.
func (t *Table) copyColumns(cols []*Column, next int) ([]*Column, int, error) {
	copies := make([]*Column, len(cols))
	for i, c := range cols {
		nc := c.clone(t)
		for j, b := range nc.bindings {
			rb, ok := b.(ReferenceBinding)
			if !ok {
				continue
			}
			var (
				cp  Interface
				err error
			)
			if cp, next, err = copyReference(rb.Table, next); err != nil {
				return nil, next, err
			}
			nc.bindings[j] = ReferenceBinding{Table: cp, Property: rb.Property}
		}
		copies[i] = nc
	}
	return copies, next, nil
}

// rewriteDefinitions replaces the column set and primary key of t.
func (t *Table) rewriteDefinitions(cols []*Column, primaryKey string) {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c.name] = i
	}
	t.columns = cols
	t.index = index
	t.primaryKey = primaryKey
}

// CopyDefinitionsFrom replaces the columns and primary key of t with deep
// copies of those of src. Reference targets are copied again under fresh
// aliases numbered from zero. Table variants implement Aliaser with it:
//
//	func (d *Departments) Alias(alias string) (schema.Interface, error) {
//	    cp := NewDepartments(schema.WithAlias(alias))
//	    return cp, cp.CopyDefinitionsFrom(d.Table)
//	}
func (t *Table) CopyDefinitionsFrom(src *Table) error {
	cols, next, err := t.copyColumns(src.columns, 0)
	if err != nil {
		return err
	}
	t.rewriteDefinitions(cols, src.primaryKey)
	t.refCounter = next
	return nil
}

// Referenced returns the copy of the table referenced by the primary
// binding of the named column.
func (t *Table) Referenced(column string) (Interface, error) {
	c, err := t.Lookup(column)
	if err != nil {
		return nil, err
	}
	ref, ok := c.ReferenceTable()
	if !ok {
		return nil, fmt.Errorf("schema: column %s is not a reference", c)
	}
	return ref, nil
}

// references calls fn for every reference binding of t in column order.
func (t *Table) references(fn func(c *Column, rb ReferenceBinding) error) error {
	for _, c := range t.columns {
		for _, b := range c.bindings {
			if rb, ok := b.(ReferenceBinding); ok {
				if err := fn(c, rb); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Joins returns the LEFT JOINs of every table reachable through reference
// bindings, parents before children.
func (t *Table) Joins() ([]sql.Join, error) {
	var joins []sql.Join
	err := t.references(func(c *Column, rb ReferenceBinding) error {
		ref := rb.Table.Schema()
		pk := ref.PrimaryKey()
		if pk == nil {
			return fmt.Errorf("schema: referenced table %s of %s has no primary key", ref.Ref(), c)
		}
		joins = append(joins, sql.Join{Table: ref.TableRef(), On: sql.ColumnsEQ(pk.Ref(), c.Ref())})
		sub, err := ref.Joins()
		if err != nil {
			return err
		}
		joins = append(joins, sub...)
		return nil
	})
	return joins, err
}

// Selections returns the selections of every column of t and, when
// withReferences is set, of every referenced table.
func (t *Table) Selections(withReferences bool) []sql.Selection {
	sel := make([]sql.Selection, 0, len(t.columns))
	for _, c := range t.columns {
		sel = append(sel, c.Ref().Select())
	}
	if withReferences {
		_ = t.references(func(_ *Column, rb ReferenceBinding) error {
			sel = append(sel, rb.Table.Schema().Selections(true)...)
			return nil
		})
	}
	return slices.Clip(sel)
}

// Select returns the select of all entities of t. With references, the
// referenced tables are joined and selected as well.
func (t *Table) Select(withReferences bool) (sql.Select, error) {
	s := sql.NewSelect(t.TableRef(), t.Selections(withReferences)...)
	if !withReferences {
		return s, nil
	}
	joins, err := t.Joins()
	if err != nil {
		return sql.Select{}, err
	}
	for _, j := range joins {
		s = s.WithJoin(j)
	}
	return s, nil
}
