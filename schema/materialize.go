package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect/sql"
)

// Materialize builds the entity of row by walking the bindings of every
// column in order. NULL values leave their property unset.
//
// With references, a reference-bound property receives the entity of the
// referenced table when the row carries its primary key, i.e. the table was
// joined. Otherwise the referencing column is set at the primary key path
// under the property, merging with any group earlier bindings filled.
func (t *Table) Materialize(row sql.Row, withReferences bool) (*Entity, error) {
	e := NewEntity(t.name)
	for _, c := range t.columns {
		for _, b := range c.bindings {
			var err error
			switch b := b.(type) {
			case NestedBinding:
				err = t.retrieveNested(row, c, b, e)
			case ReferenceBinding:
				err = t.retrieveReference(row, c, b, e, withReferences)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	if t.log != nil && t.log.Enabled(context.Background(), LevelTrace) {
		t.log.Log(context.Background(), LevelTrace, "entity materialized",
			"table", t.Ref(), "properties", e.Len(), "references", withReferences)
	}
	return e, nil
}

func (t *Table) retrieveNested(row sql.Row, c *Column, b NestedBinding, e *Entity) error {
	v, ok, err := c.Read(row)
	if err != nil {
		return tabula.NewMaterializationError(t.name, c.name, err)
	}
	if ok {
		e.Set(b.Path, v)
	}
	return nil
}

func (t *Table) retrieveReference(row sql.Row, c *Column, b ReferenceBinding, e *Entity, withReferences bool) error {
	ref := b.Table.Schema()
	pk := ref.PrimaryKey()
	if pk == nil {
		return tabula.NewMaterializationError(t.name, c.name,
			fmt.Errorf("referenced table %s has no primary key", ref.Ref()))
	}
	if withReferences && row.Has(pk.Label()) {
		child, err := ref.Materialize(row, true)
		if err != nil {
			return err
		}
		// All referenced columns are NULL when the join found no row.
		if child.Len() > 0 {
			e.Set([]string{b.Property}, child)
		}
		return nil
	}
	v, ok, err := c.Read(row)
	if err != nil {
		return tabula.NewMaterializationError(t.name, c.name, err)
	}
	if !ok {
		return nil
	}
	path, err := primaryKeyPath(pk)
	if err != nil {
		return tabula.NewMaterializationError(t.name, c.name, err)
	}
	if _, ok := e.Entity(b.Property); !ok {
		e.Set([]string{b.Property}, NewEntity(ref.name))
	}
	e.Set(b.path(path...), v)
	return nil
}

// primaryKeyPath returns the property path the primary key is bound to.
func primaryKeyPath(pk *Column) ([]string, error) {
	switch b := pk.Binding().(type) {
	case NestedBinding:
		return b.Path, nil
	case nil:
		return nil, errors.New("primary key " + pk.String() + " is not bound")
	default:
		return nil, fmt.Errorf("primary key %s is bound to a reference", pk)
	}
}
