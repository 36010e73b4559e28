package schema

import "github.com/syssam/tabula/dialect/sql"

// Dynamic is a table variant whose columns are defined at runtime and whose
// entities are plain property trees. It supports aliasing and can be the
// target of reference bindings.
type Dynamic struct {
	*Table
}

// NewDynamic returns an empty dynamic table.
func NewDynamic(name string, opts ...Option) *Dynamic {
	return &Dynamic{Table: NewTable(name, opts...)}
}

// Alias returns a deep copy of d under alias.
func (d *Dynamic) Alias(alias string) (Interface, error) {
	cp := NewDynamic(d.name, WithAlias(alias), WithLogger(d.log))
	if err := cp.CopyDefinitionsFrom(d.Table); err != nil {
		return nil, err
	}
	return cp, nil
}

// CreateEntity implements Mapper.
func (d *Dynamic) CreateEntity(row sql.Row, withReferences bool) (*Entity, error) {
	return d.Materialize(row, withReferences)
}

var (
	_ Aliaser         = (*Dynamic)(nil)
	_ Mapper[*Entity] = (*Dynamic)(nil)
)
