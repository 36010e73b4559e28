package schema

import (
	"slices"
	"strings"
)

// Binding describes how a column value populates an entity property.
// It is implemented by NestedBinding and ReferenceBinding.
type Binding interface {
	// Conflicts reports whether b targets the same property as the receiver.
	Conflicts(b Binding) bool
	String() string
	binding()
}

// NestedBinding sets the column value at a property path of the entity,
// e.g. NestedBinding{Path: []string{"address", "city"}}.
type NestedBinding struct {
	Path []string
}

// BindTo returns a nested binding to the given property path.
func BindTo(path ...string) NestedBinding {
	return NestedBinding{Path: slices.Clone(path)}
}

// Conflicts reports whether b is a nested binding to the same path.
func (n NestedBinding) Conflicts(b Binding) bool {
	o, ok := b.(NestedBinding)
	return ok && slices.Equal(n.Path, o.Path)
}

func (n NestedBinding) String() string { return strings.Join(n.Path, ".") }

func (NestedBinding) binding() {}

// ReferenceBinding sets the entity of a referenced table, or only its
// primary key, at Property. The column holds the referenced primary key.
type ReferenceBinding struct {
	Table    Interface
	Property string
}

// References returns a reference binding to t at property.
func References(t Interface, property string) ReferenceBinding {
	return ReferenceBinding{Table: t, Property: property}
}

// Conflicts reports whether b references the same table name at the same
// property.
func (r ReferenceBinding) Conflicts(b Binding) bool {
	o, ok := b.(ReferenceBinding)
	return ok && r.Property == o.Property && r.Table.Schema().Name() == o.Table.Schema().Name()
}

func (r ReferenceBinding) String() string {
	return r.Property + " -> " + r.Table.Schema().Name()
}

func (ReferenceBinding) binding() {}

// path returns the property path the reference is bound at, with pk
// appended in primary-key-only form.
func (r ReferenceBinding) path(pk ...string) []string {
	return append([]string{r.Property}, pk...)
}
