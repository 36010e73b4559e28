package load

import (
	"fmt"

	"github.com/syssam/tabula/schema"
)

// Registry holds the tables built from a schema, by name.
type Registry struct {
	tables map[string]*schema.Dynamic
	order  []string
}

// File reads the schema file at path and builds its tables.
func File(path string, opts ...schema.Option) (*Registry, error) {
	s, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Build(opts...)
}

// Build creates a dynamic table for every table of s. Columns and primary
// keys are registered first; bindings are added afterwards, referenced
// tables before the tables referencing them, so that reference copies carry
// the complete definitions of their targets. Options are passed to every
// table.
func (s *Schema) Build(opts ...schema.Option) (*Registry, error) {
	r := &Registry{tables: make(map[string]*schema.Dynamic, len(s.Tables))}
	defs := make(map[string]*Table, len(s.Tables))
	for _, d := range s.Tables {
		if _, ok := defs[d.Name]; ok {
			return nil, fmt.Errorf("load: table %q is defined more than once", d.Name)
		}
		t, err := register(d, opts)
		if err != nil {
			return nil, err
		}
		defs[d.Name] = d
		r.tables[d.Name] = t
		r.order = append(r.order, d.Name)
	}
	const (
		visiting = iota + 1
		done
	)
	state := make(map[string]int, len(defs))
	var visit func(name string) error
	visit = func(name string) error {
		state[name] = visiting
		d := defs[name]
		for _, c := range d.Columns {
			for _, b := range c.bindings() {
				if b.References == "" {
					continue
				}
				if _, ok := defs[b.References]; !ok {
					return fmt.Errorf("%w %q referenced by %s.%s", ErrUnknownTable, b.References, d.Name, c.Name)
				}
				// A table in progress is part of a cycle, which binding reports.
				if state[b.References] == 0 {
					if err := visit(b.References); err != nil {
						return err
					}
				}
			}
		}
		if err := r.bind(d); err != nil {
			return err
		}
		state[name] = done
		return nil
	}
	for _, name := range r.order {
		if state[name] == 0 {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func register(d *Table, opts []schema.Option) (*schema.Dynamic, error) {
	t := schema.NewDynamic(d.Name, opts...)
	for _, c := range d.Columns {
		typ, ok := schema.TypeByName(c.Type)
		if !ok {
			return nil, fmt.Errorf("load: table %q: column %q: unknown type %q", d.Name, c.Name, c.Type)
		}
		if _, err := t.RegisterColumn(c.Name, typ); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		if c.PrimaryKey {
			if err := t.MarkPrimaryKey(c.Name); err != nil {
				return nil, fmt.Errorf("load: %w", err)
			}
		}
	}
	return t, nil
}

func (r *Registry) bind(d *Table) error {
	t := r.tables[d.Name]
	for _, c := range d.Columns {
		for _, b := range c.bindings() {
			var binding schema.Binding = schema.BindTo(path(b.Property)...)
			if b.References != "" {
				binding = schema.References(r.tables[b.References], b.Property)
			}
			if err := t.Bind(c.Name, binding); err != nil {
				return fmt.Errorf("load: %w", err)
			}
		}
	}
	return nil
}

// Table returns the table with the given name.
func (r *Registry) Table(name string) (*schema.Dynamic, error) {
	t, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTable, name)
	}
	return t, nil
}

// Tables returns the tables in definition order.
func (r *Registry) Tables() []*schema.Dynamic {
	out := make([]*schema.Dynamic, len(r.order))
	for i, name := range r.order {
		out[i] = r.tables[name]
	}
	return out
}

// Interfaces returns the tables in definition order as schema.Interface
// values, e.g. for schema.ValidateSchema.
func (r *Registry) Interfaces() []schema.Interface {
	out := make([]schema.Interface, len(r.order))
	for i, name := range r.order {
		out[i] = r.tables[name]
	}
	return out
}
