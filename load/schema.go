package load

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"

	"github.com/syssam/tabula/schema"
)

// ErrUnknownTable is returned when a table name is not defined by the schema.
var ErrUnknownTable = errors.New("load: unknown table")

// Schema is a set of table definitions read from a schema file.
//
//	tables:
//	  - name: departments
//	    columns:
//	      - {name: id, type: int, primary_key: true}
//	      - {name: name, type: string}
//	  - name: employees
//	    columns:
//	      - {name: id, type: int, primary_key: true}
//	      - {name: city, type: string, property: address.city}
//	      - {name: department_id, type: int, references: departments}
type Schema struct {
	Tables []*Table `yaml:"tables"`
}

// Table describes one table and its columns in registration order.
type Table struct {
	Name    string    `yaml:"name"`
	Columns []*Column `yaml:"columns"`
}

// Column describes a column, its type and its bindings. Property is a dotted
// path; when empty it defaults to the camel-cased column name, without an
// "_id" suffix for references. Unbound columns are selected but never
// materialized.
type Column struct {
	Name       string    `yaml:"name"`
	Type       string    `yaml:"type,omitempty"`
	PrimaryKey bool      `yaml:"primary_key,omitempty"`
	Property   string    `yaml:"property,omitempty"`
	References string    `yaml:"references,omitempty"`
	Unbound    bool      `yaml:"unbound,omitempty"`
	Also       []Binding `yaml:"also,omitempty"`
}

// Binding is an extra binding of a column.
type Binding struct {
	Property   string `yaml:"property"`
	References string `yaml:"references,omitempty"`
}

// ReadFile reads and decodes the schema file at path.
func ReadFile(path string) (*Schema, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	s, err := UnmarshalSchema(buf)
	if err != nil {
		return nil, fmt.Errorf("load: %s: %w", path, err)
	}
	return s, nil
}

// UnmarshalSchema decodes the given buffer to a schema. Unknown keys are
// rejected and defaults are applied to every column.
func UnmarshalSchema(buf []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	s := &Schema{}
	if err := dec.Decode(s); err != nil {
		return nil, err
	}
	for i, t := range s.Tables {
		if t == nil || t.Name == "" {
			return nil, fmt.Errorf("table #%d has no name", i)
		}
		for j, c := range t.Columns {
			if c == nil || c.Name == "" {
				return nil, fmt.Errorf("table %q: column #%d has no name", t.Name, j)
			}
			if err := c.defaults(); err != nil {
				return nil, fmt.Errorf("table %q: column %q: %w", t.Name, c.Name, err)
			}
		}
	}
	return s, nil
}

// MarshalSchema encodes the definitions of tables into the schema file
// format. References are written by table name.
func MarshalSchema(tables ...schema.Interface) ([]byte, error) {
	s := &Schema{}
	for _, i := range tables {
		s.Tables = append(s.Tables, Describe(i))
	}
	return yaml.Marshal(s)
}

// Describe returns the description of a table definition.
func Describe(i schema.Interface) *Table {
	t := i.Schema()
	pk := t.PrimaryKey()
	d := &Table{Name: t.Name()}
	for _, c := range t.Columns() {
		nc := &Column{
			Name:       c.Name(),
			Type:       c.Type().Name(),
			PrimaryKey: pk != nil && pk.Name() == c.Name(),
		}
		bs := c.Bindings()
		if len(bs) == 0 {
			nc.Unbound = true
		}
		for k, b := range bs {
			var nb Binding
			switch b := b.(type) {
			case schema.NestedBinding:
				nb.Property = strings.Join(b.Path, ".")
			case schema.ReferenceBinding:
				nb.Property = b.Property
				nb.References = b.Table.Schema().Name()
			}
			if k == 0 {
				nc.Property, nc.References = nb.Property, nb.References
				continue
			}
			nc.Also = append(nc.Also, nb)
		}
		d.Columns = append(d.Columns, nc)
	}
	return d
}

// defaults fills the type and the property of a column.
func (c *Column) defaults() error {
	if c.Type == "" {
		c.Type = schema.Any.Name()
	}
	if _, ok := schema.TypeByName(c.Type); !ok {
		return fmt.Errorf("unknown type %q", c.Type)
	}
	switch {
	case c.Unbound && (c.Property != "" || c.References != "" || len(c.Also) > 0):
		return errors.New("unbound column with bindings")
	case c.Unbound:
	case c.Property == "" && c.References != "":
		c.Property = inflect.CamelizeDownFirst(strings.TrimSuffix(c.Name, "_id"))
	case c.Property == "":
		c.Property = inflect.CamelizeDownFirst(c.Name)
	}
	for _, b := range c.Also {
		if b.Property == "" {
			return errors.New("extra binding has no property")
		}
	}
	return nil
}

// bindings returns the primary binding followed by the extra ones.
func (c *Column) bindings() []Binding {
	if c.Unbound {
		return nil
	}
	return append([]Binding{{Property: c.Property, References: c.References}}, c.Also...)
}

// path splits a dotted property into a nested binding path.
func path(property string) []string {
	return strings.Split(property, ".")
}
