package schema

import (
	"bytes"
	"encoding/json"
	"slices"

	"gopkg.in/yaml.v3"
)

// Entity is a materialized row: an ordered tree of properties. Nested
// properties and referenced entities are *Entity values.
type Entity struct {
	table  string
	keys   []string
	values map[string]any
}

// NewEntity returns an empty entity of the named table.
func NewEntity(table string) *Entity {
	return &Entity{table: table, values: make(map[string]any)}
}

// Table returns the name of the table the entity was materialized from.
// Nested property groups have no table.
func (e *Entity) Table() string { return e.table }

// Len returns the number of top-level properties.
func (e *Entity) Len() int { return len(e.keys) }

// Properties returns the top-level property names in the order they were set.
func (e *Entity) Properties() []string { return slices.Clone(e.keys) }

// Get returns the value at a property path.
//
//	city, ok := e.Get("address", "city")
func (e *Entity) Get(path ...string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	v, ok := e.values[path[0]]
	if !ok || len(path) == 1 {
		return v, ok
	}
	child, ok := v.(*Entity)
	if !ok {
		return nil, false
	}
	return child.Get(path[1:]...)
}

// Entity returns the nested entity under name.
func (e *Entity) Entity(name string) (*Entity, bool) {
	child, ok := e.values[name].(*Entity)
	return child, ok
}

// Set stores v at a property path, creating intermediate property groups.
func (e *Entity) Set(path []string, v any) {
	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		e.put(path[0], v)
		return
	}
	child, ok := e.values[path[0]].(*Entity)
	if !ok {
		child = NewEntity("")
		e.put(path[0], child)
	}
	child.Set(path[1:], v)
}

func (e *Entity) put(key string, v any) {
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = v
}

// Map returns the properties as nested maps.
func (e *Entity) Map() map[string]any {
	m := make(map[string]any, len(e.keys))
	for _, k := range e.keys {
		v := e.values[k]
		if child, ok := v.(*Entity); ok {
			v = child.Map()
		}
		m[k] = v
	}
	return m
}

// MarshalJSON encodes the entity as an object keeping the property order.
func (e *Entity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the entity as a mapping keeping the property order.
func (e *Entity) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range e.keys {
		val := &yaml.Node{}
		if err := val.Encode(e.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, val)
	}
	return node, nil
}
