// Package tabula maps relational rows to entities and builds SQL through
// lazily executed entity sequences.
//
// The module is split into:
//
//   - schema: column registry, bindings, reference graph and materializer
//   - sequence: immutable query builder that executes on iteration
//   - dialect and dialect/sql: drivers, the abstract select expression and
//     the query engine that renders it
//   - load: YAML schema files
//   - cmd/tabula: the command-line front end
//
// This package holds the error taxonomy shared by all of them.
package tabula
