// Package sql provides the abstract select expression, its rendering and
// the query engine that executes it over database/sql.
//
// # Select Expressions
//
// A Select is an immutable value describing a SELECT statement: the source
// table (or a sub-select), LEFT JOINs, the select list, the predicate,
// ordering, limit and offset. With methods return modified copies:
//
//	emp := sql.TableRef{Name: "employees"}
//	s := sql.NewSelect(emp, emp.Column("id").Select(), emp.Column("name").Select())
//	s = s.WithWhere(emp.Column("name").EQ("Alice")).WithLimit(10)
//
// Count and Aggregate return count-shaped rewrites; a paged select is
// wrapped in a sub-select so the aggregate stays within the page window.
//
// # Predicates
//
//	sql.FieldEQ(col, "john")          // col = ?
//	sql.FieldIn(col, 1, 2, 3)         // col IN (?,?,?)
//	sql.And(p1, p2)                   // (p1 AND p2)
//	sql.Not(p)                        // NOT (p)
//	sql.Field[int]{col}.GT(18)        // typed variant
//
// # Rendering
//
// Render turns a Select into SQL text with github.com/Masterminds/squirrel,
// using $n placeholders for PostgreSQL and ? for the other dialects.
//
// # Engine
//
// Engine runs selects on a dialect.Driver and returns RowIterators over
// label-keyed Rows. StatsDriver and DebugDriver wrap drivers with
// statistics and statement logging.
package sql
