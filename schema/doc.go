// Package schema defines how the rows of a table map to entities.
//
// A Table registers columns, designates a primary key and binds columns to
// entity properties. A binding is either a NestedBinding, setting the value
// at a property path, or a ReferenceBinding, setting the entity of another
// table whose primary key the column holds.
//
// # Defining tables
//
//	departments := schema.NewDynamic("departments")
//	departments.Column("id", schema.Int).PrimaryKey().BindTo("id")
//	departments.Column("name", schema.String).BindTo("name")
//
//	employees := schema.NewDynamic("employees")
//	employees.Column("id", schema.Int).PrimaryKey().BindTo("id")
//	employees.Column("name", schema.String).BindTo("name")
//	employees.Column("city", schema.String).BindTo("address", "city")
//	employees.Column("department_id", schema.Int).References(departments, "department")
//	if err := employees.Err(); err != nil {
//	    return err
//	}
//
// # References
//
// Binding a reference stores a private copy of the referenced table, aliased
// "_ref0", "_ref1" and so on in the order references are bound. Copies of
// nested references draw from the same counter, so every table in the tree
// has a distinct alias and can be joined into one query. A reference that
// would make a table reach itself by name is rejected with a
// tabula.CircularReferenceError before the table is changed.
//
// Only table variants implementing Aliaser can be referenced. Dynamic does;
// typed variants implement Alias with Table.CopyDefinitionsFrom.
//
// # Materialization
//
// Table.Materialize walks the bindings of a row and returns an Entity. A
// Mapper turns rows into the entity type of a variant, usually by mapping
// the materialized tree into a struct.
//
// Tables are built by a single goroutine and only read afterwards; reads
// need no synchronization.
package schema
