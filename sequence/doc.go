// Package sequence provides lazy, immutable queries over the entities of a
// table.
//
// A Sequence pairs a schema.Mapper with a sql.Select. Filter, FilterNot,
// Take, Drop and the sort methods return new sequences without running any
// SQL. Terminal operations (Count, Iterator, ToSlice, First, the Associate
// family and so on) render the select, run it on the Engine and materialize
// one entity per row.
//
//	engine := sql.NewEngine(drv)
//	employees, err := sequence.Of(engine, employeesTable)
//	if err != nil {
//	    return err
//	}
//	name := sql.Field[string]{employeesTable.MustLookup("name").Ref()}
//	page := employees.Filter(name.Like("A%")).Take(10).Drop(20)
//	for e, err := range page.Seq(ctx) {
//	    ...
//	}
package sequence
