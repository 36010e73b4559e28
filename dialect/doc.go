// Package dialect provides the database dialect abstraction used by the
// query engine.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// The dialect decides the placeholder style of rendered statements ($1 for
// PostgreSQL, ? otherwise). Nothing else in tabula is dialect specific.
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Close() error
//	    Dialect() string
//	}
//
// # Usage
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	engine := sql.NewEngine(drv)
//	seq, err := sequence.Of(engine, employees)
package dialect
