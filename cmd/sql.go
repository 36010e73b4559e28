package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
)

// NewSQLCommand returns the command printing the select of a table without
// connecting to a database.
func NewSQLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the select materializing the entities of a table",
		Long:  "Render the select of a table, with its referenced tables joined, for the given dialect and print it with its arguments.",
		RunE:  runSQL,
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd)
		},
	}

	sequenceFlags(cmd)
	flags := cmd.Flags()
	flags.String(dialectFlag, dialect.SQLite, "the dialect to render for: 'sqlite', 'mysql' or 'postgres'")
	flags.Bool("count", false, "print the count query instead of the select")

	// NOTE: if you add a new flag here, it is bound in PreRun by bindFlags.

	return cmd
}

func runSQL(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	tbl, err := loadTable(logger)
	if err != nil {
		return err
	}
	name := viper.GetString(dialectFlag)
	switch name {
	case dialect.SQLite, dialect.MySQL, dialect.Postgres:
	default:
		return fmt.Errorf("invalid dialect: %s", name)
	}
	// Rendering never touches the connection.
	engine := sql.NewEngine(sql.NewDriver(name, sql.Conn{}), sql.WithLogger(logger))
	s, err := buildSequence(engine, tbl)
	if err != nil {
		return err
	}
	expr := s.Expression()
	if viper.GetBool("count") {
		expr = expr.Count()
	}
	query, args, err := engine.SQL(expr)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, query)
	if len(args) > 0 {
		fmt.Fprintln(out, args...)
	}
	return nil
}
