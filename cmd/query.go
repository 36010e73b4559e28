package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/tabula/schema"
	"github.com/syssam/tabula/sequence"
)

// NewQueryCommand returns the command printing the entities of a table.
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the entities of a table",
		Long:  "Run the select of a table against a database and print one entity per row, as JSON lines or YAML documents.",
		RunE:  runQuery,
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd)
		},
	}

	sequenceFlags(cmd)
	connectionFlags(cmd)
	cmd.Flags().String(outputFlag, "json", "the output format: 'json' or 'yaml'")

	return cmd
}

func runQuery(cmd *cobra.Command, _ []string) error {
	w, err := newEntityWriter(cmd.OutOrStdout(), viper.GetString(outputFlag))
	if err != nil {
		return err
	}
	return withConnection(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context, s sequence.Sequence[*schema.Entity]) error {
		if err := s.ForEach(ctx, w.Write); err != nil {
			return err
		}
		return w.Close()
	})
}

// NewCountCommand returns the command printing the number of entities of a
// table.
func NewCountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of entities of a table",
		RunE:  runCount,
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd)
		},
	}

	sequenceFlags(cmd)
	connectionFlags(cmd)

	return cmd
}

func runCount(cmd *cobra.Command, _ []string) error {
	return withConnection(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context, s sequence.Sequence[*schema.Entity]) error {
		n, err := s.Count(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
		return err
	})
}
