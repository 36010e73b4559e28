package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/tabula/load"
	"github.com/syssam/tabula/schema"
)

const (
	againstFlag         = "against"
	allowDropColumnFlag = "allow-drop-column"
	allowDropTableFlag  = "allow-drop-table"
)

// NewValidateCommand returns the command validating a schema file.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a schema file",
		Long: `Build the tables of a schema file and report definitions that make
materialization fail. With --against, also report the changes to entity
shapes from a previous version of the schema.`,
		RunE: runValidate,
		Args: cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String(againstFlag, "", "a previous version of the schema file to compare with")
	flags.Bool(allowDropColumnFlag, false, "report dropped columns as warnings")
	flags.Bool(allowDropTableFlag, false, "report dropped tables as warnings")

	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	path := viper.GetString(schemaFlag)
	if path == "" {
		return errors.New("missing schema file")
	}
	desired, err := load.File(path, schema.WithLogger(logger))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	result := schema.ValidateSchema(desired.Interfaces())
	fmt.Fprintln(out, result)
	failed := result.HasErrors()

	if against := viper.GetString(againstFlag); against != "" {
		current, err := load.File(against, schema.WithLogger(logger))
		if err != nil {
			return err
		}
		var opts []schema.ValidateOption
		if viper.GetBool(allowDropColumnFlag) {
			opts = append(opts, schema.AllowDropColumn())
		}
		if viper.GetBool(allowDropTableFlag) {
			opts = append(opts, schema.AllowDropTable())
		}
		diff := schema.ValidateDiff(current.Interfaces(), desired.Interfaces(), opts...)
		fmt.Fprintf(out, "Changes from %s:\n%s\n", against, diff)
		failed = failed || diff.HasErrors()
	}
	if failed {
		return errors.New("schema validation failed")
	}
	return nil
}

// NewDescribeCommand returns the command printing a schema file with every
// default filled in.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the schema file with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := viper.GetString(schemaFlag)
			if path == "" {
				return errors.New("missing schema file")
			}
			r, err := load.File(path)
			if err != nil {
				return err
			}
			buf, err := load.MarshalSchema(r.Interfaces()...)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(buf)
			return err
		},
	}
}
