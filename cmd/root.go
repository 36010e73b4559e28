// Package cmd contains all the commands included in the tabula binary.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	schemaFlag    = "schema"
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

// NewRootCommand enables all children commands to read flags from CLI flags,
// environment variables prefixed with TABULA, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("TABULA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/tabula", "$HOME/.tabula", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}
	// A missing config file is not an error.
	_ = viper.ReadInConfig()

	cmd := &cobra.Command{
		Use:   "tabula",
		Short: "Map relational rows to entities described by a schema file",
		Long: `tabula reads table definitions from a YAML schema file, renders the select
that materializes a table with its referenced tables joined, and runs it
against SQLite, MySQL or PostgreSQL, printing one entity per row.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String(schemaFlag, "", "(required) the YAML schema file describing the tables")
	flags.String(logLevelFlag, "info", "the log level: 'trace', 'debug', 'info', 'warn' or 'error'")
	flags.String(logFormatFlag, "text", "the log format: 'text' or 'json'")

	mustBindPFlag(schemaFlag, flags.Lookup(schemaFlag))
	mustBindPFlag(logLevelFlag, flags.Lookup(logLevelFlag))
	mustBindPFlag(logFormatFlag, flags.Lookup(logFormatFlag))

	return cmd
}
