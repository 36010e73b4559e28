package main

import (
	"os"

	"github.com/syssam/tabula/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	rootCmd.AddCommand(cmd.NewSQLCommand())
	rootCmd.AddCommand(cmd.NewQueryCommand())
	rootCmd.AddCommand(cmd.NewCountCommand())
	rootCmd.AddCommand(cmd.NewValidateCommand())
	rootCmd.AddCommand(cmd.NewDescribeCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
