package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "companionctl",
		Short:         "Maintenance commands for the companion database",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String(dsnFlag, "", "Database DSN (defaults to DB_DSN)")

	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedCommand())
	return root
}
