package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/renamecmd"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := renamecmd.NewRunCmd()
	cmd.SilenceUsage = true
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Load .env file if present (ignore errors)
		_ = godotenv.Load()
		renamecmd.SetupLogging(verbose)
	}
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newResultsCmd())
	cmd.AddCommand(renamecmd.NewCheckCmd())

	return cmd
}
