package cmd

import (
	"github.com/lehigh-university-libraries/pdf-renamer/internal/renamecmd"
	"github.com/spf13/cobra"
)

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect and export results files",
		Long: `Tools for the JSON results file a run writes next to the renamed PDFs.

Reports print every stored record with a summary of successes and failures;
exports convert the records to csv, json, yaml, parquet, xlsx or a sqlite table.`,
	}

	cmd.AddCommand(renamecmd.NewReportCmd())
	cmd.AddCommand(renamecmd.NewExportCmd())

	return cmd
}
