package main

import (
	"encoding/json"
	"fmt"

	"github.com/deixis/dotnetrun/internal/report"
	"github.com/deixis/dotnetrun/internal/workflow"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "inspect <run-id> [selector]",
		Short: "Show diagnostics of a run saved with --save",
		Long: `Show the diagnostics of a saved run. The selector is a diagnostic code
(e.g. CS1002), a project file, or a source file; without it every
diagnostic is listed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := report.CacheDir()
			if err != nil {
				return err
			}
			rr, err := report.NewDiskStoreAt(dir).Load(args[0])
			if err != nil {
				return err
			}
			var selector string
			if len(args) == 2 {
				selector = args[1]
			}
			diags := report.Query(rr, selector)

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(diags)
			}
			fmt.Fprintf(out, "Run: %s (%s)\n", rr.ID, rr.Kind)
			fmt.Fprintf(out, "Command: %s\n", rr.CommandLine)
			if len(diags) == 0 {
				fmt.Fprintln(out, "No diagnostics found.")
			}
			for _, d := range diags {
				fmt.Fprintln(out, workflow.FormatDiagnostic(d))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print diagnostics as JSON")
	return cmd
}
