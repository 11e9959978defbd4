package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fuid-service/internal/fuid/service"
	"fuid-service/internal/report"
)

func newImportCmd() *cobra.Command {
	var (
		headerRow int
		platform  string
		extractV  bool
		reportOut string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Generate FUIDs for every row of a csv, xls or xlsx listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening listing: %w", err)
			}
			defer f.Close()

			return withDeps(cmd.Context(), func(d *Deps) error {
				sum, err := d.Service.Import(cmd.Context(), f, filepath.Base(args[0]), service.ImportOptions{
					HeaderRow:       headerRow,
					Platform:        platform,
					ExtractVersions: extractV,
				})
				if err != nil {
					return fmt.Errorf("importing %s: %w", args[0], err)
				}

				if reportOut != "" {
					if err := writeReport(reportOut, report.EntriesFromImport(sum.Rows)); err != nil {
						return err
					}
				}

				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, sum)
				}
				fmt.Fprintf(out, "rows: %d  new: %d  existing: %d  failed: %d\n",
					len(sum.Rows), sum.New, sum.Existing, sum.Failed)
				for _, r := range sum.Rows {
					if r.Status == "Failed" {
						fmt.Fprintf(out, "  line %d: %s\n", r.Line, r.Error)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&headerRow, "header-row", 1, "1-based row holding the column names")
	cmd.Flags().StringVar(&platform, "platform", "", "Platform for rows without a platform column")
	cmd.Flags().BoolVar(&extractV, "extract-versions", false, "Ask the version extractor for rows without a version")
	cmd.Flags().StringVar(&reportOut, "report", "", "Also write a duplicate/marketplace report (.xlsx or .json)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the per-row result as JSON")
	return cmd
}
