package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fuid-service/internal/fileio"
	"fuid-service/internal/report"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Analyze FUID-labelled listings",
	}
	cmd.AddCommand(newReportDuplicatesCmd(), newReportStoreCmd())
	return cmd
}

func newReportDuplicatesCmd() *cobra.Command {
	var (
		headerRow int
		out       string
	)

	cmd := &cobra.Command{
		Use:   "duplicates <file>",
		Short: "Find FUIDs listed more than once and summarize coverage per platform",
		Long:  "Reads a listing export with fuid and platform columns. Without --out the summary is printed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening listing: %w", err)
			}
			defer f.Close()

			rows, err := fileio.ReadAnyMaps(f, filepath.Base(args[0]), headerRow)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			entries := report.EntriesFromRows(rows)
			if len(entries) == 0 {
				return fmt.Errorf("no rows with a fuid column in %s", args[0])
			}
			if out != "" {
				return writeReport(out, entries)
			}
			printSummary(cmd.OutOrStdout(), report.Build(entries))
			return nil
		},
	}

	cmd.Flags().IntVar(&headerRow, "header-row", 1, "1-based row holding the column names")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the full report (.xlsx or .json)")
	return cmd
}

func newReportStoreCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Summarize the identity store itself",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				doc, err := d.Service.Document()
				if err != nil {
					return err
				}
				entries := report.EntriesFromRecords(doc.FUIDMappings.Records())
				if out != "" {
					return writeReport(out, entries)
				}
				printSummary(cmd.OutOrStdout(), report.Build(entries))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the full report (.xlsx or .json)")
	return cmd
}

// writeReport picks the format from the extension of path.
func writeReport(path string, entries []report.Entry) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".json" {
		return fmt.Errorf("unsupported report format %q, use .xlsx or .json", ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	rep := report.Build(entries)
	if ext == ".json" {
		err = report.WriteJSON(f, rep)
	} else {
		err = report.WriteXLSX(f, rep.Duplicates, rep.Marketplace)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, rep report.Report) {
	dup, mkt := rep.Duplicates, rep.Marketplace
	fmt.Fprintf(w, "entries: %d  unique fuids: %d  duplicated: %d  on several platforms: %d\n",
		dup.TotalEntries, dup.UniqueFUIDs, dup.Duplicated, dup.MultiPlatform)
	for _, d := range dup.Duplicates {
		fmt.Fprintf(w, "  %s  x%d  %s\n", d.FUID, d.Occurrences, strings.Join(d.Platforms, ", "))
	}
	fmt.Fprintf(w, "vendors: %d  avg fuids per vendor: %.2f  with version: %d  without: %d\n",
		mkt.Vendors, mkt.AvgFUIDsPerVendor, mkt.WithVersion, mkt.WithoutVersion)
	for _, p := range mkt.Platforms {
		fmt.Fprintf(w, "  %-16s listings %d  fuids %d  (%.1f%%)\n", p.Platform, p.Listings, p.UniqueFUIDs, p.Share)
	}
}
