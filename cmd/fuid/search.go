package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fuid-service/internal/fuid/model"
)

func newSearchCmd() *cobra.Command {
	var (
		k          int
		platform   string
		searchType string
		selected   string
		unified    bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by FUID, company or product",
		Long: "Resolves the query the way the API does. --unified uses the hybrid semantic " +
			"search and falls back to lexical ranking when no index is available.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch model.SearchType(searchType) {
			case "", model.SearchCompany, model.SearchProduct:
			default:
				return fmt.Errorf("invalid search type %q, valid types: company, product", searchType)
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				var res []model.Match
				if unified {
					res = d.Service.UnifiedSearch(cmd.Context(), model.UnifiedRequest{
						Query:          args[0],
						K:              k,
						PlatformFilter: platform,
					})
				} else {
					res = d.Service.Search(model.SearchRequest{
						Query:          args[0],
						SearchType:     model.SearchType(searchType),
						SelectedItem:   selected,
						K:              k,
						PlatformFilter: platform,
					})
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, res)
				}
				if len(res) == 0 {
					fmt.Fprintln(out, "No matches found.")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SCORE\tTYPE\tFUID\tCOMPANY\tPRODUCT\tVERSION\tPLATFORM")
				for _, m := range res {
					fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%s\t%s\t%s\n",
						m.RelevanceScore, m.Type, m.FUID, m.Company, m.Product, m.Version, m.Platform)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&k, "limit", "k", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&platform, "platform", "p", model.PlatformAll, "Only show listings from this platform")
	cmd.Flags().StringVar(&searchType, "type", "", "Autosuggest selection type (company, product)")
	cmd.Flags().StringVar(&selected, "selected", "", "Autosuggest selection")
	cmd.Flags().BoolVar(&unified, "unified", false, "Use hybrid semantic search")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}
