package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fuid-service/internal/fuid/model"
)

func newGenerateCmd() *cobra.Command {
	var (
		platform   string
		url        string
		categories string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "generate <company> <product> [version]",
		Short: "Mint or look up the FUID of a company/product/version",
		Long:  "Normalizes the names, reuses existing ids and prints the FUID. The version defaults to \"00\".",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := model.GenerateRequest{
				Company:    args[0],
				Product:    args[1],
				Platform:   platform,
				URL:        url,
				Categories: categories,
			}
			if len(args) == 3 {
				req.Version = args[2]
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				res, err := d.Service.Generate(req)
				if err != nil {
					return fmt.Errorf("generating fuid: %w", err)
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, res)
				}
				fmt.Fprintf(out, "%s (%s)\n", res.FUID, res.FUIDStatus)
				fmt.Fprintf(out, "  company  %-24s %s (%s)\n", res.Company.Normalized, res.Company.ID, res.Company.Status)
				fmt.Fprintf(out, "  product  %-24s %s (%s)\n", res.Product.Normalized, res.Product.ID, res.Product.Status)
				fmt.Fprintf(out, "  version  %-24s %s\n", res.Version.Version, res.Version.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Marketplace the listing comes from")
	cmd.Flags().StringVar(&url, "url", "", "Listing URL")
	cmd.Flags().StringVar(&categories, "categories", "", "Listing categories")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}
