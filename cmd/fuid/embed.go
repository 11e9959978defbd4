package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newEmbedCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Build the semantic index over all company and product names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				out := cmd.OutOrStdout()
				if statusOnly {
					st, err := d.Service.EmbeddingStatus()
					if err != nil {
						return err
					}
					return printJSON(out, st)
				}
				start := time.Now()
				st, err := d.Service.BuildEmbeddings(cmd.Context())
				if err != nil {
					return fmt.Errorf("building embeddings: %w", err)
				}
				fmt.Fprintf(out, "embedded %d products and %d companies in %s\n",
					st.Products, st.Companies, time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only report whether the index is ready and fresh")
	return cmd
}
