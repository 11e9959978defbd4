// Package main provides the fuid command: the HTTP service plus offline
// generate, search, import, report and embedding tools over the same store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

// Flags shared by every command.
var (
	globalConfig   string
	globalDataFile string
	globalLogLevel string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fuid",
		Short:         "Stable product identifiers and catalog search",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalConfig, "config", "c", "", "YAML config file (default $FUID_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&globalDataFile, "data", "", "Identity store JSON file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(
		newServeCmd(),
		newGenerateCmd(),
		newSearchCmd(),
		newImportCmd(),
		newReportCmd(),
		newEmbedCmd(),
	)
	return rootCmd
}
