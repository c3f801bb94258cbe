// Package main provides the entry point for the famtree CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version       = "0.1.0-dev"
	globalCase    string
	globalLocal   bool
	globalVerbose bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "famtree",
		Short:         "Edit the family graphs of inheritance cases",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalCase, "case", "c", "", "Case to operate on (id or alias; default: current case)")
	rootCmd.PersistentFlags().BoolVar(&globalLocal, "local", false, "Use the local SQLite store instead of the case API")
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newInitCmd(),
		newCasesCmd(),
		newPersonsCmd(),
		newRelateCmd(),
		newRelationsCmd(),
		newGraphCmd(),
		newCalcCmd(),
		newTreeCmd(),
		newImportCmd(),
		newExportCmd(),
		newHistoryCmd(),
		newEditCmd(),
	)

	return rootCmd
}
