package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree/internal/application/handlers"
)

func newInitCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize famtree in the current directory",
		Long: `Creates a .famtree directory with default configuration.
With --local, cases are kept in a SQLite database inside .famtree instead of the case API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, apiURL)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Case API base URL")

	return cmd
}

func runInit(cmd *cobra.Command, apiURL string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	result, err := handlers.NewInitHandler().Handle(cmd.Context(), cwd, handlers.InitOptions{
		Local:  globalLocal,
		APIURL: apiURL,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", result.ConfigPath)
	if result.DatabasePath != "" {
		fmt.Fprintf(out, "Created local store: %s\n", result.DatabasePath)
	}
	fmt.Fprintf(out, "famtree initialized (store: %s)\n", result.StoreMode)
	fmt.Fprintln(out, "Create a case with: famtree cases create TITLE")

	return nil
}
