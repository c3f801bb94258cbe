package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree/internal/application/handlers"
	"github.com/ersonp/famtree/internal/domain/services"
)

type importFlags struct {
	format     string
	dryRun     bool
	onConflict string
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import persons and relationships from JSON or CSV",
		Long: `Imports a roster of persons and relationships into a case.
Relationships refer to persons by name, either from the roster or already in the case.
The same rules as the editor apply: one decedent per case, no self-links, no descent cycles.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "skip", "Names already in the case (skip, duplicate)")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	strategy, err := services.ParseConflictStrategy(flags.onConflict)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	return withCase(func(d *Deps, caseID int64) error {
		opts := handlers.ImportOptions{
			Format:     flags.format,
			DryRun:     flags.dryRun,
			OnConflict: strategy,
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Importing %s...\n", filePath)

		result, err := d.ImportHandler.Handle(ctx, caseID, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		printImportResult(out, result, flags.dryRun)
		return nil
	})
}

func printImportResult(w io.Writer, result *services.ImportResult, dryRun bool) {
	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "\nValidation errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}

	fmt.Fprintln(w)
	if dryRun {
		fmt.Fprintf(w, "Dry run: %d persons and %d relationships would be imported",
			result.PersonsImported, result.RelationshipsImported)
	} else {
		fmt.Fprintf(w, "Imported: %d persons, %d relationships",
			result.PersonsImported, result.RelationshipsImported)
	}

	if result.PersonsSkipped > 0 {
		fmt.Fprintf(w, ", %d skipped (already in the case)", result.PersonsSkipped)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, ", %d errors", len(result.Errors))
	}

	fmt.Fprintln(w)
}
