package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type exportFlags struct {
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a case as a roster file",
		Long:  "Exports the persons and relationships of a case in a format 'famtree import' reads back.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !contains(exportFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, exportFormats)
	}

	ctx := cmd.Context()

	return withCase(func(d *Deps, caseID int64) error {
		return withOutput(flags.output, cmd.OutOrStdout(), func(w io.Writer) error {
			result, err := d.ExportHandler.Handle(ctx, caseID, w, flags.format)
			if err != nil {
				return err
			}
			if flags.output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d persons and %d relationships to %s\n",
					result.Persons, result.Relationships, flags.output)
			}
			return nil
		})
	})
}
