package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree/internal/application/handlers"
	"github.com/ersonp/famtree/internal/domain/entities"
)

type relationsFlags struct {
	relType string
	format  string
}

func newRelationsCmd() *cobra.Command {
	var flags relationsFlags

	cmd := &cobra.Command{
		Use:   "relations",
		Short: "List the relationships of a case",
		Long: `Shows the relationships of a case, with optional filtering.

Examples:
  famtree relations
  famtree relations --type child_of
  famtree relations --case yamada --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelations(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.relType, "type", "", "Filter by relationship type")
	cmd.Flags().StringVar(&flags.format, "format", "list", "Output format: list, json")

	return cmd
}

func runRelations(cmd *cobra.Command, flags relationsFlags) error {
	if flags.format != "list" && flags.format != "json" {
		return fmt.Errorf("invalid format: %s (valid: list, json)", flags.format)
	}

	ctx := cmd.Context()

	return withCase(func(d *Deps, caseID int64) error {
		infos, err := d.RelationshipHandler.HandleList(ctx, caseID, flags.relType)
		if err != nil {
			return fmt.Errorf("listing relationships: %w", err)
		}

		out := cmd.OutOrStdout()
		if flags.format == "json" {
			return printRelationsJSON(out, infos)
		}
		if len(infos) == 0 {
			fmt.Fprintln(out, "No relationships found.")
			return nil
		}
		printRelationsList(out, infos)
		return nil
	})
}

func printRelationsJSON(w io.Writer, infos []handlers.RelationshipInfo) error {
	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printRelationsList(w io.Writer, infos []handlers.RelationshipInfo) {
	fmt.Fprintf(w, "%-6s %-20s %-12s %s\n", "ID", "FROM", "TYPE", "TO")
	fmt.Fprintln(w, strings.Repeat("-", 60))

	for _, info := range infos {
		rel := info.Relationship
		fmt.Fprintf(w, "%-6d %-20s %-12s %s%s\n",
			rel.ID,
			getPersonName(info.From, rel.FromPersonID),
			rel.Type,
			getPersonName(info.To, rel.ToPersonID),
			relationNotes(rel),
		)
	}
}

func relationNotes(rel entities.Relationship) string {
	var notes []string
	if rel.IsAdopted != nil && *rel.IsAdopted {
		notes = append(notes, "adopted")
	}
	if rel.IsBiological != nil && !*rel.IsBiological {
		notes = append(notes, "non-biological")
	}
	if rel.BloodType != nil && *rel.BloodType != "" {
		notes = append(notes, *rel.BloodType+" blood")
	}
	if len(notes) == 0 {
		return ""
	}
	return " (" + strings.Join(notes, ", ") + ")"
}

func getPersonName(p *entities.Person, id int64) string {
	if p == nil {
		return fmt.Sprintf("#%d (missing)", id)
	}
	return p.Name
}
