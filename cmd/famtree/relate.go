package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree/internal/application/handlers"
)

type relateFlags struct {
	biological bool
	adopted    bool
	bloodType  string
}

func newRelateCmd() *cobra.Command {
	var flags relateFlags

	cmd := &cobra.Command{
		Use:   "relate <from-person> <type> <to-person>",
		Short: "Create a relationship between two persons",
		Long: `Creates a relationship between two persons of the case, given by id or exact name.
Use quotes for names with spaces.

Valid relationship types:
  - child_of   (from the child to one of its parents)
  - spouse_of
  - sibling_of

Examples:
  famtree relate 山田一郎 child_of 山田太郎
  famtree relate 4 spouse_of 3
  famtree relate 山田次郎 sibling_of 山田一郎 --blood-type half`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelate(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.biological, "biological", true, "Biological relationship")
	cmd.Flags().BoolVar(&flags.adopted, "adopted", false, "Adoptive relationship")
	cmd.Flags().StringVar(&flags.bloodType, "blood-type", "", "Sibling blood type (full, half)")

	cmd.AddCommand(newRelateDeleteCmd())

	return cmd
}

func runRelate(cmd *cobra.Command, args []string, flags relateFlags) error {
	ctx := cmd.Context()
	fromRef, relType, toRef := args[0], args[1], args[2]

	opts := handlers.RelateOptions{BloodType: flags.bloodType}
	if cmd.Flags().Changed("biological") {
		opts.Biological = &flags.biological
	}
	if cmd.Flags().Changed("adopted") {
		opts.Adopted = &flags.adopted
	}

	return withCase(func(d *Deps, caseID int64) error {
		info, err := d.RelationshipHandler.HandleCreate(ctx, caseID, fromRef, relType, toRef, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created relationship: %d\n", info.Relationship.ID)
		fmt.Fprintf(out, "  %s -[%s]-> %s\n", info.From.Name, info.Relationship.Type, info.To.Name)
		return nil
	})
}

func newRelateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <relationship-id>",
		Short: "Delete a relationship",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelateDelete,
	}
}

func runRelateDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	relID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || relID <= 0 {
		return fmt.Errorf("invalid relationship id: %s", args[0])
	}

	return withCase(func(d *Deps, caseID int64) error {
		if err := d.RelationshipHandler.HandleDelete(ctx, caseID, relID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted relationship: %d\n", relID)
		return nil
	})
}
