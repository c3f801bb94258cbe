package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree/internal/application/handlers"
)

type personFlags struct {
	name     string
	alive    bool
	birth    string
	death    string
	gender   string
	decedent bool
	spouse   bool
}

func (f *personFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Name")
	cmd.Flags().BoolVar(&f.alive, "alive", true, "Whether the person is alive")
	cmd.Flags().StringVar(&f.birth, "birth", "", "Birth date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.death, "death", "", "Death date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.gender, "gender", "", "Gender")
	cmd.Flags().BoolVar(&f.decedent, "decedent", false, "Mark as the decedent")
	cmd.Flags().BoolVar(&f.spouse, "spouse", false, "Mark as the decedent's spouse")
}

// input builds a PersonInput holding only the flags set on the command line.
func (f *personFlags) input(cmd *cobra.Command) handlers.PersonInput {
	var in handlers.PersonInput
	changed := cmd.Flags().Changed

	if changed("name") {
		in.Name = &f.name
	}
	if changed("alive") {
		in.Alive = &f.alive
	}
	if changed("birth") {
		in.BirthDate = &f.birth
	}
	if changed("death") {
		in.DeathDate = &f.death
	}
	if changed("gender") {
		in.Gender = &f.gender
	}
	if changed("decedent") {
		in.Decedent = &f.decedent
	}
	if changed("spouse") {
		in.Spouse = &f.spouse
	}
	return in
}

func newPersonsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "persons",
		Aliases: []string{"person"},
		Short:   "Manage the persons of a case",
		RunE:    runPersonsList,
	}

	cmd.AddCommand(
		newPersonsListCmd(),
		newPersonsAddCmd(),
		newPersonsUpdateCmd(),
		newPersonsDeleteCmd(),
	)

	return cmd
}

func newPersonsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the persons of a case",
		RunE:  runPersonsList,
	}
}

func runPersonsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withCase(func(d *Deps, caseID int64) error {
		summary, err := d.CaseHandler.HandleShow(ctx, caseID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(summary.Persons) == 0 {
			fmt.Fprintln(out, "No persons in this case.")
			return nil
		}
		for i := range summary.Persons {
			displayPerson(out, &summary.Persons[i])
		}
		return nil
	})
}

func newPersonsAddCmd() *cobra.Command {
	var flags personFlags

	cmd := &cobra.Command{
		Use:   "add [NAME]",
		Short: "Add a person to a case",
		Long: `Adds a person. Without a name the placeholder name is used.
Only one person per case may be the decedent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := flags.input(cmd)
			if len(args) == 1 {
				in.Name = &args[0]
			}
			return runPersonsAdd(cmd, in)
		},
	}

	flags.register(cmd)

	return cmd
}

func runPersonsAdd(cmd *cobra.Command, in handlers.PersonInput) error {
	ctx := cmd.Context()

	return withCase(func(d *Deps, caseID int64) error {
		p, err := d.PersonHandler.HandleAdd(ctx, caseID, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added person %d: %s\n", p.ID, p.Name)
		return nil
	})
}

func newPersonsUpdateCmd() *cobra.Command {
	var flags personFlags

	cmd := &cobra.Command{
		Use:   "update PERSON",
		Short: "Update a person (id or exact name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonsUpdate(cmd, args[0], flags.input(cmd))
		},
	}

	flags.register(cmd)

	return cmd
}

func runPersonsUpdate(cmd *cobra.Command, ref string, in handlers.PersonInput) error {
	ctx := cmd.Context()

	return withCase(func(d *Deps, caseID int64) error {
		p, err := d.PersonHandler.HandleUpdate(ctx, caseID, ref, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated person %d: %s\n", p.ID, p.Name)
		return nil
	})
}

func newPersonsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PERSON",
		Short: "Delete a person and the relationships touching it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withCase(func(d *Deps, caseID int64) error {
				p, err := d.PersonHandler.HandleDelete(ctx, caseID, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted person %d: %s\n", p.ID, p.Name)
				return nil
			})
		},
	}
}
