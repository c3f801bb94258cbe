package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree/internal/application/handlers"
	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/infrastructure/config"
)

func newCasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "Manage cases",
		RunE:  runCasesList,
	}

	cmd.AddCommand(
		newCasesListCmd(),
		newCasesShowCmd(),
		newCasesCreateCmd(),
		newCasesUpdateCmd(),
		newCasesDeleteCmd(),
		newCasesUseCmd(),
		newCasesAliasCmd(),
	)

	return cmd
}

func newCasesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cases, most recently updated first",
		RunE:  runCasesList,
	}
}

func runCasesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		cases, err := d.CaseHandler.HandleList(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(cases) == 0 {
			fmt.Fprintln(out, "No cases yet.")
			fmt.Fprintln(out, "Use 'famtree cases create TITLE' to create one.")
			return nil
		}

		displayCases(out, cases, d.Cases)
		return nil
	})
}

func displayCases(w io.Writer, cases []entities.Case, aliases *config.CasesConfig) {
	byID := make(map[int64][]string)
	for _, name := range aliases.Names() {
		id := aliases.Aliases[name].CaseID
		byID[id] = append(byID[id], name)
	}

	fmt.Fprintf(w, "  %-6s %-12s %-16s %-30s %s\n", "ID", "STATUS", "UPDATED", "TITLE", "ALIASES")
	for _, c := range cases {
		marker := " "
		if c.ID == aliases.Current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-6d %-12s %-16s %-30s %s\n",
			marker, c.ID, c.Status, c.UpdatedAt.Local().Format("2006-01-02 15:04"), c.Title, strings.Join(byID[c.ID], ", "))
	}
}

func newCasesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [case]",
		Short: "Show a case with its persons and relationships",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				globalCase = args[0]
			}
			return runCasesShow(cmd)
		},
	}
}

func runCasesShow(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withCase(func(d *Deps, caseID int64) error {
		summary, err := d.CaseHandler.HandleShow(ctx, caseID)
		if err != nil {
			return err
		}
		displayCase(cmd.OutOrStdout(), summary)
		return nil
	})
}

func displayCase(w io.Writer, s *handlers.CaseSummary) {
	fmt.Fprintf(w, "Case %d: %s\n", s.ID, s.Title)
	fmt.Fprintf(w, "  Status: %s\n", s.Status)
	if s.Description != nil && *s.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", *s.Description)
	}
	if s.Decedent != "" {
		fmt.Fprintf(w, "  Decedent: %s\n", s.Decedent)
	}

	fmt.Fprintf(w, "\nPersons (%d):\n", len(s.Persons))
	for i := range s.Persons {
		displayPerson(w, &s.Persons[i])
	}

	fmt.Fprintf(w, "\nRelationships (%d):\n", len(s.Relationships))
	for i := range s.Relationships {
		r := &s.Relationships[i]
		fmt.Fprintf(w, "  [%d] %s -[%s]-> %s\n", r.ID, personName(&s.CaseDetail, r.FromPersonID), r.Type, personName(&s.CaseDetail, r.ToPersonID))
	}
}

func displayPerson(w io.Writer, p *entities.Person) {
	flags := ""
	if p.IsDecedent {
		flags += " decedent"
	}
	if p.IsSpouse {
		flags += " spouse"
	}
	state := "alive"
	if !p.IsAlive {
		state = "deceased"
	}
	fmt.Fprintf(w, "  [%d] %s (%s%s)", p.ID, p.Name, state, flags)
	if p.BirthDate != nil {
		fmt.Fprintf(w, " born %s", p.BirthDate.Format("2006-01-02"))
	}
	if p.DeathDate != nil {
		fmt.Fprintf(w, " died %s", p.DeathDate.Format("2006-01-02"))
	}
	fmt.Fprintln(w)
}

func personName(detail *entities.CaseDetail, id int64) string {
	return getPersonName(detail.FindPerson(id), id)
}

type caseCreateFlags struct {
	description string
	status      string
	alias       string
	use         bool
}

func newCasesCreateCmd() *cobra.Command {
	var flags caseCreateFlags

	cmd := &cobra.Command{
		Use:   "create TITLE",
		Short: "Create a new case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCasesCreate(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "Case description")
	cmd.Flags().StringVar(&flags.status, "status", "", "Status (draft, in_progress, completed, archived)")
	cmd.Flags().StringVarP(&flags.alias, "alias", "a", "", "Alias to refer to the case by")
	cmd.Flags().BoolVar(&flags.use, "use", true, "Make the new case the current case")

	return cmd
}

func runCasesCreate(cmd *cobra.Command, title string, flags caseCreateFlags) error {
	ctx := cmd.Context()

	return withInternalDeps(func(d *internalDeps) error {
		c, err := d.CaseHandler.HandleCreate(ctx, title, flags.description, flags.status)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created case %d: %s\n", c.ID, c.Title)

		if flags.alias != "" {
			d.Cases.Add(flags.alias, config.CaseAlias{CaseID: c.ID, Description: title})
			fmt.Fprintf(out, "Alias: %s\n", flags.alias)
		}
		if flags.use {
			d.Cases.Current = c.ID
		}
		if flags.alias != "" || flags.use {
			if err := d.Cases.Save(d.basePath); err != nil {
				return err
			}
		}
		return nil
	})
}

type caseUpdateFlags struct {
	title       string
	description string
	status      string
}

func newCasesUpdateCmd() *cobra.Command {
	var flags caseUpdateFlags

	cmd := &cobra.Command{
		Use:   "update [case]",
		Short: "Update a case's title, description or status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				globalCase = args[0]
			}
			return runCasesUpdate(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&flags.status, "status", "", "New status (draft, in_progress, completed, archived)")

	return cmd
}

func runCasesUpdate(cmd *cobra.Command, flags caseUpdateFlags) error {
	ctx := cmd.Context()

	var update handlers.CaseUpdate
	if cmd.Flags().Changed("title") {
		update.Title = &flags.title
	}
	if cmd.Flags().Changed("description") {
		update.Description = &flags.description
	}
	if cmd.Flags().Changed("status") {
		update.Status = &flags.status
	}

	return withCase(func(d *Deps, caseID int64) error {
		c, err := d.CaseHandler.HandleUpdate(ctx, caseID, update)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated case %d: %s (%s)\n", c.ID, c.Title, c.Status)
		return nil
	})
}

func newCasesDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete CASE",
		Short: "Delete a case with all its persons and relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCasesDelete(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without confirmation")

	return cmd
}

func runCasesDelete(cmd *cobra.Command, ref string, force bool) error {
	ctx := cmd.Context()

	return withInternalDeps(func(d *internalDeps) error {
		caseID, err := d.Cases.Resolve(ref)
		if err != nil {
			return err
		}

		if !force {
			ok, err := confirm(cmd, fmt.Sprintf("Delete case %d and everything in it?", caseID))
			if err != nil || !ok {
				return err
			}
		}

		if err := d.CaseHandler.HandleDelete(ctx, caseID); err != nil {
			return err
		}

		forgetCase(d.Cases, caseID)
		if err := d.Cases.Save(d.basePath); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted case %d\n", caseID)
		return nil
	})
}

// forgetCase drops every alias of a deleted case and clears it as current.
func forgetCase(cases *config.CasesConfig, caseID int64) {
	for _, name := range cases.Names() {
		if cases.Aliases[name].CaseID == caseID {
			cases.Remove(name)
		}
	}
	if cases.Current == caseID {
		cases.Current = 0
	}
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func newCasesUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use CASE",
		Short: "Set the current case (id or alias)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			caseID, err := useCase(cwd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current case: %d\n", caseID)
			return nil
		},
	}
}

// useCase makes ref the current case and saves the cases file.
func useCase(basePath, ref string) (int64, error) {
	cases, err := config.LoadCases(basePath)
	if err != nil {
		return 0, fmt.Errorf("loading cases: %w", err)
	}
	caseID, err := cases.Resolve(ref)
	if err != nil {
		return 0, err
	}
	cases.Current = caseID
	if err := cases.Save(basePath); err != nil {
		return 0, err
	}
	return caseID, nil
}

func newCasesAliasCmd() *cobra.Command {
	var (
		description string
		remove      bool
	)

	cmd := &cobra.Command{
		Use:   "alias [NAME [CASE-ID]]",
		Short: "List, add or remove case aliases",
		Long: `Without arguments, lists aliases.
With NAME and CASE-ID, adds an alias. With NAME alone, aliases the current case.
With --remove NAME, removes an alias.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			out := cmd.OutOrStdout()

			switch {
			case len(args) == 0:
				return listAliases(out, cwd)
			case remove:
				if err := removeAlias(cwd, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed alias %s\n", args[0])
				return nil
			default:
				ref := ""
				if len(args) == 2 {
					ref = args[1]
				}
				caseID, err := addAlias(cwd, args[0], ref, description)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Alias %s -> case %d\n", args[0], caseID)
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Alias description")
	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the alias")

	return cmd
}

func listAliases(w io.Writer, basePath string) error {
	cases, err := config.LoadCases(basePath)
	if err != nil {
		return fmt.Errorf("loading cases: %w", err)
	}
	if len(cases.Aliases) == 0 {
		fmt.Fprintln(w, "No aliases configured.")
		fmt.Fprintln(w, "Use 'famtree cases alias NAME CASE-ID' to add one.")
		return nil
	}

	fmt.Fprintf(w, "%-20s %-8s %s\n", "NAME", "CASE", "DESCRIPTION")
	fmt.Fprintf(w, "%-20s %-8s %s\n", "----", "----", "-----------")
	for _, name := range cases.Names() {
		alias := cases.Aliases[name]
		fmt.Fprintf(w, "%-20s %-8d %s\n", name, alias.CaseID, alias.Description)
	}
	return nil
}

// addAlias points name at the case ref resolves to (the current case when ref is empty).
func addAlias(basePath, name, ref, description string) (int64, error) {
	if _, err := strconv.ParseInt(name, 10, 64); err == nil {
		return 0, fmt.Errorf("alias %q must not be a number", name)
	}

	cases, err := config.LoadCases(basePath)
	if err != nil {
		return 0, fmt.Errorf("loading cases: %w", err)
	}
	caseID, err := cases.Resolve(ref)
	if err != nil {
		return 0, err
	}

	cases.Add(name, config.CaseAlias{CaseID: caseID, Description: description})
	if err := cases.Save(basePath); err != nil {
		return 0, err
	}
	return caseID, nil
}

func removeAlias(basePath, name string) error {
	cases, err := config.LoadCases(basePath)
	if err != nil {
		return fmt.Errorf("loading cases: %w", err)
	}
	if _, ok := cases.Aliases[name]; !ok {
		return fmt.Errorf("alias %q not found", name)
	}
	cases.Remove(name)
	return cases.Save(basePath)
}
