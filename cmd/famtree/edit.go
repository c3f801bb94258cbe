package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree/internal/application/handlers"
	"github.com/ersonp/famtree/internal/domain/services"
)

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the family graph of a case interactively",
		Long: `Opens the family graph of a case in an interactive session.
Changes are sent to the store immediately; the graph is redrawn after every command.
Type 'help' for the list of commands.`,
		Args: cobra.NoArgs,
		RunE: runEdit,
	}
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withEditor(func(editor *services.Editor, d *Deps) error {
		out := cmd.OutOrStdout()
		session := handlers.NewEditSession(editor, out)
		if err := session.Start(ctx); err != nil {
			return err
		}

		d.Logger.WithField("case_id", editor.CaseID()).Debug("edit session started")
		return runEditLoop(ctx, session, cmd.InOrStdin(), out)
	})
}

// runEditLoop reads commands from in until quit, end of input or cancellation.
// Command errors are printed and the loop continues.
func runEditLoop(ctx context.Context, session *handlers.EditSession, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Type 'help' for commands, 'quit' to leave.")

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}

		quit, err := session.Execute(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if quit {
			return nil
		}
	}

	return scanner.Err()
}
