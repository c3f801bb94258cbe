package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree/internal/application/handlers"
	"github.com/ersonp/famtree/internal/domain"
	"github.com/ersonp/famtree/internal/domain/entities"
)

type graphFlags struct {
	format string
	output string
}

func newGraphCmd() *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Project a case into its node/edge graph",
		Long: `Loads a case and prints the graph an editor would draw:
one node per person (categorized, styled and placed on the grid) and
one labeled edge per relationship.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGraph(cmd *cobra.Command, flags graphFlags) error {
	if !contains(graphFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, graphFormats)
	}

	ctx := cmd.Context()

	return withCase(func(d *Deps, caseID int64) error {
		result, err := d.GraphHandler.HandleGraph(ctx, caseID)
		if err != nil {
			return err
		}

		for _, w := range result.Warnings {
			d.Logger.Warn(w)
		}

		return withOutput(flags.output, cmd.OutOrStdout(), func(w io.Writer) error {
			if flags.format == "markdown" {
				return formatGraphMarkdown(w, result)
			}
			return formatGraphJSON(w, result)
		})
	})
}

func formatGraphJSON(w io.Writer, result *handlers.GraphResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result.Graph)
}

func formatGraphMarkdown(w io.Writer, result *handlers.GraphResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", result.Case.Title)
	fmt.Fprintf(&b, "Status: %s\n\n", result.Case.Status)

	fmt.Fprintf(&b, "## Persons (%d)\n\n", len(result.Graph.Nodes))
	if len(result.Graph.Nodes) > 0 {
		b.WriteString("| Node | Name | Role | Status | Position |\n")
		b.WriteString("|------|------|------|--------|----------|\n")
		for _, n := range result.Graph.Nodes {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d,%d |\n",
				n.ID, escapeMarkdown(n.Label.Name), n.Label.Role, n.Label.Status, n.Position.X, n.Position.Y)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Relationships (%d)\n\n", len(result.Graph.Edges))
	if len(result.Graph.Edges) > 0 {
		names := make(map[string]string, len(result.Graph.Nodes))
		for _, n := range result.Graph.Nodes {
			names[n.ID] = n.Label.Name
		}
		for _, e := range result.Graph.Edges {
			fmt.Fprintf(&b, "- %s -[%s]-> %s\n", nodeName(names, e.Source), e.Label, nodeName(names, e.Target))
		}
		b.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, warning := range result.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func nodeName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return escapeMarkdown(name)
	}
	return id + " (missing)"
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func newCalcCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate the legal heirs and shares of a case",
		Long: `Asks the calculation engine of the case API for the heirs of the decedent
and their statutory shares. Not available with the local store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json)")

	return cmd
}

func runCalc(cmd *cobra.Command, format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid: text, json)", format)
	}

	ctx := cmd.Context()

	return withCase(func(d *Deps, caseID int64) error {
		result, err := d.GraphHandler.HandleCalculate(ctx, caseID)
		if err != nil {
			return calculatorError(err)
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		}
		formatCalculation(out, result)
		return nil
	})
}

func formatCalculation(w io.Writer, result *entities.CalculationResult) {
	fmt.Fprintf(w, "Decedent: %s\n", result.Decedent.Name)
	fmt.Fprintf(w, "Spouse: %s  Children: %s\n\n", yesNo(result.HasSpouse), yesNo(result.HasChildren))

	if len(result.Heirs) == 0 {
		fmt.Fprintln(w, "No heirs.")
	} else {
		fmt.Fprintf(w, "%-20s %-16s %-5s %-8s %s\n", "HEIR", "RELATIONSHIP", "RANK", "SHARE", "PERCENT")
		for _, h := range result.Heirs {
			fmt.Fprintf(w, "%-20s %-16s %-5d %-8s %.2f%%\n",
				h.Name, h.Relationship, h.Rank,
				fmt.Sprintf("%d/%d", h.ShareNumerator, h.ShareDenominator),
				h.SharePercentage)
		}
	}

	if len(result.CalculationBasis) > 0 {
		fmt.Fprintln(w, "\nBasis:")
		for _, basis := range result.CalculationBasis {
			fmt.Fprintf(w, "  - %s\n", basis)
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the calculation engine's text rendering of the family tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withCase(func(d *Deps, caseID int64) error {
				tree, err := d.GraphHandler.HandleTree(ctx, caseID)
				if err != nil {
					return calculatorError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(tree, "\n"))
				return nil
			})
		},
	}
}

// calculatorError adds a hint when the store has no calculation engine.
func calculatorError(err error) error {
	if errors.Is(err, domain.ErrUnsupported) {
		return fmt.Errorf("%w (the calculation engine needs the case API; drop --local or set store.mode: http)", err)
	}
	return err
}
