package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/famtree/internal/domain/entities"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the change log of a case (local store only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultHistoryLimit, "Maximum number of entries (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()

	return withCase(func(d *Deps, caseID int64) error {
		if d.HistoryHandler == nil {
			return errors.New("history is only available with the local store (use --local)")
		}

		entries, err := d.HistoryHandler.Handle(ctx, caseID, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No history.")
			return nil
		}
		printHistory(out, entries)
		return nil
	})
}

func printHistory(w io.Writer, entries []entities.AuditEntry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-22s", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Action)
		if e.SubjectID != 0 {
			fmt.Fprintf(w, " #%d", e.SubjectID)
		}
		if details := formatDetails(e.Details); details != "" {
			fmt.Fprintf(w, "  %s", details)
		}
		fmt.Fprintln(w)
	}
}

// formatDetails renders audit details as sorted key=value pairs.
func formatDetails(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var value string
		if s, ok := details[k].(string); ok {
			value = s
		} else {
			data, err := json.Marshal(details[k])
			if err != nil {
				continue
			}
			value = string(data)
		}
		parts = append(parts, k+"="+value)
	}
	return strings.Join(parts, " ")
}
