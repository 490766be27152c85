package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"podenrich/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var statusFilter []string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-episode progress from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := make([]ledger.Status, 0, len(statusFilter))
			for _, raw := range statusFilter {
				status, ok := ledger.ParseStatus(strings.ToLower(strings.TrimSpace(raw)))
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return fmt.Errorf("list ledger: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No episodes recorded")
			} else {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						string(e.Status),
						e.Title,
						e.PrimaryTag,
						strconv.Itoa(e.Segments),
						strconv.Itoa(e.Windows),
						strconv.Itoa(e.Attempts),
						e.UpdatedAt.Local().Format("2006-01-02 15:04"),
						errorSummary(e),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Status", "Title", "Primary Tag", "Segments", "Windows", "Attempts", "Updated", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
				))
			}

			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return fmt.Errorf("count ledger: %w", err)
			}
			parts := make([]string, 0, len(counts))
			for _, status := range ledger.AllStatuses() {
				if n := counts[status]; n > 0 {
					parts = append(parts, fmt.Sprintf("%s=%d", status, n))
				}
			}
			if len(parts) > 0 {
				fmt.Fprintf(out, "Totals: %s\n", strings.Join(parts, " "))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&statusFilter, "status", nil, "Only show episodes in these statuses")
	return cmd
}

func errorSummary(e *ledger.Entry) string {
	if e.ErrorKind == "" {
		return ""
	}
	msg := e.ErrorMessage
	if len([]rune(msg)) > 80 {
		msg = string([]rune(msg)[:77]) + "..."
	}
	return fmt.Sprintf("%s: %s", e.ErrorKind, msg)
}
