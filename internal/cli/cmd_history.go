package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/caseflow-dev/caseflow/internal/journal"
)

type historyEntry struct {
	RunID    string              `json:"run_id"`
	CaseID   string              `json:"case_id"`
	Template string              `json:"template"`
	Status   journal.RunStatus   `json:"status"`
	Summary  *journal.RunSummary `json:"summary,omitempty"`
}

// newHistoryCmd creates the history command
func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List archived runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			var entries []historyEntry
			if err := client.get("/api/history", &entries); err != nil {
				return err
			}

			if jsonOut {
				return printJSON(entries)
			}

			if len(entries) == 0 {
				fmt.Println("No archived runs.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tCASE\tTEMPLATE\tSTATUS\tSTEPS\tUNITS")
			for _, e := range entries {
				steps, units := "-", "-"
				if e.Summary != nil {
					steps = fmt.Sprintf("%d/%d", e.Summary.CompletedSteps, e.Summary.TotalSteps)
					units = fmt.Sprintf("%d", e.Summary.Usage.Total())
				}
				status := string(e.Status)
				if e.Summary != nil && e.Status == journal.RunCompleted {
					status = string(e.Summary.FinalStatus)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.RunID, e.CaseID, e.Template, status, steps, units)
			}
			return w.Flush()
		},
	}
}
