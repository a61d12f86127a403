package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caseflow-dev/caseflow/internal/orchestrator"
)

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   "Show the active run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			var status orchestrator.Status
			if err := client.get("/api/status", &status); err != nil {
				return err
			}

			if jsonOut {
				return printJSON(status)
			}

			if status.RunID == "" {
				fmt.Println("No active run.")
				fmt.Println("\nStart one:")
				fmt.Println("  caseflow run <case-id> <template> <artifact>...")
				return nil
			}

			fmt.Println(bold(fmt.Sprintf("Case %s", status.CaseID)))
			fmt.Printf("  Run:      %s\n", status.RunID)
			fmt.Printf("  Template: %s\n", status.Template)
			fmt.Printf("  Progress: %d/%d steps\n", status.CompletedSteps, status.TotalSteps)

			switch {
			case status.Gate != nil:
				g := status.Gate
				fmt.Println()
				fmt.Println(bold(fmt.Sprintf("⏸  Gate pending at step %d (%s, %s)", g.Step, g.Role, g.Classification)))
				fmt.Printf("   %s\n", g.Rationale)
				fmt.Printf("   Approver roles: %s\n", strings.Join(g.AllowedRoles, ", "))
				fmt.Println("\n   caseflow approve --as <name>    caseflow reject --as <name>")
			case status.Aborted:
				fmt.Println("\n  Run is stopping.")
			default:
				fmt.Println("\n  Running.")
			}
			return nil
		},
	}
}
