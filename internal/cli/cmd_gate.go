package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caseflow-dev/caseflow/internal/journal"
	"github.com/caseflow-dev/caseflow/internal/orchestrator"
)

// newGateCmd creates the gate command
func newGateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gate",
		Short: "Show the pending gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			var gate orchestrator.PendingGate
			if err := client.get("/api/gate", &gate); err != nil {
				return err
			}

			if jsonOut {
				return printJSON(gate)
			}

			fmt.Println(bold(fmt.Sprintf("Gate at step %d (%s, %s)", gate.Step, gate.Role, gate.Classification)))
			fmt.Printf("  %s\n", gate.Rationale)
			fmt.Printf("  Approver roles: %s\n", strings.Join(gate.AllowedRoles, ", "))
			if gate.Output != "" {
				fmt.Println("\nStep output:")
				fmt.Println(indent(gate.Output, "  "))
			}
			return nil
		},
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// decisionFlags are the shared approve/reject flags.
func decisionFlags(cmd *cobra.Command) {
	cmd.Flags().String("as", "", "approver name (default from config)")
	cmd.Flags().String("role", "", "operator role (default from config)")
	cmd.Flags().String("rationale", "", "why this decision was made")
	cmd.Flags().String("directive", "", "attach a scope directive for later steps")
	cmd.Flags().String("directive-priority", string(journal.PriorityShould), "directive priority (must, should, may)")
	cmd.Flags().StringSlice("directive-roles", nil, "restrict the directive to these step roles")
	cmd.Flags().Bool("directive-expires", false, "expire the directive with the current run")
}

// decisionBody builds the gate decision payload from flags and config.
func decisionBody(cmd *cobra.Command) (map[string]any, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	approver, _ := cmd.Flags().GetString("as")
	if approver == "" {
		approver = cfg.OperatorName
	}
	if approver == "" {
		return nil, fmt.Errorf("approver name required: pass --as or set operator_name in config")
	}
	role, _ := cmd.Flags().GetString("role")
	if role == "" {
		role = cfg.OperatorRole
	}
	rationale, _ := cmd.Flags().GetString("rationale")

	body := map[string]any{
		"approver":      approver,
		"operator_role": role,
		"rationale":     rationale,
	}

	if text, _ := cmd.Flags().GetString("directive"); text != "" {
		priority, _ := cmd.Flags().GetString("directive-priority")
		roles, _ := cmd.Flags().GetStringSlice("directive-roles")
		expires, _ := cmd.Flags().GetBool("directive-expires")
		body["directive"] = journal.ScopeDirective{
			Text:           text,
			Priority:       journal.Priority(priority),
			Roles:          roles,
			ExpiresWithRun: expires,
		}
	}
	return body, nil
}

// newApproveCmd creates the approve command
func newApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve the pending gate",
		Long: `Approve the pending gate and continue the run.

The command blocks until the run reaches its next gate, completes, or
halts.

Examples:
  caseflow approve --as dana
  caseflow approve --as dana --rationale "amounts verified against filing"
  caseflow approve --as dana --directive "use filed documents only" --directive-priority must`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveGate(cmd, "/api/gate/approve", "approved")
		},
	}
	decisionFlags(cmd)
	return cmd
}

// newRejectCmd creates the reject command
func newRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject",
		Short: "Reject the pending gate",
		Long: `Reject the pending gate.

The gated step re-executes with its original input; attach a directive to
change what later steps may rely on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveGate(cmd, "/api/gate/reject", "rejected")
		},
	}
	decisionFlags(cmd)
	return cmd
}

func resolveGate(cmd *cobra.Command, path, verb string) error {
	body, err := decisionBody(cmd)
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	var status orchestrator.Status
	if err := client.post(path, body, &status); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(status)
	}

	fmt.Printf("Gate %s.\n", verb)
	switch {
	case status.Gate != nil:
		fmt.Printf("Next gate pending at step %d (%s). Run \"caseflow gate\" for details.\n",
			status.Gate.Step, status.Gate.Role)
	case status.RunID == "":
		fmt.Println("Run finished. See \"caseflow history\".")
	default:
		fmt.Printf("Run at %d/%d steps.\n", status.CompletedSteps, status.TotalSteps)
	}
	return nil
}
