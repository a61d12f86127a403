package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caseflow-dev/caseflow/internal/journal"
)

// newDirectiveCmd creates the directive command group
func newDirectiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directive",
		Short: "Manage scope directives",
		Long: `Manage scope directives.

Directives constrain what later steps may rely on. They persist across
runs unless created with --expires-with-run, and are injected into each
step's instructions by priority.`,
	}
	cmd.AddCommand(newDirectiveListCmd())
	cmd.AddCommand(newDirectiveAddCmd())
	cmd.AddCommand(newDirectiveDeactivateCmd())
	return cmd
}

func newDirectiveListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active directives",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			var directives []journal.ScopeDirective
			if err := client.get("/api/directives", &directives); err != nil {
				return err
			}

			if jsonOut {
				return printJSON(directives)
			}

			if len(directives) == 0 {
				fmt.Println("No active directives.")
				return nil
			}
			for _, d := range directives {
				fmt.Printf("%s  [%s] %s\n", d.ID, d.Priority, d.Text)
				if len(d.Roles) > 0 {
					fmt.Printf("%*s  roles: %v\n", len(d.ID), "", d.Roles)
				}
			}
			return nil
		},
	}
}

func newDirectiveAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a scope directive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			priority, _ := cmd.Flags().GetString("priority")
			kind, _ := cmd.Flags().GetString("kind")
			roles, _ := cmd.Flags().GetStringSlice("roles")
			rationale, _ := cmd.Flags().GetString("rationale")
			expires, _ := cmd.Flags().GetBool("expires-with-run")

			client, err := newClient()
			if err != nil {
				return err
			}

			var created journal.ScopeDirective
			err = client.post("/api/directives", journal.ScopeDirective{
				CreatedBy:      cfg.OperatorName,
				Kind:           journal.DirectiveKind(kind),
				Text:           args[0],
				Rationale:      rationale,
				Roles:          roles,
				Priority:       journal.Priority(priority),
				ExpiresWithRun: expires,
			}, &created)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(created)
			}
			fmt.Printf("Directive %s added.\n", created.ID)
			return nil
		},
	}
	cmd.Flags().String("priority", string(journal.PriorityShould), "priority (must, should, may)")
	cmd.Flags().String("kind", string(journal.DirectiveCustom), "directive kind")
	cmd.Flags().StringSlice("roles", nil, "restrict to these step roles")
	cmd.Flags().String("rationale", "", "why this directive exists")
	cmd.Flags().Bool("expires-with-run", false, "expire when the current run ends")
	return cmd
}

func newDirectiveDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a directive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			var resp struct {
				ID          string `json:"id"`
				Deactivated bool   `json:"deactivated"`
			}
			if err := client.post("/api/directives/deactivate", map[string]string{"id": args[0]}, &resp); err != nil {
				return err
			}

			if jsonOut {
				return printJSON(resp)
			}
			if !resp.Deactivated {
				fmt.Printf("No active directive with ID %s.\n", args[0])
				return nil
			}
			fmt.Printf("Directive %s deactivated.\n", args[0])
			return nil
		},
	}
}
