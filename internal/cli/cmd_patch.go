package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caseflow-dev/caseflow/internal/journal"
)

// newPatchCmd creates the patch command
func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch <role> <field> <corrected-value>",
		Short: "Correct a field in the active run",
		Long: `Record a human correction against a step's output.

The patch is journaled with a content hash so later review can verify it
was not altered.

Example:
  caseflow patch extractor amount 1000 --original 100 --reason "typo in extraction"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			original, _ := cmd.Flags().GetString("original")
			reason, _ := cmd.Flags().GetString("reason")

			client, err := newClient()
			if err != nil {
				return err
			}

			var created journal.HumanPatch
			err = client.post("/api/patches", journal.HumanPatch{
				PatchedBy:      cfg.OperatorName,
				Role:           args[0],
				Field:          args[1],
				CorrectedValue: args[2],
				OriginalValue:  original,
				Reason:         reason,
				Kind:           journal.PatchCorrection,
			}, &created)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(created)
			}
			fmt.Printf("Patch %s recorded (%s.%s).\n", created.ID, created.Role, created.Field)
			return nil
		},
	}
	cmd.Flags().String("original", "", "the value being corrected")
	cmd.Flags().String("reason", "", "why the correction was made")
	return cmd
}
