package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/caseflow-dev/caseflow/internal/agent"
)

// newRunCmd creates the run command
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <case-id> <template> <artifact>...",
		Short: "Start a run over the given artifacts",
		Long: `Start a run for a case.

Each artifact argument is a file whose contents become case evidence for
the first step. The server drives the run in the background; watch it with
"caseflow status" or approve gates with "caseflow approve".

Examples:
  caseflow run CASE-104 intake claim.pdf statement.txt
  caseflow run CASE-104 intake ./docs/*.pdf`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID, templateName := args[0], args[1]

			artifacts := make([]agent.Artifact, 0, len(args)-2)
			for _, path := range args[2:] {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read artifact: %w", err)
				}
				mediaType := mime.TypeByExtension(filepath.Ext(path))
				if mediaType == "" {
					mediaType = "application/octet-stream"
				}
				artifacts = append(artifacts, agent.Artifact{
					Name:      filepath.Base(path),
					MediaType: mediaType,
					Content:   string(data),
				})
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			var resp map[string]any
			err = client.post("/api/runs", map[string]any{
				"case_id":   caseID,
				"template":  templateName,
				"artifacts": artifacts,
			}, &resp)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(resp)
			}
			fmt.Printf("Run started for %s (template %s, %d artifacts)\n", caseID, templateName, len(artifacts))
			fmt.Println("Watch progress:  caseflow status")
			return nil
		},
	}
	return cmd
}

// newResumeCmd creates the resume command
func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume an interrupted run",
		Long: `Resume the active run from its journal.

Completed steps are not re-executed; the run continues from the first step
without a recorded completion, or re-enters its pending gate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			var resp map[string]any
			if err := client.post("/api/resume", map[string]any{}, &resp); err != nil {
				return err
			}

			if jsonOut {
				return printJSON(resp)
			}
			fmt.Printf("Resuming run %v for case %v\n", resp["run_id"], resp["case_id"])
			return nil
		},
	}
}
