package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/caseflow-dev/caseflow/internal/journal"
	"github.com/caseflow-dev/caseflow/internal/util"
)

// newExportCmd creates the export command
func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a run journal",
		Long: `Export a run journal as markdown or JSON.

Without --run the active run is exported; pass --run to export an
archived one.

Examples:
  caseflow export                      # Active run, markdown to stdout
  caseflow export --out case.md        # Write to a file
  caseflow export --run <id> --json    # Archived run as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run")
			out, _ := cmd.Flags().GetString("out")

			client, err := newClient()
			if err != nil {
				return err
			}

			q := url.Values{}
			if runID != "" {
				q.Set("run_id", runID)
			}

			if jsonOut {
				var doc journal.Document
				if err := client.get("/api/export?"+q.Encode(), &doc); err != nil {
					return err
				}
				return printJSON(doc)
			}

			q.Set("format", "markdown")
			md, err := client.getRaw("/api/export?" + q.Encode())
			if err != nil {
				return err
			}

			if out != "" {
				if err := util.AtomicWriteFile(out, md, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Printf("Exported to %s\n", out)
				return nil
			}
			fmt.Print(string(md))
			return nil
		},
	}
	cmd.Flags().String("run", "", "archived run ID (default: active run)")
	cmd.Flags().String("out", "", "write to file instead of stdout")
	return cmd
}

// newTemplatesCmd creates the templates command
func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available workforce templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			var infos []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
				Steps       int    `json:"steps"`
			}
			if err := client.get("/api/templates", &infos); err != nil {
				return err
			}

			if jsonOut {
				return printJSON(infos)
			}

			for _, info := range infos {
				fmt.Printf("%s (%d steps)\n", bold(info.Name), info.Steps)
				if info.Description != "" {
					fmt.Printf("  %s\n", info.Description)
				}
			}
			return nil
		},
	}
}
