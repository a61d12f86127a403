package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newStopCmd creates the stop command
func newStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the active run",
		Long: `Stop the active run.

A run paused at a gate aborts immediately. A run mid-step finishes the
in-flight call, discards its result, and aborts at the step boundary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")

			client, err := newClient()
			if err != nil {
				return err
			}

			var resp map[string]any
			body := map[string]string{}
			if reason != "" {
				body["reason"] = reason
			}
			if err := client.post("/api/stop", body, &resp); err != nil {
				return err
			}

			if jsonOut {
				return printJSON(resp)
			}
			fmt.Println("Stop requested.")
			return nil
		},
	}
	cmd.Flags().String("reason", "", "why the run is being stopped")
	return cmd
}
