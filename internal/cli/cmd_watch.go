package cli

import (
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/caseflow-dev/caseflow/internal/events"
	"github.com/caseflow-dev/caseflow/internal/progress"
)

// newWatchCmd creates the watch command
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream run events live",
		Long: `Stream run events from the server as they happen.

Watches all runs by default; pass --run to follow a single run.
Press Ctrl+C to stop watching (the run itself keeps going).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run")
			if runID == "" {
				runID = events.GlobalRunID
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			base := cfg.ListenAddr
			if !strings.Contains(base, "://") {
				base = "ws://" + base
			} else {
				base = strings.Replace(base, "http", "ws", 1)
			}

			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), strings.TrimRight(base, "/")+"/ws", nil)
			if err != nil {
				return fmt.Errorf("caseflow server at %s: %w (is \"caseflow serve\" running?)", cfg.ListenAddr, err)
			}
			defer func() { _ = conn.Close() }()

			if err := conn.WriteJSON(map[string]string{"type": "subscribe", "run_id": runID}); err != nil {
				return err
			}

			tracker := progress.NewTracker()
			for {
				var ev progress.StreamEvent
				if err := conn.ReadJSON(&ev); err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return fmt.Errorf("event stream closed: %w", err)
				}
				if line := tracker.Line(ev); line != "" {
					fmt.Println(line)
				}
			}
		},
	}
	cmd.Flags().String("run", "", "follow a single run ID (default: all runs)")
	return cmd
}
