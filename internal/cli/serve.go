package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caseflow-dev/caseflow/internal/agent"
	"github.com/caseflow-dev/caseflow/internal/api"
	"github.com/caseflow-dev/caseflow/internal/events"
	"github.com/caseflow-dev/caseflow/internal/journal"
	"github.com/caseflow-dev/caseflow/internal/lock"
	"github.com/caseflow-dev/caseflow/internal/orchestrator"
	"github.com/caseflow-dev/caseflow/internal/policy"
	"github.com/caseflow-dev/caseflow/internal/repair"
	"github.com/caseflow-dev/caseflow/internal/store"
	"github.com/caseflow-dev/caseflow/internal/template"
)

// newServeCmd creates the serve command for the caseflow server
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the caseflow server",
		Long: `Start the caseflow server.

The server drives runs against the configured agent service, persists the
journal, and exposes the control API plus a WebSocket event stream used by
the other caseflow commands.

Example:
  caseflow serve                       # Listen on the configured address
  caseflow serve --listen :9000        # Override the listen address
  caseflow serve --memory              # Keep the journal in memory only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				cfg.ListenAddr = listen
			}
			inMemory, _ := cmd.Flags().GetBool("memory")

			logger := newLogger(cfg)

			var st journal.Store
			if inMemory {
				st = store.NewMemory()
			} else {
				dir := filepath.Dir(cfg.DBPath)
				if dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return fmt.Errorf("create journal dir: %w", err)
					}
				}

				guard := lock.NewGuard(dir, lockOwner(cfg.OperatorName))
				if err := guard.Acquire(); err != nil {
					return err
				}
				defer guard.Release()

				sq, err := store.Open(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("open journal store: %w", err)
				}
				defer func() { _ = sq.Close() }()
				st = sq
			}

			pub := events.NewMemoryPublisher()
			defer pub.Close()

			jrnl, err := journal.New(st,
				journal.WithHistoryLimit(cfg.HistoryLimit),
				journal.WithPublisher(pub),
				journal.WithLogger(logger),
			)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}

			registry, err := template.NewRegistry(cfg.TemplatesDir)
			if err != nil {
				return fmt.Errorf("load templates: %w", err)
			}

			orch := orchestrator.New(jrnl, registry, agent.NewHTTPExecutor(cfg.AgentURL),
				orchestrator.WithRepairer(repair.NewHTTPRepairer(cfg.RepairURL)),
				orchestrator.WithPublisher(pub),
				orchestrator.WithLogger(logger),
				orchestrator.WithProgressInterval(cfg.ProgressInterval),
				orchestrator.WithGating(policy.Options{
					AutoRun:          cfg.AutoRun,
					AutoRunMandatory: cfg.AutoRunMandatory,
					Logger:           logger,
				}),
			)

			server := api.NewServer(orch, jrnl, registry, pub, logger, cfg.ListenAddr)

			fmt.Printf("caseflow server listening on %s\n", cfg.ListenAddr)
			fmt.Println("Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.Run(ctx)
		},
	}

	cmd.Flags().String("listen", "", "listen address (overrides config)")
	cmd.Flags().Bool("memory", false, "use an in-memory journal store")

	return cmd
}

// lockOwner builds the user@host identifier recorded in the serve lock.
func lockOwner(operatorName string) string {
	name := operatorName
	if name == "" {
		name = "caseflow"
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return name + "@" + host
}
