// Package api exposes the operator-facing HTTP and WebSocket surface.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caseflow-dev/caseflow/internal/events"
	"github.com/caseflow-dev/caseflow/internal/journal"
	"github.com/caseflow-dev/caseflow/internal/orchestrator"
	"github.com/caseflow-dev/caseflow/internal/template"
)

// Server serves run control, journal reads, and the event stream.
type Server struct {
	orch     *orchestrator.Orchestrator
	jrnl     *journal.Journal
	registry *template.Registry
	ws       *WSHandler
	logger   *slog.Logger
	addr     string
}

// NewServer wires the HTTP surface over the orchestrator and journal.
func NewServer(orch *orchestrator.Orchestrator, jrnl *journal.Journal, registry *template.Registry, pub events.Publisher, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		orch:     orch,
		jrnl:     jrnl,
		registry: registry,
		ws:       NewWSHandler(pub, logger),
		logger:   logger,
		addr:     addr,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/gate", s.handleGate)
	mux.HandleFunc("POST /api/gate/approve", s.handleApprove)
	mux.HandleFunc("POST /api/gate/reject", s.handleReject)
	mux.HandleFunc("POST /api/runs", s.handleStartRun)
	mux.HandleFunc("POST /api/resume", s.handleResume)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/templates", s.handleTemplates)
	mux.HandleFunc("GET /api/directives", s.handleDirectives)
	mux.HandleFunc("POST /api/directives", s.handleAddDirective)
	mux.HandleFunc("POST /api/directives/deactivate", s.handleDeactivateDirective)
	mux.HandleFunc("POST /api/patches", s.handleAddPatch)
	mux.Handle("GET /ws", s.ws)

	return mux
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("api server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.ws.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
