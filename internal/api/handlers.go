package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/caseflow-dev/caseflow/internal/agent"
	"github.com/caseflow-dev/caseflow/internal/errors"
	"github.com/caseflow-dev/caseflow/internal/journal"
	"github.com/caseflow-dev/caseflow/internal/orchestrator"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Status())
}

func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	status := s.orch.Status()
	if status.Gate == nil {
		writeError(w, errors.ErrGateNotPending())
		return
	}
	writeJSON(w, http.StatusOK, status.Gate)
}

// gateDecisionBody is the request payload for approve/reject.
type gateDecisionBody struct {
	Approver     string `json:"approver"`
	OperatorRole string `json:"operator_role"`
	Rationale    string `json:"rationale,omitempty"`

	WhatHappened  string              `json:"what_happened,omitempty"`
	WhatIApproved string              `json:"what_i_approved,omitempty"`
	ScopeImpact   journal.ScopeImpact `json:"scope_impact,omitempty"`
	FollowUp      string              `json:"follow_up,omitempty"`
	RiskFactors   []string            `json:"risk_factors,omitempty"`
	KeyFindings   []string            `json:"key_findings,omitempty"`

	Directive *journal.ScopeDirective `json:"directive,omitempty"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.resolveGate(w, r, true)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.resolveGate(w, r, false)
}

// resolveGate applies a gate decision. The call is synchronous: the response
// arrives once the run reaches its next gate, completes, or halts.
func (s *Server) resolveGate(w http.ResponseWriter, r *http.Request, approved bool) {
	var body gateDecisionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.ErrConfigInvalid("request body", err.Error()))
		return
	}

	err := s.orch.HandleHumanApproval(r.Context(), orchestrator.GateDecisionRequest{
		Approved:      approved,
		Approver:      body.Approver,
		OperatorRole:  body.OperatorRole,
		Rationale:     body.Rationale,
		WhatHappened:  body.WhatHappened,
		WhatIApproved: body.WhatIApproved,
		ScopeImpact:   body.ScopeImpact,
		FollowUp:      body.FollowUp,
		RiskFactors:   body.RiskFactors,
		KeyFindings:   body.KeyFindings,
		Directive:     body.Directive,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.orch.Status())
}

// startRunBody is the request payload for starting a run.
type startRunBody struct {
	CaseID    string           `json:"case_id"`
	Template  string           `json:"template"`
	Artifacts []agent.Artifact `json:"artifacts"`
}

// handleStartRun validates the request, then drives the run in the
// background; progress is observable over the event stream.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var body startRunBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.ErrConfigInvalid("request body", err.Error()))
		return
	}
	if len(body.Artifacts) == 0 {
		writeError(w, errors.ErrNoArtifacts(body.CaseID))
		return
	}
	if _, err := s.registry.Get(body.Template); err != nil {
		writeError(w, err)
		return
	}
	if run := s.jrnl.CurrentRun(); run != nil && run.Status == journal.RunInProgress {
		writeError(w, errors.ErrRunActive(run.ID))
		return
	}

	go func() {
		if _, err := s.orch.StartRun(context.Background(), body.CaseID, body.Template, body.Artifacts); err != nil {
			s.logger.Warn("run ended with error", "case_id", body.CaseID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"accepted": true,
		"case_id":  body.CaseID,
		"template": body.Template,
	})
}

// handleResume picks an interrupted run back up from the journal. Like run
// start, the drive happens in the background.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	run := s.jrnl.CurrentRun()
	if run == nil {
		writeError(w, errors.ErrRunNotFound())
		return
	}

	go func() {
		if err := s.orch.Resume(context.Background()); err != nil {
			s.logger.Warn("resume ended with error", "run_id", run.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"accepted": true,
		"run_id":   run.ID,
		"case_id":  run.CaseID,
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Reason == "" {
		body.Reason = "stopped via api"
	}

	s.orch.StopProcessing(body.Reason)
	writeJSON(w, http.StatusOK, map[string]any{"stopped": true})
}

// historyEntry is the compact per-run listing.
type historyEntry struct {
	RunID    string              `json:"run_id"`
	CaseID   string              `json:"case_id"`
	Template string              `json:"template"`
	Status   journal.RunStatus   `json:"status"`
	Summary  *journal.RunSummary `json:"summary,omitempty"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runs := s.jrnl.History()
	entries := make([]historyEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, historyEntry{
			RunID:    run.ID,
			CaseID:   run.CaseID,
			Template: run.Template,
			Status:   run.Status,
			Summary:  run.Summary,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var run *journal.Run
	if id := r.URL.Query().Get("run_id"); id != "" {
		for _, archived := range s.jrnl.History() {
			if archived.ID == id {
				run = archived
				break
			}
		}
		if run == nil {
			writeError(w, errors.ErrRunNotFound())
			return
		}
	}

	if r.URL.Query().Get("format") == "markdown" {
		md := s.jrnl.ExportMarkdown(run)
		if md == "" {
			writeError(w, errors.ErrRunNotFound())
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(md))
		return
	}

	doc := s.jrnl.ExportDocument(run)
	if doc == nil {
		writeError(w, errors.ErrRunNotFound())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	type templateInfo struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Steps       int    `json:"steps"`
	}

	names := s.registry.Names()
	infos := make([]templateInfo, 0, len(names))
	for _, name := range names {
		wf, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, templateInfo{Name: wf.Name, Description: wf.Description, Steps: wf.Len()})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleDirectives(w http.ResponseWriter, r *http.Request) {
	directives := s.jrnl.ActiveDirectives()
	if directives == nil {
		directives = []journal.ScopeDirective{}
	}
	writeJSON(w, http.StatusOK, directives)
}

func (s *Server) handleAddDirective(w http.ResponseWriter, r *http.Request) {
	var body journal.ScopeDirective
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.ErrConfigInvalid("request body", err.Error()))
		return
	}
	if body.Text == "" {
		writeError(w, errors.ErrConfigInvalid("text", "directive text is required"))
		return
	}

	created := s.jrnl.AddDirective(body)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeactivateDirective(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		writeError(w, errors.ErrConfigInvalid("id", "directive id is required"))
		return
	}

	found := s.jrnl.DeactivateDirective(body.ID)
	writeJSON(w, http.StatusOK, map[string]any{"id": body.ID, "deactivated": found})
}

func (s *Server) handleAddPatch(w http.ResponseWriter, r *http.Request) {
	var body journal.HumanPatch
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.ErrConfigInvalid("request body", err.Error()))
		return
	}
	if body.Field == "" {
		writeError(w, errors.ErrConfigInvalid("field", "patch field is required"))
		return
	}

	created := s.jrnl.AddHumanPatch(body)
	if created == nil {
		writeError(w, errors.ErrRunNotFound())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
