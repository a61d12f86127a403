// Package orchestrator drives a workforce template against a case.
//
// The orchestrator executes steps strictly in template order, consults the
// classification policy after each one, and writes every transition into the
// run journal. Gated steps suspend the driver loop until a human decision
// arrives; auto-run bypasses advisory gates with a recorded auto-approval.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caseflow-dev/caseflow/internal/agent"
	"github.com/caseflow-dev/caseflow/internal/errors"
	"github.com/caseflow-dev/caseflow/internal/events"
	"github.com/caseflow-dev/caseflow/internal/journal"
	"github.com/caseflow-dev/caseflow/internal/policy"
	"github.com/caseflow-dev/caseflow/internal/repair"
	"github.com/caseflow-dev/caseflow/internal/score"
	"github.com/caseflow-dev/caseflow/internal/template"
)

// DefaultProgressInterval is how often a progress tick is published while an
// agent call is in flight.
const DefaultProgressInterval = 5 * time.Second

// Orchestrator is the single-driver step executor for one session. StartRun,
// HandleHumanApproval, and Resume must not be called concurrently with each
// other; Status and StopProcessing are safe from any goroutine.
type Orchestrator struct {
	journal   *journal.Journal
	registry  *template.Registry
	executor  agent.Executor
	repairer  repair.Repairer
	scorer    score.Scorer
	publisher events.Publisher
	logger    *slog.Logger
	gating    policy.Options
	progress  time.Duration

	aborted atomic.Bool

	mu        sync.Mutex
	runID     string
	caseID    string
	workforce *template.Workforce
	artifacts []agent.Artifact
	outputs   map[int]string
	gate      *PendingGate
}

// PendingGate describes a step held awaiting a human decision.
type PendingGate struct {
	Step           int      `json:"step"`
	Role           string   `json:"role"`
	Classification string   `json:"classification"`
	Rationale      string   `json:"rationale"`
	AllowedRoles   []string `json:"allowed_roles"`
	Output         string   `json:"output,omitempty"`
}

// Status is a read-only snapshot of the session.
type Status struct {
	RunID               string       `json:"run_id,omitempty"`
	CaseID              string       `json:"case_id,omitempty"`
	Template            string       `json:"template,omitempty"`
	TotalSteps          int          `json:"total_steps,omitempty"`
	CompletedSteps      int          `json:"completed_steps"`
	HumanActionRequired bool         `json:"human_action_required"`
	Aborted             bool         `json:"aborted"`
	Gate                *PendingGate `json:"gate,omitempty"`
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRepairer sets the input-repair collaborator.
func WithRepairer(r repair.Repairer) Option {
	return func(o *Orchestrator) { o.repairer = r }
}

// WithScorer sets the quality scorer.
func WithScorer(s score.Scorer) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithGating sets the session gating options.
func WithGating(opts policy.Options) Option {
	return func(o *Orchestrator) { o.gating = opts }
}

// WithProgressInterval sets the in-flight progress tick interval.
func WithProgressInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.progress = d
		}
	}
}

// New creates an orchestrator over the given journal, template registry, and
// agent executor.
func New(j *journal.Journal, registry *template.Registry, executor agent.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		journal:   j,
		registry:  registry,
		executor:  executor,
		scorer:    score.NewDeterministic(),
		publisher: events.NewNopPublisher(),
		logger:    slog.Default(),
		progress:  DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.gating.Logger = o.logger
	return o
}

// StartRun begins a new run and drives it until it completes, pauses at a
// gate, or halts. Returns the run ID along with any terminal error.
func (o *Orchestrator) StartRun(ctx context.Context, caseID, templateName string, artifacts []agent.Artifact) (string, error) {
	if len(artifacts) == 0 {
		return "", errors.ErrNoArtifacts(caseID)
	}

	wf, err := o.registry.Get(templateName)
	if err != nil {
		return "", err
	}

	run, err := o.journal.StartNewRun(caseID, wf.Name)
	if err != nil {
		return "", err
	}

	o.aborted.Store(false)
	o.mu.Lock()
	o.runID = run.ID
	o.caseID = caseID
	o.workforce = wf
	o.artifacts = artifacts
	o.outputs = make(map[int]string)
	o.gate = nil
	o.mu.Unlock()

	for _, a := range artifacts {
		o.journal.RecordEvidence(a.Name, a.MediaType, a.SHA256(), int64(len(a.Content)), "intake")
	}

	o.logger.Info("run started", "run_id", run.ID, "case_id", caseID, "template", wf.Name)
	return run.ID, o.runFrom(ctx, 1)
}

// Resume continues a run restored from a persisted snapshot. If the snapshot
// ends at an unresolved gate the session re-enters the suspended state;
// otherwise the driver loop picks up at the next step.
func (o *Orchestrator) Resume(ctx context.Context) error {
	run := o.journal.CurrentRun()
	if run == nil {
		return errors.ErrRunNotFound()
	}

	wf, err := o.registry.Get(run.Template)
	if err != nil {
		return err
	}

	outputs := make(map[int]string)
	for _, step := range run.Steps {
		if step.Status == journal.StepCompleted && step.Output != "" {
			outputs[step.Number] = step.Output
		}
	}

	gate, next := resumePoint(run)
	if gate == nil && next == 1 {
		// Step one consumes the raw artifacts, which are not persisted, so
		// the operator must restart the run with the case documents attached.
		return errors.ErrNoArtifacts(run.CaseID)
	}

	o.mu.Lock()
	o.runID = run.ID
	o.caseID = run.CaseID
	o.workforce = wf
	o.outputs = outputs
	o.gate = gate
	o.mu.Unlock()
	o.aborted.Store(false)

	if gate != nil {
		o.logger.Info("run resumed at pending gate", "run_id", run.ID, "step", gate.Step)
		return nil
	}

	o.logger.Info("run resumed", "run_id", run.ID, "next_step", next)
	return o.runFrom(ctx, next)
}

// resumePoint derives where a restored run picks up: the pending gate implied
// by the snapshot, or the step number the driver loop should execute next. A
// step interrupted mid-flight never recorded its output and runs again, and a
// gated step whose latest review rejected it runs again rather than advancing
// past a rejection.
func resumePoint(run *journal.Run) (*PendingGate, int) {
	if len(run.Steps) == 0 {
		return nil, 1
	}
	step := run.Steps[len(run.Steps)-1]
	switch step.Status {
	case journal.StepSkipped:
		return nil, step.Number + 1
	case journal.StepCompleted:
	default:
		return nil, step.Number
	}
	if !step.GateTriggered || step.AutoApproved {
		return nil, step.Number + 1
	}

	review := latestReview(run, journal.GateID(step.Number, step.Role), step.StartedAt)
	switch {
	case review == nil:
		return pendingGateFor(step), 0
	case review.Decision == journal.DecisionRejected:
		return nil, step.Number
	default:
		return nil, step.Number + 1
	}
}

// latestReview returns the most recent review of gateID recorded at or after
// since, or nil when none exists.
func latestReview(run *journal.Run, gateID string, since time.Time) *journal.GateReview {
	var found *journal.GateReview
	for i := range run.GateReviews {
		review := &run.GateReviews[i]
		if review.GateID != gateID || review.ApprovedAt.Before(since) {
			continue
		}
		if found == nil || review.ApprovedAt.After(found.ApprovedAt) {
			found = review
		}
	}
	return found
}

func pendingGateFor(step *journal.StepRecord) *PendingGate {
	return &PendingGate{
		Step:           step.Number,
		Role:           step.Role,
		Classification: step.Classification,
		Rationale:      fmt.Sprintf("%s output awaiting review", step.Role),
		AllowedRoles:   policy.ApproverRoles(step.Role),
		Output:         step.Output,
	}
}

// runFrom is the driver loop: it executes steps in order starting at n,
// checking the abort flag at each iteration boundary, until the run pauses,
// halts, or completes.
func (o *Orchestrator) runFrom(ctx context.Context, start int) error {
	o.mu.Lock()
	wf := o.workforce
	runID := o.runID
	o.mu.Unlock()

	for n := start; n <= wf.Len(); n++ {
		if o.aborted.Load() {
			return o.haltAborted("abort flag set before step")
		}

		step, err := wf.StepAt(n)
		if err != nil {
			return err
		}
		if step.Skip {
			o.logger.Info("step skipped by template", "step", n, "role", step.Role)
			o.journal.RecordStepSkipped(n, step.Role, step.Classification)
			continue
		}

		outcome, err := o.executeStep(ctx, n, step, wf.Name)
		if err != nil {
			return err
		}
		if outcome == stepPaused {
			return nil
		}
	}

	o.journal.CompleteRun(journal.FinalSuccess)
	o.clearSession()
	o.publisher.Publish(events.NewEvent(events.EventRunCompleted, runID, events.RunCompletedData{
		FinalStatus: string(journal.FinalSuccess),
	}))
	o.logger.Info("run completed", "run_id", runID)
	return nil
}

type stepOutcome int

const (
	stepAdvance stepOutcome = iota
	stepPaused
)

// executeStep runs one step end to end: journal start, input assembly, the
// agent call, failure handling, scoring, and the gating decision.
func (o *Orchestrator) executeStep(ctx context.Context, n int, step template.Step, templateName string) (stepOutcome, error) {
	o.mu.Lock()
	runID := o.runID
	o.mu.Unlock()

	o.journal.RecordStepStart(n, step.Role, step.Classification)
	o.publisher.Publish(events.Event{
		Type:           events.EventStepStarted,
		RunID:          runID,
		Step:           n,
		Role:           step.Role,
		Classification: step.Classification,
		Time:           time.Now(),
	})

	input := o.assembleInput(n, step.Role)
	req := agent.Request{
		Role:     step.Role,
		Step:     n,
		Template: templateName,
		Input:    input,
	}

	started := time.Now()
	stop := o.startProgressTicks(runID, n, step.Role, started)
	res, execErr := o.executor.Execute(ctx, req)
	stop()

	if o.aborted.Load() {
		// The in-flight call is not preemptible; its result is discarded.
		o.logger.Info("discarding step result after abort", "step", n, "role", step.Role)
		return stepAdvance, o.haltAborted("abort flag set during step")
	}
	if execErr != nil {
		return stepAdvance, o.haltFault(runID, n, step.Role, execErr)
	}

	var repaired *repair.Outcome
	if res.Failed() {
		if res.AdversarialCritical() {
			return stepAdvance, o.haltAdversarial(runID, n, step.Role, res)
		}
		res, repaired = o.repairAndRetry(ctx, n, step.Role, req, res)
	} else {
		res.Verdict = agent.VerdictPassed
	}

	sc := o.scorer.Score(score.Input{
		Result:  res,
		Repair:  repaired,
		Latency: time.Since(started),
	})

	o.mu.Lock()
	o.outputs[n] = res.Output
	o.mu.Unlock()
	o.journal.RecordStepOutput(n, res.Output)

	decision := policy.Decide(step.Classification, o.gating)
	o.journal.RecordStepComplete(n, res.Usage, decision.GateTriggered, decision.AutoApprove)
	o.publisher.Publish(events.Event{
		Type:           events.EventStepCompleted,
		RunID:          runID,
		Step:           n,
		Role:           step.Role,
		Classification: step.Classification,
		Data: events.StepCompletedData{
			Step:          n,
			Role:          step.Role,
			Verdict:       string(res.Verdict),
			GateTriggered: decision.GateTriggered,
			AutoApproved:  decision.AutoApprove,
			Integrity:     sc.Integrity,
			Accuracy:      sc.Accuracy,
			Compliance:    sc.Compliance,
			Corrections:   sc.Corrections,
		},
		Time: time.Now(),
	})
	o.logger.Info("step completed",
		"step", n, "role", step.Role, "verdict", res.Verdict,
		"integrity", sc.Integrity, "corrections", sc.Corrections)

	switch {
	case decision.Pause:
		gate := &PendingGate{
			Step:           n,
			Role:           step.Role,
			Classification: step.Classification,
			Rationale:      fmt.Sprintf("%s output completed with verdict %s", step.Role, res.Verdict),
			AllowedRoles:   policy.ApproverRoles(step.Role),
			Output:         res.Output,
		}
		o.mu.Lock()
		o.gate = gate
		o.mu.Unlock()
		o.publisher.Publish(events.Event{
			Type:           events.EventGateRequired,
			RunID:          runID,
			Step:           n,
			Role:           step.Role,
			Classification: step.Classification,
			Data: events.GateRequiredData{
				GateID:         journal.GateID(n, step.Role),
				Step:           n,
				Role:           step.Role,
				Classification: step.Classification,
				Rationale:      gate.Rationale,
				AllowedRoles:   gate.AllowedRoles,
			},
			Time: time.Now(),
		})
		o.logger.Info("run paused at gate", "step", n, "role", step.Role)
		return stepPaused, nil

	case decision.AutoApprove:
		o.journal.QuickApproveGate(n, step.Role, step.Classification, "auto-run", "bypassed by auto-run policy")
		o.publisher.Publish(events.NewEvent(events.EventGateResolved, runID, events.GateResolvedData{
			GateID:   journal.GateID(n, step.Role),
			Step:     n,
			Decision: string(journal.DecisionApproved),
			Approver: "auto-run",
			AutoRun:  true,
		}))
		return stepAdvance, nil

	default:
		return stepAdvance, nil
	}
}

// repairAndRetry handles a recoverable failure: one repair pass and at most
// one re-execution with the repaired input. The returned result is always
// verdict-annotated; the run is never halted here.
func (o *Orchestrator) repairAndRetry(ctx context.Context, n int, role string, req agent.Request, failed *agent.Result) (*agent.Result, *repair.Outcome) {
	o.journal.MarkStepRepairing(n)
	anomaly := repair.AnomalyFromResult(failed)
	o.logger.Warn("step entering repair",
		"step", n, "role", role, "anomaly", anomaly.AnomalyType, "severity", anomaly.Severity)

	if o.repairer == nil {
		failed.Verdict = agent.VerdictPassedWithWarnings
		failed.RemediationNote = "anomaly detected but no repair service is configured"
		return failed, nil
	}

	outcome, err := o.repairer.Repair(ctx, repair.Request{
		Role:    role,
		Step:    n,
		Input:   req.Input,
		Anomaly: anomaly,
	})
	if err != nil {
		o.logger.Warn("repair service failed", "step", n, "error", err)
		failed.Verdict = agent.VerdictPassedWithWarnings
		failed.RemediationNote = fmt.Sprintf("repair unavailable: %v", err)
		return failed, nil
	}

	if !outcome.Success {
		failed.Verdict = agent.VerdictPassedWithWarnings
		failed.RemediationNote = fmt.Sprintf(
			"partial remediation: integrity %.2f -> %.2f after %d corrections",
			outcome.IntegrityBefore, outcome.IntegrityAfter, len(outcome.Changes))
		failed.Corrections = outcome.Changes
		failed.IntegrityAfter = outcome.IntegrityAfter
		return failed, outcome
	}

	retryReq := req
	retryReq.Input = outcome.RepairedInput
	res, err := o.executor.Execute(ctx, retryReq)
	if err != nil {
		// Degrade gracefully: keep the original failing result, flagged.
		o.logger.Warn("re-execution after repair failed", "step", n, "error", err)
		failed.Verdict = agent.VerdictPassedWithWarnings
		failed.RemediationNote = "repair succeeded but re-execution failed"
		failed.Corrections = outcome.Changes
		failed.IntegrityAfter = outcome.IntegrityAfter
		return failed, outcome
	}

	res.Verdict = agent.VerdictPassed
	res.RemediationNote = fmt.Sprintf(
		"input repaired: integrity %.2f -> %.2f, re-executed successfully",
		outcome.IntegrityBefore, outcome.IntegrityAfter)
	res.Corrections = outcome.Changes
	res.IntegrityAfter = outcome.IntegrityAfter
	return res, outcome
}

// assembleInput builds the step input: raw artifacts for step 1, prior
// outputs for every step, and the rendered directive block for the role.
func (o *Orchestrator) assembleInput(n int, role string) agent.Input {
	o.mu.Lock()
	input := agent.Input{CaseID: o.caseID}
	if n == 1 {
		input.Artifacts = o.artifacts
	}
	// Only strictly earlier outputs: a rejected-gate re-execution must see
	// the same input as the original attempt.
	for k, v := range o.outputs {
		if k >= n {
			continue
		}
		if input.PriorOutputs == nil {
			input.PriorOutputs = make(map[int]string)
		}
		input.PriorOutputs[k] = v
	}
	o.mu.Unlock()

	input.Directives = o.journal.FormatDirectivesForRole(role)
	return input
}

// GateDecisionRequest carries a human gate decision into the orchestrator.
type GateDecisionRequest struct {
	Approved     bool
	Approver     string
	OperatorRole string
	Rationale    string

	// Detailed-review fields; any non-empty value upgrades the quick
	// approval to a detailed gate review.
	WhatHappened  string
	WhatIApproved string
	ScopeImpact   journal.ScopeImpact
	FollowUp      string
	RiskFactors   []string
	KeyFindings   []string

	// Directive, if set, is recorded alongside the decision.
	Directive *journal.ScopeDirective
}

func (r GateDecisionRequest) detailed() bool {
	return r.WhatHappened != "" || r.WhatIApproved != "" || r.ScopeImpact != "" || r.FollowUp != ""
}

// HandleHumanApproval resolves the pending gate. Approval advances to the
// next step (or completes the run); rejection re-executes the same step.
// Unauthorized operators are rejected with no state change.
func (o *Orchestrator) HandleHumanApproval(ctx context.Context, req GateDecisionRequest) error {
	o.mu.Lock()
	gate := o.gate
	runID := o.runID
	o.mu.Unlock()

	if gate == nil {
		return errors.ErrGateNotPending()
	}
	if !policy.Authorized(req.OperatorRole, gate.Role) {
		return errors.ErrApprovalDenied(req.OperatorRole, gate.Role)
	}

	decision := journal.DecisionRejected
	if req.Approved {
		decision = journal.DecisionApproved
		if req.detailed() {
			decision = journal.DecisionApprovedWithNotes
		}
	}

	if req.detailed() {
		o.journal.DetailedGateReview(gate.Step, gate.Role, gate.Classification, req.Approver, decision,
			journal.DetailedReview{
				WhatHappened:  req.WhatHappened,
				WhatIApproved: req.WhatIApproved,
				ScopeImpact:   req.ScopeImpact,
				FollowUp:      req.FollowUp,
				RiskFactors:   req.RiskFactors,
				KeyFindings:   req.KeyFindings,
			})
	} else {
		o.journal.RecordGateReview(journal.GateReview{
			Step:           gate.Step,
			Role:           gate.Role,
			Classification: gate.Classification,
			Rationale:      req.Rationale,
			Decision:       decision,
			Approver:       req.Approver,
		})
	}

	if req.Directive != nil {
		d := *req.Directive
		if d.CreatedBy == "" {
			d.CreatedBy = req.Approver
		}
		d.GateID = journal.GateID(gate.Step, gate.Role)
		o.journal.AddDirective(d)
	}

	o.mu.Lock()
	o.gate = nil
	o.mu.Unlock()

	o.publisher.Publish(events.NewEvent(events.EventGateResolved, runID, events.GateResolvedData{
		GateID:   journal.GateID(gate.Step, gate.Role),
		Step:     gate.Step,
		Decision: string(decision),
		Approver: req.Approver,
	}))
	o.logger.Info("gate resolved",
		"step", gate.Step, "role", gate.Role, "decision", decision, "approver", req.Approver)

	if req.Approved {
		return o.runFrom(ctx, gate.Step+1)
	}
	// Rejection re-executes the same step number with the same input.
	return o.runFrom(ctx, gate.Step)
}

// StopProcessing sets the abort flag and halts the active run. Any in-flight
// agent call finishes on its own; its result is discarded.
func (o *Orchestrator) StopProcessing(reason string) {
	o.aborted.Store(true)
	o.logger.Info("processing stop requested", "reason", reason)

	o.mu.Lock()
	runID := o.runID
	gated := o.gate != nil
	o.mu.Unlock()

	// A run suspended at a gate has no driver loop to observe the flag, so
	// the halt is applied here.
	if gated && o.journal.CurrentRun() != nil {
		o.journal.AbortRun(reason)
		o.clearSession()
		o.publisher.Publish(events.NewEvent(events.EventRunAborted, runID, events.RunAbortedData{Reason: reason}))
	}
}

// Status returns a snapshot of the session state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Status{
		Aborted:             o.aborted.Load(),
		HumanActionRequired: o.gate != nil,
		Gate:                o.gate,
	}
	run := o.journal.CurrentRun()
	if run == nil {
		return s
	}
	s.RunID = run.ID
	s.CaseID = run.CaseID
	s.Template = run.Template
	if o.workforce != nil {
		s.TotalSteps = o.workforce.Len()
	}
	for _, step := range run.Steps {
		if step.Status == journal.StepCompleted {
			s.CompletedSteps++
		}
	}
	return s
}

// haltAborted archives the run (if still active) after an observed abort.
func (o *Orchestrator) haltAborted(detail string) error {
	o.mu.Lock()
	runID := o.runID
	o.mu.Unlock()

	o.logger.Info("run halted", "run_id", runID, "detail", detail)
	if o.journal.CurrentRun() != nil {
		o.journal.AbortRun("processing stopped by operator")
		o.publisher.Publish(events.NewEvent(events.EventRunAborted, runID, events.RunAbortedData{Reason: detail}))
	}
	o.clearSession()
	return errors.ErrRunAborted(runID)
}

// haltFault terminates the run after an execution fault. This is the only
// path that forcibly fails a run on non-adversarial grounds.
func (o *Orchestrator) haltFault(runID string, n int, role string, cause error) error {
	ferr := errors.ErrStepFault(n, role, cause)
	o.journal.RecordStepFailed(n, cause.Error())
	o.journal.CompleteRun(journal.FinalFailed)
	o.clearSession()

	o.publisher.Publish(events.Event{
		Type:  events.EventStepFailed,
		RunID: runID,
		Step:  n,
		Role:  role,
		Data:  events.StepFailedData{Step: n, Role: role, Error: cause.Error()},
		Time:  time.Now(),
	})
	o.publisher.Publish(events.NewEvent(events.EventRunCompleted, runID, events.RunCompletedData{
		FinalStatus: string(journal.FinalFailed),
	}))
	o.logger.Error("step execution fault", "step", n, "role", role, "error", cause)
	return ferr
}

// haltAdversarial rejects the step and halts the run. Confirmed critical
// adversarial input is never repaired or retried.
func (o *Orchestrator) haltAdversarial(runID string, n int, role string, res *agent.Result) error {
	res.Verdict = agent.VerdictRejected
	note := fmt.Sprintf("step %d (%s) rejected: critical adversarial input (%s); escalate for manual review",
		n, role, res.Adversarial.AnomalyType)

	o.journal.RecordStepFailed(n, note)
	o.journal.AppendOperatorNote(note)
	o.journal.CompleteRun(journal.FinalFailed)
	o.clearSession()

	o.publisher.Publish(events.Event{
		Type:  events.EventStepFailed,
		RunID: runID,
		Step:  n,
		Role:  role,
		Data:  events.StepFailedData{Step: n, Role: role, Error: note},
		Time:  time.Now(),
	})
	o.publisher.Publish(events.NewEvent(events.EventRunCompleted, runID, events.RunCompletedData{
		FinalStatus: string(journal.FinalFailed),
	}))
	o.logger.Error("critical adversarial input rejected",
		"step", n, "role", role, "anomaly", res.Adversarial.AnomalyType)
	return errors.ErrAdversarialInput(n, role)
}

// startProgressTicks publishes non-authoritative progress events while an
// agent call is in flight. The returned func stops the ticker.
func (o *Orchestrator) startProgressTicks(runID string, n int, role string, started time.Time) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(o.progress)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				o.publisher.Publish(events.NewEvent(events.EventStepProgress, runID, events.StepProgressData{
					Step:    n,
					Role:    role,
					Elapsed: time.Since(started).Round(time.Second).String(),
				}))
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// clearSession resets the per-run session fields.
func (o *Orchestrator) clearSession() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gate = nil
	o.workforce = nil
	o.artifacts = nil
	o.outputs = nil
}
