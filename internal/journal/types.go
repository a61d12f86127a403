// Package journal implements the append-only run journal.
//
// The journal records one active run plus a bounded history: the step
// timeline, gate-review records, scope directives, hash-stamped human
// patches, and evidence artifacts, and computes the run summary at
// completion. It is a single-writer structure; every mutation is written
// through to the persistence store.
package journal

import (
	"maps"
	"slices"
	"time"

	"github.com/caseflow-dev/caseflow/internal/agent"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunAborted    RunStatus = "aborted"
	RunPaused     RunStatus = "paused"
)

// StepStatus is the lifecycle state of a step record.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepRepairing StepStatus = "repairing"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// GateDecision is the recorded outcome of a gate review.
type GateDecision string

const (
	DecisionApproved          GateDecision = "approved"
	DecisionRejected          GateDecision = "rejected"
	DecisionApprovedWithNotes GateDecision = "approved_with_notes"
)

// ScopeImpact tags how a gate decision affected run scope.
type ScopeImpact string

const (
	ScopeExpanded  ScopeImpact = "expanded"
	ScopeNarrowed  ScopeImpact = "narrowed"
	ScopeUnchanged ScopeImpact = "unchanged"
	ScopeFlagged   ScopeImpact = "flagged"
)

// DirectiveKind classifies a scope directive.
type DirectiveKind string

const (
	DirectiveSourceRestriction DirectiveKind = "source_restriction"
	DirectiveScopeLimit        DirectiveKind = "scope_limit"
	DirectiveExtractionFocus   DirectiveKind = "extraction_focus"
	DirectiveActionProhibition DirectiveKind = "action_prohibition"
	DirectiveCustom            DirectiveKind = "custom"
)

// Priority orders directives when rendered for a role.
type Priority string

const (
	PriorityMust   Priority = "must"
	PriorityShould Priority = "should"
	PriorityMay    Priority = "may"
)

// PatchKind classifies a human patch.
type PatchKind string

const (
	PatchCorrection PatchKind = "correction"
	PatchAddition   PatchKind = "addition"
	PatchRemoval    PatchKind = "removal"
	PatchFlag       PatchKind = "flag"
	PatchContext    PatchKind = "context"
)

// FinalStatus is the terminal outcome of a completed run.
type FinalStatus string

const (
	FinalSuccess FinalStatus = "success"
	FinalPartial FinalStatus = "partial"
	FinalFailed  FinalStatus = "failed"
)

// StepRecord is one ordered position in the template. Created when the
// orchestrator begins a step; mutated on completion or failure; never deleted.
type StepRecord struct {
	Number         int         `json:"number"`
	Role           string      `json:"role"`
	Status         StepStatus  `json:"status"`
	StartedAt      time.Time   `json:"started_at"`
	EndedAt        *time.Time  `json:"ended_at,omitempty"`
	DurationMs     int64       `json:"duration_ms,omitempty"`
	Usage          agent.Usage `json:"usage"`
	Classification string      `json:"classification"`
	GateTriggered  bool        `json:"gate_triggered"`
	AutoApproved   bool        `json:"auto_approved"`
	// Output is the step's free-form result, kept so a run can resume from a
	// persisted snapshot with prior outputs intact.
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GateReview is the record of a human (or auto-run) decision at a gate.
// Immutable once written.
type GateReview struct {
	GateID         string       `json:"gate_id"`
	Step           int          `json:"step"`
	Role           string       `json:"role"`
	Classification string       `json:"classification"`
	Rationale      string       `json:"rationale,omitempty"`
	RiskFactors    []string     `json:"risk_factors,omitempty"`
	KeyFindings    []string     `json:"key_findings,omitempty"`
	WhatHappened   string       `json:"what_happened,omitempty"`
	WhatIApproved  string       `json:"what_i_approved,omitempty"`
	ScopeImpact    ScopeImpact  `json:"scope_impact,omitempty"`
	FollowUp       string       `json:"follow_up,omitempty"`
	Decision       GateDecision `json:"decision"`
	Approver       string       `json:"approver"`
	ApprovedAt     time.Time    `json:"approved_at"`
}

// ScopeDirective is an operator-authored constraint narrowing or redirecting
// subsequent step behavior. Directives are deactivated, never deleted.
type ScopeDirective struct {
	ID        string        `json:"id"`
	CreatedBy string        `json:"created_by"`
	GateID    string        `json:"gate_id,omitempty"`
	Kind      DirectiveKind `json:"kind"`
	Text      string        `json:"text"`
	Rationale string        `json:"rationale,omitempty"`
	// Roles restricts applicability. Empty means the directive applies to all roles.
	Roles          []string  `json:"roles,omitempty"`
	Priority       Priority  `json:"priority"`
	Active         bool      `json:"active"`
	ExpiresWithRun bool      `json:"expires_with_run,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// AppliesTo reports whether the directive applies to the given role.
func (d ScopeDirective) AppliesTo(role string) bool {
	if len(d.Roles) == 0 {
		return true
	}
	for _, r := range d.Roles {
		if r == role || r == "all" {
			return true
		}
	}
	return false
}

// HumanPatch is a field-level correction applied by an operator to a step's
// extracted data. The original value is always retained; the patch carries a
// tamper-evidence hash of its own content. Immutable once created.
type HumanPatch struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	PatchedBy      string    `json:"patched_by"`
	EvidenceHash   string    `json:"evidence_hash,omitempty"`
	Role           string    `json:"role"`
	Field          string    `json:"field"`
	OriginalValue  string    `json:"original_value"`
	CorrectedValue string    `json:"corrected_value"`
	Reason         string    `json:"reason,omitempty"`
	ContentHash    string    `json:"content_hash"`
	Kind           PatchKind `json:"kind"`
}

// EvidenceArtifact references a produced document or output.
type EvidenceArtifact struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	ContentHash string    `json:"content_hash"`
	SizeBytes   int64     `json:"size_bytes"`
	ProducedBy  string    `json:"produced_by"`
	CreatedAt   time.Time `json:"created_at"`
	Tags        []string  `json:"tags,omitempty"`
}

// ExtractedField is one tracked name/value extraction with source attribution.
type ExtractedField struct {
	Name       string    `json:"name"`
	Value      string    `json:"value"`
	Source     string    `json:"source,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RunSummary is the read-only aggregate computed once at run completion.
type RunSummary struct {
	TotalSteps        int                  `json:"total_steps"`
	CompletedSteps    int                  `json:"completed_steps"`
	GatesByDecision   map[GateDecision]int `json:"gates_by_decision"`
	AutoApprovedGates int                  `json:"auto_approved_gates"`
	ActiveDirectives  int                  `json:"active_directives"`
	PatchCount        int                  `json:"patch_count"`
	Usage             agent.Usage          `json:"usage"`
	DurationMs        int64                `json:"duration_ms"`
	FinalStatus       FinalStatus          `json:"final_status"`
}

// Run is one execution of a workforce template against a case.
type Run struct {
	ID            string             `json:"id"`
	CaseID        string             `json:"case_id"`
	Template      string             `json:"template"`
	StartedAt     time.Time          `json:"started_at"`
	EndedAt       *time.Time         `json:"ended_at,omitempty"`
	Status        RunStatus          `json:"status"`
	Steps         []*StepRecord      `json:"steps"`
	GateReviews   []GateReview       `json:"gate_reviews,omitempty"`
	Directives    []ScopeDirective   `json:"directives,omitempty"`
	Patches       []HumanPatch       `json:"patches,omitempty"`
	Evidence      []EvidenceArtifact `json:"evidence,omitempty"`
	Extracted     []ExtractedField   `json:"extracted_fields,omitempty"`
	OperatorNotes []string           `json:"operator_notes,omitempty"`
	Summary       *RunSummary        `json:"summary,omitempty"`
}

// Clone returns a deep copy of the run. Step records, slice fields, and the
// summary are copied so the caller's view is unaffected by later journal
// writes.
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	out := *r
	if r.EndedAt != nil {
		ended := *r.EndedAt
		out.EndedAt = &ended
	}
	out.Steps = make([]*StepRecord, len(r.Steps))
	for i, step := range r.Steps {
		copied := *step
		if step.EndedAt != nil {
			ended := *step.EndedAt
			copied.EndedAt = &ended
		}
		out.Steps[i] = &copied
	}
	out.GateReviews = slices.Clone(r.GateReviews)
	out.Directives = slices.Clone(r.Directives)
	out.Patches = slices.Clone(r.Patches)
	out.Evidence = slices.Clone(r.Evidence)
	out.Extracted = slices.Clone(r.Extracted)
	out.OperatorNotes = slices.Clone(r.OperatorNotes)
	if r.Summary != nil {
		summary := *r.Summary
		summary.GatesByDecision = maps.Clone(r.Summary.GatesByDecision)
		out.Summary = &summary
	}
	return &out
}

// StepByNumber returns the step record with the given number, or nil.
// When a rejected gate re-executes a step, the latest record wins.
func (r *Run) StepByNumber(n int) *StepRecord {
	for i := len(r.Steps) - 1; i >= 0; i-- {
		if r.Steps[i].Number == n {
			return r.Steps[i]
		}
	}
	return nil
}
