// Package events provides event types and publishing infrastructure for caseflow.
package events

import (
	"time"
)

// EventType defines the type of event.
type EventType string

const (
	// EventStepStarted indicates a step began executing.
	EventStepStarted EventType = "step_started"
	// EventStepProgress is a non-authoritative progress tick while an agent call is in flight.
	EventStepProgress EventType = "step_progress"
	// EventStepCompleted indicates a step finished (possibly gated).
	EventStepCompleted EventType = "step_completed"
	// EventStepFailed indicates a step failed.
	EventStepFailed EventType = "step_failed"
	// EventGateRequired indicates a step is held awaiting a human decision.
	EventGateRequired EventType = "gate_required"
	// EventGateResolved indicates a gate decision was recorded.
	EventGateResolved EventType = "gate_resolved"
	// EventRunCompleted indicates the run reached a terminal state.
	EventRunCompleted EventType = "run_completed"
	// EventRunAborted indicates the operator halted the run.
	EventRunAborted EventType = "run_aborted"
	// EventJournalDegraded indicates a journal write was dropped because no run was active.
	EventJournalDegraded EventType = "journal_degraded"
)

// Event represents a published event.
// Every event carries enough identifying data for a presentation layer
// to render without re-deriving state.
type Event struct {
	Type           EventType `json:"type"`
	RunID          string    `json:"run_id"`
	Step           int       `json:"step,omitempty"`
	Role           string    `json:"role,omitempty"`
	Classification string    `json:"classification,omitempty"`
	Data           any       `json:"data,omitempty"`
	Time           time.Time `json:"time"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, runID string, data any) Event {
	return Event{
		Type:  eventType,
		RunID: runID,
		Data:  data,
		Time:  time.Now(),
	}
}

// GateRequiredData describes a pending gate decision.
type GateRequiredData struct {
	GateID         string   `json:"gate_id"`
	Step           int      `json:"step"`
	Role           string   `json:"role"`
	Classification string   `json:"classification"`
	Rationale      string   `json:"rationale,omitempty"`
	AllowedRoles   []string `json:"allowed_roles,omitempty"`
}

// GateResolvedData describes a recorded gate decision.
type GateResolvedData struct {
	GateID   string `json:"gate_id"`
	Step     int    `json:"step"`
	Decision string `json:"decision"`
	Approver string `json:"approver"`
	AutoRun  bool   `json:"auto_run"`
}

// StepCompletedData describes a finished step with its quality figures.
type StepCompletedData struct {
	Step          int     `json:"step"`
	Role          string  `json:"role"`
	Verdict       string  `json:"verdict"`
	GateTriggered bool    `json:"gate_triggered"`
	AutoApproved  bool    `json:"auto_approved"`
	Integrity     float64 `json:"integrity"`
	Accuracy      float64 `json:"accuracy"`
	Compliance    float64 `json:"compliance"`
	Corrections   int     `json:"corrections"`
}

// StepFailedData describes a failed step.
type StepFailedData struct {
	Step  int    `json:"step"`
	Role  string `json:"role"`
	Error string `json:"error"`
}

// StepProgressData is a non-authoritative progress indicator.
type StepProgressData struct {
	Step    int    `json:"step"`
	Role    string `json:"role"`
	Elapsed string `json:"elapsed"`
}

// RunAbortedData describes an operator-initiated halt.
type RunAbortedData struct {
	Reason string `json:"reason"`
}

// RunCompletedData describes a terminal run state.
type RunCompletedData struct {
	FinalStatus string `json:"final_status"` // success, partial, failed
	Duration    string `json:"duration,omitempty"`
}

// DegradedData describes a dropped journal write.
type DegradedData struct {
	Op     string `json:"op"`
	Detail string `json:"detail,omitempty"`
}
