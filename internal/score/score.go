// Package score computes the supervisor quality score for a completed step.
//
// Scoring is a pluggable collaborator. The default implementation is
// deterministic given the same inputs: when a step went through repair, the
// corrections and integrity figures are taken from the repair outcome rather
// than re-derived.
package score

import (
	"time"

	"github.com/caseflow-dev/caseflow/internal/agent"
	"github.com/caseflow-dev/caseflow/internal/repair"
)

// Score is the quality assessment of one completed step.
type Score struct {
	Integrity   float64 `json:"integrity"`
	Accuracy    float64 `json:"accuracy"`
	Compliance  float64 `json:"compliance"`
	Corrections int     `json:"corrections"`
	LatencyMs   int64   `json:"latency_ms"`
}

// Input collects everything the scorer may consider.
type Input struct {
	Result  *agent.Result
	Repair  *repair.Outcome // nil when the step did not go through repair
	Latency time.Duration
}

// Scorer computes quality scores.
type Scorer interface {
	Score(in Input) Score
}

// Deterministic is the default scorer.
type Deterministic struct{}

// NewDeterministic returns the default scorer.
func NewDeterministic() *Deterministic {
	return &Deterministic{}
}

// Score implements Scorer.
func (d *Deterministic) Score(in Input) Score {
	s := Score{
		Integrity: 1.0,
		LatencyMs: in.Latency.Milliseconds(),
	}

	if in.Repair != nil {
		s.Integrity = in.Repair.IntegrityAfter
		s.Corrections = len(in.Repair.Changes)
	}

	switch in.Result.Verdict {
	case agent.VerdictPassedWithWarnings:
		s.Accuracy = 0.75
		s.Compliance = 0.75
	case agent.VerdictRejected:
		s.Accuracy = 0
		s.Compliance = 0
	default:
		s.Accuracy = 1.0
		s.Compliance = 1.0
	}

	return s
}
