package journal

import (
	"time"

	"github.com/caseflow-dev/caseflow/internal/agent"
)

// summarize computes the read-only run aggregate. Called exactly once, at
// run completion.
func summarize(run *Run, final FinalStatus, activeDirectives int) *RunSummary {
	s := &RunSummary{
		TotalSteps:       len(run.Steps),
		GatesByDecision:  make(map[GateDecision]int),
		ActiveDirectives: activeDirectives,
		PatchCount:       len(run.Patches),
		FinalStatus:      final,
	}

	var usage agent.Usage
	for _, step := range run.Steps {
		if step.Status == StepCompleted {
			s.CompletedSteps++
		}
		usage.InputUnits += step.Usage.InputUnits
		usage.OutputUnits += step.Usage.OutputUnits
	}
	s.Usage = usage

	for _, review := range run.GateReviews {
		s.GatesByDecision[review.Decision]++
	}
	for _, step := range run.Steps {
		if step.AutoApproved {
			s.AutoApprovedGates++
		}
	}

	end := time.Now()
	if run.EndedAt != nil {
		end = *run.EndedAt
	}
	s.DurationMs = end.Sub(run.StartedAt).Milliseconds()

	return s
}
