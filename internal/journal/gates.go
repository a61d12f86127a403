package journal

import (
	"fmt"
	"time"
)

// GateID builds the stable identifier for a gate at the given position.
func GateID(step int, role string) string {
	return fmt.Sprintf("gate-%d-%s", step, role)
}

// RecordGateReview appends a gate review and returns the stored record.
// Returns nil (with a diagnostic, not an error) if no run is active, so gate
// bookkeeping never crashes the orchestrator.
func (j *Journal) RecordGateReview(review GateReview) *GateReview {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("record_gate_review", review.GateID)
		return nil
	}

	if review.GateID == "" {
		review.GateID = GateID(review.Step, review.Role)
	}
	if review.ApprovedAt.IsZero() {
		review.ApprovedAt = time.Now()
	}

	run.GateReviews = append(run.GateReviews, review)
	j.persistRun()
	return &run.GateReviews[len(run.GateReviews)-1]
}

// QuickApproveGate records a minimally annotated approval.
func (j *Journal) QuickApproveGate(step int, role, classification, approver, rationale string) *GateReview {
	return j.RecordGateReview(GateReview{
		Step:           step,
		Role:           role,
		Classification: classification,
		Rationale:      rationale,
		Decision:       DecisionApproved,
		Approver:       approver,
	})
}

// DetailedReview collects the operator-synthesis fields for a detailed gate
// review.
type DetailedReview struct {
	WhatHappened  string
	WhatIApproved string
	ScopeImpact   ScopeImpact
	FollowUp      string
	RiskFactors   []string
	KeyFindings   []string
}

// DetailedGateReview records a fully annotated gate decision.
func (j *Journal) DetailedGateReview(step int, role, classification, approver string, decision GateDecision, detail DetailedReview) *GateReview {
	return j.RecordGateReview(GateReview{
		Step:           step,
		Role:           role,
		Classification: classification,
		WhatHappened:   detail.WhatHappened,
		WhatIApproved:  detail.WhatIApproved,
		ScopeImpact:    detail.ScopeImpact,
		FollowUp:       detail.FollowUp,
		RiskFactors:    detail.RiskFactors,
		KeyFindings:    detail.KeyFindings,
		Decision:       decision,
		Approver:       approver,
	})
}
