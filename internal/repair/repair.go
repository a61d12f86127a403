// Package repair defines the boundary to the external input-repair service.
//
// When a step fails with a recoverable anomaly, the orchestrator hands the
// failing input and a description of the anomaly to the Repairer, which
// returns a sanitized input plus before/after integrity telemetry. The
// repaired input is re-executed at most once.
package repair

import (
	"context"

	"github.com/caseflow-dev/caseflow/internal/agent"
)

// Anomaly describes the detected failure that triggered repair.
type Anomaly struct {
	Severity          agent.Severity `json:"severity"`
	AnomalyType       string         `json:"anomaly_type"`
	AffectedFields    []string       `json:"affected_fields,omitempty"`
	RecommendedAction string         `json:"recommended_action,omitempty"`
}

// Request carries the failing input and the anomaly to the Repairer.
type Request struct {
	Role    string      `json:"role"`
	Step    int         `json:"step"`
	Input   agent.Input `json:"input"`
	Anomaly Anomaly     `json:"anomaly"`
}

// Outcome is the result of one repair pass.
type Outcome struct {
	RepairedInput   agent.Input `json:"repaired_input"`
	IntegrityBefore float64     `json:"integrity_score_before"`
	IntegrityAfter  float64     `json:"integrity_score_after"`
	// Changes is the ordered list of applied corrections.
	Changes    []string `json:"changes"`
	RetryCount int      `json:"retry_count"`
	Success    bool     `json:"success"`
	DurationMs int64    `json:"duration_ms"`
}

// Repairer is the external repair collaborator.
type Repairer interface {
	Repair(ctx context.Context, req Request) (*Outcome, error)
}

// AnomalyFromResult derives the anomaly description from a failed result.
func AnomalyFromResult(res *agent.Result) Anomaly {
	switch {
	case res.Adversarial != nil:
		return Anomaly{
			Severity:          res.Adversarial.Severity,
			AnomalyType:       res.Adversarial.AnomalyType,
			AffectedFields:    res.Adversarial.AffectedFields,
			RecommendedAction: res.Adversarial.RecommendedAction,
		}
	case res.Remediate != nil:
		return Anomaly{
			Severity:          agent.SeverityMedium,
			AnomalyType:       "reject_and_remediate",
			RecommendedAction: res.Remediate.Reason,
		}
	default:
		return Anomaly{
			Severity:    agent.SeverityHigh,
			AnomalyType: "critical_failure",
		}
	}
}
