package agent

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Verdict annotates a result after failure handling.
type Verdict string

const (
	// VerdictPassed marks a clean result, or a repaired result whose
	// re-execution succeeded.
	VerdictPassed Verdict = "PASSED"
	// VerdictPassedWithWarnings marks a result kept despite partial or
	// unverified remediation.
	VerdictPassedWithWarnings Verdict = "PASSED_WITH_WARNINGS"
	// VerdictRejected marks a result rejected for confirmed critical
	// adversarial input.
	VerdictRejected Verdict = "REJECTED"
)

// Severity grades a detected anomaly.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// AdversarialAlert is the adversarial-input failure signal.
type AdversarialAlert struct {
	Severity          Severity `json:"severity"`
	AnomalyType       string   `json:"anomaly_type"`
	AffectedFields    []string `json:"affected_fields,omitempty"`
	RecommendedAction string   `json:"recommended_action,omitempty"`
}

// Critical reports whether the alert is at CRITICAL severity.
func (a *AdversarialAlert) Critical() bool {
	return a != nil && a.Severity == SeverityCritical
}

// RemediateDirective is the reject-and-remediate failure signal.
type RemediateDirective struct {
	Reason string `json:"reason,omitempty"`
}

// Result is the structured outcome of one Agent Execution call.
//
// The three failure signals are independent; any one triggers failure
// handling. Fields the parser does not recognize are preserved in Extra.
type Result struct {
	Status string `json:"status"`
	Output string `json:"output"`
	Usage  Usage  `json:"usage"`

	CriticalFailure bool                `json:"critical_failure,omitempty"`
	Adversarial     *AdversarialAlert   `json:"adversarial,omitempty"`
	Remediate       *RemediateDirective `json:"remediate,omitempty"`

	// Annotations applied by the orchestrator after failure handling.
	Verdict         Verdict  `json:"verdict,omitempty"`
	RemediationNote string   `json:"remediation_note,omitempty"`
	Corrections     []string `json:"corrections,omitempty"`
	IntegrityAfter  float64  `json:"integrity_after,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Failed reports whether any failure signal is present.
func (r *Result) Failed() bool {
	return r.CriticalFailure || r.Adversarial != nil || r.Remediate != nil
}

// AdversarialCritical reports the non-recoverable combination: an
// adversarial alert at CRITICAL severity.
func (r *Result) AdversarialCritical() bool {
	return r.Adversarial.Critical()
}

// knownKeys are top-level payload fields the parser maps to typed fields.
var knownKeys = map[string]bool{
	"status":           true,
	"output":           true,
	"usage":            true,
	"critical_failure": true,
	"adversarial":      true,
	"remediate":        true,
}

// ParseResult extracts the known failure signals from a raw Agent Execution
// payload and keeps every unrecognized top-level field in Extra. Invalid
// JSON yields a Result whose Output is the raw payload text.
func ParseResult(raw []byte) *Result {
	res := &Result{}
	if !gjson.ValidBytes(raw) {
		res.Output = string(raw)
		return res
	}

	parsed := gjson.ParseBytes(raw)
	res.Status = parsed.Get("status").String()
	res.Output = parsed.Get("output").String()
	res.Usage = Usage{
		InputUnits:  int(parsed.Get("usage.input_units").Int()),
		OutputUnits: int(parsed.Get("usage.output_units").Int()),
	}

	if parsed.Get("critical_failure").Bool() || strings.EqualFold(res.Status, "critical_failure") {
		res.CriticalFailure = true
	}

	if adv := parsed.Get("adversarial"); adv.Exists() && adv.IsObject() {
		alert := &AdversarialAlert{
			Severity:          Severity(strings.ToUpper(adv.Get("severity").String())),
			AnomalyType:       adv.Get("anomaly_type").String(),
			RecommendedAction: adv.Get("recommended_action").String(),
		}
		for _, f := range adv.Get("affected_fields").Array() {
			alert.AffectedFields = append(alert.AffectedFields, f.String())
		}
		res.Adversarial = alert
	}

	if rem := parsed.Get("remediate"); rem.Exists() && rem.IsObject() {
		res.Remediate = &RemediateDirective{Reason: rem.Get("reason").String()}
	}

	parsed.ForEach(func(key, value gjson.Result) bool {
		if !knownKeys[key.String()] {
			if res.Extra == nil {
				res.Extra = make(map[string]any)
			}
			res.Extra[key.String()] = value.Value()
		}
		return true
	})

	return res
}
