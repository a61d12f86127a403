// Package policy maps a step's declared risk classification to its gating behavior.
package policy

import (
	"log/slog"
	"slices"
	"strings"
)

// Classification is the declared risk tier of a step.
type Classification string

const (
	// ClassMandatory requires explicit human approval before the next step executes.
	ClassMandatory Classification = "MANDATORY"
	// ClassAdvisory should pause for approval but may be bypassed by auto-run.
	ClassAdvisory Classification = "ADVISORY"
	// ClassInformational never pauses.
	ClassInformational Classification = "INFORMATIONAL"
)

// Normalize parses a classification string. Unrecognized values map to
// INFORMATIONAL with known=false so callers can log the downgrade; they are
// never escalated to MANDATORY and never skipped.
func Normalize(s string) (c Classification, known bool) {
	switch Classification(strings.ToUpper(strings.TrimSpace(s))) {
	case ClassMandatory:
		return ClassMandatory, true
	case ClassAdvisory:
		return ClassAdvisory, true
	case ClassInformational, "":
		return ClassInformational, true
	default:
		return ClassInformational, false
	}
}

// Decision is the gating outcome for one step.
type Decision struct {
	// GateTriggered is true when a human gate was required for this step.
	GateTriggered bool
	// Pause is true when the run must suspend until a human decision arrives.
	Pause bool
	// AutoApprove is true when auto-run bypasses the gate; an auto-approved
	// gate review must still be recorded.
	AutoApprove bool
}

// Options configures gating behavior for a session.
type Options struct {
	// AutoRun enables unattended continuation past advisory gates.
	AutoRun bool
	// AutoRunMandatory extends auto-run to mandatory gates. Off by default.
	AutoRunMandatory bool
	// Logger receives a warning when an unknown classification is downgraded.
	Logger *slog.Logger
}

// Decide returns the gating behavior for a step's classification.
func Decide(raw string, opts Options) Decision {
	c, known := Normalize(raw)
	if !known {
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("unknown classification treated as INFORMATIONAL",
			"classification", raw)
	}

	switch c {
	case ClassMandatory:
		if opts.AutoRun && opts.AutoRunMandatory {
			return Decision{GateTriggered: true, AutoApprove: true}
		}
		return Decision{GateTriggered: true, Pause: true}
	case ClassAdvisory:
		if opts.AutoRun {
			return Decision{AutoApprove: true}
		}
		return Decision{GateTriggered: true, Pause: true}
	default:
		return Decision{}
	}
}

// Sanitization-class units require a narrower approver set than other units.
const sanitizerRole = "sanitizer"

var (
	sanitizerApprovers = []string{"security_lead", "supervisor"}
	defaultApprovers   = []string{"operator", "supervisor"}
)

// ApproverRoles returns the operator roles allowed to decide a gate for
// output produced by the given unit role.
func ApproverRoles(stepRole string) []string {
	if strings.EqualFold(stepRole, sanitizerRole) {
		return slices.Clone(sanitizerApprovers)
	}
	return slices.Clone(defaultApprovers)
}

// Authorized reports whether an operator role may decide a gate for output
// produced by the given unit role.
func Authorized(operatorRole, stepRole string) bool {
	for _, r := range ApproverRoles(stepRole) {
		if strings.EqualFold(r, operatorRole) {
			return true
		}
	}
	return false
}
