package journal

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Document is the structured audit-handoff rendering of one run. Sections
// are omitted (nil/empty) when the run has no content for them.
type Document struct {
	RunID         string             `json:"run_id"`
	CaseID        string             `json:"case_id"`
	Template      string             `json:"template"`
	Status        RunStatus          `json:"status"`
	StartedAt     time.Time          `json:"started_at"`
	EndedAt       *time.Time         `json:"ended_at,omitempty"`
	Timeline      []*StepRecord      `json:"timeline,omitempty"`
	Gates         []GateReview       `json:"gates,omitempty"`
	Directives    []ScopeDirective   `json:"directives,omitempty"`
	Patches       []HumanPatch       `json:"patches,omitempty"`
	Artifacts     []EvidenceArtifact `json:"artifacts,omitempty"`
	Extracted     []ExtractedField   `json:"extracted_fields,omitempty"`
	OperatorNotes []string           `json:"operator_notes,omitempty"`
	Summary       *RunSummary        `json:"summary,omitempty"`
}

// ExportDocument renders the given run as a structured document. Pass nil to
// export the active run; returns nil when no run exists.
func (j *Journal) ExportDocument(run *Run) *Document {
	if run == nil {
		run = j.CurrentRun()
	}
	if run == nil {
		return nil
	}
	return &Document{
		RunID:         run.ID,
		CaseID:        run.CaseID,
		Template:      run.Template,
		Status:        run.Status,
		StartedAt:     run.StartedAt,
		EndedAt:       run.EndedAt,
		Timeline:      run.Steps,
		Gates:         run.GateReviews,
		Directives:    run.Directives,
		Patches:       run.Patches,
		Artifacts:     run.Evidence,
		Extracted:     run.Extracted,
		OperatorNotes: run.OperatorNotes,
		Summary:       run.Summary,
	}
}

// ExportMarkdown renders the given run as a markdown audit report. Pass nil
// to export the active run; returns "" when no run exists. Every non-empty
// section is included; empty sections are omitted.
func (j *Journal) ExportMarkdown(run *Run) string {
	doc := j.ExportDocument(run)
	if doc == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", doc.RunID)
	fmt.Fprintf(&b, "- Case: %s\n", doc.CaseID)
	fmt.Fprintf(&b, "- Template: %s\n", doc.Template)
	fmt.Fprintf(&b, "- Status: %s\n", doc.Status)
	fmt.Fprintf(&b, "- Started: %s\n", doc.StartedAt.Format(time.RFC3339))
	if doc.EndedAt != nil {
		fmt.Fprintf(&b, "- Ended: %s\n", doc.EndedAt.Format(time.RFC3339))
	}

	if len(doc.Timeline) > 0 {
		b.WriteString("\n## Timeline\n\n")
		b.WriteString("| # | Role | Status | Duration | Units | Gated | Auto |\n")
		b.WriteString("|---|------|--------|----------|-------|-------|------|\n")
		for _, s := range doc.Timeline {
			fmt.Fprintf(&b, "| %d | %s | %s | %dms | %d | %s | %s |\n",
				s.Number, s.Role, s.Status, s.DurationMs, s.Usage.Total(),
				mark(s.GateTriggered), mark(s.AutoApproved))
		}
	}

	if len(doc.Gates) > 0 {
		b.WriteString("\n## Gate Reviews\n")
		for _, g := range doc.Gates {
			fmt.Fprintf(&b, "\n### %s: %s\n\n", g.GateID, g.Decision)
			fmt.Fprintf(&b, "- Approver: %s\n", g.Approver)
			fmt.Fprintf(&b, "- Classification: %s\n", g.Classification)
			if g.Rationale != "" {
				fmt.Fprintf(&b, "- Rationale: %s\n", g.Rationale)
			}
			if g.WhatHappened != "" {
				fmt.Fprintf(&b, "- What happened: %s\n", g.WhatHappened)
			}
			if g.WhatIApproved != "" {
				fmt.Fprintf(&b, "- What I approved: %s\n", g.WhatIApproved)
			}
			if g.ScopeImpact != "" {
				fmt.Fprintf(&b, "- Scope impact: %s\n", g.ScopeImpact)
			}
			if g.FollowUp != "" {
				fmt.Fprintf(&b, "- Follow-up: %s\n", g.FollowUp)
			}
		}
	}

	if len(doc.Directives) > 0 {
		b.WriteString("\n## Scope Directives\n\n")
		for _, d := range doc.Directives {
			state := "active"
			if !d.Active {
				state = "deactivated"
			}
			fmt.Fprintf(&b, "- [%s/%s] %s (%s, by %s)\n", d.Priority, state, d.Text, d.Kind, d.CreatedBy)
		}
	}

	if len(doc.Patches) > 0 {
		b.WriteString("\n## Human Patches\n\n")
		for _, p := range doc.Patches {
			fmt.Fprintf(&b, "- %s %s.%s: %q -> %q (%s, by %s, hash %.12s)\n",
				p.Kind, p.Role, p.Field, p.OriginalValue, p.CorrectedValue, p.Reason, p.PatchedBy, p.ContentHash)
		}
	}

	if len(doc.Artifacts) > 0 {
		b.WriteString("\n## Evidence Artifacts\n\n")
		for _, a := range doc.Artifacts {
			fmt.Fprintf(&b, "- %s (%s, %d bytes, by %s, hash %.12s)\n",
				a.Name, a.Type, a.SizeBytes, a.ProducedBy, a.ContentHash)
		}
	}

	if len(doc.Extracted) > 0 {
		b.WriteString("\n## Extracted Fields\n\n")
		for _, f := range doc.Extracted {
			fmt.Fprintf(&b, "- %s: %s", f.Name, f.Value)
			if f.Source != "" {
				fmt.Fprintf(&b, " (source: %s)", f.Source)
			}
			b.WriteString("\n")
		}
	}

	if len(doc.OperatorNotes) > 0 {
		b.WriteString("\n## Operator Notes\n\n")
		for _, n := range doc.OperatorNotes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}

	if doc.Summary != nil {
		s := doc.Summary
		b.WriteString("\n## Summary\n\n")
		fmt.Fprintf(&b, "- Final status: %s\n", s.FinalStatus)
		fmt.Fprintf(&b, "- Steps: %d/%d completed\n", s.CompletedSteps, s.TotalSteps)
		fmt.Fprintf(&b, "- Auto-approved gates: %d\n", s.AutoApprovedGates)
		for _, decision := range slices.Sorted(maps.Keys(s.GatesByDecision)) {
			fmt.Fprintf(&b, "- Gates %s: %d\n", decision, s.GatesByDecision[decision])
		}
		fmt.Fprintf(&b, "- Active directives: %d\n", s.ActiveDirectives)
		fmt.Fprintf(&b, "- Patches: %d\n", s.PatchCount)
		fmt.Fprintf(&b, "- Resource units: %d\n", s.Usage.Total())
		fmt.Fprintf(&b, "- Duration: %dms\n", s.DurationMs)
	}

	return b.String()
}

func mark(v bool) string {
	if v {
		return "yes"
	}
	return "-"
}
