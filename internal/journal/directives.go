package journal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AddDirective appends a scope directive to the current run and, unless it
// expires with the run, to the process-wide list so it survives into future
// runs. Returns the stored directive.
func (j *Journal) AddDirective(d ScopeDirective) *ScopeDirective {
	j.mu.Lock()
	defer j.mu.Unlock()

	if d.ID == "" {
		d.ID = "dir-" + uuid.NewString()[:8]
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if d.Priority == "" {
		d.Priority = PriorityShould
	}
	if d.Kind == "" {
		d.Kind = DirectiveCustom
	}
	d.Active = true

	if j.current != nil {
		j.current.Directives = append(j.current.Directives, d)
		j.persistRun()
	} else {
		j.degraded("add_directive", d.ID)
	}

	if !d.ExpiresWithRun {
		j.global = append(j.global, d)
		j.persistGlobal()
	}

	return &d
}

// AddSourceRestriction adds a directive restricting which sources a role may use.
func (j *Journal) AddSourceRestriction(createdBy, text, rationale string, priority Priority, roles ...string) *ScopeDirective {
	return j.AddDirective(ScopeDirective{
		CreatedBy: createdBy,
		Kind:      DirectiveSourceRestriction,
		Text:      text,
		Rationale: rationale,
		Priority:  priority,
		Roles:     roles,
	})
}

// AddScopeLimit adds a directive limiting the scope of subsequent steps.
func (j *Journal) AddScopeLimit(createdBy, text, rationale string, priority Priority, roles ...string) *ScopeDirective {
	return j.AddDirective(ScopeDirective{
		CreatedBy: createdBy,
		Kind:      DirectiveScopeLimit,
		Text:      text,
		Rationale: rationale,
		Priority:  priority,
		Roles:     roles,
	})
}

// AddExtractionFocus adds a directive focusing extraction on specific content.
func (j *Journal) AddExtractionFocus(createdBy, text, rationale string, priority Priority, roles ...string) *ScopeDirective {
	return j.AddDirective(ScopeDirective{
		CreatedBy: createdBy,
		Kind:      DirectiveExtractionFocus,
		Text:      text,
		Rationale: rationale,
		Priority:  priority,
		Roles:     roles,
	})
}

// AddActionProhibition adds a directive prohibiting specific actions.
func (j *Journal) AddActionProhibition(createdBy, text, rationale string, priority Priority, roles ...string) *ScopeDirective {
	return j.AddDirective(ScopeDirective{
		CreatedBy: createdBy,
		Kind:      DirectiveActionProhibition,
		Text:      text,
		Rationale: rationale,
		Priority:  priority,
		Roles:     roles,
	})
}

// DeactivateDirective flips the active flag in both the current-run list and
// the process-wide list. The record is never removed, preserving audit
// history. Returns true if any matching directive was found.
func (j *Journal) DeactivateDirective(id string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	found := false
	if j.current != nil {
		for i := range j.current.Directives {
			if j.current.Directives[i].ID == id {
				j.current.Directives[i].Active = false
				found = true
			}
		}
		if found {
			j.persistRun()
		}
	}

	globalFound := false
	for i := range j.global {
		if j.global[i].ID == id {
			j.global[i].Active = false
			globalFound = true
		}
	}
	if globalFound {
		j.persistGlobal()
		found = true
	}

	return found
}

// ActiveDirectives returns the union of active process-wide directives and
// active run-scoped directives not already included, de-duplicated by ID.
func (j *Journal) ActiveDirectives() []ScopeDirective {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.activeDirectivesLocked()
}

func (j *Journal) activeDirectivesLocked() []ScopeDirective {
	seen := make(map[string]bool)
	var out []ScopeDirective

	for _, d := range j.global {
		if d.Active && !seen[d.ID] {
			seen[d.ID] = true
			out = append(out, d)
		}
	}
	if j.current != nil {
		for _, d := range j.current.Directives {
			if d.Active && !seen[d.ID] {
				seen[d.ID] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// countActiveLocked counts active directives. Caller holds j.mu.
func (j *Journal) countActiveLocked() int {
	return len(j.activeDirectivesLocked())
}

// priorityOrder renders must before should before may.
var priorityOrder = []Priority{PriorityMust, PriorityShould, PriorityMay}

var priorityHeadings = map[Priority]string{
	PriorityMust:   "You MUST follow these constraints:",
	PriorityShould: "You SHOULD follow these constraints:",
	PriorityMay:    "You MAY consider these preferences:",
}

// FormatDirectivesForRole renders the active directives applicable to the
// given role as a plain instruction block, grouped by priority. Returns an
// empty string when none apply. This is the sole interface through which
// operator constraints reach the Agent Execution call.
func (j *Journal) FormatDirectivesForRole(role string) string {
	directives := j.ActiveDirectives()

	byPriority := make(map[Priority][]ScopeDirective)
	for _, d := range directives {
		if d.AppliesTo(role) {
			byPriority[d.Priority] = append(byPriority[d.Priority], d)
		}
	}

	var b strings.Builder
	for _, p := range priorityOrder {
		group := byPriority[p]
		if len(group) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(priorityHeadings[p])
		b.WriteString("\n")
		for _, d := range group {
			b.WriteString("- ")
			b.WriteString(d.Text)
			if d.Rationale != "" {
				b.WriteString(" (")
				b.WriteString(d.Rationale)
				b.WriteString(")")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
