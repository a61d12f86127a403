// Package progress renders the run event stream as human-readable lines.
package progress

import (
	"fmt"
	"sync"
	"time"
)

// StreamEvent is one event as delivered over the WebSocket stream.
type StreamEvent struct {
	Event          string         `json:"event"`
	RunID          string         `json:"run_id"`
	Step           int            `json:"step,omitempty"`
	Role           string         `json:"role,omitempty"`
	Classification string         `json:"classification,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	Time           time.Time      `json:"time"`
}

// Tracker formats stream events, keeping enough state to show per-step
// elapsed time across progress ticks.
type Tracker struct {
	mu        sync.Mutex
	stepStart map[int]time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{stepStart: make(map[int]time.Time)}
}

// Line renders one event. An empty return means the event has no
// operator-facing rendering.
func (t *Tracker) Line(ev StreamEvent) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Event {
	case "step_started":
		t.stepStart[ev.Step] = ev.Time
		return fmt.Sprintf("▶ step %d (%s, %s) started", ev.Step, ev.Role, ev.Classification)

	case "step_progress":
		step, role := t.stepRole(ev)
		return fmt.Sprintf("  step %d (%s) still running (%s)", step, role, t.elapsedFor(step, ev.Time))

	case "step_completed":
		line := fmt.Sprintf("✓ step %d (%s) completed in %s", ev.Step, ev.Role, t.elapsedFor(ev.Step, ev.Time))
		if verdict, ok := ev.Data["verdict"].(string); ok && verdict != "" && verdict != "PASSED" {
			line += " [" + verdict + "]"
		}
		delete(t.stepStart, ev.Step)
		return line

	case "step_failed":
		reason := ""
		if msg, ok := ev.Data["error"].(string); ok {
			reason = ": " + msg
		}
		delete(t.stepStart, ev.Step)
		return fmt.Sprintf("✗ step %d (%s) failed%s", ev.Step, ev.Role, reason)

	case "gate_required":
		rationale := ""
		if r, ok := ev.Data["rationale"].(string); ok && r != "" {
			rationale = "\n   " + r
		}
		return fmt.Sprintf("⏸ gate at step %d (%s) awaiting approval%s", ev.Step, ev.Role, rationale)

	case "gate_resolved":
		step, _ := t.stepRole(ev)
		decision := "resolved"
		if d, ok := ev.Data["decision"].(string); ok && d != "" {
			decision = d
		}
		if auto, ok := ev.Data["auto_run"].(bool); ok && auto {
			decision += " (auto-run)"
		}
		return fmt.Sprintf("  gate at step %d %s", step, decision)

	case "run_completed":
		status := ""
		if s, ok := ev.Data["final_status"].(string); ok {
			status = " (" + s + ")"
		}
		return "■ run " + ev.RunID + " completed" + status

	case "run_aborted":
		reason := ""
		if r, ok := ev.Data["reason"].(string); ok && r != "" {
			reason = ": " + r
		}
		return "■ run " + ev.RunID + " aborted" + reason

	case "journal_degraded":
		op := ""
		if o, ok := ev.Data["op"].(string); ok {
			op = " (" + o + ")"
		}
		return "⚠ journal write dropped" + op
	}
	return ""
}

// stepRole resolves the step number and role, preferring the envelope
// fields and falling back to the event payload.
func (t *Tracker) stepRole(ev StreamEvent) (int, string) {
	step, role := ev.Step, ev.Role
	if step == 0 {
		if n, ok := ev.Data["step"].(float64); ok {
			step = int(n)
		}
	}
	if role == "" {
		if r, ok := ev.Data["role"].(string); ok {
			role = r
		}
	}
	return step, role
}

// elapsedFor formats time since the step started, falling back to a dash
// when the start was never observed (stream joined mid-run).
func (t *Tracker) elapsedFor(step int, at time.Time) string {
	start, ok := t.stepStart[step]
	if !ok {
		return "-"
	}
	d := at.Sub(start).Round(time.Second)
	if d < time.Second {
		return "<1s"
	}
	return d.String()
}
