package journal

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caseflow-dev/caseflow/internal/agent"
	"github.com/caseflow-dev/caseflow/internal/errors"
	"github.com/caseflow-dev/caseflow/internal/events"
)

// Store is the persistence boundary for journal snapshots. The journal only
// needs read-snapshot / write-snapshot semantics; implementations live in
// internal/store.
type Store interface {
	// SaveActiveRun writes the current run snapshot.
	SaveActiveRun(run *Run) error
	// ClearActiveRun removes the active-run snapshot.
	ClearActiveRun() error
	// LoadActiveRun returns the persisted active run, or nil when none exists.
	LoadActiveRun() (*Run, error)
	// ArchiveRun appends a terminal run to the history archive.
	ArchiveRun(run *Run) error
	// LoadHistory returns archived runs, most recent first, up to limit.
	LoadHistory(limit int) ([]*Run, error)
	// SaveGlobalDirectives writes the process-wide directive list.
	SaveGlobalDirectives(directives []ScopeDirective) error
	// LoadGlobalDirectives returns the persisted process-wide directive list.
	LoadGlobalDirectives() ([]ScopeDirective, error)
}

// DefaultHistoryLimit bounds the in-memory run history.
const DefaultHistoryLimit = 20

// Journal records one active run plus a bounded history.
//
// Write operations never fail for "no active run": they degrade to a logged
// no-op and publish a journal_degraded event, because journal bookkeeping
// must never abort an in-flight workflow.
type Journal struct {
	mu           sync.Mutex
	store        Store
	publisher    events.Publisher
	logger       *slog.Logger
	historyLimit int

	current *Run
	history []*Run
	global  []ScopeDirective
}

// Option configures a Journal.
type Option func(*Journal)

// WithPublisher sets the event publisher for diagnostic events.
func WithPublisher(p events.Publisher) Option {
	return func(j *Journal) {
		j.publisher = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) {
		j.logger = l
	}
}

// WithHistoryLimit bounds the retained run history.
func WithHistoryLimit(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.historyLimit = n
		}
	}
}

// New creates a journal backed by the given store and restores the last
// persisted snapshot: the active run (if any), the process-wide directive
// list, and the bounded run history.
func New(store Store, opts ...Option) (*Journal, error) {
	j := &Journal{
		store:        store,
		publisher:    events.NewNopPublisher(),
		logger:       slog.Default(),
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(j)
	}

	run, err := store.LoadActiveRun()
	if err != nil {
		return nil, errors.ErrStoreUnavailable(err)
	}
	j.current = run

	global, err := store.LoadGlobalDirectives()
	if err != nil {
		return nil, errors.ErrStoreUnavailable(err)
	}
	j.global = global

	history, err := store.LoadHistory(j.historyLimit)
	if err != nil {
		return nil, errors.ErrStoreUnavailable(err)
	}
	j.history = history

	return j, nil
}

// StartNewRun begins a new run for the given case and template.
func (j *Journal) StartNewRun(caseID, templateName string) (*Run, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.current != nil && j.current.Status == RunInProgress {
		return nil, errors.ErrRunActive(j.current.ID)
	}

	run := &Run{
		ID:        "run-" + uuid.NewString()[:8],
		CaseID:    caseID,
		Template:  templateName,
		StartedAt: time.Now(),
		Status:    RunInProgress,
	}
	j.current = run
	j.persistRun()
	return run, nil
}

// CompleteRun marks the active run terminal, computes and attaches the run
// summary, and archives the run to the bounded history.
func (j *Journal) CompleteRun(final FinalStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("complete_run", "")
		return
	}

	now := time.Now()
	run.EndedAt = &now
	run.Status = RunCompleted
	run.Summary = summarize(run, final, j.countActiveLocked())
	j.archiveLocked(run)
}

// AbortRun appends a halt note and archives the run immediately, without a
// summary.
func (j *Journal) AbortRun(reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("abort_run", reason)
		return
	}

	now := time.Now()
	run.EndedAt = &now
	run.Status = RunAborted
	run.OperatorNotes = append(run.OperatorNotes, fmt.Sprintf("run aborted: %s", reason))
	j.archiveLocked(run)
}

// RecordStepStart appends a running step record. No-op if no run is active.
func (j *Journal) RecordStepStart(number int, role, classification string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("record_step_start", fmt.Sprintf("step %d", number))
		return
	}

	run.Steps = append(run.Steps, &StepRecord{
		Number:         number,
		Role:           role,
		Status:         StepRunning,
		StartedAt:      time.Now(),
		Classification: classification,
	})
	j.persistRun()
}

// MarkStepRepairing transitions a running step to the repairing state.
func (j *Journal) MarkStepRepairing(number int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("mark_step_repairing", fmt.Sprintf("step %d", number))
		return
	}
	if step := run.StepByNumber(number); step != nil {
		step.Status = StepRepairing
		j.persistRun()
	}
}

// RecordStepComplete finalizes the latest record for the step.
func (j *Journal) RecordStepComplete(number int, usage agent.Usage, gateTriggered, autoApproved bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("record_step_complete", fmt.Sprintf("step %d", number))
		return
	}

	step := run.StepByNumber(number)
	if step == nil {
		j.degraded("record_step_complete", fmt.Sprintf("step %d has no record", number))
		return
	}

	now := time.Now()
	step.EndedAt = &now
	step.DurationMs = now.Sub(step.StartedAt).Milliseconds()
	step.Status = StepCompleted
	step.Usage = usage
	step.GateTriggered = gateTriggered
	step.AutoApproved = autoApproved
	j.persistRun()
}

// RecordStepOutput attaches the step's free-form output to its latest record.
func (j *Journal) RecordStepOutput(number int, output string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("record_step_output", fmt.Sprintf("step %d", number))
		return
	}
	if step := run.StepByNumber(number); step != nil {
		step.Output = output
		j.persistRun()
	}
}

// RecordStepSkipped records a position excluded by template configuration.
func (j *Journal) RecordStepSkipped(number int, role, classification string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("record_step_skipped", fmt.Sprintf("step %d", number))
		return
	}

	now := time.Now()
	run.Steps = append(run.Steps, &StepRecord{
		Number:         number,
		Role:           role,
		Status:         StepSkipped,
		StartedAt:      now,
		EndedAt:        &now,
		Classification: classification,
	})
	j.persistRun()
}

// RecordStepFailed marks the latest record for the step as failed.
func (j *Journal) RecordStepFailed(number int, errText string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("record_step_failed", fmt.Sprintf("step %d", number))
		return
	}

	step := run.StepByNumber(number)
	if step == nil {
		j.degraded("record_step_failed", fmt.Sprintf("step %d has no record", number))
		return
	}

	now := time.Now()
	step.EndedAt = &now
	step.DurationMs = now.Sub(step.StartedAt).Milliseconds()
	step.Status = StepFailed
	step.Error = errText
	j.persistRun()
}

// AppendOperatorNote adds free text to the run's operator-notes buffer.
func (j *Journal) AppendOperatorNote(text string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("append_operator_note", "")
		return
	}
	run.OperatorNotes = append(run.OperatorNotes, text)
	j.persistRun()
}

// RecordEvidence appends an evidence-artifact reference.
func (j *Journal) RecordEvidence(name, artifactType, contentHash string, sizeBytes int64, producedBy string, tags ...string) *EvidenceArtifact {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("record_evidence", name)
		return nil
	}

	artifact := EvidenceArtifact{
		ID:          "ev-" + uuid.NewString()[:8],
		Name:        name,
		Type:        artifactType,
		ContentHash: contentHash,
		SizeBytes:   sizeBytes,
		ProducedBy:  producedBy,
		CreatedAt:   time.Now(),
		Tags:        tags,
	}
	run.Evidence = append(run.Evidence, artifact)
	j.persistRun()
	return &run.Evidence[len(run.Evidence)-1]
}

// RecordExtractedField tracks one extracted name/value pair with its source.
func (j *Journal) RecordExtractedField(name, value, source string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("record_extracted_field", name)
		return
	}
	run.Extracted = append(run.Extracted, ExtractedField{
		Name:       name,
		Value:      value,
		Source:     source,
		RecordedAt: time.Now(),
	})
	j.persistRun()
}

// CurrentRun returns a snapshot of the active run, or nil. The copy is safe
// to read while the journal keeps appending to the live run.
func (j *Journal) CurrentRun() *Run {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current.Clone()
}

// History returns terminal runs, most recent first.
func (j *Journal) History() []*Run {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*Run, len(j.history))
	copy(out, j.history)
	return out
}

// archiveLocked moves the current run to history, trims to the limit, and
// persists. Caller holds j.mu.
func (j *Journal) archiveLocked(run *Run) {
	j.history = append([]*Run{run}, j.history...)
	if len(j.history) > j.historyLimit {
		j.history = j.history[:j.historyLimit]
	}
	j.current = nil

	if err := j.store.ArchiveRun(run); err != nil {
		j.logger.Warn("archive run failed", "run_id", run.ID, "error", err)
	}
	if err := j.store.ClearActiveRun(); err != nil {
		j.logger.Warn("clear active run failed", "run_id", run.ID, "error", err)
	}
}

// persistRun writes through the active run snapshot. Persistence failures
// are logged, never propagated: journal writes must not abort a workflow.
// Caller holds j.mu.
func (j *Journal) persistRun() {
	if j.current == nil {
		return
	}
	if err := j.store.SaveActiveRun(j.current); err != nil {
		j.logger.Warn("persist run snapshot failed", "run_id", j.current.ID, "error", err)
	}
}

// persistGlobal writes through the process-wide directive list. Caller holds j.mu.
func (j *Journal) persistGlobal() {
	if err := j.store.SaveGlobalDirectives(j.global); err != nil {
		j.logger.Warn("persist global directives failed", "error", err)
	}
}

// degraded logs and publishes a structured diagnostic for a dropped write.
// Caller holds j.mu.
func (j *Journal) degraded(op, detail string) {
	j.logger.Warn("journal write dropped: no active run", "op", op, "detail", detail)
	j.publisher.Publish(events.NewEvent(events.EventJournalDegraded, "", events.DegradedData{
		Op:     op,
		Detail: detail,
	}))
}
