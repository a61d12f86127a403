package journal_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow-dev/caseflow/internal/agent"
	flowerrors "github.com/caseflow-dev/caseflow/internal/errors"
	"github.com/caseflow-dev/caseflow/internal/events"
	"github.com/caseflow-dev/caseflow/internal/journal"
	"github.com/caseflow-dev/caseflow/internal/store"
)

func newJournal(t *testing.T, opts ...journal.Option) *journal.Journal {
	t.Helper()
	j, err := journal.New(store.NewMemory(), opts...)
	require.NoError(t, err)
	return j
}

func TestStartNewRun(t *testing.T) {
	j := newJournal(t)

	run, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, journal.RunInProgress, run.Status)
	assert.Equal(t, "CASE-1", run.CaseID)

	// Only one run may be active.
	_, err = j.StartNewRun("CASE-2", "intake")
	fe := flowerrors.AsFlowError(err)
	require.NotNil(t, fe)
	assert.Equal(t, flowerrors.CodeRunActive, fe.Code)
}

func TestStepLifecycle(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	j.RecordStepStart(1, "extractor", "INFORMATIONAL")
	run := j.CurrentRun()
	require.Len(t, run.Steps, 1)
	assert.Equal(t, journal.StepRunning, run.Steps[0].Status)

	j.MarkStepRepairing(1)
	assert.Equal(t, journal.StepRepairing, j.CurrentRun().Steps[0].Status)

	j.RecordStepComplete(1, agent.Usage{InputUnits: 100, OutputUnits: 20}, true, false)
	step := j.CurrentRun().Steps[0]
	assert.Equal(t, journal.StepCompleted, step.Status)
	assert.True(t, step.GateTriggered)
	assert.False(t, step.AutoApproved)
	assert.Equal(t, 120, step.Usage.Total())
	require.NotNil(t, step.EndedAt)
}

func TestStepFailed(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	j.RecordStepStart(1, "extractor", "INFORMATIONAL")
	j.RecordStepFailed(1, "agent exploded")

	step := j.CurrentRun().Steps[0]
	assert.Equal(t, journal.StepFailed, step.Status)
	assert.Equal(t, "agent exploded", step.Error)
}

func TestRejectedGateLoopKeepsBothRecords(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	j.RecordStepStart(2, "assessor", "MANDATORY")
	j.RecordStepComplete(2, agent.Usage{}, true, false)
	// Re-execution after a rejected gate repeats the same step number.
	j.RecordStepStart(2, "assessor", "MANDATORY")

	run := j.CurrentRun()
	require.Len(t, run.Steps, 2)
	assert.Equal(t, 2, run.Steps[0].Number)
	assert.Equal(t, 2, run.Steps[1].Number)
	// The latest record wins for mutation.
	assert.Equal(t, journal.StepRunning, run.StepByNumber(2).Status)
}

func TestCurrentRunIsSnapshot(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	j.RecordStepStart(1, "extractor", "INFORMATIONAL")
	snapshot := j.CurrentRun()
	require.Len(t, snapshot.Steps, 1)

	// Later writes must not show through a snapshot handed out earlier.
	j.RecordStepComplete(1, agent.Usage{}, false, false)
	j.RecordStepStart(2, "assessor", "MANDATORY")
	j.AppendOperatorNote("checked the extraction by hand")

	assert.Len(t, snapshot.Steps, 1)
	assert.Equal(t, journal.StepRunning, snapshot.Steps[0].Status)
	assert.Empty(t, snapshot.OperatorNotes)
	assert.Len(t, j.CurrentRun().Steps, 2)
}

// Exercised under the race detector: reading the active run while the driver
// goroutine keeps appending step records.
func TestCurrentRunSafeDuringWrites(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 50; i++ {
			j.RecordStepStart(i, "extractor", "INFORMATIONAL")
			j.RecordStepComplete(i, agent.Usage{InputUnits: 1}, false, false)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			run := j.CurrentRun()
			assert.NotNil(t, run)
			for _, step := range run.Steps {
				_ = step.Status
			}
		}
	}()
	wg.Wait()
}

func TestWritesWithNoActiveRunDegrade(t *testing.T) {
	pub := events.NewMemoryPublisher()
	defer pub.Close()
	ch := pub.Subscribe(events.GlobalRunID)

	j := newJournal(t, journal.WithPublisher(pub))

	// None of these may panic or error; each publishes a diagnostic.
	j.RecordStepStart(1, "extractor", "INFORMATIONAL")
	j.RecordStepComplete(1, agent.Usage{}, false, false)
	j.RecordStepFailed(1, "x")
	j.CompleteRun(journal.FinalSuccess)
	assert.Nil(t, j.RecordGateReview(journal.GateReview{Step: 1, Role: "extractor"}))
	assert.Nil(t, j.AddHumanPatch(journal.HumanPatch{Field: "amount"}))
	assert.Nil(t, j.RecordEvidence("doc", "report", "abc", 1, "extractor"))

	deadline := time.After(time.Second)
	count := 0
	for count < 7 {
		select {
		case ev := <-ch:
			require.Equal(t, events.EventJournalDegraded, ev.Type)
			count++
		case <-deadline:
			t.Fatalf("expected 7 degraded events, got %d", count)
		}
	}
}

func TestCompleteRunComputesSummary(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	j.RecordStepStart(1, "extractor", "INFORMATIONAL")
	j.RecordStepComplete(1, agent.Usage{InputUnits: 10, OutputUnits: 5}, false, false)
	j.RecordStepStart(2, "assessor", "ADVISORY")
	j.RecordStepComplete(2, agent.Usage{InputUnits: 20, OutputUnits: 5}, false, true)
	j.QuickApproveGate(2, "assessor", "ADVISORY", "auto-run", "auto-approved")
	j.CorrectField("op", "hash", "extractor", "amount", "100", "1000", "typo")

	j.CompleteRun(journal.FinalSuccess)

	require.Nil(t, j.CurrentRun(), "completed run moves to history")
	history := j.History()
	require.Len(t, history, 1)

	s := history[0].Summary
	require.NotNil(t, s)
	assert.Equal(t, 2, s.TotalSteps)
	assert.Equal(t, 2, s.CompletedSteps)
	assert.Equal(t, 1, s.AutoApprovedGates)
	assert.Equal(t, 1, s.GatesByDecision[journal.DecisionApproved])
	assert.Equal(t, 1, s.PatchCount)
	assert.Equal(t, 40, s.Usage.Total())
	assert.Equal(t, journal.FinalSuccess, s.FinalStatus)
}

func TestAbortRunSkipsSummary(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	j.AbortRun("operator stop")

	history := j.History()
	require.Len(t, history, 1)
	assert.Equal(t, journal.RunAborted, history[0].Status)
	assert.Nil(t, history[0].Summary)
	require.NotEmpty(t, history[0].OperatorNotes)
	assert.Contains(t, history[0].OperatorNotes[0], "operator stop")
}

func TestHistoryIsBounded(t *testing.T) {
	j := newJournal(t, journal.WithHistoryLimit(2))

	for i := 0; i < 4; i++ {
		_, err := j.StartNewRun("CASE-1", "intake")
		require.NoError(t, err)
		j.CompleteRun(journal.FinalSuccess)
	}

	assert.Len(t, j.History(), 2)
}

func TestRestoreFromStore(t *testing.T) {
	s := store.NewMemory()

	j1, err := journal.New(s)
	require.NoError(t, err)
	run, err := j1.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)
	j1.RecordStepStart(1, "extractor", "INFORMATIONAL")
	j1.RecordStepComplete(1, agent.Usage{InputUnits: 7}, true, false)

	// A second journal over the same store picks up the persisted snapshot
	// without losing step history.
	j2, err := journal.New(s)
	require.NoError(t, err)
	restored := j2.CurrentRun()
	require.NotNil(t, restored)
	assert.Equal(t, run.ID, restored.ID)
	require.Len(t, restored.Steps, 1)
	assert.True(t, restored.Steps[0].GateTriggered)
}

func TestGateReviews(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	quick := j.QuickApproveGate(2, "sanitizer", "MANDATORY", "supervisor", "output verified")
	require.NotNil(t, quick)
	assert.Equal(t, journal.GateID(2, "sanitizer"), quick.GateID)
	assert.Equal(t, journal.DecisionApproved, quick.Decision)
	assert.False(t, quick.ApprovedAt.IsZero())

	detailed := j.DetailedGateReview(3, "assessor", "ADVISORY", "operator",
		journal.DecisionApprovedWithNotes, journal.DetailedReview{
			WhatHappened:  "assessment flagged two liens",
			WhatIApproved: "risk tier B with follow-up",
			ScopeImpact:   journal.ScopeNarrowed,
			FollowUp:      "verify lien release",
		})
	require.NotNil(t, detailed)
	assert.Equal(t, journal.ScopeNarrowed, detailed.ScopeImpact)

	assert.Len(t, j.CurrentRun().GateReviews, 2)
}
