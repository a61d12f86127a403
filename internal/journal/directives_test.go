package journal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow-dev/caseflow/internal/journal"
	"github.com/caseflow-dev/caseflow/internal/store"
)

func TestAddDirectiveDefaults(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	d := j.AddDirective(journal.ScopeDirective{
		CreatedBy: "operator",
		Text:      "use filed documents only",
	})

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, journal.PriorityShould, d.Priority)
	assert.Equal(t, journal.DirectiveCustom, d.Kind)
	assert.True(t, d.Active)
	assert.False(t, d.CreatedAt.IsZero())
}

func TestDirectivesSurviveAcrossRuns(t *testing.T) {
	s := store.NewMemory()
	j, err := journal.New(s)
	require.NoError(t, err)

	_, err = j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)
	persistent := j.AddSourceRestriction("operator", "ignore third-party summaries", "unverified", journal.PriorityMust)
	j.AddDirective(journal.ScopeDirective{
		CreatedBy:      "operator",
		Text:           "this run only",
		ExpiresWithRun: true,
	})
	j.CompleteRun(journal.FinalSuccess)

	_, err = j.StartNewRun("CASE-2", "intake")
	require.NoError(t, err)

	active := j.ActiveDirectives()
	require.Len(t, active, 1)
	assert.Equal(t, persistent.ID, active[0].ID)

	// A fresh journal over the same store restores the process-wide list.
	j2, err := journal.New(s)
	require.NoError(t, err)
	restored := j2.ActiveDirectives()
	require.Len(t, restored, 1)
	assert.Equal(t, persistent.ID, restored[0].ID)
}

func TestDeactivateDirectiveKeepsRecord(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	d := j.AddScopeLimit("operator", "claims after 2024 only", "", journal.PriorityShould)
	require.True(t, j.DeactivateDirective(d.ID))

	assert.Empty(t, j.ActiveDirectives())

	// The run record remains, flagged inactive.
	run := j.CurrentRun()
	require.Len(t, run.Directives, 1)
	assert.False(t, run.Directives[0].Active)

	assert.False(t, j.DeactivateDirective("dir-missing"))
}

func TestActiveDirectivesDeduplicates(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	// A persistent directive lands in both the run list and the global
	// list; it must appear once.
	j.AddActionProhibition("operator", "never contact the claimant", "privacy", journal.PriorityMust)
	assert.Len(t, j.ActiveDirectives(), 1)
}

func TestFormatDirectivesForRole(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	j.AddSourceRestriction("operator", "use filed documents only", "unverified sources", journal.PriorityMust)
	j.AddExtractionFocus("operator", "focus on lien holders", "", journal.PriorityShould, "extractor")
	j.AddScopeLimit("operator", "prefer recent filings", "", journal.PriorityMay)

	out := j.FormatDirectivesForRole("extractor")
	assert.Contains(t, out, "You MUST follow these constraints:")
	assert.Contains(t, out, "- use filed documents only (unverified sources)")
	assert.Contains(t, out, "You SHOULD follow these constraints:")
	assert.Contains(t, out, "- focus on lien holders")
	assert.Contains(t, out, "You MAY consider these preferences:")

	// Role scoping: the extraction-focus directive names only "extractor".
	other := j.FormatDirectivesForRole("assessor")
	assert.NotContains(t, other, "focus on lien holders")
	assert.Contains(t, other, "use filed documents only")
}

func TestFormatDirectivesForRoleEmpty(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-1", "intake")
	require.NoError(t, err)

	assert.Empty(t, j.FormatDirectivesForRole("extractor"))
}
