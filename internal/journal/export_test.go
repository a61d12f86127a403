package journal_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow-dev/caseflow/internal/agent"
	"github.com/caseflow-dev/caseflow/internal/journal"
)

func TestExportDocumentNoRun(t *testing.T) {
	j := newJournal(t)
	assert.Nil(t, j.ExportDocument(nil))
	assert.Empty(t, j.ExportMarkdown(nil))
}

func TestExportMarkdownSections(t *testing.T) {
	j := newJournal(t)
	run, err := j.StartNewRun("CASE-7", "intake")
	require.NoError(t, err)

	j.RecordStepStart(1, "extractor", "INFORMATIONAL")
	j.RecordStepComplete(1, agent.Usage{InputUnits: 10, OutputUnits: 2}, false, false)
	j.QuickApproveGate(2, "sanitizer", "MANDATORY", "supervisor", "output verified")
	j.AddSourceRestriction("operator", "use filed documents only", "", journal.PriorityMust)
	j.CorrectField("operator", "", "extractor", "amount", "100", "1000", "typo")
	j.RecordEvidence("report.pdf", "document", "abc123def456", 2048, "extractor")
	j.RecordExtractedField("claim_amount", "1000", "report.pdf p.3")
	j.AppendOperatorNote("escalated to supervisor")

	md := j.ExportMarkdown(nil)

	assert.Contains(t, md, "# Run "+run.ID)
	assert.Contains(t, md, "- Case: CASE-7")
	assert.Contains(t, md, "## Timeline")
	assert.Contains(t, md, "| 1 | extractor | completed |")
	assert.Contains(t, md, "## Gate Reviews")
	assert.Contains(t, md, "### gate-2-sanitizer: approved")
	assert.Contains(t, md, "## Scope Directives")
	assert.Contains(t, md, "[must/active] use filed documents only")
	assert.Contains(t, md, "## Human Patches")
	assert.Contains(t, md, `"100" -> "1000"`)
	assert.Contains(t, md, "## Evidence Artifacts")
	assert.Contains(t, md, "report.pdf (document, 2048 bytes")
	assert.Contains(t, md, "## Extracted Fields")
	assert.Contains(t, md, "- claim_amount: 1000 (source: report.pdf p.3)")
	assert.Contains(t, md, "## Operator Notes")
	assert.Contains(t, md, "- escalated to supervisor")

	// No summary until the run completes.
	assert.NotContains(t, md, "## Summary")
}

func TestExportMarkdownOmitsEmptySections(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-7", "intake")
	require.NoError(t, err)

	md := j.ExportMarkdown(nil)
	assert.NotContains(t, md, "## Timeline")
	assert.NotContains(t, md, "## Gate Reviews")
	assert.NotContains(t, md, "## Human Patches")
}

func TestExportArchivedRunIncludesSummary(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-7", "intake")
	require.NoError(t, err)
	j.RecordStepStart(1, "extractor", "INFORMATIONAL")
	j.RecordStepComplete(1, agent.Usage{InputUnits: 3}, false, false)
	j.CompleteRun(journal.FinalSuccess)

	history := j.History()
	require.Len(t, history, 1)

	md := j.ExportMarkdown(history[0])
	assert.Contains(t, md, "## Summary")
	assert.Contains(t, md, "- Final status: success")
	assert.Contains(t, md, "- Steps: 1/1 completed")
}

func TestExportSummaryGateCountsOrdered(t *testing.T) {
	j := newJournal(t)
	_, err := j.StartNewRun("CASE-7", "intake")
	require.NoError(t, err)
	j.RecordStepStart(1, "assessor", "MANDATORY")
	j.RecordStepComplete(1, agent.Usage{}, true, false)
	j.QuickApproveGate(1, "assessor", "MANDATORY", "dana", "first pass rejected")
	j.RecordGateReview(journal.GateReview{
		Step: 1, Role: "assessor", Decision: journal.DecisionRejected, Approver: "dana",
	})
	j.CompleteRun(journal.FinalSuccess)

	history := j.History()
	require.Len(t, history, 1)

	// Decisions render alphabetically so repeated exports are identical.
	md := j.ExportMarkdown(history[0])
	approved := strings.Index(md, "- Gates approved: 1")
	rejected := strings.Index(md, "- Gates rejected: 1")
	require.GreaterOrEqual(t, approved, 0)
	require.GreaterOrEqual(t, rejected, 0)
	assert.Less(t, approved, rejected)
}
