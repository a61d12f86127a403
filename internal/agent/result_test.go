package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResult_Clean(t *testing.T) {
	raw := []byte(`{
		"status": "ok",
		"output": "extracted 12 fields",
		"usage": {"input_units": 900, "output_units": 120}
	}`)

	res := ParseResult(raw)
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, "extracted 12 fields", res.Output)
	assert.Equal(t, 1020, res.Usage.Total())
	assert.False(t, res.Failed())
	assert.Nil(t, res.Extra)
}

func TestParseResult_CriticalFailureFlag(t *testing.T) {
	res := ParseResult([]byte(`{"status": "ok", "critical_failure": true}`))
	assert.True(t, res.CriticalFailure)
	assert.True(t, res.Failed())

	// Status string alone also signals critical failure.
	res = ParseResult([]byte(`{"status": "CRITICAL_FAILURE"}`))
	assert.True(t, res.CriticalFailure)
}

func TestParseResult_AdversarialAlert(t *testing.T) {
	raw := []byte(`{
		"status": "ok",
		"adversarial": {
			"severity": "critical",
			"anomaly_type": "prompt_injection",
			"affected_fields": ["claimant_name", "amount"],
			"recommended_action": "reject"
		}
	}`)

	res := ParseResult(raw)
	require.NotNil(t, res.Adversarial)
	assert.Equal(t, SeverityCritical, res.Adversarial.Severity)
	assert.Equal(t, "prompt_injection", res.Adversarial.AnomalyType)
	assert.Equal(t, []string{"claimant_name", "amount"}, res.Adversarial.AffectedFields)
	assert.True(t, res.Failed())
	assert.True(t, res.AdversarialCritical())
}

func TestParseResult_NonCriticalAdversarialIsRecoverable(t *testing.T) {
	raw := []byte(`{"adversarial": {"severity": "medium", "anomaly_type": "encoding_anomaly"}}`)
	res := ParseResult(raw)
	assert.True(t, res.Failed())
	assert.False(t, res.AdversarialCritical())
}

func TestParseResult_RemediateDirective(t *testing.T) {
	res := ParseResult([]byte(`{"remediate": {"reason": "malformed table"}}`))
	require.NotNil(t, res.Remediate)
	assert.Equal(t, "malformed table", res.Remediate.Reason)
	assert.True(t, res.Failed())
}

func TestParseResult_NullRemediateIsNotADirective(t *testing.T) {
	res := ParseResult([]byte(`{"status": "ok", "remediate": null}`))
	assert.Nil(t, res.Remediate)
	assert.False(t, res.Failed())
}

func TestParseResult_UnknownFieldsPreserved(t *testing.T) {
	raw := []byte(`{
		"status": "ok",
		"confidence": 0.93,
		"citations": ["doc-1", "doc-2"]
	}`)

	res := ParseResult(raw)
	require.NotNil(t, res.Extra)
	assert.InDelta(t, 0.93, res.Extra["confidence"], 0.0001)
	assert.Len(t, res.Extra["citations"], 2)
	assert.NotContains(t, res.Extra, "status")
}

func TestParseResult_InvalidJSON(t *testing.T) {
	res := ParseResult([]byte("plain text response"))
	assert.Equal(t, "plain text response", res.Output)
	assert.False(t, res.Failed())
}

func TestAdversarialCritical_NilSafe(t *testing.T) {
	res := &Result{}
	assert.False(t, res.AdversarialCritical())
}

func TestArtifactSHA256(t *testing.T) {
	a := Artifact{Name: "claim.pdf", Content: "hello"}
	b := Artifact{Name: "other.pdf", Content: "hello"}
	assert.Equal(t, a.SHA256(), b.SHA256())
	assert.Len(t, a.SHA256(), 64)
}
