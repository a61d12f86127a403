package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowerrors "github.com/caseflow-dev/caseflow/internal/errors"
)

func TestParse_Valid(t *testing.T) {
	data := []byte(`
name: test
steps:
  - role: extractor
    name: Extraction
    classification: INFORMATIONAL
  - role: assessor
    name: Assessment
    classification: MANDATORY
`)
	w, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "test", w.Name)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, "assessor", w.Steps[1].Role)
}

func TestParse_RejectsUnknownClassification(t *testing.T) {
	data := []byte(`
name: bad
steps:
  - role: extractor
    classification: SEVERE
`)
	_, err := Parse(data)
	require.Error(t, err)
	fe := flowerrors.AsFlowError(err)
	require.NotNil(t, fe)
	assert.Equal(t, flowerrors.CodeTemplateInvalid, fe.Code)
}

func TestParse_RejectsEmptySteps(t *testing.T) {
	_, err := Parse([]byte("name: empty\nsteps: []\n"))
	require.Error(t, err)
}

func TestParse_RejectsMissingRole(t *testing.T) {
	data := []byte(`
name: bad
steps:
  - name: Something
    classification: ADVISORY
`)
	_, err := Parse(data)
	require.Error(t, err)
}

func TestStepAt(t *testing.T) {
	w := &Workforce{
		Name:  "t",
		Steps: []Step{{Role: "a"}, {Role: "b"}},
	}

	s, err := w.StepAt(2)
	require.NoError(t, err)
	assert.Equal(t, "b", s.Role)

	_, err = w.StepAt(0)
	assert.Error(t, err)
	_, err = w.StepAt(3)
	assert.Error(t, err)
}

func TestNewRegistry_Builtins(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	names := r.Names()
	assert.Contains(t, names, "intake")
	assert.Contains(t, names, "review")

	intake, err := r.Get("intake")
	require.NoError(t, err)
	require.Equal(t, 4, intake.Len())
	// The sanitization step must be mandatory-gated in the builtin pipeline.
	assert.Equal(t, "sanitizer", intake.Steps[1].Role)
	assert.Equal(t, "MANDATORY", intake.Steps[1].Classification)
}

func TestNewRegistry_UserTemplatesShadowBuiltins(t *testing.T) {
	dir := t.TempDir()
	custom := `
name: intake
description: overridden
steps:
  - role: extractor
    classification: INFORMATIONAL
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intake.yaml"), []byte(custom), 0o644))

	r, err := NewRegistry(dir)
	require.NoError(t, err)

	intake, err := r.Get("intake")
	require.NoError(t, err)
	assert.Equal(t, "overridden", intake.Description)
	assert.Equal(t, 1, intake.Len())
}

func TestRegistry_GetUnknown(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	_, err = r.Get("nope")
	fe := flowerrors.AsFlowError(err)
	require.NotNil(t, fe)
	assert.Equal(t, flowerrors.CodeTemplateNotFound, fe.Code)
}
