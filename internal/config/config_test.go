package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow-dev/caseflow/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no project config is picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.AutoRun)
	assert.Equal(t, "operator", cfg.OperatorRole)
	assert.Equal(t, ".caseflow/journal.db", cfg.DBPath)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, "127.0.0.1:8390", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.ProgressInterval)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auto_run: true
operator_name: dana
operator_role: supervisor
history_limit: 5
log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.AutoRun)
	assert.False(t, cfg.AutoRunMandatory, "unset fields keep defaults")
	assert.Equal(t, "dana", cfg.OperatorName)
	assert.Equal(t, "supervisor", cfg.OperatorRole)
	assert.Equal(t, 5, cfg.HistoryLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CASEFLOW_OPERATOR_ROLE", "security_lead")
	t.Setenv("CASEFLOW_AUTO_RUN", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "security_lead", cfg.OperatorRole)
	assert.True(t, cfg.AutoRun)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	fe := errors.AsFlowError(err)
	require.NotNil(t, fe)
	assert.Equal(t, errors.CodeConfigInvalid, fe.Code)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auto_run: [unclosed"), 0o644))

	_, err := Load(path)
	fe := errors.AsFlowError(err)
	require.NotNil(t, fe)
	assert.Equal(t, errors.CodeConfigInvalid, fe.Code)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			OperatorRole: "operator",
			HistoryLimit: 10,
			LogLevel:     "info",
			LogFormat:    "text",
		}
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.HistoryLimit = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.OperatorRole = "  "
	assert.Error(t, c.Validate())

	c = valid()
	c.LogFormat = "xml"
	assert.Error(t, c.Validate())

	c = valid()
	c.LogLevel = "trace"
	assert.Error(t, c.Validate())
}