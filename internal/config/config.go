// Package config loads caseflow configuration.
//
// Load order (later sources override earlier): built-in defaults, the config
// file (.caseflow/config.yaml or ~/.caseflow/config.yaml), then CASEFLOW_*
// environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/caseflow-dev/caseflow/internal/errors"
)

// Config is the full caseflow configuration.
type Config struct {
	// AutoRun enables unattended continuation past advisory gates.
	AutoRun bool `mapstructure:"auto_run"`
	// AutoRunMandatory extends auto-run to mandatory gates.
	AutoRunMandatory bool `mapstructure:"auto_run_mandatory"`

	OperatorName string `mapstructure:"operator_name"`
	OperatorRole string `mapstructure:"operator_role"`

	DBPath       string `mapstructure:"db_path"`
	HistoryLimit int    `mapstructure:"history_limit"`
	TemplatesDir string `mapstructure:"templates_dir"`

	// AgentURL and RepairURL point at the external execution and repair
	// services.
	AgentURL  string `mapstructure:"agent_url"`
	RepairURL string `mapstructure:"repair_url"`

	ListenAddr       string        `mapstructure:"listen_addr"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("auto_run", false)
	v.SetDefault("auto_run_mandatory", false)
	v.SetDefault("operator_name", "")
	v.SetDefault("operator_role", "operator")
	v.SetDefault("db_path", ".caseflow/journal.db")
	v.SetDefault("history_limit", 20)
	v.SetDefault("templates_dir", ".caseflow/templates")
	v.SetDefault("agent_url", "http://localhost:8391")
	v.SetDefault("repair_url", "http://localhost:8392")
	v.SetDefault("listen_addr", "127.0.0.1:8390")
	v.SetDefault("progress_interval", 5*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads configuration. An explicit path is required to exist; otherwise
// the default search locations are optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".caseflow")
		v.AddConfigPath("$HOME/.caseflow")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CASEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Absent files in the search locations are fine; parse errors and
		// a missing explicit path are not.
		if !isNotFound(err) {
			return nil, errors.ErrConfigInvalid("config file", err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ErrConfigInvalid("config", err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}

// Validate checks field-level invariants.
func (c *Config) Validate() error {
	if c.HistoryLimit < 1 {
		return errors.ErrConfigInvalid("history_limit", "must be at least 1")
	}
	if strings.TrimSpace(c.OperatorRole) == "" {
		return errors.ErrConfigInvalid("operator_role", "must not be empty")
	}
	if c.ProgressInterval < 0 {
		return errors.ErrConfigInvalid("progress_interval", "must not be negative")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.ErrConfigInvalid("log_format", "must be \"text\" or \"json\"")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return errors.ErrConfigInvalid("log_level", "must be debug, info, warn, or error")
	}
	return nil
}
