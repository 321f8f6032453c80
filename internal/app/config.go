package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// WorkfilePath is a single .hcl workfile or a directory of workfiles.
	WorkfilePath string
	// ScenarioPath is the scenario YAML document. Empty means the default
	// scenario (all pool members).
	ScenarioPath string
	// Workdir is the directory rule paths are relative to.
	Workdir string
	// Targets are the rule names or output paths to bring up to date.
	// Empty means everything.
	Targets []string

	// Workers is the parallelism degree for independent rules.
	Workers int
	// DryRun reports stale rules without executing actions.
	DryRun bool
	// Watch re-runs the targets when workfiles or leaf inputs change.
	Watch bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkfilePath == "" {
		return nil, errors.New("WorkfilePath is a required configuration field and cannot be empty")
	}
	if cfg.Workdir == "" {
		cfg.Workdir = "."
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}
