package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
	"github.com/eapp-modeling/gridpool/internal/model"
	"github.com/eapp-modeling/gridpool/internal/registry"
	"github.com/eapp-modeling/gridpool/internal/scenario"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	scenario *scenario.Scenario
	workflow *model.Workflow
}

// NewApp is the constructor for the main application. It loads the scenario
// and workfiles and returns a fully initialized App instance with its own
// isolated logger and registry.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("Action modules registered.", "types", reg.ActionTypes())

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
	}
	if err := a.reload(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// reload (re-)loads the scenario and the workfiles. Watch mode calls this
// before every re-run so workfile edits take effect without a restart.
func (a *App) reload(ctx context.Context) error {
	s, err := scenario.Load(a.config.ScenarioPath)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	wf, err := model.Load(ctx, a.config.WorkfilePath, s.EvalContext())
	if err != nil {
		return fmt.Errorf("failed to load workflow: %w", err)
	}

	a.scenario = s
	a.workflow = wf
	a.logger.Debug("Workflow loaded.",
		"scenario", s.Name, "countries", len(s.Countries), "rules", len(wf.Rules))
	return nil
}

// Workflow returns the loaded workflow. This is primarily for testing.
func (a *App) Workflow() *model.Workflow {
	return a.workflow
}

// Scenario returns the loaded scenario. This is primarily for testing.
func (a *App) Scenario() *scenario.Scenario {
	return a.scenario
}
