package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
	"github.com/eapp-modeling/gridpool/internal/dag"
	"github.com/eapp-modeling/gridpool/internal/executor"
)

// Run executes the configured targets once, or repeatedly in watch mode.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if _, err := a.RunOnce(ctx); err != nil {
		return err
	}
	if a.config.Watch {
		return a.watch(ctx)
	}
	return nil
}

// RunOnce resolves the configured targets against the loaded workflow and
// executes the stale portion of their dependency chains.
func (a *App) RunOnce(ctx context.Context) (*executor.Summary, error) {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	logger.Debug("Building dependency graph from workflow...")
	graph, err := dag.Build(ctx, a.workflow, a.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	logger.Debug("Dependency graph built.", "node_count", len(graph.Nodes))

	required, err := graph.Resolve(ctx, a.config.Targets)
	if err != nil {
		return nil, err
	}

	if len(required) == 0 {
		logger.Warn("No rules selected, execution not required.")
		return &executor.Summary{}, nil
	}

	logger.Info("🚀 Starting run.",
		"scenario", a.scenario.Name, "rules", len(required), "workers", a.config.Workers,
		"dry_run", a.config.DryRun)

	exec := executor.New(executor.Config{
		Graph:    graph,
		Required: required,
		Registry: a.registry,
		Scenario: a.scenario,
		Workdir:  a.config.Workdir,
		Workers:  a.config.Workers,
		DryRun:   a.config.DryRun,
	})
	summary, err := exec.Run(ctx)
	if err != nil {
		return summary, fmt.Errorf("execution failed: %w", err)
	}

	logger.Info("🏁 Run finished.",
		"executed", summary.Executed, "fresh", summary.Fresh,
		"planned", summary.Planned, "skipped", summary.Skipped)
	return summary, nil
}
