package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
	"github.com/eapp-modeling/gridpool/internal/dag"
	"github.com/eapp-modeling/gridpool/internal/fsutil"
	"github.com/eapp-modeling/gridpool/internal/registry"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *dag.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "rule", n.ID)

		if ctx.Err() != nil {
			// The run was cancelled while this node sat in the queue. Its
			// wg slot is released here; dependents that never reached the
			// queue are released by skipDependents.
			if n.TrySkip(ctx.Err()) {
				e.wg.Done()
			}
			e.skipDependents(ctx, n, ctx.Err())
			continue
		}

		workerLogger.Debug("Worker picked up rule.")
		n.SetState(dag.Running)

		if err := e.runNode(ctx, n); err != nil {
			workerLogger.Error("Rule execution failed.", "error", err)
			n.Fail(err)
			cancel()
			e.skipDependents(ctx, n, fmt.Errorf("upstream rule %q failed", n.ID))
			e.wg.Done()
			continue
		}

		for _, dependent := range n.Dependents {
			if _, required := e.cfg.Required[dependent.ID]; !required {
				continue
			}
			if dependent.DecrementRemaining() == 0 {
				workerLogger.Debug("Unlocking dependent rule.", "dependent", dependent.ID)
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// skipDependents transitively marks every still-pending dependent of n as
// skipped, releasing their wait-group slots.
func (e *Executor) skipDependents(ctx context.Context, n *dag.Node, cause error) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range n.Dependents {
		if _, required := e.cfg.Required[dependent.ID]; !required {
			continue
		}
		if dependent.TrySkip(cause) {
			logger.Warn("Skipping dependent rule.", "rule", dependent.ID, "cause", cause)
			e.wg.Done()
		}
		// Recurse regardless: the dependent may have been skipped already
		// while its own dependents were not.
		e.skipDependents(ctx, dependent, cause)
	}
}

// runNode executes a single rule: freshness gate, dry-run gate, params
// decoding, then the registered action.
func (e *Executor) runNode(ctx context.Context, n *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("rule", n.ID)
	rule := n.Rule

	fresh, err := fsutil.UpToDate(e.cfg.Workdir, rule.Outputs, rule.Inputs)
	if err != nil {
		return fmt.Errorf("freshness check for rule %q: %w", n.ID, err)
	}
	if fresh {
		n.SetState(dag.Fresh)
		logger.Info("Outputs up to date, skipping execution.")
		return nil
	}

	if e.cfg.DryRun {
		n.SetState(dag.Planned)
		logger.Info("Dry run: rule would execute.", "action", rule.ActionType)
		return nil
	}

	action, ok := e.cfg.Registry.Action(rule.ActionType)
	if !ok {
		// Build already validated action types; reaching this is a bug.
		return fmt.Errorf("action type %q not registered", rule.ActionType)
	}

	var input any
	if action.NewInput != nil {
		input = action.NewInput()
		if err := registry.DecodeParams(rule.Params, input); err != nil {
			return fmt.Errorf("params for rule %q: %w", n.ID, err)
		}
	} else if len(rule.Params) > 0 {
		return fmt.Errorf("action %q takes no params, but rule %q declares some", rule.ActionType, n.ID)
	}

	for _, out := range rule.Outputs {
		if err := os.MkdirAll(filepath.Dir(filepath.Join(e.cfg.Workdir, out)), 0o755); err != nil {
			return fmt.Errorf("creating output directory for %q: %w", out, err)
		}
	}

	logger.Info("▶️ Executing rule", "action", rule.ActionType)
	job := &registry.Job{
		Rule:     rule,
		Scenario: e.cfg.Scenario,
		Workdir:  e.cfg.Workdir,
	}
	if err := action.Fn(ctx, job, input); err != nil {
		return fmt.Errorf("rule %q: %w", n.ID, err)
	}

	for _, out := range rule.Outputs {
		if !fsutil.Exists(e.cfg.Workdir, out) {
			return fmt.Errorf("rule %q finished without producing declared output %q", n.ID, out)
		}
	}

	n.SetState(dag.Done)
	logger.Info("✅ Rule finished")
	return nil
}
