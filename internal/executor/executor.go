// Package executor runs the resolved portion of a dependency graph with a
// pool of concurrent workers. A rule executes at most once per invocation,
// and only if its outputs are missing or older than its inputs. The first
// failure cancels the run and skips every transitive dependent; there is no
// retry and no partial salvage.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
	"github.com/eapp-modeling/gridpool/internal/dag"
	"github.com/eapp-modeling/gridpool/internal/fsutil"
	"github.com/eapp-modeling/gridpool/internal/registry"
	"github.com/eapp-modeling/gridpool/internal/scenario"
)

// Config carries everything an Executor needs for one invocation.
type Config struct {
	Graph    *dag.Graph
	Required map[string]*dag.Node
	Registry *registry.Registry
	Scenario *scenario.Scenario
	// Workdir is the directory all rule paths are relative to.
	Workdir string
	// Workers is the parallelism degree; values below 1 mean 1.
	Workers int
	// DryRun reports stale rules without executing their actions.
	DryRun bool
}

// Summary tallies the terminal states of an invocation.
type Summary struct {
	Executed int
	Fresh    int
	Planned  int
	Failed   int
	Skipped  int
}

// Executor orchestrates the end-to-end execution of a resolved graph.
type Executor struct {
	cfg Config
	wg  sync.WaitGroup
}

// New creates an executor for one invocation. Executors are single-use.
func New(cfg Config) *Executor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Executor{cfg: cfg}
}

// Run executes the required nodes in dependency order. It returns a summary
// of terminal states and a non-nil error if any rule failed, any required
// input was unresolvable, or the context was cancelled.
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)

	if err := e.preflight(); err != nil {
		return nil, err
	}

	// Dependency counters only consider edges inside the required set. The
	// set is closed under dependencies, so this equals the full dep count,
	// but counting through Required keeps the invariant explicit.
	ready := make([]*dag.Node, 0, len(e.cfg.Required))
	for _, n := range e.cfg.Required {
		count := 0
		for depID := range n.Deps {
			if _, ok := e.cfg.Required[depID]; ok {
				count++
			}
		}
		n.SetRemaining(count)
		if count == 0 {
			ready = append(ready, n)
		}
	}

	// Buffered to the node count so workers never block on hand-off.
	readyChan := make(chan *dag.Node, len(e.cfg.Required))
	e.wg.Add(len(e.cfg.Required))
	for _, n := range ready {
		readyChan <- n
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Executor starting.", "nodes", len(e.cfg.Required), "workers", e.cfg.Workers)
	for i := 0; i < e.cfg.Workers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	e.wg.Wait()
	close(readyChan)

	summary := e.summarize()
	logger.Debug("Executor finished.",
		"executed", summary.Executed, "fresh", summary.Fresh,
		"planned", summary.Planned, "failed", summary.Failed, "skipped", summary.Skipped)

	if summary.Failed > 0 {
		var failures []error
		for _, n := range e.cfg.Required {
			if n.State() == dag.Failed {
				failures = append(failures, n.Err())
			}
		}
		return summary, fmt.Errorf("%d rule(s) failed: %w", summary.Failed, errors.Join(failures...))
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// preflight verifies that every required input with no producing rule
// already exists on disk. This runs before any action executes.
func (e *Executor) preflight() error {
	for _, n := range e.cfg.Required {
		for _, in := range n.Rule.Inputs {
			if e.cfg.Graph.Producer(in) != nil {
				continue
			}
			if !fsutil.Exists(e.cfg.Workdir, in) {
				return fmt.Errorf("%w: input %q required by rule %q does not exist and no rule produces it",
					dag.ErrUnresolvable, in, n.ID)
			}
		}
	}
	return nil
}

func (e *Executor) summarize() *Summary {
	s := &Summary{}
	for _, n := range e.cfg.Required {
		switch n.State() {
		case dag.Done:
			s.Executed++
		case dag.Fresh:
			s.Fresh++
		case dag.Planned:
			s.Planned++
		case dag.Failed:
			s.Failed++
		case dag.Skipped:
			s.Skipped++
		}
	}
	return s
}
