package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eapp-modeling/gridpool/internal/dag"
	"github.com/eapp-modeling/gridpool/internal/model"
	"github.com/eapp-modeling/gridpool/internal/registry"
	"github.com/eapp-modeling/gridpool/internal/scenario"
)

// recorder tracks which rules executed, in order.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *recorder) executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *recorder) index(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}

// newTestRegistry registers three synthetic actions: "probe" records the
// execution and produces the rule's declared outputs, "fail" always errors,
// and "silent" records but produces nothing.
func newTestRegistry(rec *recorder) *registry.Registry {
	reg := registry.New()
	reg.RegisterAction("probe", &registry.Action{
		Fn: func(ctx context.Context, job *registry.Job, _ any) error {
			rec.record(job.Rule.Name)
			for _, out := range job.Rule.Outputs {
				if err := os.WriteFile(filepath.Join(job.Workdir, out), []byte("x"), 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	})
	reg.RegisterAction("fail", &registry.Action{
		Fn: func(ctx context.Context, job *registry.Job, _ any) error {
			rec.record(job.Rule.Name)
			return errors.New("solver exploded")
		},
	})
	reg.RegisterAction("silent", &registry.Action{
		Fn: func(ctx context.Context, job *registry.Job, _ any) error {
			rec.record(job.Rule.Name)
			return nil
		},
	})
	return reg
}

func testRule(action, name string, inputs, outputs []string) *model.Rule {
	return &model.Rule{ActionType: action, Name: name, Inputs: inputs, Outputs: outputs}
}

// runRules builds a graph over all rules and executes it.
func runRules(t *testing.T, workdir string, reg *registry.Registry, workers int, dryRun bool, rules ...*model.Rule) (*Summary, error) {
	t.Helper()
	ctx := context.Background()

	graph, err := dag.Build(ctx, &model.Workflow{Rules: rules}, reg)
	require.NoError(t, err)
	required, err := graph.Resolve(ctx, nil)
	require.NoError(t, err)

	exec := New(Config{
		Graph:    graph,
		Required: required,
		Registry: reg,
		Scenario: scenario.Default(),
		Workdir:  workdir,
		Workers:  workers,
		DryRun:   dryRun,
	})
	return exec.Run(ctx)
}

func TestRunExecutesChainInOrder(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	reg := newTestRegistry(rec)

	summary, err := runRules(t, dir, reg, 4, false,
		testRule("probe", "a", nil, []string{"a.txt"}),
		testRule("probe", "b", []string{"a.txt"}, []string{"b.txt"}),
		testRule("probe", "c", []string{"b.txt"}, []string{"c.txt"}),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, rec.executed())
	assert.Equal(t, 3, summary.Executed)
	assert.FileExists(t, filepath.Join(dir, "c.txt"))
}

func TestRunFanOutExecutesAfterCommonDep(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	reg := newTestRegistry(rec)

	summary, err := runRules(t, dir, reg, 4, false,
		testRule("probe", "a", nil, []string{"a.txt"}),
		testRule("probe", "b", []string{"a.txt"}, []string{"b.txt"}),
		testRule("probe", "c", []string{"a.txt"}, []string{"c.txt"}),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Executed)
	assert.Equal(t, 0, rec.index("a"))
	assert.Greater(t, rec.index("b"), rec.index("a"))
	assert.Greater(t, rec.index("c"), rec.index("a"))
}

func TestRunIsIdempotentUnderFreshness(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	reg := newTestRegistry(rec)

	rules := []*model.Rule{
		testRule("probe", "a", nil, []string{"a.txt"}),
		testRule("probe", "b", []string{"a.txt"}, []string{"b.txt"}),
	}

	summary, err := runRules(t, dir, reg, 2, false, rules...)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Executed)

	// Second invocation: everything is current, nothing runs.
	summary, err = runRules(t, dir, reg, 2, false, rules...)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Executed)
	assert.Equal(t, 2, summary.Fresh)
	assert.Len(t, rec.executed(), 2)
}

func TestRunFailureSkipsDependents(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	reg := newTestRegistry(rec)

	summary, err := runRules(t, dir, reg, 1, false,
		testRule("probe", "a", nil, []string{"a.txt"}),
		testRule("fail", "b", []string{"a.txt"}, []string{"b.txt"}),
		testRule("probe", "c", []string{"b.txt"}, []string{"c.txt"}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solver exploded")

	assert.Equal(t, []string{"a", "b"}, rec.executed())
	assert.Equal(t, 1, summary.Executed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.NoFileExists(t, filepath.Join(dir, "c.txt"))
}

func TestRunDryRunExecutesNothing(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	reg := newTestRegistry(rec)

	summary, err := runRules(t, dir, reg, 2, true,
		testRule("probe", "a", nil, []string{"a.txt"}),
		testRule("probe", "b", []string{"a.txt"}, []string{"b.txt"}),
	)
	require.NoError(t, err)

	assert.Empty(t, rec.executed())
	assert.Equal(t, 2, summary.Planned)
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
}

func TestRunFailsBeforeExecutionOnOrphanInput(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	reg := newTestRegistry(rec)

	_, err := runRules(t, dir, reg, 2, false,
		testRule("probe", "a", []string{"data/never_made.csv"}, []string{"a.txt"}),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrUnresolvable)
	assert.Empty(t, rec.executed(), "no action may run after a preflight failure")
}

func TestRunOrphanInputPresentOnDiskIsFine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "given.csv"), []byte("x"), 0o644))

	rec := &recorder{}
	reg := newTestRegistry(rec)

	summary, err := runRules(t, dir, reg, 2, false,
		testRule("probe", "a", []string{"data/given.csv"}, []string{"a.txt"}),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Executed)
}

func TestRunRejectsUndeclaredOutputs(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	reg := newTestRegistry(rec)

	_, err := runRules(t, dir, reg, 1, false,
		testRule("silent", "a", nil, []string{"a.txt"}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without producing declared output")
}
