package shell

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eapp-modeling/gridpool/internal/model"
	"github.com/eapp-modeling/gridpool/internal/registry"
	"github.com/eapp-modeling/gridpool/internal/scenario"
)

func testJob(dir string, rule *model.Rule) *registry.Job {
	return &registry.Job{Rule: rule, Scenario: scenario.Default(), Workdir: dir}
}

func TestOnRunShellProducesOutput(t *testing.T) {
	dir := t.TempDir()
	job := testJob(dir, &model.Rule{
		Name:    "make_file",
		Outputs: []string{"out.txt"},
	})

	err := OnRunShell(context.Background(), job, &Input{Command: "printf hello > out.txt"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestOnRunShellExportsRuleEnvironment(t *testing.T) {
	dir := t.TempDir()
	job := testJob(dir, &model.Rule{
		Name:    "env_probe",
		Inputs:  []string{"data/a.csv", "data/b.csv"},
		Outputs: []string{"env.txt"},
	})

	err := OnRunShell(context.Background(), job, &Input{
		Command: `printf '%s|%s|%s' "$GRIDPOOL_RULE" "$GRIDPOOL_INPUTS" "$EXTRA" > env.txt`,
		Env:     map[string]string{"EXTRA": "custom"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "env.txt"))
	require.NoError(t, err)
	assert.Equal(t, "env_probe|data/a.csv data/b.csv|custom", string(data))
}

func TestOnRunShellPropagatesFailure(t *testing.T) {
	dir := t.TempDir()
	job := testJob(dir, &model.Rule{Name: "boom"})

	err := OnRunShell(context.Background(), job, &Input{Command: "exit 3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestRegister(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)
	assert.True(t, r.Has("shell"))
}
