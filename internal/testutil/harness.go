// Package testutil provides a shared harness for integration tests: it
// materializes a workspace from literal file contents, runs the full
// application against it, and captures logs and the run summary.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eapp-modeling/gridpool/internal/app"
	"github.com/eapp-modeling/gridpool/internal/executor"
	"github.com/eapp-modeling/gridpool/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Dir is the workspace the run executed in.
	Dir string
	// Logs accumulates output across runs; call Logs.String() to inspect.
	Logs *SafeBuffer
	// Summary is nil when startup or graph construction failed.
	Summary *executor.Summary
	// Err is the error from startup or execution.
	Err error
	// App is non-nil once startup succeeded; tests re-invoke RunOnce on it
	// to exercise freshness behavior.
	App *app.App
}

// RunWorkflow materializes files into a temp workspace (workfiles under
// workflows/, everything else as given), then runs the requested targets
// once. A file named scenario.yaml, if present, is used as the scenario.
func RunWorkflow(t *testing.T, files map[string]string, targets []string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	ctx := context.Background()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	scenarioPath := ""
	if _, ok := files["scenario.yaml"]; ok {
		scenarioPath = filepath.Join(tmpDir, "scenario.yaml")
	}

	cfg, err := app.NewConfig(app.Config{
		WorkfilePath: filepath.Join(tmpDir, "workflows"),
		ScenarioPath: scenarioPath,
		Workdir:      tmpDir,
		Targets:      targets,
		Workers:      4,
		LogFormat:    "text",
		LogLevel:     "debug",
	})
	require.NoError(t, err)

	logs := &SafeBuffer{}
	result := &HarnessResult{Dir: tmpDir, Logs: logs}

	testApp, err := app.NewApp(logs, cfg, modules...)
	if err != nil {
		result.Err = err
		return result
	}
	result.App = testApp

	result.Summary, result.Err = testApp.RunOnce(ctx)
	return result
}
