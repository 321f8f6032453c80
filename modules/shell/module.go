// Package shell provides the action that bridges rules to external scripts
// and solvers: it runs the rule's command through the system shell in the
// workspace directory.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
	"github.com/eapp-modeling/gridpool/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the shell action's params block.
type Input struct {
	Command string            `param:"command"`
	Env     map[string]string `param:"env,optional"`
}

// OnRunShell is the handler for the 'shell' action. The rule's declared
// inputs and outputs are exported to the child process so scripts do not
// have to repeat them.
func OnRunShell(ctx context.Context, job *registry.Job, input any) error {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("rule", job.Rule.Name)

	cmd := exec.CommandContext(ctx, "sh", "-c", in.Command)
	cmd.Dir = job.Workdir
	cmd.Env = append(os.Environ(),
		"GRIDPOOL_RULE="+job.Rule.Name,
		"GRIDPOOL_SCENARIO="+job.Scenario.Name,
		"GRIDPOOL_INPUTS="+strings.Join(job.Rule.Inputs, " "),
		"GRIDPOOL_OUTPUTS="+strings.Join(job.Rule.Outputs, " "),
	)
	for k, v := range in.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	logger.Debug("Running shell command.", "command", in.Command)
	err := cmd.Run()

	for _, line := range strings.Split(strings.TrimRight(output.String(), "\n"), "\n") {
		if line != "" {
			logger.Info("shell:", "line", line)
		}
	}

	if err != nil {
		return fmt.Errorf("command %q: %w", in.Command, err)
	}
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("shell", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunShell,
	})
}
