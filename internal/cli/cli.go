// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/eapp-modeling/gridpool/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gridpool", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
GridPool - a declarative workflow orchestrator for power-pool model builds.

Usage:
  gridpool [options] [TARGET ...]

Arguments:
  TARGET
    A rule name or an output file path to bring up to date. With no
    targets, every rule in the workflow is considered.

Options:
`)
		flagSet.PrintDefaults()
	}

	workfileFlag := flagSet.String("workfile", "", "Path to a workfile or a directory of workfiles.")
	wFlag := flagSet.String("w", "", "Path to a workfile or a directory of workfiles (shorthand).")
	scenarioFlag := flagSet.String("scenario", "", "Path to the scenario YAML document.")
	sFlag := flagSet.String("s", "", "Path to the scenario YAML document (shorthand).")
	workdirFlag := flagSet.String("workdir", ".", "Directory rule paths are relative to.")
	jobsFlag := flagSet.Int("jobs", 4, "Number of rules to execute in parallel.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Report stale rules without executing actions.")
	watchFlag := flagSet.Bool("watch", false, "Re-run targets when workfiles or leaf inputs change.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	workfile := *workfileFlag
	if workfile == "" {
		workfile = *wFlag
	}
	if workfile == "" {
		slog.Debug("No workfile path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	scenarioPath := *scenarioFlag
	if scenarioPath == "" {
		scenarioPath = *sFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *jobsFlag < 1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid jobs: must be at least 1"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		WorkfilePath: workfile,
		ScenarioPath: scenarioPath,
		Workdir:      *workdirFlag,
		Targets:      flagSet.Args(),
		Workers:      *jobsFlag,
		DryRun:       *dryRunFlag,
		Watch:        *watchFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
