// Package summary provides the action that merges per-country result tables
// into a single pooled summary table, keyed by country code.
package summary

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
	"github.com/eapp-modeling/gridpool/internal/registry"
	"github.com/eapp-modeling/gridpool/internal/scenario"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the summary action's params block.
type Input struct {
	// KeyColumn names the column prepended to every row to identify the
	// originating country. Defaults to "country".
	KeyColumn string `param:"key_column,optional"`
}

// OnRunSummary is the handler for the 'summary' action. Each input CSV is
// attributed to a country by looking for a member code in its path segments;
// all rows are concatenated under a shared header with the country column
// prepended.
func OnRunSummary(ctx context.Context, job *registry.Job, input any) error {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("rule", job.Rule.Name)

	if len(job.Rule.Outputs) != 1 {
		return fmt.Errorf("summary rules must declare exactly one output, got %d", len(job.Rule.Outputs))
	}
	if len(job.Rule.Inputs) == 0 {
		return fmt.Errorf("summary rules must declare at least one input table")
	}

	keyColumn := in.KeyColumn
	if keyColumn == "" {
		keyColumn = "country"
	}

	var header []string
	var rows [][]string
	for _, inPath := range job.Rule.Inputs {
		country := countryForPath(inPath)
		table, err := readTable(filepath.Join(job.Workdir, inPath))
		if err != nil {
			return fmt.Errorf("reading %q: %w", inPath, err)
		}
		if len(table) == 0 {
			return fmt.Errorf("input table %q is empty", inPath)
		}
		if header == nil {
			header = table[0]
		} else if !equalHeader(header, table[0]) {
			return fmt.Errorf("input table %q header %v does not match %v", inPath, table[0], header)
		}
		for _, row := range table[1:] {
			rows = append(rows, append([]string{country}, row...))
		}
	}

	outPath := filepath.Join(job.Workdir, job.Rule.Outputs[0])
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %q: %w", outPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{keyColumn}, header...)); err != nil {
		return fmt.Errorf("writing %q: %w", outPath, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %q: %w", outPath, err)
	}

	logger.Info("Pooled summary written.", "tables", len(job.Rule.Inputs), "rows", len(rows))
	return nil
}

// countryForPath attributes an input table to a country by scanning its path
// segments for a member code. Falls back to the file's base name.
func countryForPath(path string) string {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if scenario.IsMember(seg) {
			return seg
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readTable(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("summary", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunSummary,
	})
}
