// Package fetch provides the action for raw dataset retrieval rules: it
// downloads a URL to the rule's output path, optionally verifying a sha256
// checksum.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
	"github.com/eapp-modeling/gridpool/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// httpClient is shared by all fetch executions to reuse TCP connections.
var httpClient = &http.Client{}

// Input defines the arguments for the fetch action's params block.
type Input struct {
	URL    string `param:"url"`
	SHA256 string `param:"sha256,optional"`
}

// OnRunFetch is the handler for the 'fetch' action.
func OnRunFetch(ctx context.Context, job *registry.Job, input any) error {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("rule", job.Rule.Name)

	if len(job.Rule.Outputs) != 1 {
		return fmt.Errorf("fetch rules must declare exactly one output, got %d", len(job.Rule.Outputs))
	}
	dest := filepath.Join(job.Workdir, job.Rule.Outputs[0])

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %q: %w", in.URL, err)
	}

	logger.Debug("Downloading dataset.", "url", in.URL, "dest", dest)
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %q: %w", in.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %q returned status %s", in.URL, resp.Status)
	}

	// Download to a temp file first so a partial transfer never shadows a
	// declared output with a stale-but-present file.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hash := sha256.New()
	written, err := io.Copy(tmp, io.TeeReader(resp.Body, hash))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", dest, err)
	}

	if in.SHA256 != "" {
		got := hex.EncodeToString(hash.Sum(nil))
		if got != in.SHA256 {
			return fmt.Errorf("checksum mismatch for %q: got %s, want %s", in.URL, got, in.SHA256)
		}
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	logger.Info("Dataset downloaded.", "url", in.URL, "bytes", written)
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("fetch", &registry.Action{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunFetch,
	})
}
