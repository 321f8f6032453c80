package app

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
	"github.com/eapp-modeling/gridpool/internal/fsutil"
	"github.com/eapp-modeling/gridpool/internal/model"
)

// debounceWindow coalesces editor save bursts into a single re-run.
const debounceWindow = 300 * time.Millisecond

// watch re-runs the configured targets whenever a workfile or a leaf input
// file changes. Workfiles and the scenario are reloaded before each re-run.
// Failed re-runs keep the watcher alive; only watcher errors and context
// cancellation end it.
func (a *App) watch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	arm := func() {
		for _, path := range watchPaths(a.workflow, a.config.Workdir) {
			if err := watcher.Add(path); err != nil {
				logger.Warn("Failed to watch path.", "path", path, "error", err)
			}
		}
	}
	arm()
	logger.Info("👀 Watching for changes.", "paths", len(watcher.WatchList()))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("Change detected.", "path", event.Name, "op", event.Op.String())
			pending = time.After(debounceWindow)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error.", "error", err)

		case <-pending:
			pending = nil
			if err := a.reload(ctx); err != nil {
				logger.Error("Reload failed, keeping previous workflow.", "error", err)
			}
			if _, err := a.RunOnce(ctx); err != nil {
				logger.Error("Re-run failed.", "error", err)
			}
			arm()
		}
	}
}

// watchPaths computes the files watch mode observes: every workfile plus
// every leaf input (an input no rule produces) that exists on disk.
// Produced files are deliberately not watched; the runs themselves touch
// those.
func watchPaths(wf *model.Workflow, workdir string) []string {
	produced := make(map[string]bool)
	for _, r := range wf.Rules {
		for _, out := range r.Outputs {
			produced[out] = true
		}
	}

	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, src := range wf.Sources {
		add(src)
	}
	for _, r := range wf.Rules {
		for _, in := range r.Inputs {
			if produced[in] || !fsutil.Exists(workdir, in) {
				continue
			}
			add(filepath.Join(workdir, in))
		}
	}

	sort.Strings(paths)
	return paths
}
