// Package watch re-runs the sync whenever an agents directory changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kazz187/agentsync/internal/reconcile"
	"github.com/kazz187/agentsync/internal/scope"
	"github.com/kazz187/agentsync/pkg/clog"
	"github.com/kazz187/agentsync/pkg/storage"
)

// DebounceInterval is the quiet period after the last event before a sync starts.
const DebounceInterval = 300 * time.Millisecond

type Syncer interface {
	Sync(ctx context.Context, opts reconcile.SyncOptions) (*reconcile.Plan, *reconcile.Summary, error)
}

type Watcher struct {
	syncer   Syncer
	opts     reconcile.SyncOptions
	dirs     []string
	debounce time.Duration
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New creates a watcher for the agents directories of every local scope.
// Scopes that are not backed by the local filesystem are skipped.
func New(locations scope.Set, syncer Syncer, opts reconcile.SyncOptions, options ...Option) (*Watcher, error) {
	w := &Watcher{syncer: syncer, opts: opts, debounce: DebounceInterval}
	for _, option := range options {
		option(w)
	}
	for _, s := range scope.All {
		loc, err := locations.Get(s)
		if err != nil {
			return nil, err
		}
		l, ok := loc.Store.(storage.Locator)
		if !ok {
			continue
		}
		w.dirs = append(w.dirs, l.LocalPath(scope.AgentsDir))
	}
	if len(w.dirs) == 0 {
		return nil, fmt.Errorf("no local scope to watch")
	}
	return w, nil
}

func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Run syncs once and then again after every burst of filesystem events,
// until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range w.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		if err := w.addTree(watcher, dir); err != nil {
			return err
		}
		slog.InfoContext(ctx, "watching agents directory", "dir", dir)
	}

	triggerCh := make(chan struct{}, 1)
	trigger := func() {
		select {
		case triggerCh <- struct{}{}:
		default:
		}
	}
	trigger()

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	defer func() {
		mu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			slog.DebugContext(ctx, "detected filesystem event", "op", event.Op.String(), "path", event.Name)
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						slog.WarnContext(ctx, "failed to watch new directory", clog.ErrorAttributeKey, err.Error())
					}
				}
			}
			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, trigger)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "fsnotify error", clog.ErrorAttributeKey, err.Error())

		case <-triggerCh:
			w.sync(ctx)
		}
	}
}

func (w *Watcher) sync(ctx context.Context) {
	plan, summary, err := w.syncer.Sync(ctx, w.opts)
	if err != nil {
		slog.ErrorContext(ctx, "sync failed", clog.ErrorAttributeKey, err.Error())
		return
	}
	if summary == nil {
		slog.DebugContext(ctx, "nothing to sync", "actions", len(plan.Actions))
		return
	}
	slog.InfoContext(ctx, "sync finished",
		clog.RunAttributeKey, summary.RunID,
		"registered", summary.Registered,
		"copied", summary.Copied,
		"renamed", summary.Renamed,
		"removed", summary.Removed,
		"failed", len(summary.Failed),
	)
}

// addTree watches dir and its direct subdirectories, which hold the
// directory layout definitions.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if err := watcher.Add(sub); err != nil {
			return fmt.Errorf("failed to watch %s: %w", sub, err)
		}
	}
	return nil
}

func relevant(event fsnotify.Event) bool {
	if strings.HasSuffix(event.Name, ".tmp") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
