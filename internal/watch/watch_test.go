package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/agentsync/internal/reconcile"
	"github.com/kazz187/agentsync/internal/scope"
)

type countingSyncer struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSyncer) Sync(context.Context, reconcile.SyncOptions) (*reconcile.Plan, *reconcile.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return &reconcile.Plan{}, nil, nil
}

func (s *countingSyncer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestWatcher_Run(t *testing.T) {
	home, work := t.TempDir(), t.TempDir()
	locations, err := scope.NewLocalSet("claude", home, work)
	require.NoError(t, err)

	syncer := &countingSyncer{}
	w, err := New(locations, syncer, reconcile.SyncOptions{}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.Len(t, w.Dirs(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return syncer.count() == 1 }, 2*time.Second, 10*time.Millisecond, "initial sync")

	// A burst of writes collapses into one sync.
	projectAgents := filepath.Join(work, ".claude", "agents")
	require.Eventually(t, func() bool {
		_, err := os.Stat(projectAgents)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	for range 3 {
		require.NoError(t, os.WriteFile(filepath.Join(projectAgents, "alpha.md"), []byte("---\nname: alpha\n---\n"), 0o644))
	}
	assert.Eventually(t, func() bool { return syncer.count() >= 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: "agents/a.md", Op: fsnotify.Write}, true},
		{"remove", fsnotify.Event{Name: "agents/a.md", Op: fsnotify.Remove}, true},
		{"chmod", fsnotify.Event{Name: "agents/a.md", Op: fsnotify.Chmod}, false},
		{"temp file", fsnotify.Event{Name: "agents/a.md.tmp", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.event))
		})
	}
}
