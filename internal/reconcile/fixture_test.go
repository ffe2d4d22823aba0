package reconcile

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kazz187/agentsync/internal/registry"
	"github.com/kazz187/agentsync/internal/registry/repositoryimpl"
	"github.com/kazz187/agentsync/internal/scope"
	"github.com/kazz187/agentsync/pkg/storage"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// hookStore lets a test intercept writes to a storage.
type hookStore struct {
	storage.Storage
	onWrite func(path string) error
}

func (h *hookStore) Write(ctx context.Context, path string, data []byte) error {
	if h.onWrite != nil {
		if err := h.onWrite(path); err != nil {
			return err
		}
	}
	return h.Storage.Write(ctx, path, data)
}

// countingRepository counts saves and can be told to fail.
type countingRepository struct {
	registry.Repository
	mu      sync.Mutex
	saves   map[scope.Scope]int
	loadErr error
	saveErr error
}

func (r *countingRepository) Load(ctx context.Context, s scope.Scope) (*registry.Document, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.Repository.Load(ctx, s)
}

func (r *countingRepository) Save(ctx context.Context, s scope.Scope, doc *registry.Document) error {
	r.mu.Lock()
	r.saves[s]++
	r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.Repository.Save(ctx, s, doc)
}

type fixture struct {
	set      scope.Set
	stores   map[scope.Scope]*hookStore
	repo     *countingRepository
	registry *registry.Registry
	engine   *Engine
	executor *Executor
}

func newFixture(t *testing.T, opts ...EngineOption) *fixture {
	t.Helper()
	f := &fixture{set: scope.Set{}, stores: map[scope.Scope]*hookStore{}}
	for _, s := range scope.All {
		local, err := storage.NewLocalStorage(t.TempDir())
		require.NoError(t, err)
		store := &hookStore{Storage: local}
		f.stores[s] = store
		f.set[s] = scope.Location{Scope: s, Store: store, App: "claude"}
	}
	f.repo = &countingRepository{
		Repository: repositoryimpl.NewJSONRepository(f.set),
		saves:      map[scope.Scope]int{},
	}
	f.registry = registry.New(f.repo)
	f.engine = NewEngine(f.set, f.registry, opts...)
	f.executor = NewExecutor(f.set, f.registry, WithClock(func() time.Time { return fixedNow }))
	return f
}

func (f *fixture) write(t *testing.T, s scope.Scope, files map[string]string) {
	t.Helper()
	for p, content := range files {
		require.NoError(t, f.stores[s].Storage.Write(context.Background(), p, []byte(content)))
	}
}

func (f *fixture) register(t *testing.T, s scope.Scope, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.registry.Upsert(context.Background(), s, id, registry.Entry{InstalledAt: fixedNow, Enabled: true}))
	}
	f.repo.saves = map[scope.Scope]int{}
}

func (f *fixture) exists(t *testing.T, s scope.Scope, p string) bool {
	t.Helper()
	ok, err := f.stores[s].Exists(context.Background(), p)
	require.NoError(t, err)
	return ok
}

func doc(header string) string {
	return fmt.Sprintf("---\n%s\n---\n\nPrompt body.\n", header)
}

// brief renders actions as "kind scope id[ -> target]" for comparisons.
func brief(p *Plan) []string {
	out := make([]string, 0, len(p.Actions))
	for _, a := range p.Actions {
		s := fmt.Sprintf("%s %s %s", a.Kind, a.Scope, a.Identifier)
		if a.Kind == ActionRename {
			s += " -> " + a.Target
		}
		out = append(out, s)
	}
	return out
}
