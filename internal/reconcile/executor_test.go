package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/agentsync/internal/scope"
	"github.com/kazz187/agentsync/pkg/cerr"
)

func TestExecutor_PartialFailureAndBatchedSaves(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, scope.User, map[string]string{
		"agents/alpha.md": doc("description: Alpha"),
		"agents/beta.md":  doc("description: Beta"),
		"agents/gamma.md": doc("description: Gamma"),
	})
	f.stores[scope.Project].onWrite = func(p string) error {
		switch p {
		case "agents/alpha.md":
			return errors.New("disk full")
		case "agents/beta.md":
			panic("storage driver crashed")
		}
		return nil
	}

	plan, err := f.engine.Scan(ctx, ScanOptions{CopyToProject: true})
	require.NoError(t, err)
	require.Equal(t, 6, len(plan.Actions))

	summary, err := f.executor.Execute(ctx, plan)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Registered)
	assert.Equal(t, 1, summary.Copied)
	require.Len(t, summary.Failed, 2)
	assert.Equal(t, Failure{Identifier: "alpha", Scope: scope.User, Action: ActionCopyToProject, Reason: summary.Failed[0].Reason}, summary.Failed[0])
	assert.Contains(t, summary.Failed[0].Reason, "disk full")
	assert.Equal(t, "beta", summary.Failed[1].Identifier)
	assert.Contains(t, summary.Failed[1].Reason, "storage driver crashed")

	assert.Equal(t, map[scope.Scope]int{scope.User: 1, scope.Project: 1}, f.repo.saves)

	projectDoc, err := f.registry.Load(ctx, scope.Project)
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma"}, projectDoc.IDs())
	assert.True(t, f.exists(t, scope.Project, "agents/gamma.md"))
	assert.False(t, f.exists(t, scope.Project, "agents/alpha.md"))
}

func TestExecutor_NothingToSave(t *testing.T) {
	f := newFixture(t)
	summary, err := f.executor.Execute(context.Background(), &Plan{Actions: []Action{
		{Kind: ActionSkip, Identifier: "alpha", Scope: scope.User},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.False(t, summary.Changed())
	assert.Empty(t, f.repo.saves)
}

func TestExecutor_CopyToProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, scope.User, map[string]string{
		"agents/legacy/metadata.json": `{"description":"Legacy","version":"2.1.0"}`,
		"agents/legacy/agent.md":      "Legacy prompt.",
	})
	projectDoc, err := f.registry.Load(ctx, scope.Project)
	require.NoError(t, err)
	projectDoc.SetEnabled("legacy", false)
	require.NoError(t, f.registry.Save(ctx, scope.Project, projectDoc))

	plan, err := f.engine.Scan(ctx, ScanOptions{CopyToProject: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"register user legacy", "copy-to-project user legacy"}, brief(plan))

	_, err = f.executor.Execute(ctx, plan)
	require.NoError(t, err)

	loc, _ := f.set.Get(scope.Project)
	data, err := loc.Store.Read(ctx, "agents/legacy.md")
	require.NoError(t, err)
	assert.Equal(t, plan.Actions[1].Definition.RawText, string(data))
	assert.True(t, strings.HasPrefix(string(data), "---\n"))

	projectDoc, err = f.registry.Load(ctx, scope.Project)
	require.NoError(t, err)
	e, ok := projectDoc.Lookup("legacy")
	require.True(t, ok)
	assert.Equal(t, "2.1.0", e.Version)
	assert.False(t, e.Enabled, "explicit disable survives registration")

	enabled, err := f.registry.IsEnabled(ctx, "legacy")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestExecutor_RenameRefusesToOverwrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithMigrationTable(testTable), WithIgnorer(prefixIgnorer("new-")))
	f.write(t, scope.User, map[string]string{
		"agents/old-x.md": doc("description: old"),
		"agents/new-x.md": doc("description: hand written"),
	})

	plan, err := f.engine.Scan(ctx, ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"rename user old-x -> new-x"}, brief(plan))

	summary, err := f.executor.Execute(ctx, plan)
	require.NoError(t, err)
	require.Len(t, summary.Failed, 1)
	assert.Contains(t, summary.Failed[0].Reason, "already exists")
	assert.True(t, f.exists(t, scope.User, "agents/old-x.md"))
}

func TestExecutor_RenameDirectoryLayout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithMigrationTable(testTable))
	f.write(t, scope.User, map[string]string{
		"agents/old-x/metadata.json": `{"description":"Old dir"}`,
		"agents/old-x/agent.md":      "Body.",
	})

	plan, err := f.engine.Scan(ctx, ScanOptions{})
	require.NoError(t, err)
	summary, err := f.executor.Execute(ctx, plan)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Renamed)
	assert.False(t, f.exists(t, scope.User, "agents/old-x"))
	assert.True(t, f.exists(t, scope.User, "agents/new-x.md"))

	userDoc, err := f.registry.Load(ctx, scope.User)
	require.NoError(t, err)
	assert.Equal(t, []string{"new-x"}, userDoc.IDs())
}

func TestExecutor_RegistrySaveFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, scope.User, map[string]string{"agents/alpha.md": doc("a: 1")})
	plan, err := f.engine.Scan(ctx, ScanOptions{})
	require.NoError(t, err)

	f.repo.saveErr = cerr.NewError(cerr.Internal, "storage error", errors.New("read-only filesystem"))
	summary, err := f.executor.Execute(ctx, plan)
	assert.True(t, cerr.IsCode(err, cerr.Internal))
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Registered)
}

func TestExecutor_CancellationSavesProgress(t *testing.T) {
	f := newFixture(t)
	f.write(t, scope.User, map[string]string{
		"agents/alpha.md": doc("a: 1"),
		"agents/beta.md":  doc("a: 1"),
	})
	plan, err := f.engine.Scan(context.Background(), ScanOptions{CopyToProject: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.stores[scope.Project].onWrite = func(p string) error {
		if p == "agents/alpha.md" {
			cancel()
		}
		return nil
	}

	summary, err := f.executor.Execute(ctx, plan)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Registered)
	assert.Equal(t, 1, summary.Copied)

	userDoc, err := f.registry.Load(context.Background(), scope.User)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, userDoc.IDs())
	projectDoc, err := f.registry.Load(context.Background(), scope.Project)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, projectDoc.IDs())
}

type approveOnly []string

func (a approveOnly) Confirm(_ context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		for _, ok := range a {
			if id == ok {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func TestSyncer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, scope.User, map[string]string{
		"agents/alpha.md": doc("a: 1"),
		"agents/beta.md":  doc("a: 1"),
	})

	dry := NewSyncer(f.engine, f.executor, nil)
	plan, summary, err := dry.Sync(ctx, SyncOptions{DryRun: true})
	require.NoError(t, err)
	assert.Nil(t, summary)
	assert.Equal(t, 2, plan.Count(ActionRegister))

	syncer := NewSyncer(f.engine, f.executor, approveOnly{"beta"})
	plan, summary, err = syncer.Sync(ctx, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"skip user alpha", "register user beta"}, brief(plan))
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Registered)

	ok, err := f.registry.IsEnabled(ctx, "beta")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.registry.IsEnabled(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, ok)

	_, summary, err = NewSyncer(f.engine, f.executor, approveOnly{}).Sync(ctx, SyncOptions{})
	require.NoError(t, err)
	assert.Nil(t, summary, "everything declined")
}

type recordingObserver struct {
	runs    int
	changed []bool
	dryRuns []bool
}

func (o *recordingObserver) ObserveSync(run SyncRun) {
	o.runs++
	o.changed = append(o.changed, run.Summary != nil && run.Summary.Changed())
	o.dryRuns = append(o.dryRuns, run.DryRun)
}

func TestSyncer_Observer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, scope.Project, map[string]string{"agents/alpha.md": doc("a: 1")})

	obs := &recordingObserver{}
	syncer := NewSyncer(f.engine, f.executor, nil, WithObserver(obs))
	_, _, err := syncer.Sync(ctx, SyncOptions{DryRun: true})
	require.NoError(t, err)
	for range 2 {
		_, _, err := syncer.Sync(ctx, SyncOptions{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, obs.runs)
	assert.Equal(t, []bool{false, true, false}, obs.changed)
	assert.Equal(t, []bool{true, false, false}, obs.dryRuns)
}

func TestDiff(t *testing.T) {
	out, err := Diff("a\nb\n", "a\nc\n", "old", "new")
	require.NoError(t, err)
	assert.Contains(t, out, "--- old")
	assert.Contains(t, out, "+++ new")
	assert.Contains(t, out, "-b")
	assert.Contains(t, out, "+c")
}
