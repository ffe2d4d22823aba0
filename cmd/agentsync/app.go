package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kazz187/agentsync/internal/config"
	"github.com/kazz187/agentsync/internal/ignore"
	"github.com/kazz187/agentsync/internal/metrics"
	"github.com/kazz187/agentsync/internal/migration"
	"github.com/kazz187/agentsync/internal/reconcile"
	"github.com/kazz187/agentsync/internal/registry"
	"github.com/kazz187/agentsync/internal/registry/repositoryimpl"
	"github.com/kazz187/agentsync/internal/scope"
)

type cliApp struct {
	env        *config.Env
	locations  scope.Set
	registry   *registry.Registry
	engine     *reconcile.Engine
	executor   *reconcile.Executor
	migrations *migration.Table
	metrics    *metrics.Metrics
	stdin      io.Reader
	out        io.Writer
}

func newApp(ctx context.Context, env *config.Env, out io.Writer) (*cliApp, error) {
	locations, err := newLocations(ctx, env)
	if err != nil {
		return nil, err
	}
	matcher, err := ignore.NewPatternMatcher(env.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern: %w", err)
	}

	reg := registry.New(repositoryimpl.NewJSONRepository(locations))
	a := &cliApp{
		env:        env,
		locations:  locations,
		registry:   reg,
		migrations: migration.Default,
		metrics:    metrics.New(),
		stdin:      os.Stdin,
		out:        out,
	}
	a.engine = reconcile.NewEngine(locations, reg,
		reconcile.WithMigrationTable(a.migrations),
		reconcile.WithIgnorer(matcher),
	)
	a.executor = reconcile.NewExecutor(locations, reg)
	return a, nil
}

func newLocations(ctx context.Context, env *config.Env) (scope.Set, error) {
	switch env.StorageEnv.Type {
	case "s3":
		return scope.NewS3Set(ctx, env.AppName, env.S3Bucket, env.S3Prefix, env.S3Region)
	default:
		return scope.NewLocalSet(env.AppName, env.HomeDir, env.WorkDir)
	}
}

func (a *cliApp) syncer(confirmer reconcile.Confirmer) *reconcile.Syncer {
	return reconcile.NewSyncer(a.engine, a.executor, confirmer, reconcile.WithObserver(a.metrics))
}

func (a *cliApp) confirmer(yes bool) reconcile.Confirmer {
	if yes {
		return reconcile.ConfirmAll{}
	}
	return &promptConfirmer{in: a.stdin, out: a.out}
}

func syncOptions(copyToProject, pruneDeprecated, dryRun bool) reconcile.SyncOptions {
	return reconcile.SyncOptions{
		ScanOptions: reconcile.ScanOptions{
			CopyToProject:   copyToProject,
			PruneDeprecated: pruneDeprecated,
		},
		DryRun: dryRun,
	}
}
