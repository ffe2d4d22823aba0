package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kazz187/agentsync/internal/reconcile"
	"github.com/kazz187/agentsync/internal/server"
	"github.com/kazz187/agentsync/internal/watch"
)

const shutdownTimeout = 10 * time.Second

func (a *cliApp) runWatch(ctx context.Context, opts reconcile.SyncOptions) error {
	w, err := watch.New(a.locations, a.syncer(reconcile.ConfirmAll{}), opts)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// runServe serves the HTTP API, and optionally the watcher, until ctx is
// done or one of them fails.
func (a *cliApp) runServe(ctx context.Context, withWatch bool) error {
	syncer := a.syncer(reconcile.ConfirmAll{})
	srv := server.NewServer(&a.env.HTTPEnv, syncer, a.registry, a.migrations, a.metrics.Handler())
	var w *watch.Watcher
	if withWatch {
		var err error
		if w, err = watch.New(a.locations, syncer, reconcile.SyncOptions{}); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if w != nil {
		g.Go(func() error {
			return w.Run(ctx)
		})
	}
	return g.Wait()
}
