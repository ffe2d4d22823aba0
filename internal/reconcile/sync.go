package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Confirmer asks which of the pending identifiers may be changed.
type Confirmer interface {
	Confirm(ctx context.Context, ids []string) ([]string, error)
}

// ConfirmAll approves every identifier.
type ConfirmAll struct{}

func (ConfirmAll) Confirm(_ context.Context, ids []string) ([]string, error) {
	return ids, nil
}

// SyncOptions combine scan options with execution controls.
type SyncOptions struct {
	ScanOptions
	// DryRun plans without executing.
	DryRun bool
}

// SyncRun describes one finished Sync call.
type SyncRun struct {
	Plan    *Plan
	Summary *Summary
	Err     error
	Elapsed time.Duration
	// DryRun is set for previews that never reached the executor.
	DryRun bool
}

// Observer is notified after every sync run.
type Observer interface {
	ObserveSync(run SyncRun)
}

// Syncer runs scan, confirmation and execution as one operation. Runs are
// serialized.
type Syncer struct {
	engine    *Engine
	executor  *Executor
	confirmer Confirmer
	observers []Observer
	mu        sync.Mutex
}

type SyncerOption func(*Syncer)

func WithObserver(o Observer) SyncerOption {
	return func(s *Syncer) {
		s.observers = append(s.observers, o)
	}
}

func NewSyncer(engine *Engine, executor *Executor, confirmer Confirmer, opts ...SyncerOption) *Syncer {
	if confirmer == nil {
		confirmer = ConfirmAll{}
	}
	s := &Syncer{engine: engine, executor: executor, confirmer: confirmer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync scans, asks the confirmer about pending identifiers and executes the
// approved part of the plan. The summary is nil for dry runs and when there
// is nothing to do.
func (s *Syncer) Sync(ctx context.Context, opts SyncOptions) (plan *Plan, summary *Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		run := SyncRun{Plan: plan, Summary: summary, Err: err, Elapsed: time.Since(start), DryRun: opts.DryRun}
		for _, o := range s.observers {
			o.ObserveSync(run)
		}
	}()
	return s.sync(ctx, opts)
}

func (s *Syncer) sync(ctx context.Context, opts SyncOptions) (*Plan, *Summary, error) {
	plan, err := s.engine.Scan(ctx, opts.ScanOptions)
	if err != nil {
		return nil, nil, err
	}
	pending := plan.Pending()
	if opts.DryRun || len(pending) == 0 {
		return plan, nil, nil
	}

	approved, err := s.confirmer.Confirm(ctx, pending)
	if err != nil {
		return plan, nil, err
	}
	if len(approved) < len(pending) {
		slog.InfoContext(ctx, "some changes were declined", "pending", len(pending), "approved", len(approved))
	}
	plan = plan.Filter(approved)
	if !plan.HasChanges() {
		return plan, nil, nil
	}

	summary, err := s.executor.Execute(ctx, plan)
	return plan, summary, err
}
