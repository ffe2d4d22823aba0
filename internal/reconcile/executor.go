package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/agentsync/internal/registry"
	"github.com/kazz187/agentsync/internal/scope"
	"github.com/kazz187/agentsync/pkg/clog"
	"github.com/kazz187/agentsync/pkg/panicerr"
	"github.com/kazz187/agentsync/pkg/storage"
)

// Failure is an action that could not be applied.
type Failure struct {
	Identifier string      `json:"identifier"`
	Scope      scope.Scope `json:"scope"`
	Action     ActionKind  `json:"action"`
	Reason     string      `json:"reason"`
}

// Summary reports what an execution did.
type Summary struct {
	RunID      string    `json:"runId"`
	Registered int       `json:"registered"`
	Copied     int       `json:"copied"`
	Renamed    int       `json:"renamed"`
	Removed    int       `json:"removed"`
	Skipped    int       `json:"skipped"`
	Failed     []Failure `json:"failed"`
}

// Changed reports whether any action took effect.
func (s *Summary) Changed() bool {
	return s.Registered+s.Copied+s.Renamed+s.Removed > 0
}

// Executor applies plans to storage and the registry.
type Executor struct {
	locations scope.Set
	registry  *registry.Registry
	now       func() time.Time
}

type ExecutorOption func(*Executor)

// WithClock overrides the time source used for registry timestamps.
func WithClock(now func() time.Time) ExecutorOption {
	return func(x *Executor) {
		x.now = now
	}
}

func NewExecutor(locations scope.Set, reg *registry.Registry, opts ...ExecutorOption) *Executor {
	x := &Executor{
		locations: locations,
		registry:  reg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Execute applies the actions of plan in order. A failing or panicking
// action is recorded in the summary and the run continues. Registry
// documents are loaded once and saved once per changed scope at the end.
// Only registry I/O errors and cancellation are returned; on cancellation
// the changes made so far are saved first.
func (x *Executor) Execute(ctx context.Context, plan *Plan) (*Summary, error) {
	summary := &Summary{RunID: ulid.Make().String(), Failed: []Failure{}}
	ctx = clog.ContextWithSlog(ctx)
	clog.AddAttribute(ctx, clog.RunAttributeKey, summary.RunID)

	docs, err := x.registry.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	dirty := map[scope.Scope]bool{}

	var cancelErr error
	for _, a := range plan.Actions {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}
		if a.Kind == ActionSkip {
			summary.Skipped++
			continue
		}

		err := panicerr.Run(ctx, func(ctx context.Context) error {
			return x.apply(ctx, docs, a)
		})
		if err != nil {
			slog.WarnContext(ctx, "action failed",
				clog.ActionAttributeKey, a.Kind.String(), clog.ScopeAttributeKey, a.Scope.String(),
				clog.AgentAttributeKey, a.Identifier, "error", err)
			summary.Failed = append(summary.Failed, Failure{
				Identifier: a.Identifier,
				Scope:      a.Scope,
				Action:     a.Kind,
				Reason:     err.Error(),
			})
			continue
		}

		slog.InfoContext(ctx, a.Kind.String(),
			clog.ScopeAttributeKey, a.Scope.String(), clog.AgentAttributeKey, a.Identifier)
		switch a.Kind {
		case ActionRegister:
			summary.Registered++
			dirty[a.Scope] = true
		case ActionCopyToProject:
			summary.Copied++
			dirty[scope.Project] = true
		case ActionRename:
			summary.Renamed++
			dirty[a.Scope] = true
		case ActionRemove:
			summary.Removed++
			dirty[a.Scope] = true
		}
	}

	// Work done before a cancellation is still persisted.
	saveCtx := context.WithoutCancel(ctx)
	now := x.now().UTC()
	for _, s := range scope.All {
		if !dirty[s] {
			continue
		}
		docs[s].LastSyncAt = &now
		if err := x.registry.Save(saveCtx, s, docs[s]); err != nil {
			return summary, err
		}
	}
	if cancelErr != nil {
		return summary, cancelErr
	}
	return summary, nil
}

func (x *Executor) apply(ctx context.Context, docs map[scope.Scope]*registry.Document, a Action) error {
	loc, err := x.locations.Get(a.Scope)
	if err != nil {
		return err
	}
	doc := docs[a.Scope]

	switch a.Kind {
	case ActionRegister:
		if a.Definition == nil {
			return errors.New("no definition to register")
		}
		doc.Upsert(a.Identifier, x.entry(doc, a.Scope, a.Identifier, a.Definition.Header.Version()))
		return nil

	case ActionCopyToProject:
		if a.Definition == nil {
			return errors.New("no definition to copy")
		}
		project, err := x.locations.Get(scope.Project)
		if err != nil {
			return err
		}
		target := a.Target
		if target == "" {
			target = a.Identifier
		}
		if err := writeDefinition(ctx, project, target, a.Definition.RawText); err != nil {
			return err
		}
		projectDoc := docs[scope.Project]
		projectDoc.Upsert(target, x.entry(projectDoc, scope.Project, target, a.Definition.Header.Version()))
		return nil

	case ActionRename:
		if a.Definition == nil || a.Target == "" {
			return errors.New("no definition or target to rename")
		}
		exists, err := loc.Store.Exists(ctx, loc.DefinitionPath(a.Target))
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s already exists", loc.DefinitionPath(a.Target))
		}
		if err := writeDefinition(ctx, loc, a.Target, a.Definition.RawText); err != nil {
			return err
		}
		if err := loc.Store.DeleteAll(ctx, a.SourcePath); err != nil {
			return fmt.Errorf("failed to delete %s: %w", a.SourcePath, err)
		}
		doc.Remove(a.Identifier)
		doc.Upsert(a.Target, x.entry(doc, a.Scope, a.Target, a.Definition.Header.Version()))
		return nil

	case ActionRemove:
		if a.SourcePath != "" {
			if err := loc.Store.DeleteAll(ctx, a.SourcePath); err != nil {
				return fmt.Errorf("failed to delete %s: %w", a.SourcePath, err)
			}
		}
		doc.Remove(a.Identifier)
		return nil

	default:
		return fmt.Errorf("unsupported action %s", a.Kind)
	}
}

func (x *Executor) entry(doc *registry.Document, s scope.Scope, id, version string) registry.Entry {
	return registry.Entry{
		Version:     version,
		InstalledAt: x.now().UTC(),
		Scope:       s,
		Enabled:     !doc.DisabledFlag(id),
	}
}

// writeDefinition replaces agents/<id>.md wholesale, logging the diff when
// different content is overwritten.
func writeDefinition(ctx context.Context, loc scope.Location, id, text string) error {
	p := loc.DefinitionPath(id)
	existing, err := loc.Store.Read(ctx, p)
	switch {
	case err == nil:
		if string(existing) == text {
			return nil
		}
		if diff, derr := Diff(string(existing), text, p+" (current)", p+" (incoming)"); derr == nil {
			slog.DebugContext(ctx, "replacing definition", "path", loc.Describe(p), "diff", diff)
		}
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to read %s: %w", p, err)
	}
	if err := loc.Store.Write(ctx, p, []byte(text)); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}
