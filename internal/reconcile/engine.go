package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/kazz187/agentsync/internal/agentdef"
	"github.com/kazz187/agentsync/internal/migration"
	"github.com/kazz187/agentsync/internal/registry"
	"github.com/kazz187/agentsync/internal/scope"
)

// ScanOptions tune a scan.
type ScanOptions struct {
	// CopyToProject also plans copies of new user definitions into the
	// project scope.
	CopyToProject bool
	// PruneDeprecated plans removal of deprecated identifiers that are
	// already registered instead of skipping them.
	PruneDeprecated bool
}

// Engine compares the definitions on disk with the registry and plans the
// changes that reconcile them.
type Engine struct {
	locations  scope.Set
	registry   *registry.Registry
	migrations *migration.Table
	loader     *agentdef.Loader
	ignorer    agentdef.Ignorer

	mu          sync.Mutex
	diagnostics []agentdef.Diagnostic
}

type EngineOption func(*Engine)

func WithMigrationTable(t *migration.Table) EngineOption {
	return func(e *Engine) {
		e.migrations = t
	}
}

func WithIgnorer(i agentdef.Ignorer) EngineOption {
	return func(e *Engine) {
		e.ignorer = i
	}
}

func NewEngine(locations scope.Set, reg *registry.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		locations:  locations,
		registry:   reg,
		migrations: migration.Default,
		loader:     agentdef.NewLoader(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Diagnostics returns the per-file problems of the last scan.
func (e *Engine) Diagnostics() []agentdef.Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.diagnostics)
}

// scanned is what one scope contributed to a scan.
type scanned struct {
	defs []*agentdef.Definition
	ids  map[string]struct{}
}

func (s scanned) has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Scan loads both scopes and plans their reconciliation. Per-file problems
// become diagnostics; a registry failure or cancellation aborts the scan.
func (e *Engine) Scan(ctx context.Context, opts ScanOptions) (*Plan, error) {
	docs, err := e.registry.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	found := make(map[scope.Scope]scanned, len(scope.All))
	for _, s := range scope.All {
		res, diags, err := e.load(ctx, s)
		plan.Diagnostics = append(plan.Diagnostics, diags...)
		if err != nil {
			return nil, err
		}
		found[s] = res
		plan.Definitions = append(plan.Definitions, res.defs...)
	}

	for _, s := range scope.All {
		p := &planner{
			scope:   s,
			opts:    opts,
			table:   e.migrations,
			docs:    docs,
			found:   found,
			renamed: map[string]struct{}{},
		}
		for _, def := range found[s].defs {
			p.classify(def)
		}
		if opts.PruneDeprecated {
			p.pruneRegistryOnly()
		}
		plan.Actions = append(plan.Actions, p.actions...)
		plan.Diagnostics = append(plan.Diagnostics, p.diagnostics...)
	}

	e.mu.Lock()
	e.diagnostics = slices.Clone(plan.Diagnostics)
	e.mu.Unlock()

	slog.DebugContext(ctx, "scan finished",
		"definitions", len(plan.Definitions), "actions", len(plan.Actions), "diagnostics", len(plan.Diagnostics))
	return plan, nil
}

func (e *Engine) load(ctx context.Context, s scope.Scope) (scanned, []agentdef.Diagnostic, error) {
	res := scanned{ids: map[string]struct{}{}}
	loc, err := e.locations.Get(s)
	if err != nil {
		return res, nil, err
	}

	candidates, diags := agentdef.Discover(ctx, loc)
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return res, diags, err
		}
		if e.ignorer != nil && e.ignorer.Ignore(c.Path) {
			slog.DebugContext(ctx, "ignoring agent definition", "scope", s.String(), "path", c.Path)
			continue
		}
		def, err := e.loader.Load(ctx, loc, c)
		if err != nil {
			diags = append(diags, agentdef.Diagnostic{
				Scope:      s,
				Identifier: c.Identifier,
				Path:       c.Path,
				Message:    "failed to load",
				Err:        err,
			})
			continue
		}
		res.defs = append(res.defs, def)
		res.ids[def.Identifier] = struct{}{}
	}
	return res, diags, nil
}

// planner classifies the definitions of one scope.
type planner struct {
	scope       scope.Scope
	opts        ScanOptions
	table       *migration.Table
	docs        map[scope.Scope]*registry.Document
	found       map[scope.Scope]scanned
	renamed     map[string]struct{}
	actions     []Action
	diagnostics []agentdef.Diagnostic
}

func (p *planner) registered(s scope.Scope, id string) bool {
	doc := p.docs[s]
	if doc == nil {
		return false
	}
	_, ok := doc.Lookup(id)
	return ok
}

// registeredAnywhere reports whether id is installed in any scope.
func (p *planner) registeredAnywhere(id string) bool {
	for s := range p.docs {
		if p.registered(s, id) {
			return true
		}
	}
	return false
}

func (p *planner) emit(kind ActionKind, def *agentdef.Definition, target, reason string) {
	p.actions = append(p.actions, Action{
		Kind:       kind,
		Identifier: def.Identifier,
		Scope:      p.scope,
		SourcePath: def.SourcePath,
		Target:     target,
		Reason:     reason,
		Definition: def,
	})
}

func (p *planner) classify(def *agentdef.Definition) {
	id := def.Identifier
	res := p.table.Resolve(id)

	if p.registered(p.scope, id) {
		if p.opts.PruneDeprecated && res.Kind != migration.Unchanged {
			p.emit(ActionRemove, def, "", ReasonDeprecated)
			return
		}
		p.emit(ActionSkip, def, "", ReasonRegistered)
		return
	}

	switch res.Kind {
	case migration.Removed:
		p.emit(ActionRemove, def, "", ReasonNoReplacement)
		return
	case migration.Renamed:
		_, claimed := p.renamed[res.To]
		if claimed || p.registeredAnywhere(res.To) || p.found[p.scope].has(res.To) {
			p.emit(ActionRemove, def, res.To, fmt.Sprintf("superseded by %s", res.To))
			return
		}
		p.renamed[res.To] = struct{}{}
		p.emit(ActionRename, def, res.To, fmt.Sprintf("renamed to %s", res.To))
		return
	}

	if p.scope == scope.User && (p.found[scope.Project].has(id) || p.registered(scope.Project, id)) {
		p.emit(ActionSkip, def, "", ReasonProjectWins)
		p.diagnostics = append(p.diagnostics, agentdef.Diagnostic{
			Scope:      p.scope,
			Identifier: id,
			Path:       def.SourcePath,
			Message:    "also defined in project scope, project definition is used",
		})
		return
	}

	p.emit(ActionRegister, def, "", "")
	if p.opts.CopyToProject && p.scope == scope.User {
		p.emit(ActionCopyToProject, def, id, "")
	}
}

// pruneRegistryOnly removes deprecated registry entries that no longer have
// a definition on disk.
func (p *planner) pruneRegistryOnly() {
	doc := p.docs[p.scope]
	if doc == nil {
		return
	}
	for _, id := range doc.IDs() {
		if p.found[p.scope].has(id) || !p.table.IsDeprecated(id) {
			continue
		}
		p.actions = append(p.actions, Action{
			Kind:       ActionRemove,
			Identifier: id,
			Scope:      p.scope,
			Reason:     ReasonDeprecated,
		})
	}
}
