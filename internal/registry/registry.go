package registry

import (
	"context"
	"sort"

	"github.com/kazz187/agentsync/internal/scope"
)

// Registry offers single read-modify-write operations on top of a
// Repository. There is no locking: one writer per pair of scope
// directories at a time.
type Registry struct {
	repo Repository
}

func New(repo Repository) *Registry {
	return &Registry{repo: repo}
}

func (r *Registry) Load(ctx context.Context, s scope.Scope) (*Document, error) {
	return r.repo.Load(ctx, s)
}

func (r *Registry) Save(ctx context.Context, s scope.Scope, doc *Document) error {
	return r.repo.Save(ctx, s, doc)
}

// LoadAll loads the documents of every scope.
func (r *Registry) LoadAll(ctx context.Context) (map[scope.Scope]*Document, error) {
	docs := make(map[scope.Scope]*Document, len(scope.All))
	for _, s := range scope.All {
		doc, err := r.repo.Load(ctx, s)
		if err != nil {
			return nil, err
		}
		docs[s] = doc
	}
	return docs, nil
}

func (r *Registry) Upsert(ctx context.Context, s scope.Scope, id string, entry Entry) error {
	doc, err := r.repo.Load(ctx, s)
	if err != nil {
		return err
	}
	entry.Scope = s
	doc.Upsert(id, entry)
	return r.repo.Save(ctx, s, doc)
}

// Remove deletes id from a scope. It reports whether the scope knew id.
func (r *Registry) Remove(ctx context.Context, s scope.Scope, id string) (bool, error) {
	doc, err := r.repo.Load(ctx, s)
	if err != nil {
		return false, err
	}
	if !doc.Remove(id) {
		return false, nil
	}
	return true, r.repo.Save(ctx, s, doc)
}

func (r *Registry) SetEnabled(ctx context.Context, s scope.Scope, id string, enabled bool) error {
	doc, err := r.repo.Load(ctx, s)
	if err != nil {
		return err
	}
	doc.SetEnabled(id, enabled)
	return r.repo.Save(ctx, s, doc)
}

// IsEnabled reports whether any scope enables id and no scope disables it.
func (r *Registry) IsEnabled(ctx context.Context, id string) (bool, error) {
	docs, err := r.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	return IsEnabled(docs, id), nil
}

// Installed returns the effective entry for id, preferring the project
// scope.
func (r *Registry) Installed(ctx context.Context, id string) (*Entry, bool, error) {
	docs, err := r.LoadAll(ctx)
	if err != nil {
		return nil, false, err
	}
	e, ok := Installed(docs, id)
	return e, ok, nil
}

// List returns the merged status of every identifier known to any scope.
func (r *Registry) List(ctx context.Context) ([]Status, error) {
	docs, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	known := map[string]struct{}{}
	for _, doc := range docs {
		for _, id := range doc.IDs() {
			known[id] = struct{}{}
		}
		for _, id := range doc.DisabledAgents {
			known[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(known))
	for id := range known {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	statuses := make([]Status, 0, len(ids))
	for _, id := range ids {
		st := Status{Identifier: id, Enabled: IsEnabled(docs, id)}
		for _, s := range scope.All {
			if _, ok := docs[s].Lookup(id); ok {
				st.Scopes = append(st.Scopes, s)
			}
		}
		st.Entry, _ = Installed(docs, id)
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// IsEnabled combines the flags of every scope: an explicit disable in any
// scope overrides enablement elsewhere.
func IsEnabled(docs map[scope.Scope]*Document, id string) bool {
	enabled := false
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if doc.DisabledFlag(id) {
			return false
		}
		enabled = enabled || doc.EnabledFlag(id)
	}
	return enabled
}

// Installed returns the project entry for id if any, else the user entry.
func Installed(docs map[scope.Scope]*Document, id string) (*Entry, bool) {
	for _, s := range []scope.Scope{scope.Project, scope.User} {
		doc := docs[s]
		if doc == nil {
			continue
		}
		if e, ok := doc.Lookup(id); ok {
			return e, true
		}
	}
	return nil, false
}
