package repositoryimpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kazz187/agentsync/internal/registry"
	"github.com/kazz187/agentsync/internal/scope"
	"github.com/kazz187/agentsync/pkg/cerr"
	"github.com/kazz187/agentsync/pkg/storage"
)

// JSONRepository stores each scope's registry as one JSON document at the
// root of the scope's storage.
type JSONRepository struct {
	locations scope.Set
}

// NewJSONRepository creates a new JSON-backed registry repository.
func NewJSONRepository(locations scope.Set) *JSONRepository {
	return &JSONRepository{locations: locations}
}

func (r *JSONRepository) location(s scope.Scope) (scope.Location, error) {
	loc, err := r.locations.Get(s)
	if err != nil {
		return scope.Location{}, cerr.NewError(cerr.Internal, "registry unavailable", err)
	}
	return loc, nil
}

// Load returns the registry of a scope. A missing file yields a default
// document rather than an error.
func (r *JSONRepository) Load(ctx context.Context, s scope.Scope) (*registry.Document, error) {
	loc, err := r.location(s)
	if err != nil {
		return nil, err
	}
	target := fmt.Sprintf("%s registry", s)

	data, err := loc.Store.Read(ctx, loc.RegistryPath())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return registry.NewDocument(), nil
		}
		return nil, cerr.WrapStorageReadError(target, err)
	}

	var doc registry.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, cerr.WrapDecodeError(target, fmt.Errorf("failed to unmarshal %s: %w", loc.Describe(loc.RegistryPath()), err))
	}
	if doc.Version > registry.SchemaVersion {
		return nil, cerr.NewError(cerr.FailedPrecondition,
			fmt.Sprintf("%s uses schema version %d, newer than supported %d", target, doc.Version, registry.SchemaVersion), nil)
	}
	doc.Normalize()
	for id, e := range doc.InstalledAgents {
		if e == nil {
			delete(doc.InstalledAgents, id)
			continue
		}
		if e.Scope == 0 {
			e.Scope = s
		}
	}
	return &doc, nil
}

// Save overwrites the registry of a scope.
func (r *JSONRepository) Save(ctx context.Context, s scope.Scope, doc *registry.Document) error {
	loc, err := r.location(s)
	if err != nil {
		return err
	}
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return cerr.NewError(cerr.Internal, "registry error", fmt.Errorf("failed to marshal %s registry: %w", s, err))
	}
	data = append(data, '\n')
	if err := loc.Store.Write(ctx, loc.RegistryPath(), data); err != nil {
		return cerr.WrapStorageWriteError(fmt.Sprintf("%s registry", s), err)
	}
	return nil
}
