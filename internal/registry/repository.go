package registry

import (
	"context"

	"github.com/kazz187/agentsync/internal/scope"
)

// Repository persists one Document per scope.
type Repository interface {
	// Load returns the document of a scope, or a fresh default document
	// when none has been saved yet.
	Load(ctx context.Context, s scope.Scope) (*Document, error)

	// Save overwrites the whole document of a scope.
	Save(ctx context.Context, s scope.Scope, doc *Document) error
}
