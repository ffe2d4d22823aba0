package scope

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/kazz187/agentsync/pkg/storage"
)

// Scope is one of the two independent places definitions and registry
// state live in.
type Scope int

const (
	User Scope = iota + 1
	Project
)

// All lists the scopes in scan order.
var All = []Scope{User, Project}

func (s Scope) String() string {
	switch s {
	case User:
		return "user"
	case Project:
		return "project"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Parse converts the text form back into a Scope.
func Parse(s string) (Scope, error) {
	switch s {
	case "user":
		return User, nil
	case "project":
		return Project, nil
	default:
		return 0, fmt.Errorf("unknown scope %q", s)
	}
}

func (s Scope) MarshalText() ([]byte, error) {
	if s != User && s != Project {
		return nil, fmt.Errorf("invalid scope %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Scope) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

const (
	// AgentsDir is the directory below a scope root holding definitions.
	AgentsDir = "agents"

	MetadataFile = "metadata.json"
	BodyFile     = "agent.md"
	HooksFile    = "hooks.json"
)

// Location binds a scope to the storage rooted at its `.<app>` directory.
type Location struct {
	Scope Scope
	Store storage.Storage
	App   string
}

// RegistryPath is the registry document path relative to the scope root.
func (l Location) RegistryPath() string {
	return "." + l.App + "-agents.json"
}

// DefinitionPath is the single-file path for id.
func (l Location) DefinitionPath(id string) string {
	return path.Join(AgentsDir, id+".md")
}

// DirectoryPath is the legacy directory path for id.
func (l Location) DirectoryPath(id string) string {
	return path.Join(AgentsDir, id)
}

// Describe returns a human readable root for logs and diagnostics.
func (l Location) Describe(p string) string {
	if loc, ok := l.Store.(storage.Locator); ok {
		return loc.LocalPath(p)
	}
	return p
}

// Set holds the locations of every scope.
type Set map[Scope]Location

// Get returns the location for s or an error when it is not configured.
func (ls Set) Get(s Scope) (Location, error) {
	l, ok := ls[s]
	if !ok {
		return Location{}, fmt.Errorf("scope %s is not configured", s)
	}
	return l, nil
}

// NewLocalSet builds local filesystem locations: `<home>/.<app>` for the
// user scope and `<workDir>/.<app>` for the project scope.
func NewLocalSet(app, homeDir, workDir string) (Set, error) {
	set := Set{}
	for s, root := range map[Scope]string{User: homeDir, Project: workDir} {
		store, err := storage.NewLocalStorage(filepath.Join(root, "."+app))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s scope: %w", s, err)
		}
		set[s] = Location{Scope: s, Store: store, App: app}
	}
	return set, nil
}

// NewS3Set places each scope under its own prefix of one bucket.
func NewS3Set(ctx context.Context, app, bucket, prefix, region string) (Set, error) {
	root, err := storage.NewS3Storage(ctx, bucket, prefix, region)
	if err != nil {
		return nil, err
	}
	set := Set{}
	for _, s := range All {
		set[s] = Location{Scope: s, Store: root.Sub(s.String() + "/." + app), App: app}
	}
	return set, nil
}
