package agentdef

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/kazz187/agentsync/internal/scope"
)

// Candidate is a definition found on disk but not yet loaded.
type Candidate struct {
	Identifier string
	Layout     Layout
	// Path is relative to the scope root: agents/<id>.md or agents/<id>.
	Path string
}

// Diagnostic is a per-file problem met while scanning. Diagnostics are
// informational and never stop a scan.
type Diagnostic struct {
	Scope      scope.Scope
	Identifier string
	Path       string
	Message    string
	Err        error
}

func (d Diagnostic) String() string {
	if d.Err != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", d.Scope, d.Path, d.Message, d.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Scope, d.Path, d.Message)
}

// Ignorer excludes candidate paths before they are loaded.
type Ignorer interface {
	Ignore(path string) bool
}

// Discover lists the candidates of one scope sorted by identifier. When both
// agents/<id>.md and agents/<id>/ exist the file is used and the directory
// is reported. A missing agents directory yields no candidates.
func Discover(ctx context.Context, loc scope.Location) ([]Candidate, []Diagnostic) {
	var (
		candidates []Candidate
		diags      []Diagnostic
	)

	files, err := loc.Store.List(ctx, scope.AgentsDir)
	if err != nil {
		diags = append(diags, Diagnostic{Scope: loc.Scope, Path: scope.AgentsDir, Message: "failed to list definitions", Err: err})
	}
	seen := make(map[string]struct{}, len(files))
	for _, p := range files {
		name := path.Base(p)
		if !strings.HasSuffix(name, ".md") {
			continue
		}
		id := strings.TrimSuffix(name, ".md")
		seen[id] = struct{}{}
		candidates = append(candidates, Candidate{Identifier: id, Layout: LayoutSingleFile, Path: loc.DefinitionPath(id)})
	}

	dirs, err := loc.Store.ListDirs(ctx, scope.AgentsDir)
	if err != nil {
		diags = append(diags, Diagnostic{Scope: loc.Scope, Path: scope.AgentsDir, Message: "failed to list definition directories", Err: err})
	}
	for _, id := range dirs {
		if _, ok := seen[id]; ok {
			diags = append(diags, Diagnostic{
				Scope:      loc.Scope,
				Identifier: id,
				Path:       loc.DirectoryPath(id),
				Message:    fmt.Sprintf("shadowed by %s", loc.DefinitionPath(id)),
			})
			continue
		}
		candidates = append(candidates, Candidate{Identifier: id, Layout: LayoutDirectory, Path: loc.DirectoryPath(id)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Identifier < candidates[j].Identifier
	})
	return candidates, diags
}
