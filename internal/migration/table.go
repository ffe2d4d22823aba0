package migration

import (
	"sort"
)

// Kind classifies how an identifier resolves against the table.
type Kind int

const (
	Unchanged Kind = iota
	Renamed
	Removed
)

func (k Kind) String() string {
	switch k {
	case Renamed:
		return "renamed"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

// Resolution is the outcome of Resolve. To is set only for Renamed.
type Resolution struct {
	Kind Kind
	To   string
}

// Table maps deprecated identifiers to their successors. It is immutable
// after construction.
type Table struct {
	renames map[string]string
	removed map[string]struct{}
}

// NewTable builds a table. Identity renames are dropped so that an
// identifier mapping to itself resolves as Unchanged. An identifier listed
// in both renames and removed is treated as renamed.
func NewTable(renames map[string]string, removed []string) *Table {
	t := &Table{
		renames: make(map[string]string, len(renames)),
		removed: make(map[string]struct{}, len(removed)),
	}
	for from, to := range renames {
		if from == to || to == "" {
			continue
		}
		t.renames[from] = to
	}
	for _, id := range removed {
		if _, ok := t.renames[id]; ok {
			continue
		}
		t.removed[id] = struct{}{}
	}
	return t
}

func (t *Table) Resolve(id string) Resolution {
	if to, ok := t.renames[id]; ok {
		return Resolution{Kind: Renamed, To: to}
	}
	if _, ok := t.removed[id]; ok {
		return Resolution{Kind: Removed}
	}
	return Resolution{Kind: Unchanged}
}

// Successor returns the identifier id should be known by, id itself when
// it is not renamed.
func (t *Table) Successor(id string) string {
	if r := t.Resolve(id); r.Kind == Renamed {
		return r.To
	}
	return id
}

func (t *Table) IsDeprecated(id string) bool {
	return t.Resolve(id).Kind != Unchanged
}

// AllDeprecated returns every deprecated identifier in sorted order.
func (t *Table) AllDeprecated() []string {
	ids := make([]string, 0, len(t.renames)+len(t.removed))
	for id := range t.renames {
		ids = append(ids, id)
	}
	for id := range t.removed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Default is the built-in table shipped with the tool.
var Default = NewTable(
	map[string]string{
		"typescript-expert": "typescript-pro",
		"python-expert":     "python-pro",
		"code-review":       "code-reviewer",
		"test-writer":       "test-automator",
		"debugger":          "debugger",
	},
	[]string{
		"prompt-engineer-v1",
		"legacy-assistant",
	},
)
