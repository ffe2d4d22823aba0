package reconcile

import (
	"fmt"
	"slices"

	"github.com/kazz187/agentsync/internal/agentdef"
	"github.com/kazz187/agentsync/internal/scope"
)

type ActionKind int

const (
	ActionRegister ActionKind = iota + 1
	ActionCopyToProject
	ActionRename
	ActionRemove
	ActionSkip
)

func (k ActionKind) String() string {
	switch k {
	case ActionRegister:
		return "register"
	case ActionCopyToProject:
		return "copy-to-project"
	case ActionRename:
		return "rename"
	case ActionRemove:
		return "remove"
	case ActionSkip:
		return "skip"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ActionKind) UnmarshalText(b []byte) error {
	for c := ActionRegister; c <= ActionSkip; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", string(b))
}

const (
	ReasonRegistered    = "already registered"
	ReasonNoReplacement = "no replacement"
	ReasonDeprecated    = "deprecated"
	ReasonProjectWins   = "project scope takes precedence"
	ReasonDeclined      = "declined"
)

// Action is one step of a Plan. Target is the successor identifier for
// ActionRename and the destination identifier for ActionCopyToProject.
type Action struct {
	Kind       ActionKind           `json:"action"`
	Identifier string               `json:"identifier"`
	Scope      scope.Scope          `json:"scope"`
	SourcePath string               `json:"sourcePath,omitempty"`
	Target     string               `json:"target,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	Definition *agentdef.Definition `json:"-"`
}

func (a Action) String() string {
	s := fmt.Sprintf("%s %s (%s)", a.Kind, a.Identifier, a.Scope)
	if a.Target != "" && a.Target != a.Identifier {
		s += " -> " + a.Target
	}
	if a.Reason != "" {
		s += ": " + a.Reason
	}
	return s
}

// Plan is the ordered outcome of a scan. It is derived data and never
// persisted.
type Plan struct {
	Actions     []Action               `json:"actions"`
	Definitions []*agentdef.Definition `json:"-"`
	Diagnostics []agentdef.Diagnostic  `json:"-"`
}

// Pending returns the identifiers with at least one non-skip action, in
// plan order.
func (p *Plan) Pending() []string {
	var ids []string
	for _, a := range p.Actions {
		if a.Kind != ActionSkip && !slices.Contains(ids, a.Identifier) {
			ids = append(ids, a.Identifier)
		}
	}
	return ids
}

// Filter returns a copy of the plan where actions for identifiers outside
// approved become skips.
func (p *Plan) Filter(approved []string) *Plan {
	out := &Plan{
		Actions:     make([]Action, len(p.Actions)),
		Definitions: p.Definitions,
		Diagnostics: p.Diagnostics,
	}
	for i, a := range p.Actions {
		if a.Kind != ActionSkip && !slices.Contains(approved, a.Identifier) {
			a.Kind = ActionSkip
			a.Reason = ReasonDeclined
		}
		out.Actions[i] = a
	}
	return out
}

// Count returns the number of actions of kind.
func (p *Plan) Count(kind ActionKind) int {
	n := 0
	for _, a := range p.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// HasChanges reports whether executing the plan would change anything.
func (p *Plan) HasChanges() bool {
	return len(p.Actions) > p.Count(ActionSkip)
}
