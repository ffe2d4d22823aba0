package registry

import (
	"encoding/json"
	"time"

	"github.com/kazz187/agentsync/internal/scope"
)

// SchemaVersion is the registry document format written by this package.
const SchemaVersion = 1

// Entry records one installed agent in one scope.
type Entry struct {
	Version     string      `json:"version,omitempty"`
	InstalledAt time.Time   `json:"installedAt"`
	Scope       scope.Scope `json:"scope"`
	Enabled     bool        `json:"enabled"`
}

// UnmarshalJSON treats a missing "enabled" key as enabled. Registries
// written by other tools or by hand often omit it.
func (e *Entry) UnmarshalJSON(b []byte) error {
	type plain Entry
	p := plain{Enabled: true}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*e = Entry(p)
	return nil
}

// Document is the persisted registry of one scope. A Document is a
// snapshot: it stays valid only until the next Save of the same scope.
type Document struct {
	Version         int               `json:"version"`
	InstalledAgents map[string]*Entry `json:"installedAgents"`
	EnabledAgents   []string          `json:"enabledAgents"`
	DisabledAgents  []string          `json:"disabledAgents"`
	Settings        map[string]any    `json:"settings"`
	LastSyncAt      *time.Time        `json:"lastSyncAt,omitempty"`
}

// Status is the merged view of one identifier across scopes.
type Status struct {
	Identifier string        `json:"identifier"`
	Scopes     []scope.Scope `json:"scopes"`
	// Entry is the effective entry, the project one when both exist.
	Entry   *Entry `json:"entry"`
	Enabled bool   `json:"enabled"`
}
