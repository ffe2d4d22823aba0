package registry

import (
	"slices"
	"sort"
)

func NewDocument() *Document {
	d := &Document{}
	d.Normalize()
	return d
}

// Normalize fills in collections missing from older or hand-edited files.
func (d *Document) Normalize() {
	if d.Version == 0 {
		d.Version = SchemaVersion
	}
	if d.InstalledAgents == nil {
		d.InstalledAgents = map[string]*Entry{}
	}
	if d.EnabledAgents == nil {
		d.EnabledAgents = []string{}
	}
	if d.DisabledAgents == nil {
		d.DisabledAgents = []string{}
	}
	if d.Settings == nil {
		d.Settings = map[string]any{}
	}
}

func (d *Document) Lookup(id string) (*Entry, bool) {
	e, ok := d.InstalledAgents[id]
	return e, ok && e != nil
}

// Upsert installs or replaces the entry for id and mirrors its enabled
// state into the enabled/disabled lists.
func (d *Document) Upsert(id string, entry Entry) {
	d.Normalize()
	d.InstalledAgents[id] = &entry
	d.setFlags(id, entry.Enabled)
}

// Remove deletes id from the document and reports whether anything changed.
func (d *Document) Remove(id string) bool {
	_, installed := d.InstalledAgents[id]
	delete(d.InstalledAgents, id)
	n := len(d.EnabledAgents) + len(d.DisabledAgents)
	d.EnabledAgents = without(d.EnabledAgents, id)
	d.DisabledAgents = without(d.DisabledAgents, id)
	return installed || n != len(d.EnabledAgents)+len(d.DisabledAgents)
}

// SetEnabled records an explicit enable or disable. It applies to ids that
// are not installed in this scope as well.
func (d *Document) SetEnabled(id string, enabled bool) {
	d.Normalize()
	if e, ok := d.Lookup(id); ok {
		e.Enabled = enabled
	}
	d.setFlags(id, enabled)
}

func (d *Document) setFlags(id string, enabled bool) {
	if enabled {
		d.EnabledAgents = with(d.EnabledAgents, id)
		d.DisabledAgents = without(d.DisabledAgents, id)
	} else {
		d.DisabledAgents = with(d.DisabledAgents, id)
		d.EnabledAgents = without(d.EnabledAgents, id)
	}
}

// EnabledFlag reports whether this scope enables id.
func (d *Document) EnabledFlag(id string) bool {
	if slices.Contains(d.EnabledAgents, id) {
		return true
	}
	e, ok := d.Lookup(id)
	return ok && e.Enabled && !d.DisabledFlag(id)
}

// DisabledFlag reports whether this scope explicitly disables id.
func (d *Document) DisabledFlag(id string) bool {
	return slices.Contains(d.DisabledAgents, id)
}

// IDs returns the installed identifiers in sorted order.
func (d *Document) IDs() []string {
	ids := make([]string, 0, len(d.InstalledAgents))
	for id, e := range d.InstalledAgents {
		if e != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func with(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	ids = append(ids, id)
	sort.Strings(ids)
	return ids
}

func without(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(s string) bool { return s == id })
}
