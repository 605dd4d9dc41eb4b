// Package profile holds the case profile snapshot shape, the per-service
// field schema, and the merge engine that folds partial applicant updates
// into a snapshot.
package profile

import (
	"strings"

	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
)

// Snapshot is the nested, section-organized structured data collected for a
// case, e.g. {"identity": {"birthPlace": "Libreville"}}.
type Snapshot map[string]map[string]any

// Update is a partial, section-scoped change set: only changed leaves are
// present. It is never a full replacement document.
type Update map[string]map[string]any

// FieldType declares what a field expects.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeDate   FieldType = "date"
	FieldTypeSelect FieldType = "select"
)

// FieldSpec declares one field of a section.
type FieldSpec struct {
	Type    FieldType
	Options []string // select only
}

// Schema declares which sections and fields a service's profile may contain.
type Schema map[string]map[string]FieldSpec

// HasField reports whether the schema declares section.field.
func (s Schema) HasField(section, field string) bool {
	fields, ok := s[section]
	if !ok {
		return false
	}
	_, ok = fields[field]
	return ok
}

// Definition describes one consular service's form requirements.
type Definition struct {
	ServiceID        id.ServiceID
	Name             string
	RequiredSections []string
	Schema           Schema
}

// Registry resolves service definitions. Definitions are fixed at build time
// and registered during wiring; the registry is read-only afterwards.
type Registry struct {
	defs map[id.ServiceID]Definition
}

// NewRegistry builds a registry from the given definitions.
func NewRegistry(defs ...Definition) *Registry {
	m := make(map[id.ServiceID]Definition, len(defs))
	for _, d := range defs {
		m[d.ServiceID] = d
	}
	return &Registry{defs: m}
}

// Lookup returns the definition for a service.
func (r *Registry) Lookup(serviceID id.ServiceID) (Definition, error) {
	d, ok := r.defs[serviceID]
	if !ok {
		return Definition{}, dErrors.Newf(dErrors.CodeNotFound, "unknown service %s", serviceID)
	}
	return d, nil
}

// SplitPath splits a "section.field" path into its two parts.
func SplitPath(path string) (section, field string, err error) {
	section, field, ok := strings.Cut(path, ".")
	if !ok || section == "" || field == "" {
		return "", "", dErrors.Newf(dErrors.CodeValidation, "malformed field path %q, want section.field", path)
	}
	return section, field, nil
}

// Descriptor describes what a complete_info action expects for one field.
// Not persisted beyond the action's lifetime.
type Descriptor struct {
	Path    string    `json:"path"` // section.field
	Type    FieldType `json:"type"`
	Options []string  `json:"options,omitempty"`
	Known   any       `json:"known,omitempty"` // currently-known value for pre-fill
}

// MissingSections returns the required sections that have no data yet.
func MissingSections(snapshot Snapshot, required []string) []string {
	var missing []string
	for _, section := range required {
		if len(snapshot[section]) == 0 {
			missing = append(missing, section)
		}
	}
	return missing
}
