package profile

import (
	dErrors "attache/pkg/domain-errors"
)

// Merge folds a partial update into a snapshot and returns the merged copy.
//
// For each section present in the update, each field present within it
// overwrites only that leaf; sections and fields absent from the update are
// left untouched. Array and whole-object values replace the leaf wholesale,
// never element-wise. Each leaf assignment is a pure overwrite, so applying
// the same update twice yields the same snapshot as applying it once.
//
// Validation covers paths only: every section.field in the update must be
// declared in the schema, or the whole merge fails with CodeValidation and
// the input snapshot is returned unmodified. Cross-field validation belongs
// to downstream collaborators.
func Merge(snapshot Snapshot, update Update, schema Schema) (Snapshot, error) {
	for section, fields := range update {
		if _, ok := schema[section]; !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "section %q is not declared for this service", section)
		}
		for field := range fields {
			if !schema.HasField(section, field) {
				return nil, dErrors.Newf(dErrors.CodeValidation, "field %q is not declared in section %q", field, section)
			}
		}
	}

	merged := clone(snapshot)
	for section, fields := range update {
		target, ok := merged[section]
		if !ok {
			target = make(map[string]any, len(fields))
			merged[section] = target
		}
		for field, value := range fields {
			target[field] = value
		}
	}
	return merged, nil
}

// UpdateFromPaths converts a flat path-keyed response ({"identity.birthPlace": v})
// into a section-scoped Update. Fails with CodeValidation on malformed paths.
func UpdateFromPaths(values map[string]any) (Update, error) {
	update := make(Update, len(values))
	for path, value := range values {
		section, field, err := SplitPath(path)
		if err != nil {
			return nil, err
		}
		if update[section] == nil {
			update[section] = make(map[string]any)
		}
		update[section][field] = value
	}
	return update, nil
}

func clone(snapshot Snapshot) Snapshot {
	out := make(Snapshot, len(snapshot))
	for section, fields := range snapshot {
		copied := make(map[string]any, len(fields))
		for field, value := range fields {
			copied[field] = value
		}
		out[section] = copied
	}
	return out
}
