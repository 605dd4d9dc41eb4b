package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "attache/pkg/domain-errors"
)

func testSchema() Schema {
	return Schema{
		"identity": {
			"firstName":  {Type: FieldTypeText},
			"lastName":   {Type: FieldTypeText},
			"birthPlace": {Type: FieldTypeText},
			"birthDate":  {Type: FieldTypeDate},
		},
		"contacts": {
			"email":   {Type: FieldTypeText},
			"phone":   {Type: FieldTypeText},
			"address": {Type: FieldTypeText},
		},
		"family": {
			"children": {Type: FieldTypeText},
		},
	}
}

func TestMerge_OverwritesOnlyPresentLeaves(t *testing.T) {
	snapshot := Snapshot{
		"identity": {"firstName": "Awa", "lastName": "Ndong"},
		"contacts": {"email": "awa@example.com"},
	}
	update := Update{
		"identity": {"birthPlace": "Libreville"},
	}

	merged, err := Merge(snapshot, update, testSchema())
	require.NoError(t, err)

	assert.Equal(t, "Libreville", merged["identity"]["birthPlace"])
	assert.Equal(t, "Awa", merged["identity"]["firstName"], "untouched sibling leaf survives")
	assert.Equal(t, "awa@example.com", merged["contacts"]["email"], "untouched section survives")
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	snapshot := Snapshot{"identity": {"firstName": "Awa"}}
	update := Update{"identity": {"firstName": "Mireille"}}

	merged, err := Merge(snapshot, update, testSchema())
	require.NoError(t, err)

	assert.Equal(t, "Awa", snapshot["identity"]["firstName"])
	assert.Equal(t, "Mireille", merged["identity"]["firstName"])
}

func TestMerge_Idempotent(t *testing.T) {
	snapshot := Snapshot{
		"identity": {"firstName": "Awa", "birthPlace": "Oyem"},
	}
	update := Update{
		"identity": {"birthPlace": "Libreville"},
		"contacts": {"phone": "+24101020304"},
	}
	schema := testSchema()

	once, err := Merge(snapshot, update, schema)
	require.NoError(t, err)
	twice, err := Merge(once, update, schema)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestMerge_ReplacesWholeObjectLeaves(t *testing.T) {
	snapshot := Snapshot{
		"family": {"children": []string{"Elo", "Nze"}},
	}
	update := Update{
		"family": {"children": []string{"Elo"}},
	}

	merged, err := Merge(snapshot, update, testSchema())
	require.NoError(t, err)

	// Arrays replace wholesale, not element-wise.
	assert.Equal(t, []string{"Elo"}, merged["family"]["children"])
}

func TestMerge_RejectsUndeclaredPaths(t *testing.T) {
	snapshot := Snapshot{"identity": {"firstName": "Awa"}}

	t.Run("unknown section", func(t *testing.T) {
		_, err := Merge(snapshot, Update{"passport": {"number": "X123"}}, testSchema())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Merge(snapshot, Update{"identity": {"nickname": "A"}}, testSchema())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("snapshot untouched on rejection", func(t *testing.T) {
		_, err := Merge(snapshot, Update{"identity": {"nickname": "A"}}, testSchema())
		require.Error(t, err)
		assert.Equal(t, Snapshot{"identity": {"firstName": "Awa"}}, snapshot)
	})
}

func TestMerge_CreatesSectionWhenDeclaredButEmpty(t *testing.T) {
	snapshot := Snapshot{}
	update := Update{"contacts": {"phone": "+24101020304"}}

	merged, err := Merge(snapshot, update, testSchema())
	require.NoError(t, err)
	assert.Equal(t, "+24101020304", merged["contacts"]["phone"])
}

func TestUpdateFromPaths(t *testing.T) {
	update, err := UpdateFromPaths(map[string]any{
		"identity.birthPlace": "Libreville",
		"identity.birthDate":  "1991-02-17",
		"contacts.phone":      "+24101020304",
	})
	require.NoError(t, err)

	assert.Equal(t, Update{
		"identity": {"birthPlace": "Libreville", "birthDate": "1991-02-17"},
		"contacts": {"phone": "+24101020304"},
	}, update)
}

func TestUpdateFromPaths_MalformedPath(t *testing.T) {
	for _, path := range []string{"identity", ".birthPlace", "identity.", ""} {
		_, err := UpdateFromPaths(map[string]any{path: "x"})
		require.Error(t, err, "path %q", path)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	}
}

func TestSplitPath(t *testing.T) {
	section, field, err := SplitPath("identity.birthPlace")
	require.NoError(t, err)
	assert.Equal(t, "identity", section)
	assert.Equal(t, "birthPlace", field)

	// Nested dots belong to the field part.
	section, field, err = SplitPath("contacts.address.city")
	require.NoError(t, err)
	assert.Equal(t, "contacts", section)
	assert.Equal(t, "address.city", field)
}

func TestMissingSections(t *testing.T) {
	snapshot := Snapshot{
		"identity": {"firstName": "Awa"},
		"contacts": {},
	}
	missing := MissingSections(snapshot, []string{"identity", "contacts", "family"})
	assert.Equal(t, []string{"contacts", "family"}, missing)
}
