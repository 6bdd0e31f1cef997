package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONDirect(t *testing.T) {
	v, err := ExtractJSON(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, v)
}

func TestExtractJSONEmbeddedInProse(t *testing.T) {
	text := "Sure! Here is the schema you asked for:\n```json\n{\"fields\": [\"a\"]}\n```\nLet me know if you need anything else."
	v, err := ExtractJSON(text)
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a"}, m["fields"])
}

func TestExtractJSONRepairsTrailingCommas(t *testing.T) {
	v, err := ExtractJSON(`result: {"a": 1, "b": [1, 2,],}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": []any{float64(1), float64(2)}}, v)
}

func TestExtractJSONArray(t *testing.T) {
	v, err := ExtractJSON(`the list is [1, 2, 3] as requested`)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, v)
}

func TestExtractJSONNoJSON(t *testing.T) {
	_, err := ExtractJSON("I could not produce a schema for this input.")
	assert.Error(t, err)
}

func TestDecodeMappingsListShape(t *testing.T) {
	text := `{"partner_name": "acme", "mappings": [
		{"partner_field": "AWB_Number", "mapped_to": "tracking_id", "confidence": 0.93, "reason": "name match"},
		{"partner_field": "Junk", "mapped_to": null, "confidence": 0.1, "reason": "no match"}
	]}`
	set, err := decodeMappings(text)
	require.NoError(t, err)
	require.Len(t, set, 1, "null targets must be dropped")
	assert.Equal(t, "AWB.Number", set[0].SourceField)
	assert.Equal(t, "tracking_id", set[0].CanonicalPath)
	assert.InDelta(t, 0.93, set[0].Confidence, 1e-9)
}

func TestDecodeMappingsFlatObjectShape(t *testing.T) {
	text := `{"AWB Number": "tracking_id", "Dest City": "destination.city", "Junk": null}`
	set, err := decodeMappings(text)
	require.NoError(t, err)
	require.Len(t, set, 2)
	targets := map[string]string{}
	for _, m := range set {
		targets[m.SourceField] = m.CanonicalPath
	}
	assert.Equal(t, "tracking_id", targets["AWB.Number"])
	assert.Equal(t, "destination.city", targets["Dest.City"])
}

func TestDecodeMappingsRejectsGarbage(t *testing.T) {
	_, err := decodeMappings(`[1, 2, 3]`)
	assert.Error(t, err)
}
