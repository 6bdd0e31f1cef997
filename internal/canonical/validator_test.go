package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bechidu/partner-sync-ai/internal/ingest"
)

func TestValidateAllHappyPath(t *testing.T) {
	schema := testSchema(t)
	docs := []ingest.Record{{
		"tracking_id": "AWB1",
		"status":      "Delivered",
		"weight_kg":   2.5,
		"destination": map[string]any{"city": "Pune"},
	}}

	results := ValidateAll(docs, schema)
	require.Len(t, results, 1)
	assert.True(t, results[0].Valid)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, docs[0], results[0].Object)
}

func TestValidateAllMissingRequired(t *testing.T) {
	schema := testSchema(t)
	docs := []ingest.Record{{"status": "Delivered"}}

	results := ValidateAll(docs, schema)
	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.Equal(t, "tracking_id", results[0].PropertyPath)
	assert.Equal(t, "required", results[0].SchemaPath)
	assert.Contains(t, results[0].Error, "tracking_id")
}

func TestValidateAllTypeMismatch(t *testing.T) {
	schema := testSchema(t)
	docs := []ingest.Record{{
		"tracking_id": int64(12345),
		"status":      "Delivered",
	}}

	results := ValidateAll(docs, schema)
	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.Equal(t, "tracking_id", results[0].PropertyPath)
	assert.Equal(t, "tracking_id.type", results[0].SchemaPath)
}

func TestValidateAllReportsFirstViolationOnly(t *testing.T) {
	// Both status and tracking_id are wrong; sorted key order means the
	// walk hits status first among present properties, but the required
	// check runs before any property, so the missing one wins.
	schema := testSchema(t)
	docs := []ingest.Record{{"status": 7, "weight_kg": "heavy"}}

	results := ValidateAll(docs, schema)
	require.Len(t, results, 1)
	assert.Equal(t, "tracking_id", results[0].PropertyPath)
}

func TestValidateAllNestedPropertyPath(t *testing.T) {
	schema := testSchema(t)
	docs := []ingest.Record{{
		"tracking_id": "AWB1",
		"status":      "Delivered",
		"destination": map[string]any{"city": 42},
	}}

	results := ValidateAll(docs, schema)
	require.Len(t, results, 1)
	assert.False(t, results[0].Valid)
	assert.Equal(t, "destination.city", results[0].PropertyPath)
}

func TestValidateAllPerDocumentIndependence(t *testing.T) {
	schema := testSchema(t)
	docs := []ingest.Record{
		{"status": "x"},
		{"tracking_id": "AWB2", "status": "Delivered"},
	}

	results := ValidateAll(docs, schema)
	require.Len(t, results, 2)
	assert.False(t, results[0].Valid)
	assert.True(t, results[1].Valid)
	assert.Equal(t, 1, results[1].Index)
}

func TestTypeMatchesIntegerAcceptsWholeFloats(t *testing.T) {
	assert.True(t, typeMatches(float64(3), "integer"))
	assert.False(t, typeMatches(float64(3.5), "integer"))
	assert.True(t, typeMatches(int64(3), "integer"))
	assert.True(t, typeMatches(float64(3.5), "number"))
	assert.True(t, typeMatches(nil, "null"))
	assert.False(t, typeMatches("3", "number"))
}

func TestValidateAllExtraPropertiesIgnored(t *testing.T) {
	schema := testSchema(t)
	docs := []ingest.Record{{
		"tracking_id": "AWB1",
		"status":      "Delivered",
		"unmapped":    []any{1, 2, 3},
	}}

	results := ValidateAll(docs, schema)
	require.Len(t, results, 1)
	assert.True(t, results[0].Valid, "properties outside the schema pass through")
}
