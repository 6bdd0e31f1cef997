package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bechidu/partner-sync-ai/internal/ingest"
)

func sampleMappings() MappingSet {
	return MappingSet{
		{SourceField: "AWB Number", CanonicalPath: "tracking_id", Confidence: 0.95},
		{SourceField: "Current Status", CanonicalPath: "status", Confidence: 0.9},
		{SourceField: "Dest City", CanonicalPath: "destination.city", Confidence: 0.8},
		{SourceField: "Weight", CanonicalPath: "weight_kg", Confidence: 0.85},
		{SourceField: "Contact Phone", CanonicalPath: "customer_contact.phone", Confidence: 0.8},
	}
}

func TestBuildMapsFieldsToNestedPaths(t *testing.T) {
	set := &ingest.SampleSet{Records: []ingest.Record{{
		"AWB Number":     "AWB123",
		"Current Status": "Delivered",
		"Dest City":      "Pune",
		"Weight":         "2.5",
	}}}

	docs := Build(set, sampleMappings())
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "AWB123", doc["tracking_id"])
	assert.Equal(t, "Delivered", doc["status"])
	assert.Equal(t, 2.5, doc["weight_kg"])
	dest, ok := doc["destination"].(map[string]any)
	require.True(t, ok, "destination must be an object")
	assert.Equal(t, "Pune", dest["city"])
}

func TestBuildSkipsMissingAndEmptyValues(t *testing.T) {
	set := &ingest.SampleSet{Records: []ingest.Record{{
		"AWB Number":     "AWB123",
		"Current Status": "",
	}}}

	docs := Build(set, sampleMappings())
	require.Len(t, docs, 1)
	assert.Equal(t, "AWB123", docs[0]["tracking_id"])
	assert.NotContains(t, docs[0], "status", "empty source value must be skipped")
	dest, ok := docs[0]["destination"].(map[string]any)
	require.True(t, ok, "targeted destination must exist even with no resolvable source")
	assert.Empty(t, dest)
}

func TestBuildInjectsEmptyObjectsForTargetedPrefixes(t *testing.T) {
	set := &ingest.SampleSet{Records: []ingest.Record{{
		"AWB": "X1",
	}}}
	docs := Build(set, MappingSet{
		{SourceField: "AWB", CanonicalPath: "tracking_id", Confidence: 0.95},
		{SourceField: "Dest City", CanonicalPath: "destination.city", Confidence: 0.8},
		{SourceField: "From City", CanonicalPath: "origin.city", Confidence: 0.8},
	})
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "X1", doc["tracking_id"])
	dest, ok := doc["destination"].(map[string]any)
	require.True(t, ok, "destination must be present as an object")
	assert.Empty(t, dest)
	origin, ok := doc["origin"].(map[string]any)
	require.True(t, ok, "origin must be present as an object")
	assert.Empty(t, origin)
}

func TestBuildNoObjectInjectionWhenNotTargeted(t *testing.T) {
	set := &ingest.SampleSet{Records: []ingest.Record{{
		"AWB": "X1",
	}}}
	docs := Build(set, MappingSet{
		{SourceField: "AWB", CanonicalPath: "tracking_id", Confidence: 0.95},
	})
	require.Len(t, docs, 1)
	assert.NotContains(t, docs[0], "destination")
	assert.NotContains(t, docs[0], "origin")
}

func TestBuildCoercesNumericStrings(t *testing.T) {
	set := &ingest.SampleSet{Records: []ingest.Record{{
		"Weight": "42",
	}}}
	docs := Build(set, MappingSet{{SourceField: "Weight", CanonicalPath: "weight_kg"}})
	require.Len(t, docs, 1)
	assert.Equal(t, int64(42), docs[0]["weight_kg"], "all-digit strings become integers")
}

func TestBuildKeepsNonNumericTextVerbatim(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"NaN literal stays text", "NaN"},
		{"Infinity literal stays text", "Infinity"},
		{"padded text keeps its whitespace", "  Express Lane "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := &ingest.SampleSet{Records: []ingest.Record{{"Service": tt.in}}}
			docs := Build(set, MappingSet{{SourceField: "Service", CanonicalPath: "service_type"}})
			require.Len(t, docs, 1)
			assert.Equal(t, tt.in, docs[0]["service_type"])
		})
	}
}

func TestBuildPhoneAlwaysString(t *testing.T) {
	tests := []struct {
		name  string
		phone any
		want  string
	}{
		{"digit string coerced back", "5551234", "5551234"},
		{"integer source", int64(5551234), "5551234"},
		{"float source", float64(5551234), "5551234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := &ingest.SampleSet{Records: []ingest.Record{{"Contact Phone": tt.phone}}}
			docs := Build(set, MappingSet{{SourceField: "Contact Phone", CanonicalPath: "customer_contact.phone"}})
			require.Len(t, docs, 1)
			contact := docs[0]["customer_contact"].(map[string]any)
			assert.Equal(t, tt.want, contact["phone"])
		})
	}
}

func TestBuildReplacesScalarBlockingNestedPath(t *testing.T) {
	set := &ingest.SampleSet{Records: []ingest.Record{{
		"Dest": "Pune",
		"City": "Mumbai",
	}}}
	docs := Build(set, MappingSet{
		{SourceField: "Dest", CanonicalPath: "destination"},
		{SourceField: "City", CanonicalPath: "destination.city"},
	})
	require.Len(t, docs, 1)
	dest, ok := docs[0]["destination"].(map[string]any)
	require.True(t, ok, "scalar at destination must give way to an object")
	assert.Equal(t, "Mumbai", dest["city"])
}

func TestBuildLooksThroughNestedRecords(t *testing.T) {
	set := &ingest.SampleSet{Records: []ingest.Record{{
		"Receiver": map[string]any{"Name": "Jane"},
	}}}
	docs := Build(set, MappingSet{{SourceField: "Receiver.Name", CanonicalPath: "customer_contact.name"}})
	require.Len(t, docs, 1)
	contact := docs[0]["customer_contact"].(map[string]any)
	assert.Equal(t, "Jane", contact["name"])
}

func TestBuildIdempotent(t *testing.T) {
	set := &ingest.SampleSet{Records: []ingest.Record{{
		"AWB Number": "AWB9",
		"Dest City":  "Pune",
		"Weight":     "1.25",
	}}}
	first := Build(set, sampleMappings())
	second := Build(set, sampleMappings())
	assert.Equal(t, first, second)
}
