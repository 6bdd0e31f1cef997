package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFieldName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AWB Number", "AWB.Number"},
		{"ship_date", "ship.date"},
		{"\uFEFFTracking__No ", "Tracking.No"},
		{"..already.dotted..", "already.dotted"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeFieldName(tt.in), "input %q", tt.in)
	}
}

func TestMapFieldKnownVocabulary(t *testing.T) {
	tests := []struct {
		field  string
		target string
	}{
		{"AWB Number", "tracking_id"},
		{"TrackingNo", "tracking_id"},
		{"Status Date", "status_timestamp"},
		{"status_timestamp", "status_timestamp"},
		{"Pickup Date", "pickup_date"},
		{"Origin City", "origin.city"},
		{"From City", "origin.city"},
		{"Dest City", "destination.city"},
		{"To City", "destination.city"},
		{"Weight (kg)", "weight_kg"},
		{"Length cm", "dimensions_cm.l"},
		{"Width", "dimensions_cm.w"},
		{"Height", "dimensions_cm.h"},
		{"Service Type", "service_type"},
		{"Status", "status"},
		{"current_status", "status"},
		{"EventCode", "status"},
		{"Receiver Name", "customer_contact.name"},
		{"Contact Phone", "customer_contact.phone"},
		{"Email Address", "customer_contact.email"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			target, conf, ok := MapField(tt.field)
			require.True(t, ok, "no rule matched %q", tt.field)
			assert.Equal(t, tt.target, target)
			assert.Greater(t, conf, 0.0)
		})
	}
}

func TestMapFieldPrecedence(t *testing.T) {
	// "Tracking Status Date" contains tracking, status and date keywords;
	// the tracking rule is declared first and wins.
	target, _, ok := MapField("Tracking Status Date")
	require.True(t, ok)
	assert.Equal(t, "tracking_id", target)

	// A bare "Status" must hit the exact status rule, not the timestamp
	// rule, which additionally requires a date keyword.
	target, _, ok = MapField("Status")
	require.True(t, ok)
	assert.Equal(t, "status", target)
}

func TestMapFieldUnknown(t *testing.T) {
	_, _, ok := MapField("Internal Reference Blob")
	assert.False(t, ok)

	_, _, ok = MapField("???")
	assert.False(t, ok)
}

func TestSuggestPreservesOrderAndSkipsUnknown(t *testing.T) {
	set := Suggest([]string{"AWB Number", "Mystery Column 7", "Dest City"})
	require.Len(t, set, 2)
	assert.Equal(t, "AWB Number", set[0].SourceField)
	assert.Equal(t, "tracking_id", set[0].CanonicalPath)
	assert.Equal(t, "Dest City", set[1].SourceField)
	assert.Equal(t, "destination.city", set[1].CanonicalPath)
}
