package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseTextJSONArrayCapped(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 10; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"n": ` + string(rune('0'+i)) + `}`)
	}
	sb.WriteString("]")

	set := ParseText(sb.String(), Options{MaxRows: 3})
	if len(set.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(set.Records))
	}
	for i, want := range []float64{0, 1, 2} {
		if got := set.Records[i]["n"]; got != want {
			t.Errorf("record %d: n = %v, want %v", i, got, want)
		}
	}
}

func TestParseTextJSONContainerKeys(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"shipments", `{"shipments": [{"id": "a"}]}`},
		{"data", `{"data": [{"id": "a"}]}`},
		{"payload", `{"payload": [{"id": "a"}]}`},
		{"unconventional list key", `{"whatever": [{"id": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := ParseText(tt.text, Options{})
			if len(set.Records) != 1 || set.Records[0]["id"] != "a" {
				t.Errorf("records = %v, want single {id: a}", set.Records)
			}
		})
	}
}

func TestParseTextJSONBareObjectWrapped(t *testing.T) {
	set := ParseText(`{"tracking_id": "AWB9", "weight": 2.5}`, Options{})
	if len(set.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(set.Records))
	}
	if set.Records[0]["tracking_id"] != "AWB9" {
		t.Errorf("tracking_id = %v", set.Records[0]["tracking_id"])
	}
}

func TestParseTextMalformedJSONFallsBackToDelimited(t *testing.T) {
	// Starts with '{' but is not JSON; the delimited tier should pick it up.
	text := "{broken,header\nval1,val2"
	set := ParseText(text, Options{})
	if len(set.Records) != 1 {
		t.Fatalf("got %d records, want 1: %v", len(set.Records), set.Records)
	}
}

func TestParseTextXMLSingleRecord(t *testing.T) {
	set := ParseText(`<Shipment><Receiver><Name>Jane</Name></Receiver></Shipment>`, Options{})
	if len(set.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(set.Records))
	}
	if got := set.Records[0]["Receiver.Name"]; got != "Jane" {
		t.Errorf("Receiver.Name = %v, want Jane", got)
	}
	if len(set.Records[0]) != 1 {
		t.Errorf("record = %v, want exactly one field", set.Records[0])
	}
}

func TestParseTextXMLDoubledQuotesCleaned(t *testing.T) {
	set := ParseText(`<Shipment id=""1""><AWB>X1</AWB></Shipment>`, Options{})
	if len(set.Records) != 1 || set.Records[0]["AWB"] != "X1" {
		t.Fatalf("records = %v, want [{AWB: X1}]", set.Records)
	}
}

func TestParseTextMalformedXMLFallsBack(t *testing.T) {
	text := "<notxml\nfield1,field2\na,b"
	set := ParseText(text, Options{})
	if len(set.Records) == 0 {
		t.Fatal("expected fallback records, got none")
	}
}

func TestParseTextOpaqueLines(t *testing.T) {
	set := ParseText("first line\n\nsecond line\n", Options{})
	// Plain text classifies as delimited: single-column parse with the
	// first line as header.
	if len(set.Records) != 1 {
		t.Fatalf("got %d records: %v", len(set.Records), set.Records)
	}
	if got := set.Records[0]["first line"]; got != "second line" {
		t.Errorf("value = %v, want %q", got, "second line")
	}
}

func TestParseTextEmptyInputSafe(t *testing.T) {
	set := ParseText("", Options{})
	if len(set.Records) != 0 {
		t.Errorf("records = %v, want none", set.Records)
	}
	if set.Transport != TransportFile {
		t.Errorf("transport = %s, want file default", set.Transport)
	}
}

func TestParseFileMissingInput(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want missing-input error", err)
	}
}

func TestParseFileTransportTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	set, err := ParseFile(path, Options{Transport: TransportSFTP})
	if err != nil {
		t.Fatal(err)
	}
	if set.Transport != TransportSFTP {
		t.Errorf("transport = %s, want sftp", set.Transport)
	}
	if set.RawText != "a,b\n1,2\n" {
		t.Errorf("raw text = %q", set.RawText)
	}
}
