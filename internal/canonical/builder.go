package canonical

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bechidu/partner-sync-ai/internal/ingest"
)

// MappingEntry ties one partner field to one canonical path. Confidence is
// advisory: the builder applies every entry regardless of score.
type MappingEntry struct {
	SourceField   string  `json:"source_field"`
	CanonicalPath string  `json:"canonical_path"`
	Confidence    float64 `json:"confidence"`
}

// MappingSet is an ordered list of mappings; later entries overwrite
// earlier ones when they target the same path.
type MappingSet []MappingEntry

// Build converts every record in the sample set into a canonical document.
// Building is a pure function of the records and mappings, so rerunning it
// over the same input always yields the same documents.
func Build(set *ingest.SampleSet, mappings MappingSet) []ingest.Record {
	if set == nil {
		return nil
	}
	out := make([]ingest.Record, 0, len(set.Records))
	for _, rec := range set.Records {
		out = append(out, buildOne(rec, mappings))
	}
	return out
}

func buildOne(rec ingest.Record, mappings MappingSet) ingest.Record {
	doc := ingest.Record{}
	for _, m := range mappings {
		if m.SourceField == "" || m.CanonicalPath == "" {
			continue
		}
		val, ok := ingest.Lookup(rec, m.SourceField)
		if !ok || val == nil {
			continue
		}
		if s, isStr := val.(string); isStr {
			if s == "" {
				continue
			}
			val = coerceString(s)
		}
		setNested(doc, m.CanonicalPath, val)
	}
	ensureObjects(doc, mappings)
	coercePhone(doc)
	return doc
}

// coerceString turns all-digit strings into integers and decimal strings
// into floats; everything else stays text.
func coerceString(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if isAllDigits(trimmed) {
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n
		}
		return s
	}
	if strings.ContainsAny(trimmed, "0123456789") {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	}
	return s
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// setNested writes val at the dotted path, creating intermediate objects.
// A scalar sitting where an object is needed gets replaced by a fresh map.
func setNested(doc ingest.Record, path string, val any) {
	parts := strings.Split(path, ".")
	current := map[string]any(doc)
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = val
}

// ensureObjects guarantees that destination and origin exist as objects
// whenever any mapping entry targets a path under them, even when no value
// resolved for this record. Stray scalars at those keys are replaced too.
func ensureObjects(doc ingest.Record, mappings MappingSet) {
	for _, key := range []string{"destination", "origin"} {
		targeted := false
		for _, m := range mappings {
			if strings.HasPrefix(m.CanonicalPath, key+".") {
				targeted = true
				break
			}
		}
		if !targeted {
			continue
		}
		if _, isMap := doc[key].(map[string]any); !isMap {
			doc[key] = map[string]any{}
		}
	}
}

// coercePhone forces customer_contact.phone to a string: partner exports
// routinely carry phone numbers as bare integers.
func coercePhone(doc ingest.Record) {
	contact, ok := doc["customer_contact"].(map[string]any)
	if !ok {
		return
	}
	phone, ok := contact["phone"]
	if !ok {
		return
	}
	switch v := phone.(type) {
	case string:
	case int64:
		contact["phone"] = strconv.FormatInt(v, 10)
	case int:
		contact["phone"] = strconv.Itoa(v)
	case float64:
		contact["phone"] = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		contact["phone"] = fmt.Sprintf("%v", v)
	}
}
