package canonical

import (
	"fmt"
	"sort"

	"github.com/bechidu/partner-sync-ai/internal/ingest"
)

// ValidationResult reports the outcome for a single document. Only the
// first violation found is reported; walking stops there.
type ValidationResult struct {
	Index        int           `json:"index"`
	Valid        bool          `json:"valid"`
	Error        string        `json:"error,omitempty"`
	PropertyPath string        `json:"property_path,omitempty"`
	SchemaPath   string        `json:"schema_path,omitempty"`
	Object       ingest.Record `json:"object"`
}

// ValidateAll checks every document against the schema and returns one
// result per document, in input order.
func ValidateAll(docs []ingest.Record, schema *Schema) []ValidationResult {
	out := make([]ValidationResult, 0, len(docs))
	for i, doc := range docs {
		res := ValidationResult{Index: i, Valid: true, Object: doc}
		if v := validateValue(map[string]any(doc), schema, ""); v != nil {
			res.Valid = false
			res.Error = v.msg
			res.PropertyPath = v.propertyPath
			res.SchemaPath = v.schemaPath
		}
		out = append(out, res)
	}
	return out
}

type violation struct {
	msg          string
	propertyPath string
	schemaPath   string
}

// validateValue walks value and schema together and returns the first
// violation, or nil. Object properties are visited in sorted key order so
// the reported violation is deterministic.
func validateValue(value any, schema *Schema, path string) *violation {
	if schema == nil {
		return nil
	}
	if !typeMatches(value, schema.Type) {
		return &violation{
			msg:          fmt.Sprintf("expected %s, got %T", schema.Type, value),
			propertyPath: path,
			schemaPath:   joinSchemaPath(path, "type"),
		}
	}

	switch schema.Type {
	case "object":
		obj, _ := value.(map[string]any)
		for _, req := range schema.Required {
			if _, ok := obj[req]; !ok {
				missing := req
				if path != "" {
					missing = path + "." + req
				}
				return &violation{
					msg:          fmt.Sprintf("missing required property %q", req),
					propertyPath: missing,
					schemaPath:   joinSchemaPath(path, "required"),
				}
			}
		}
		for _, name := range sortedKeys(obj) {
			child, ok := schema.Properties[name]
			if !ok {
				continue
			}
			childPath := name
			if path != "" {
				childPath = path + "." + name
			}
			if v := validateValue(obj[name], child, childPath); v != nil {
				return v
			}
		}
	case "array":
		list, _ := value.([]any)
		for i, item := range list {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if v := validateValue(item, schema.Items, itemPath); v != nil {
				return v
			}
		}
	}
	return nil
}

// typeMatches applies JSON Schema primitive semantics: any numeric value
// satisfies "number", and "integer" additionally accepts floats without a
// fractional part, which is how JSON decoding hands back whole numbers.
func typeMatches(value any, typ string) bool {
	switch typ {
	case "", "any":
		return true
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		return isNumeric(value)
	case "integer":
		switch v := value.(type) {
		case int, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "null":
		return value == nil
	}
	return false
}

func isNumeric(value any) bool {
	switch value.(type) {
	case int, int64, float64:
		return true
	}
	return false
}

func joinSchemaPath(path, keyword string) string {
	if path == "" {
		return keyword
	}
	return path + "." + keyword
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
