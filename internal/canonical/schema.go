// Package canonical holds the target shipment document model: the schema
// that describes it, the builder that assembles documents from mapped
// partner records, and the validator that checks the result.
package canonical

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// ErrSchemaLoad wraps any failure to read or parse the schema document.
var ErrSchemaLoad = errors.New("canonical schema load failed")

// Schema is a structural subset of JSON Schema: type, required, nested
// properties and array items. That subset is all the canonical shipment
// document needs.
type Schema struct {
	Type       string             `json:"type"`
	Required   []string           `json:"required,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
}

// LoadSchema reads and parses a schema document from disk.
func LoadSchema(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaLoad, err)
	}
	return ParseSchema(b)
}

// ParseSchema parses a schema document from raw JSON.
func ParseSchema(b []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaLoad, err)
	}
	if s.Type == "" {
		return nil, fmt.Errorf("%w: missing top-level type", ErrSchemaLoad)
	}
	return &s, nil
}

// Leaves returns every scalar-valued dotted path in the schema, sorted.
// Object properties recurse; everything else terminates the path.
func (s *Schema) Leaves() []string {
	var out []string
	collectLeaves(s, "", &out)
	sort.Strings(out)
	return out
}

func collectLeaves(s *Schema, prefix string, out *[]string) {
	if s == nil {
		return
	}
	if s.Type == "object" && len(s.Properties) > 0 {
		for name, child := range s.Properties {
			path := name
			if prefix != "" {
				path = prefix + "." + name
			}
			collectLeaves(child, path, out)
		}
		return
	}
	if prefix != "" {
		*out = append(*out, prefix)
	}
}
