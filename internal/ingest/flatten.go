package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// Flatten walks a possibly nested record and returns a flat map keyed by
// dotted paths, with sequence elements addressed by bracketed indices:
//
//	{"a": {"b": 1}, "c": [{"d": 2}]}  →  {"a.b": 1, "c[0].d": 2}
//
// Scalar leaves terminate the walk; empty containers contribute nothing.
func Flatten(rec Record) Record {
	out := Record{}
	flattenValue(rec, "", out)
	return out
}

func flattenValue(v any, prefix string, out Record) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flattenValue(child, key, out)
		}
	case []any:
		for i, child := range t {
			flattenValue(child, fmt.Sprintf("%s[%d]", prefix, i), out)
		}
	default:
		out[prefix] = v
	}
}

// Lookup resolves a field address against a record in three tiers:
//
//  1. the path as a literal top-level key (field names may legitimately
//     contain dots);
//  2. a walk through nested maps along the dotted segments;
//  3. the whole path joined with underscores as a single top-level key.
//
// The tiers exist because upstream parsers emit field names flattened,
// dotted, or underscore-joined depending on the source format.
func Lookup(rec Record, path string) (any, bool) {
	if path == "" {
		return rec, true
	}
	if v, ok := rec[path]; ok {
		return v, true
	}

	var current any = rec
	for _, part := range strings.Split(path, ".") {
		next, ok := walkSegment(current, part)
		if !ok {
			return lookupUnderscored(rec, path)
		}
		current = next
	}
	return current, true
}

// walkSegment resolves one dotted segment, including bracketed sequence
// indices produced by the flattener ("events[0]", "m[1][2]").
func walkSegment(current any, part string) (any, bool) {
	name := part
	var indices []int
	if i := strings.IndexByte(part, '['); i >= 0 {
		name = part[:i]
		rest := part[i:]
		for strings.HasPrefix(rest, "[") {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, false
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil {
				return nil, false
			}
			indices = append(indices, idx)
			rest = rest[end+1:]
		}
		if rest != "" {
			return nil, false
		}
	}

	if name != "" {
		m, isMap := current.(map[string]any)
		if !isMap {
			return nil, false
		}
		v, ok := m[name]
		if !ok {
			return nil, false
		}
		current = v
	}
	for _, idx := range indices {
		list, isList := current.([]any)
		if !isList || idx < 0 || idx >= len(list) {
			return nil, false
		}
		current = list[idx]
	}
	return current, true
}

func lookupUnderscored(rec Record, path string) (any, bool) {
	v, ok := rec[strings.ReplaceAll(path, ".", "_")]
	return v, ok
}
