package ingest

import (
	"encoding/json"
	"sort"
	"strings"
)

// containerKeys are conventional wrapper keys in REST-style responses,
// checked in order; the first list-valued one wins.
var containerKeys = []string{"shipments", "items", "data", "records", "payload"}

// parseJSON handles a top-level array, an object wrapping an array under a
// conventional key, an object wrapping an array under any key, or a bare
// object taken as a single record.
func parseJSON(text string, maxRows int) ([]Record, bool) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return nil, false
	}

	switch obj := v.(type) {
	case []any:
		return listToRecords(obj, maxRows), true
	case map[string]any:
		for _, key := range containerKeys {
			if list, ok := obj[key].([]any); ok {
				return listToRecords(list, maxRows), true
			}
		}
		// Any other list-valued property. Keys are sorted so the pick is
		// deterministic regardless of map iteration order.
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if list, ok := obj[k].([]any); ok {
				return listToRecords(list, maxRows), true
			}
		}
		return []Record{obj}, true
	default:
		return nil, false
	}
}

func listToRecords(list []any, maxRows int) []Record {
	if len(list) > maxRows {
		list = list[:maxRows]
	}
	records := make([]Record, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		} else {
			records = append(records, Record{"value": item})
		}
	}
	return records
}
