package inference

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var jsonBlock = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
var trailingCommaObj = regexp.MustCompile(`,\s*}`)
var trailingCommaArr = regexp.MustCompile(`,\s*]`)

// ExtractJSON pulls the first JSON object or array out of freeform model
// output. Models occasionally wrap the payload in prose or emit trailing
// commas; both get one repair attempt before giving up.
func ExtractJSON(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}

	candidate := jsonBlock.FindString(text)
	if candidate == "" {
		return nil, fmt.Errorf("no JSON object or array in model output")
	}
	if err := json.Unmarshal([]byte(candidate), &v); err == nil {
		return v, nil
	}

	fixed := trailingCommaObj.ReplaceAllString(candidate, "}")
	fixed = trailingCommaArr.ReplaceAllString(fixed, "]")
	if err := json.Unmarshal([]byte(fixed), &v); err != nil {
		preview := text
		if len(preview) > 500 {
			preview = preview[:500]
		}
		return nil, fmt.Errorf("model output is not parseable JSON after cleanup: %q", preview)
	}
	return v, nil
}

// extractInto is ExtractJSON plus a decode into a typed destination.
func extractInto(text string, dst any) error {
	v, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
