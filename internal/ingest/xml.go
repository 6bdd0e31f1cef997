package ingest

import (
	"encoding/xml"
	"io"
	"strings"
)

// xmlElement is a minimal element tree; attributes are not part of the
// partner exchange formats this handles.
type xmlElement struct {
	tag      string
	text     string
	children []*xmlElement
}

// parseXML parses the sample as a single-entity XML document and flattens
// it into one record of dotted tag paths: <Shipment><Receiver><Name> becomes
// "Receiver.Name". Doubled quotes (a common partner export defect) are
// collapsed before parsing.
func parseXML(text string, maxRows int) ([]Record, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), `""`, `"`)

	root, err := decodeXMLTree(cleaned)
	if err != nil || root == nil {
		return nil, false
	}

	rec := Record{}
	flattenElement(root, "", rec)
	if maxRows < 1 {
		return nil, true
	}
	return []Record{rec}, true
}

func decodeXMLTree(s string) (*xmlElement, error) {
	dec := xml.NewDecoder(strings.NewReader(s))
	var root *xmlElement
	var stack []*xmlElement

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlElement{tag: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					return nil, errMultipleRoots
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errUnbalancedXML
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}

	if len(stack) != 0 {
		return nil, errUnbalancedXML
	}
	return root, nil
}

// flattenElement records leaf elements under their dotted tag path and
// recurses into containers; the root tag itself is not part of the path.
func flattenElement(el *xmlElement, prefix string, out Record) {
	for _, child := range el.children {
		key := child.tag
		if prefix != "" {
			key = prefix + "." + child.tag
		}
		if len(child.children) > 0 {
			flattenElement(child, key, out)
		} else {
			out[key] = strings.TrimSpace(child.text)
		}
	}
}

var (
	errMultipleRoots = xml.UnmarshalError("multiple root elements")
	errUnbalancedXML = xml.UnmarshalError("unbalanced elements")
)
