package ingest

import "strings"

// Format is the guessed structure of a decoded sample.
type Format string

const (
	FormatJSON      Format = "json"
	FormatXML       Format = "xml"
	FormatDelimited Format = "delimited"
	FormatOpaque    Format = "opaque"
)

// Classify guesses the sample format from a cheap prefix check. It never
// parses; a wrong guess is corrected by the parser tier fallback below.
func Classify(text string) Format {
	s := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(s, "{") || strings.HasPrefix(s, "["):
		return FormatJSON
	case strings.HasPrefix(s, "<"):
		return FormatXML
	case len(nonEmptyLines(text)) > 0:
		return FormatDelimited
	default:
		return FormatOpaque
	}
}

// parseTier attempts one structural interpretation of the text. A tier
// reports ok=false when the text does not parse under its format; it never
// returns an error, because a failed tier just means "try the next one".
type parseTier func(text string, maxRows int) ([]Record, bool)

// tiersFor returns the ordered fallback chain for a classified format.
// JSON and XML degrade through delimited to opaque; the opaque tier always
// succeeds, so every chain terminates with records.
func tiersFor(f Format) []parseTier {
	switch f {
	case FormatJSON:
		return []parseTier{parseJSON, parseDelimited, parseOpaque}
	case FormatXML:
		return []parseTier{parseXML, parseDelimited, parseOpaque}
	case FormatDelimited:
		return []parseTier{parseDelimited, parseOpaque}
	default:
		return []parseTier{parseOpaque}
	}
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if strings.TrimSpace(ln) != "" {
			out = append(out, ln)
		}
	}
	return out
}
