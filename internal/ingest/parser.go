package ingest

import (
	"fmt"
	"os"
)

// Options controls one parse invocation.
type Options struct {
	// MaxRows caps the number of emitted records; rows past the cap are
	// never parsed. Zero or negative means DefaultMaxRows.
	MaxRows int
	// Transport tags the resulting SampleSet with how the bytes arrived.
	// Empty defaults to TransportFile.
	Transport Transport
}

func (o Options) maxRows() int {
	if o.MaxRows <= 0 {
		return DefaultMaxRows
	}
	return o.MaxRows
}

func (o Options) transport() Transport {
	if o.Transport == "" {
		return TransportFile
	}
	return o.Transport
}

// ParseFile reads a sample file and parses it. A missing path is the one
// fatal ingestion error; everything past the read degrades through parser
// tiers instead of failing.
func ParseFile(path string, opts Options) (*SampleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("read sample %s: %w", path, err)
	}
	return ParseBytes(b, opts), nil
}

// ParseBytes decodes raw sample bytes and parses the text. It never fails:
// the worst input still yields an opaque-line SampleSet.
func ParseBytes(b []byte, opts Options) *SampleSet {
	return ParseText(DecodeBytes(b), opts)
}

// ParseText classifies decoded text and runs the parser tiers for that
// format until one produces records.
func ParseText(text string, opts Options) *SampleSet {
	set := &SampleSet{RawText: text, Transport: opts.transport()}
	for _, tier := range tiersFor(Classify(text)) {
		if records, ok := tier(text, opts.maxRows()); ok {
			set.Records = records
			return set
		}
	}
	return set
}

// rawPreviewLimit truncates the single-record preview when an opaque sample
// is one unbroken blob with no line structure at all.
const rawPreviewLimit = 200

// parseOpaque is the terminal tier: every non-empty line becomes a record
// with the raw line as its only field. It always succeeds.
func parseOpaque(text string, maxRows int) ([]Record, bool) {
	lines := nonEmptyLines(text)
	if len(lines) > maxRows {
		lines = lines[:maxRows]
	}
	records := make([]Record, 0, len(lines))
	for _, ln := range lines {
		if len(lines) == 1 && len(ln) > rawPreviewLimit {
			ln = ln[:rawPreviewLimit]
		}
		records = append(records, Record{"raw_line": ln})
	}
	return records, true
}
