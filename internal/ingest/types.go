package ingest

import "errors"

// Transport identifies how a partner sample reached us.
type Transport string

const (
	TransportFile    Transport = "file"
	TransportStream  Transport = "stream"
	TransportWebhook Transport = "webhook"
	TransportREST    Transport = "rest"
	TransportSFTP    Transport = "sftp"
)

// Record is one parsed sample row. Values are scalars for CSV/opaque input
// and may be nested maps/slices for JSON input; the flattener and the
// canonical builder's lookup handle both shapes.
type Record = map[string]any

// SampleSet is the parsed form of one partner sample file. It is built once
// at ingestion time and treated as read-only afterwards.
type SampleSet struct {
	Records   []Record
	RawText   string
	Transport Transport
}

// ErrMissingInput is returned when the sample path does not exist. This is
// the only ingestion error that stops the pipeline; every parse-level
// problem degrades to a simpler parser tier instead.
var ErrMissingInput = errors.New("sample input not found")

// DefaultMaxRows caps how many records a parse emits when the caller does
// not set its own limit.
const DefaultMaxRows = 200
