// Package transport acquires raw partner samples from wherever partners
// drop them: local files, REST feed pulls, or inbound webhook bodies.
// Object-store pickup lives in the storage package; both produce the same
// RawSample for the parser.
package transport

import "github.com/bechidu/partner-sync-ai/internal/ingest"

// maxSampleBytes bounds how much of a partner drop we will read. Samples
// are previews; anything past this is someone uploading a full export.
const maxSampleBytes = 16 << 20

// RawSample is an un-decoded partner sample plus where it came from.
type RawSample struct {
	Bytes     []byte
	Source    string
	Transport ingest.Transport
}
