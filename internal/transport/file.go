package transport

import (
	"fmt"
	"io"
	"os"

	"github.com/bechidu/partner-sync-ai/internal/ingest"
)

// ReadFile loads a sample from the local filesystem. Missing paths come
// back wrapped in ingest.ErrMissingInput so callers can report them as a
// partner problem rather than a server fault.
func ReadFile(path string) (*RawSample, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ingest.ErrMissingInput, path)
		}
		return nil, fmt.Errorf("failed to open sample %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxSampleBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read sample %s: %w", path, err)
	}
	return &RawSample{Bytes: b, Source: path, Transport: ingest.TransportFile}, nil
}
