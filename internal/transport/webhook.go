package transport

import (
	"fmt"
	"io"
	"net/http"

	"github.com/bechidu/partner-sync-ai/internal/ingest"
)

// FromRequest captures an inbound webhook body as a sample. The source is
// the remote address plus path so run history shows who pushed what.
func FromRequest(r *http.Request) (*RawSample, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxSampleBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook body: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty webhook body", ingest.ErrMissingInput)
	}
	return &RawSample{
		Bytes:     b,
		Source:    r.RemoteAddr + r.URL.Path,
		Transport: ingest.TransportWebhook,
	}, nil
}
