package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bechidu/partner-sync-ai/internal/ingest"
	"github.com/bechidu/partner-sync-ai/internal/pkg/httpretry"
)

// Fetcher pulls samples from partner REST endpoints with retries.
type Fetcher struct {
	client httpretry.HTTPDoer
}

// NewFetcher wraps doer in retry logic; a nil doer gets a default client.
func NewFetcher(doer httpretry.HTTPDoer) *Fetcher {
	return &Fetcher{client: httpretry.NewRetryClient(doer, 3)}
}

// Fetch GETs a sample from url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*RawSample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid sample URL %s: %w", url, err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sample fetch failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ingest.ErrMissingInput, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sample fetch for %s returned status %d", url, resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxSampleBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read sample body from %s: %w", url, err)
	}
	return &RawSample{Bytes: b, Source: url, Transport: ingest.TransportREST}, nil
}
