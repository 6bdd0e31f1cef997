// Package storage finds and fetches partner sample drops. Two backends
// exist: an S3 bucket shared with partners, and a local directory for
// development. Both hide consumed drops under a processed/ prefix so a
// rescan never re-onboards the same file.
package storage

import (
	"context"

	"github.com/bechidu/partner-sync-ai/internal/transport"
)

// SampleStore lists, fetches and archives partner sample drops.
type SampleStore interface {
	// List returns keys of unprocessed sample drops.
	List(ctx context.Context) ([]string, error)
	// Fetch reads one drop.
	Fetch(ctx context.Context, key string) (*transport.RawSample, error)
	// Archive moves a consumed drop under processed/.
	Archive(ctx context.Context, key string) error
}

const processedPrefix = "processed/"
