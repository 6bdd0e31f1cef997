package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bechidu/partner-sync-ai/internal/ingest"
	"github.com/bechidu/partner-sync-ai/internal/transport"
)

// LocalStore serves sample drops from a directory tree; development and
// tests use it in place of the bucket.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// List walks the root and returns relative paths of files outside
// processed/, sorted for deterministic pickup order.
func (s *LocalStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if len(rel) >= len(processedPrefix) && rel[:len(processedPrefix)] == processedPrefix {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}
		keys = append(keys, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sample drops in %s: %w", s.root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Fetch reads one drop by its List key.
func (s *LocalStore) Fetch(ctx context.Context, key string) (*transport.RawSample, error) {
	full := filepath.Join(s.root, filepath.FromSlash(key))
	b, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ingest.ErrMissingInput, full)
		}
		return nil, fmt.Errorf("read sample drop %s: %w", key, err)
	}
	return &transport.RawSample{Bytes: b, Source: full, Transport: ingest.TransportFile}, nil
}

// Archive moves the drop into processed/ under its base name.
func (s *LocalStore) Archive(ctx context.Context, key string) error {
	destDir := filepath.Join(s.root, processedPrefix)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create processed dir: %w", err)
	}
	src := filepath.Join(s.root, filepath.FromSlash(key))
	dest := filepath.Join(destDir, filepath.Base(src))
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return nil
}
