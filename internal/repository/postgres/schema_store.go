// Package postgres persists partner onboarding state: the field schemas
// extracted per partner, the mapping sets in force, and the history of
// transform runs with their validation results.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/bechidu/partner-sync-ai/internal/canonical"
	"github.com/bechidu/partner-sync-ai/internal/inference"
	"github.com/bechidu/partner-sync-ai/internal/pkg/logger"
)

// ErrNotFound reports a lookup for a partner with no stored state.
var ErrNotFound = errors.New("partner record not found")

// Store wraps the onboarding tables.
type Store struct {
	db *sql.DB
}

// Open connects to postgres and applies idempotent schema setup.
func Open(url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Store{db: db}
	s.ensureSchema()
	return s, nil
}

// NewWithDB wraps an existing connection; tests use this with sqlmock.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying connection for advisory locking.
func (s *Store) DB() *sql.DB { return s.db }

// ensureSchema applies idempotent schema setup. Failures are logged and
// tolerated so a read-only credential can still serve queries.
func (s *Store) ensureSchema() {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS partner_schemas (
			id UUID PRIMARY KEY,
			partner_name TEXT NOT NULL UNIQUE,
			transport TEXT NOT NULL DEFAULT 'file',
			field_doc JSONB NOT NULL,
			mapping_set JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transform_runs (
			id UUID PRIMARY KEY,
			partner_name TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			record_count INTEGER NOT NULL DEFAULT 0,
			valid_count INTEGER NOT NULL DEFAULT 0,
			results JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transform_runs_partner ON transform_runs (partner_name, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			logger.Warn("schema setup (non-fatal)", "error", err)
		}
	}
}

// SaveSchema upserts a partner's extracted field document and current
// mapping set.
func (s *Store) SaveSchema(ctx context.Context, doc *inference.FieldDocument, mappings canonical.MappingSet) (string, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal field doc: %w", err)
	}
	mapJSON, err := json.Marshal(mappings)
	if err != nil {
		return "", fmt.Errorf("marshal mapping set: %w", err)
	}

	id := uuid.New().String()
	var storedID string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO partner_schemas (id, partner_name, transport, field_doc, mapping_set)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (partner_name) DO UPDATE
		SET transport = EXCLUDED.transport,
		    field_doc = EXCLUDED.field_doc,
		    mapping_set = EXCLUDED.mapping_set,
		    updated_at = NOW()
		RETURNING id`,
		id, doc.PartnerName, doc.Transport, docJSON, mapJSON,
	).Scan(&storedID)
	if err != nil {
		return "", fmt.Errorf("save partner schema: %w", err)
	}
	return storedID, nil
}

// LoadSchema returns the stored field document and mapping set for a
// partner.
func (s *Store) LoadSchema(ctx context.Context, partnerName string) (*inference.FieldDocument, canonical.MappingSet, error) {
	var docJSON, mapJSON []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT field_doc, mapping_set FROM partner_schemas WHERE partner_name = $1`,
		partnerName,
	).Scan(&docJSON, &mapJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, partnerName)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load partner schema: %w", err)
	}

	var doc inference.FieldDocument
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode field doc: %w", err)
	}
	var mappings canonical.MappingSet
	if len(mapJSON) > 0 {
		if err := json.Unmarshal(mapJSON, &mappings); err != nil {
			return nil, nil, fmt.Errorf("decode mapping set: %w", err)
		}
	}
	return &doc, mappings, nil
}

// Run is one recorded transform-and-validate pass.
type Run struct {
	ID          string                       `json:"id"`
	PartnerName string                       `json:"partner_name"`
	Source      string                       `json:"source"`
	RecordCount int                          `json:"record_count"`
	ValidCount  int                          `json:"valid_count"`
	Results     []canonical.ValidationResult `json:"results,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
}

// SaveRun records a transform run and its validation results.
func (s *Store) SaveRun(ctx context.Context, partnerName, source string, results []canonical.ValidationResult) (string, error) {
	valid := 0
	for _, r := range results {
		if r.Valid {
			valid++
		}
	}
	resJSON, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("marshal run results: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transform_runs (id, partner_name, source, record_count, valid_count, results)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, partnerName, source, len(results), valid, resJSON,
	)
	if err != nil {
		return "", fmt.Errorf("save transform run: %w", err)
	}
	return id, nil
}

// ListRuns returns recent runs for a partner, newest first, without the
// full per-record results.
func (s *Store) ListRuns(ctx context.Context, partnerName string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, partner_name, source, record_count, valid_count, created_at
		FROM transform_runs
		WHERE partner_name = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		partnerName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transform runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.PartnerName, &r.Source, &r.RecordCount, &r.ValidCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transform run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
