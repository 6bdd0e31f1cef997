// Package api exposes the partner onboarding pipeline over HTTP: sample
// parsing, mapping suggestion, transform-and-validate, and run history.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bechidu/partner-sync-ai/internal/canonical"
	"github.com/bechidu/partner-sync-ai/internal/inference"
	"github.com/bechidu/partner-sync-ai/internal/ingest"
	"github.com/bechidu/partner-sync-ai/internal/mapping"
	"github.com/bechidu/partner-sync-ai/internal/pkg/httputil"
	"github.com/bechidu/partner-sync-ai/internal/pkg/logger"
	"github.com/bechidu/partner-sync-ai/internal/repository/postgres"
	"github.com/bechidu/partner-sync-ai/internal/transport"
)

// InferenceModel is the surface the onboarding endpoints need from the
// Bedrock client; tests stub it.
type InferenceModel interface {
	ExtractFields(ctx context.Context, partnerName string, transport ingest.Transport, fileURL string, records []ingest.Record) (*inference.FieldDocument, error)
	SuggestMappings(ctx context.Context, partnerName string, fields []inference.PartnerField, leaves []string) (canonical.MappingSet, error)
}

// OnboardingStore is the persistence surface for partner schemas and
// transform runs.
type OnboardingStore interface {
	SaveSchema(ctx context.Context, doc *inference.FieldDocument, mappings canonical.MappingSet) (string, error)
	LoadSchema(ctx context.Context, partnerName string) (*inference.FieldDocument, canonical.MappingSet, error)
	SaveRun(ctx context.Context, partnerName, source string, results []canonical.ValidationResult) (string, error)
	ListRuns(ctx context.Context, partnerName string, limit int) ([]postgres.Run, error)
}

// Handlers carries the wired pipeline components. The model, cache and
// store may be nil; endpoints that need them report that instead of
// failing at startup.
type Handlers struct {
	schema  *canonical.Schema
	model   InferenceModel
	cache   *inference.SuggestionCache
	store   OnboardingStore
	maxRows int
	started time.Time
}

// NewHandlers wires the pipeline into the HTTP layer.
func NewHandlers(schema *canonical.Schema, model InferenceModel, cache *inference.SuggestionCache, store OnboardingStore, maxRows int) *Handlers {
	if maxRows <= 0 {
		maxRows = ingest.DefaultMaxRows
	}
	return &Handlers{
		schema:  schema,
		model:   model,
		cache:   cache,
		store:   store,
		maxRows: maxRows,
		started: time.Now(),
	}
}

// HandleHealth reports liveness and which optional components are wired.
//
//	GET /health
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).Truncate(time.Second).String(),
		"inference": h.model != nil,
		"database":  h.store != nil,
	})
}

type parseRequest struct {
	PartnerName string `json:"partner_name"`
	Transport   string `json:"transport"`
	Content     string `json:"content"`
	MaxRows     int    `json:"max_rows"`
}

type parseResponse struct {
	PartnerName string          `json:"partner_name,omitempty"`
	Transport   string          `json:"transport"`
	RecordCount int             `json:"record_count"`
	Fields      []string        `json:"fields"`
	Records     []ingest.Record `json:"records"`
}

// HandleParseSample parses an inline sample into records. Accepts a JSON
// body, or a multipart upload with the sample under "file".
//
//	POST /api/samples/parse
func (h *Handlers) HandleParseSample(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	var raw []byte

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			httputil.BadRequest(w, "multipart upload needs a \"file\" part")
			return
		}
		defer file.Close()
		raw, err = io.ReadAll(file)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		req.PartnerName = r.FormValue("partner_name")
		req.Transport = r.FormValue("transport")
		req.MaxRows, _ = strconv.Atoi(r.FormValue("max_rows"))
	} else {
		if !httputil.Decode(w, r, &req) {
			return
		}
		raw = []byte(req.Content)
	}
	if len(raw) == 0 {
		httputil.BadRequest(w, "empty sample content")
		return
	}

	maxRows := req.MaxRows
	if maxRows <= 0 || maxRows > h.maxRows {
		maxRows = h.maxRows
	}
	set := ingest.ParseBytes(raw, ingest.Options{
		MaxRows:   maxRows,
		Transport: ingest.Transport(req.Transport),
	})

	httputil.OK(w, parseResponse{
		PartnerName: req.PartnerName,
		Transport:   string(set.Transport),
		RecordCount: len(set.Records),
		Fields:      sampleFields(set.Records),
		Records:     set.Records,
	})
}

// HandleSchemaLeaves lists the canonical schema's scalar paths.
//
//	GET /api/schema/leaves
func (h *Handlers) HandleSchemaLeaves(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"leaves": h.schema.Leaves()})
}

type suggestRequest struct {
	PartnerName string                   `json:"partner_name"`
	Fields      []string                 `json:"fields"`
	FieldDocs   []inference.PartnerField `json:"field_docs"`
}

// HandleSuggestMappings proposes a mapping set for the given partner
// fields. The default engine is the keyword table; ?engine=model routes
// through Bedrock with the Redis cache in front.
//
//	POST /api/mappings/suggest?engine=heuristic|model
func (h *Handlers) HandleSuggestMappings(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	fields := req.FieldDocs
	for _, name := range req.Fields {
		fields = append(fields, inference.PartnerField{PartnerField: name})
	}
	if len(fields) == 0 {
		httputil.BadRequest(w, "no fields to map")
		return
	}

	engine := r.URL.Query().Get("engine")
	if engine == "" {
		engine = "heuristic"
	}

	switch engine {
	case "heuristic":
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.PartnerField
		}
		httputil.OK(w, map[string]any{
			"engine":   engine,
			"mappings": mapping.Suggest(names),
		})
	case "model":
		if h.model == nil {
			httputil.Error(w, http.StatusServiceUnavailable, "model engine not configured")
			return
		}
		set, cached, err := h.modelSuggest(r.Context(), req.PartnerName, fields)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		httputil.OK(w, map[string]any{
			"engine":   engine,
			"cached":   cached,
			"mappings": set,
		})
	default:
		httputil.BadRequest(w, "unknown engine: "+engine)
	}
}

func (h *Handlers) modelSuggest(ctx context.Context, partnerName string, fields []inference.PartnerField) (canonical.MappingSet, bool, error) {
	leaves := h.schema.Leaves()

	var key string
	if h.cache != nil {
		key = h.cache.Key(fields, leaves)
		if set, hit := h.cache.Get(ctx, key); hit {
			return set, true, nil
		}
	}

	set, err := h.model.SuggestMappings(ctx, partnerName, fields, leaves)
	if err != nil {
		return nil, false, err
	}
	if h.cache != nil {
		if err := h.cache.Put(ctx, key, set); err != nil {
			logger.Warn("suggestion cache write failed", "error", err)
		}
	}
	return set, false, nil
}

type transformRequest struct {
	PartnerName string               `json:"partner_name"`
	Source      string               `json:"source"`
	Records     []ingest.Record      `json:"records"`
	Content     string               `json:"content"`
	Mappings    canonical.MappingSet `json:"mappings"`
}

// HandleTransform builds canonical documents from records plus a mapping
// set and validates them against the schema. Raw content is accepted in
// place of parsed records.
//
//	POST /api/transform
func (h *Handlers) HandleTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Mappings) == 0 {
		httputil.BadRequest(w, "mappings are required")
		return
	}

	set := &ingest.SampleSet{Records: req.Records}
	if len(req.Records) == 0 {
		if req.Content == "" {
			httputil.BadRequest(w, "either records or content is required")
			return
		}
		set = ingest.ParseText(req.Content, ingest.Options{MaxRows: h.maxRows})
	}

	docs := canonical.Build(set, req.Mappings)
	results := canonical.ValidateAll(docs, h.schema)

	valid := 0
	for _, res := range results {
		if res.Valid {
			valid++
		}
	}

	resp := map[string]any{
		"record_count": len(results),
		"valid_count":  valid,
		"results":      results,
	}
	if h.store != nil && req.PartnerName != "" {
		runID, err := h.store.SaveRun(r.Context(), req.PartnerName, req.Source, results)
		if err != nil {
			logger.Warn("transform run not recorded", "partner", req.PartnerName, "error", err)
		} else {
			resp["run_id"] = runID
		}
	}
	httputil.OK(w, resp)
}

type saveSchemaRequest struct {
	PartnerName string               `json:"partner_name"`
	Transport   string               `json:"transport"`
	FileURL     string               `json:"file_url"`
	Content     string               `json:"content"`
	Records     []ingest.Record      `json:"records"`
	Mappings    canonical.MappingSet `json:"mappings"`
}

// HandleSaveSchema onboards a partner: derive a field document from the
// sample records (through the model when configured, locally otherwise),
// fill in missing mappings, and persist both. Re-posting the same partner
// replaces the stored document.
//
//	POST /api/schemas
func (h *Handlers) HandleSaveSchema(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "schema store not configured")
		return
	}
	var req saveSchemaRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.PartnerName == "" {
		httputil.BadRequest(w, "partner_name is required")
		return
	}

	records := req.Records
	if len(records) == 0 {
		if req.Content == "" {
			httputil.BadRequest(w, "either records or content is required")
			return
		}
		records = ingest.ParseText(req.Content, ingest.Options{MaxRows: h.maxRows}).Records
	}
	if len(records) == 0 {
		httputil.UnprocessableEntity(w, "no records could be parsed from the sample", nil)
		return
	}

	tr := ingest.Transport(req.Transport)
	var doc *inference.FieldDocument
	var err error
	if h.model != nil {
		doc, err = h.model.ExtractFields(r.Context(), req.PartnerName, tr, req.FileURL, records)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
	} else {
		doc = localFieldDocument(req.PartnerName, tr, req.FileURL, records)
	}

	mappings := req.Mappings
	if len(mappings) == 0 {
		names := make([]string, len(doc.Fields))
		for i, f := range doc.Fields {
			names[i] = f.PartnerField
		}
		mappings = mapping.Suggest(names)
	}

	id, err := h.store.SaveSchema(r.Context(), doc, mappings)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	logger.Info("partner schema saved", "partner", req.PartnerName, "fields", len(doc.Fields), "mappings", len(mappings))
	httputil.Created(w, map[string]any{
		"id":           id,
		"partner_name": doc.PartnerName,
		"field_doc":    doc,
		"mappings":     mappings,
	})
}

// HandleGetSchema returns a partner's stored field document and mappings.
//
//	GET /api/schemas/{partner}
func (h *Handlers) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "schema store not configured")
		return
	}
	partner := chi.URLParam(r, "partner")
	doc, mappings, err := h.store.LoadSchema(r.Context(), partner)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			httputil.NotFound(w, "no schema for partner "+partner)
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"partner_name": partner,
		"field_doc":    doc,
		"mappings":     mappings,
	})
}

// localFieldDocument builds a Stage-1 style field document without the
// model, typing each field from its first observed value.
func localFieldDocument(partnerName string, tr ingest.Transport, fileURL string, records []ingest.Record) *inference.FieldDocument {
	flat := ingest.Flatten(records[0])
	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]inference.PartnerField, len(names))
	for i, name := range names {
		fields[i] = inference.PartnerField{
			PartnerField: mapping.NormalizeFieldName(name),
			InferredType: inferredType(flat[name]),
			ExampleValue: flat[name],
			Confidence:   0.5,
		}
	}
	return &inference.FieldDocument{
		PartnerName: partnerName,
		Transport:   string(tr),
		Source:      inference.FieldSource{FileURL: fileURL},
		Fields:      fields,
		Notes:       "field document derived locally without model inference",
	}
}

func inferredType(v any) string {
	switch v.(type) {
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "string"
	}
}

// HandleListRuns returns recent transform runs for a partner.
//
//	GET /api/runs?partner=acme&limit=20
func (h *Handlers) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}
	partner := r.URL.Query().Get("partner")
	if partner == "" {
		httputil.BadRequest(w, "partner query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.store.ListRuns(r.Context(), partner, limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"partner": partner, "runs": runs})
}

// HandleWebhookSample accepts a pushed sample body and parses it.
//
//	POST /api/webhook/sample?partner=acme
func (h *Handlers) HandleWebhookSample(w http.ResponseWriter, r *http.Request) {
	sample, err := transport.FromRequest(r)
	if err != nil {
		if errors.Is(err, ingest.ErrMissingInput) {
			httputil.BadRequest(w, "empty webhook body")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	set := ingest.ParseBytes(sample.Bytes, ingest.Options{
		MaxRows:   h.maxRows,
		Transport: ingest.TransportWebhook,
	})
	logger.Info("webhook sample received",
		"partner", r.URL.Query().Get("partner"),
		"source", sample.Source,
		"records", len(set.Records))

	httputil.OK(w, parseResponse{
		PartnerName: r.URL.Query().Get("partner"),
		Transport:   string(set.Transport),
		RecordCount: len(set.Records),
		Fields:      sampleFields(set.Records),
		Records:     set.Records,
	})
}

// sampleFields collects the flattened field names of the first record,
// which is what the mapping endpoints take as input.
func sampleFields(records []ingest.Record) []string {
	if len(records) == 0 {
		return nil
	}
	flat := ingest.Flatten(records[0])
	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
