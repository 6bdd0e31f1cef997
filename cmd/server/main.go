package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bechidu/partner-sync-ai/internal/api"
	"github.com/bechidu/partner-sync-ai/internal/canonical"
	"github.com/bechidu/partner-sync-ai/internal/config"
	"github.com/bechidu/partner-sync-ai/internal/inference"
	"github.com/bechidu/partner-sync-ai/internal/ingest"
	"github.com/bechidu/partner-sync-ai/internal/pkg/distlock"
	"github.com/bechidu/partner-sync-ai/internal/pkg/logger"
	"github.com/bechidu/partner-sync-ai/internal/repository/postgres"
	"github.com/bechidu/partner-sync-ai/internal/storage"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	if cfg.Log.RedactPII != nil {
		logger.SetRedactPII(*cfg.Log.RedactPII)
	}

	schema, err := canonical.LoadSchema(cfg.Ingest.SchemaPath)
	if err != nil {
		log.Fatalf("Failed to load canonical schema: %v", err)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store *postgres.Store
	if cfg.Database.Enabled {
		store, err = postgres.Open(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer store.Close()
		logger.Info("postgres connected")
	} else {
		logger.Info("postgres not configured, run history disabled")
	}

	var model *inference.Client
	if cfg.Inference.Enabled {
		model, err = inference.New(ctx, cfg.Inference.Region, cfg.Inference.ModelID, cfg.Inference.Timeout())
		if err != nil {
			log.Fatalf("Failed to initialize inference client: %v", err)
		}
	} else {
		logger.Info("inference not configured, heuristic mapping only")
	}

	var rdb *redis.Client
	var cache *inference.SuggestionCache
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		cache = inference.NewSuggestionCache(rdb, cfg.Inference.CacheTTL())
		logger.Info("redis suggestion cache enabled", "addr", cfg.Redis.Addr)
	}

	samples, err := newSampleStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize sample store: %v", err)
	}
	if samples != nil && store != nil {
		lock := distlock.NewLock(rdb, store.DB(), "sample-sweep", sweepInterval)
		go sweepSamples(ctx, lock, samples, store, schema, cfg.Ingest.MaxRows)
	}

	var suggester api.InferenceModel
	if model != nil {
		suggester = model
	}
	handlers := api.NewHandlers(schema, suggester, cache, storeOrNil(store), cfg.Ingest.MaxRows)
	server := api.NewServer(handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

// storeOrNil keeps a typed-nil *postgres.Store out of the handlers'
// interface field.
func storeOrNil(s *postgres.Store) api.OnboardingStore {
	if s == nil {
		return nil
	}
	return s
}

func newSampleStore(ctx context.Context, cfg config.StorageConfig) (storage.SampleStore, error) {
	switch cfg.Type {
	case "s3":
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.GetAWSProfile())
	case "local":
		if cfg.LocalPath == "" {
			return nil, nil
		}
		return storage.NewLocalStore(cfg.LocalPath), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}

const sweepInterval = 5 * time.Minute

// sweepSamples polls the sample store for newly dropped partner files.
// Files land under a per-partner prefix; when that partner already has a
// saved mapping set, the file is transformed, validated and recorded as a
// run, then archived. Files for unknown partners are left in place for
// manual onboarding. The distributed lock keeps multiple instances from
// double-processing the same drop.
func sweepSamples(ctx context.Context, lock distlock.DistLock, samples storage.SampleStore, store *postgres.Store, schema *canonical.Schema, maxRows int) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		if ok, err := lock.Acquire(ctx); err != nil {
			logger.Warn("sample sweep lock error", "error", err)
		} else if ok {
			sweepOnce(ctx, samples, store, schema, maxRows)
			if err := lock.Release(ctx); err != nil {
				logger.Warn("sample sweep lock release failed", "error", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweepOnce(ctx context.Context, samples storage.SampleStore, store *postgres.Store, schema *canonical.Schema, maxRows int) {
	keys, err := samples.List(ctx)
	if err != nil {
		logger.Warn("sample sweep list failed", "error", err)
		return
	}

	for _, key := range keys {
		partner := partnerFromKey(key)
		if partner == "" {
			continue
		}
		_, mappings, err := store.LoadSchema(ctx, partner)
		if err != nil {
			if !errors.Is(err, postgres.ErrNotFound) {
				logger.Warn("sample sweep schema lookup failed", "partner", partner, "error", err)
			}
			continue
		}

		raw, err := samples.Fetch(ctx, key)
		if err != nil {
			logger.Warn("sample sweep fetch failed", "key", key, "error", err)
			continue
		}
		set := ingest.ParseBytes(raw.Bytes, ingest.Options{MaxRows: maxRows})
		docs := canonical.Build(set, mappings)
		results := canonical.ValidateAll(docs, schema)

		runID, err := store.SaveRun(ctx, partner, raw.Source, results)
		if err != nil {
			logger.Warn("sample sweep run not recorded", "key", key, "error", err)
			continue
		}
		if err := samples.Archive(ctx, key); err != nil {
			logger.Warn("sample sweep archive failed", "key", key, "error", err)
		}
		logger.Info("sample processed", "partner", partner, "key", key, "run_id", runID, "records", len(results))
	}
}

// partnerFromKey maps "acme/2026-08-30.csv" to "acme". Top-level files
// have no partner and are skipped.
func partnerFromKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	i := strings.IndexByte(key, '/')
	if i <= 0 {
		return ""
	}
	return key[:i]
}
