package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://localhost/onboarding?sslmode=disable"
  enabled: true

redis:
  addr: "localhost:6380"
  enabled: true

storage:
  type: "s3"
  s3_bucket: "partner-drops"
  s3_region: "us-west-2"

inference:
  enabled: true
  model_id: "anthropic.claude-3-sonnet-20240229-v1:0"
  region: "us-west-2"
  timeout_seconds: 90
  cache_ttl_minutes: 120

ingest:
  max_rows: 50
  schema_path: "./schemas/canonical_schema.json"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Test server config
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Test database config
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://localhost/onboarding?sslmode=disable", cfg.Database.URL)

	// Test redis config
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)

	// Test storage config
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "partner-drops", cfg.Storage.S3Bucket)
	assert.Equal(t, "us-west-2", cfg.Storage.S3Region)

	// Test inference config
	assert.True(t, cfg.Inference.Enabled)
	assert.Equal(t, 90, cfg.Inference.TimeoutSeconds)
	assert.Equal(t, 120, cfg.Inference.CacheTTLMinutes)

	// Test ingest config
	assert.Equal(t, 50, cfg.Ingest.MaxRows)
	assert.Equal(t, "./schemas/canonical_schema.json", cfg.Ingest.SchemaPath)
}

func TestLoadDefaults(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  type: "local"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Verify defaults are applied
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "./samples", cfg.Storage.LocalPath)
	assert.Equal(t, "us-east-1", cfg.Inference.Region)
	assert.Equal(t, 60, cfg.Inference.TimeoutSeconds)
	assert.Equal(t, 24*60, cfg.Inference.CacheTTLMinutes)
	assert.Equal(t, 200, cfg.Ingest.MaxRows)
	assert.Equal(t, "canonical_schema.json", cfg.Ingest.SchemaPath)
}

func TestLoadFromEnv(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  type: "local"
  local_path: "./file-samples"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Set environment variables
	os.Setenv("DATABASE_URL", "postgres://env-host/onboarding")
	os.Setenv("SAMPLES_S3_BUCKET", "env-drops")
	os.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0")
	os.Setenv("INGEST_MAX_ROWS", "25")
	defer func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("SAMPLES_S3_BUCKET")
		os.Unsetenv("BEDROCK_MODEL_ID")
		os.Unsetenv("INGEST_MAX_ROWS")
	}()

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	// Environment variables should override file values
	assert.Equal(t, "postgres://env-host/onboarding", cfg.Database.URL)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "s3", cfg.Storage.Type, "bucket override switches storage to s3")
	assert.Equal(t, "env-drops", cfg.Storage.S3Bucket)
	assert.True(t, cfg.Inference.Enabled)
	assert.Equal(t, 25, cfg.Ingest.MaxRows)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	cfg := InferenceConfig{TimeoutSeconds: 45}
	assert.Equal(t, 45*time.Second, cfg.Timeout())
}

func TestCacheTTL(t *testing.T) {
	cfg := InferenceConfig{CacheTTLMinutes: 120}
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL())
}
