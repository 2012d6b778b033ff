package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveshift/subpipeline/internal/config"
)

const sampleYAML = `
server:
  listen_addr: ":9090"
store:
  driver: postgres
  dsn: "postgres://localhost/pipeline"
object_store:
  driver: s3
  region: us-east-1
  bucket: clips-bucket
  public_domain: clips.example.com
model:
  provider: openai
  api_key: sk-test
  requests_per_second: 5
segmenter:
  gap_duration_ms: 500
  max_duration_ms: 12000
  min_duration_ms: 1000
  gap_threshold_multiplier: 3
  max_concurrent_requests: 2
telemetry:
  enabled: true
  service_name: subpipeline
`

func TestLoadFromReader_ValidConfig(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "clips-bucket", cfg.ObjectStore.Bucket)
	assert.Equal(t, int64(3), cfg.Segmenter.GapThresholdMultiplier)
}

func TestLoadFromReader_DefaultsAppliedForSegmenter(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, int64(500), cfg.Segmenter.GapDurationMS)
	assert.Equal(t, int64(12000), cfg.Segmenter.MaxDurationMS)
	assert.Equal(t, int64(1000), cfg.Segmenter.MinDurationMS)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
}

func TestLoadFromReader_PostgresDriverRequiresDSN(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("store:\n  driver: postgres\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.dsn is required")
}

func TestLoadFromReader_S3DriverRequiresBucket(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("object_store:\n  driver: s3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object_store.bucket is required")
}

func TestLoadFromReader_MinExceedsMaxIsInvalid(t *testing.T) {
	yaml := "segmenter:\n  min_duration_ms: 20000\n  max_duration_ms: 12000\n"
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not exceed")
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("not_a_real_field: true\n"))
	assert.Error(t, err)
}
