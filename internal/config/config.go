// Package config provides the root configuration schema and YAML loader for
// the translation pipeline server, grounded on MrWong99-glyphoxa's
// internal/config package.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure, read once at process start.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Model       ModelConfig       `yaml:"model"`
	Segmenter   SegmenterConfig   `yaml:"segmenter"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// ServerConfig holds the pipeline's HTTP listen settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// StoreConfig selects and configures the durable transcript store (C4).
type StoreConfig struct {
	// Driver is "postgres" or "memory". "memory" is for local runs and
	// example servers only.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ObjectStoreConfig selects and configures the object store gateway (C8).
type ObjectStoreConfig struct {
	// Driver is "s3" or "memory".
	Driver       string `yaml:"driver"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	PublicDomain string `yaml:"public_domain"`
}

// ModelConfig configures the external transcription/translation collaborator
// (C10) and its rate limit.
type ModelConfig struct {
	Provider          string  `yaml:"provider"`
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	// ModelID selects the provider's model/deployment when the provider has
	// no sensible universal default (e.g. Azure's customer-specific
	// deployment name). Providers with a documented default model fall back
	// to it when ModelID is empty.
	ModelID           string  `yaml:"model_id"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// SegmenterConfig carries the segmenter's tunables, read once at job
// start and never reloaded at runtime.
type SegmenterConfig struct {
	GapDurationMS          int64  `yaml:"gap_duration_ms"`
	MaxDurationMS          int64  `yaml:"max_duration_ms"`
	MinDurationMS          int64  `yaml:"min_duration_ms"`
	GapThresholdMultiplier int64  `yaml:"gap_threshold_multiplier"`
	MaxConcurrentRequests  int    `yaml:"max_concurrent_requests"`
	PublicDomain           string `yaml:"public_domain"`
}

// TelemetryConfig configures the OpenTelemetry exporter used by the
// orchestrator's job spans.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Load reads and validates the YAML configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are literal strings.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Segmenter.GapDurationMS == 0 {
		cfg.Segmenter.GapDurationMS = 500
	}
	if cfg.Segmenter.MaxDurationMS == 0 {
		cfg.Segmenter.MaxDurationMS = 12000
	}
	if cfg.Segmenter.MinDurationMS == 0 {
		cfg.Segmenter.MinDurationMS = 1000
	}
	if cfg.Segmenter.GapThresholdMultiplier == 0 {
		cfg.Segmenter.GapThresholdMultiplier = 3
	}
	if cfg.Segmenter.MaxConcurrentRequests == 0 {
		cfg.Segmenter.MaxConcurrentRequests = 1
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
}

// Validate checks that cfg contains a coherent set of values, returning a
// joined error listing every failure found.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required when store.driver is %q", "postgres"))
		}
	case "memory", "":
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not recognized", cfg.Store.Driver))
	}

	switch cfg.ObjectStore.Driver {
	case "s3":
		if cfg.ObjectStore.Bucket == "" {
			errs = append(errs, fmt.Errorf("object_store.bucket is required when object_store.driver is %q", "s3"))
		}
	case "memory", "":
	default:
		errs = append(errs, fmt.Errorf("object_store.driver %q is not recognized", cfg.ObjectStore.Driver))
	}

	if cfg.Segmenter.MinDurationMS > cfg.Segmenter.MaxDurationMS {
		errs = append(errs, fmt.Errorf("segmenter.min_duration_ms (%d) must not exceed segmenter.max_duration_ms (%d)",
			cfg.Segmenter.MinDurationMS, cfg.Segmenter.MaxDurationMS))
	}

	if cfg.Segmenter.MaxConcurrentRequests < 0 {
		errs = append(errs, fmt.Errorf("segmenter.max_concurrent_requests must be >= 0"))
	}

	if len(errs) == 0 {
		return nil
	}
	joined := errs[0]
	for _, e := range errs[1:] {
		joined = fmt.Errorf("%w; %w", joined, e)
	}
	return joined
}
