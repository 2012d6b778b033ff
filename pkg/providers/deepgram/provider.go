// Package deepgram provides a Deepgram speech-to-text provider for the Go AI SDK.
// Deepgram offers low-latency streaming and batch transcription with word-level
// timestamps, used here as a fallback transcription source for the pipeline.
package deepgram

import (
	"fmt"

	"github.com/waveshift/subpipeline/pkg/internal/http"
	"github.com/waveshift/subpipeline/pkg/provider"
)

// Provider implements the provider.Provider interface for Deepgram
type Provider struct {
	config Config
	client *http.Client
}

// Config contains configuration for the Deepgram provider
type Config struct {
	// APIKey is the Deepgram API key
	APIKey string

	// BaseURL is the base URL for the Deepgram API (optional)
	BaseURL string
}

// New creates a new Deepgram provider with the given configuration
func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.deepgram.com"
	}

	client := http.NewClient(http.Config{
		BaseURL: baseURL,
		Headers: map[string]string{
			"Authorization": fmt.Sprintf("Token %s", cfg.APIKey),
		},
	})

	return &Provider{
		config: cfg,
		client: client,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "deepgram"
}

// SpeechModel returns a speech synthesis model by ID (not supported by Deepgram)
func (p *Provider) SpeechModel(modelID string) (provider.SpeechModel, error) {
	return nil, fmt.Errorf("deepgram does not support speech synthesis")
}

// TranscriptionModel returns a speech-to-text model by ID
func (p *Provider) TranscriptionModel(modelID string) (provider.TranscriptionModel, error) {
	if modelID == "" {
		modelID = "nova-2"
	}

	return NewTranscriptionModel(p, modelID), nil
}

// Client returns the HTTP client for making API requests
func (p *Provider) Client() *http.Client {
	return p.client
}
