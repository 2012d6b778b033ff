// Command pipelineserver runs the translation pipeline as an HTTP service:
// a chi router in front of the C9 orchestrator, backed by the store,
// object store, and model collaborator selected by the YAML config file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/waveshift/subpipeline/internal/config"
	"github.com/waveshift/subpipeline/pkg/clip"
	"github.com/waveshift/subpipeline/pkg/collaborators"
	"github.com/waveshift/subpipeline/pkg/objectstore"
	"github.com/waveshift/subpipeline/pkg/objectstore/memgateway"
	"github.com/waveshift/subpipeline/pkg/objectstore/s3gateway"
	"github.com/waveshift/subpipeline/pkg/orchestrator"
	"github.com/waveshift/subpipeline/pkg/provider"
	"github.com/waveshift/subpipeline/pkg/providers/assemblyai"
	"github.com/waveshift/subpipeline/pkg/providers/azure"
	"github.com/waveshift/subpipeline/pkg/providers/deepgram"
	"github.com/waveshift/subpipeline/pkg/providers/gladia"
	"github.com/waveshift/subpipeline/pkg/providers/openai"
	"github.com/waveshift/subpipeline/pkg/segmenter"
	"github.com/waveshift/subpipeline/pkg/store"
	"github.com/waveshift/subpipeline/pkg/store/memstore"
	"github.com/waveshift/subpipeline/pkg/store/postgres"
	"github.com/waveshift/subpipeline/pkg/telemetry"
)

func main() {
	configPath := os.Getenv("PIPELINE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("pipelineserver: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	o, shutdown, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		log.Fatalf("pipelineserver: %v", err)
	}
	defer shutdown(context.Background())

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	srv := &server{orchestrator: o}
	r.Get("/healthz", srv.handleHealth)
	r.Post("/jobs", srv.handleCreateJob)
	r.Get("/jobs/{taskID}", srv.handleGetJob)

	httpSrv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: r}
	go func() {
		log.Printf("pipelineserver: listening on %s", cfg.Server.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("pipelineserver: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}

type server struct {
	orchestrator *orchestrator.Orchestrator
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createJobRequest struct {
	TargetLanguage string `json:"target_language"`
	Style          string `json:"style"`
	AudioBlobKey   string `json:"audio_blob_key"`
}

func (s *server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.AudioBlobKey == "" || req.TargetLanguage == "" {
		http.Error(w, "audio_blob_key and target_language are required", http.StatusBadRequest)
		return
	}

	audio, err := s.orchestrator.Gateway.Get(r.Context(), req.AudioBlobKey)
	if err != nil {
		http.Error(w, fmt.Sprintf("reading audio_blob_key: %v", err), http.StatusBadRequest)
		return
	}

	taskID := uuid.NewString()
	transcriptionID := uuid.NewString()

	go func() {
		jobCtx := context.Background()
		if err := s.orchestrator.RunJob(jobCtx, orchestrator.JobInput{
			TaskID:          taskID,
			TranscriptionID: transcriptionID,
			TargetLanguage:  req.TargetLanguage,
			Style:           req.Style,
			Audio:           audio,
			AudioBlobKey:    req.AudioBlobKey,
		}); err != nil {
			log.Printf("pipelineserver: job %s failed: %v", taskID, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id":          taskID,
		"transcription_id": transcriptionID,
	})
}

func (s *server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	task, ok, err := s.orchestrator.Tasks.Get(r.Context(), taskID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// buildOrchestrator wires the store, object store, model collaborator, and
// telemetry provider selected by cfg, returning a shutdown func. The shutdown
// func shuts down the tracer provider when telemetry is enabled and does
// nothing otherwise; it does not close the store, object store, or model.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*orchestrator.Orchestrator, func(context.Context), error) {
	st, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	gw, err := buildGateway(cfg.ObjectStore)
	if err != nil {
		return nil, nil, err
	}

	streamer, err := buildStreamer(cfg.Model, cfg.Segmenter.MaxConcurrentRequests)
	if err != nil {
		return nil, nil, err
	}

	shutdown := func(context.Context) {}
	o := &orchestrator.Orchestrator{
		Store:        st,
		Gateway:      gw,
		Streamer:     streamer,
		ClipProducer: clip.New(),
		OutputPrefix: "clips",
		Tasks:        orchestrator.NewMemTaskStore(),
		Segmenter: segmenter.Config{
			GapDurationMS:          cfg.Segmenter.GapDurationMS,
			MaxDurationMS:          cfg.Segmenter.MaxDurationMS,
			MinDurationMS:          cfg.Segmenter.MinDurationMS,
			GapThresholdMultiplier: cfg.Segmenter.GapThresholdMultiplier,
			MaxConcurrentRequests:  cfg.Segmenter.MaxConcurrentRequests,
			PublicDomain:           cfg.Segmenter.PublicDomain,
		},
	}

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewOTLPTracerProvider(ctx, telemetry.ProviderConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		o.Tracer = telemetry.Tracer(tp)
		shutdown = func(ctx context.Context) { _ = tp.Shutdown(ctx) }
	}

	return o, shutdown, nil
}

func buildStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.NewStore(ctx, cfg.DSN)
	case "memory", "":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("pipelineserver: unrecognized store.driver %q", cfg.Driver)
	}
}

func buildGateway(cfg config.ObjectStoreConfig) (objectstore.Gateway, error) {
	switch cfg.Driver {
	case "s3":
		return s3gateway.New(s3gateway.Config{
			Region:       cfg.Region,
			Bucket:       cfg.Bucket,
			PublicDomain: cfg.PublicDomain,
		})
	case "memory", "":
		return memgateway.New(cfg.PublicDomain), nil
	default:
		return nil, fmt.Errorf("pipelineserver: unrecognized object_store.driver %q", cfg.Driver)
	}
}

// buildStreamer selects the model collaborator (C10). "http" talks to a
// server-sent-events endpoint that streams segments natively; every other
// provider name wraps a one-shot provider.TranscriptionModel with
// FallbackModelStreamer, replaying its timestamps as a synthetic stream.
func buildStreamer(cfg config.ModelConfig, maxConcurrentRequests int) (collaborators.ModelStreamer, error) {
	switch cfg.Provider {
	case "http", "":
		return collaborators.NewHTTPModelClient(cfg.BaseURL, cfg.APIKey, maxConcurrentRequests), nil
	case "assemblyai":
		return fallbackStreamer(assemblyai.New(assemblyai.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}), modelIDOrDefault(cfg, "best"))
	case "deepgram":
		return fallbackStreamer(deepgram.New(deepgram.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}), modelIDOrDefault(cfg, "nova-2"))
	case "gladia":
		return fallbackStreamer(gladia.New(gladia.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}), modelIDOrDefault(cfg, "default"))
	case "openai":
		return fallbackStreamer(openai.New(openai.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}), modelIDOrDefault(cfg, "whisper-1"))
	case "azure":
		// Azure has no universal default deployment name; cfg.ModelID is
		// required and, if empty, surfaces as an error from TranscriptionModel.
		return fallbackStreamer(azure.New(azure.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}), cfg.ModelID)
	default:
		return nil, fmt.Errorf("pipelineserver: unrecognized model.provider %q", cfg.Provider)
	}
}

// modelIDOrDefault lets a deployment override a provider's default model via
// model.model_id in config, falling back to the documented default.
func modelIDOrDefault(cfg config.ModelConfig, def string) string {
	if cfg.ModelID != "" {
		return cfg.ModelID
	}
	return def
}

// fallbackStreamer wraps any provider.Provider's named transcription model
// in FallbackModelStreamer, adapting its one-shot result into the
// per-segment ModelStreamer interface the orchestrator drives.
func fallbackStreamer(p provider.Provider, modelID string) (collaborators.ModelStreamer, error) {
	model, err := p.TranscriptionModel(modelID)
	if err != nil {
		return nil, fmt.Errorf("pipelineserver: %s: %w", p.Name(), err)
	}
	return &collaborators.FallbackModelStreamer{Model: model}, nil
}
