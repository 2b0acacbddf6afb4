// Command whoistalking runs the speaker-attributed transcription service:
// audio uploads are hashed, diarized and transcribed concurrently, joined
// into a per-speaker transcript, cached by content hash, and announced over
// Redis pub/sub.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Edgar454/WhoIsTalking/internal/bus"
	"github.com/Edgar454/WhoIsTalking/internal/cache"
	"github.com/Edgar454/WhoIsTalking/internal/config"
	"github.com/Edgar454/WhoIsTalking/internal/diarization"
	"github.com/Edgar454/WhoIsTalking/internal/diarization/baseten"
	"github.com/Edgar454/WhoIsTalking/internal/diarization/pyannote"
	"github.com/Edgar454/WhoIsTalking/internal/jobs"
	"github.com/Edgar454/WhoIsTalking/internal/logger"
	"github.com/Edgar454/WhoIsTalking/internal/observability"
	"github.com/Edgar454/WhoIsTalking/internal/redis"
	"github.com/Edgar454/WhoIsTalking/internal/server"
	"github.com/Edgar454/WhoIsTalking/internal/transcription"
	"github.com/Edgar454/WhoIsTalking/internal/transcription/groq"
	"github.com/Edgar454/WhoIsTalking/internal/transcription/whisper"
)

const serviceName = "whoistalking"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return err
	}

	log := logger.New(&cfg.Logging, cfg.Base.Name)
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observability.Init(ctx, cfg.Observability, cfg.Base.Name, log)
	if err != nil {
		return fmt.Errorf("observability init: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	rdb, err := redis.New(cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("redis init: %w", err)
	}
	defer rdb.Close()

	if err := rdb.Ping(ctx); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	diarizer, transcriber, err := buildPredictors(cfg)
	if err != nil {
		return err
	}
	log.Info("Predictors configured", map[string]interface{}{
		"diarization":   diarizer.Name(),
		"transcription": transcriber.Name(),
	})

	store := cache.NewResultStore(rdb, cfg.Cache)
	notifier := bus.New(rdb, log)
	registry := jobs.NewRegistry()
	orchestrator := jobs.NewOrchestrator(store, diarizer, transcriber, cfg.Jobs.StrictPredictors, log, obs.Metrics)
	runner := jobs.NewRunner(cfg.Jobs, registry, orchestrator, notifier, log, obs.Metrics)

	runnerCtx, cancelRunner := context.WithCancel(context.Background())
	defer cancelRunner()
	runner.Start(runnerCtx)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	handler := server.NewHandler(cfg.Server, runner, registry, store, notifier, rdb, diarizer, transcriber, cfg.Base.Name, log)
	handler.Register(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Server stop failed", map[string]interface{}{"error": err.Error()})
	}
	runner.Stop()
	return nil
}

// buildPredictors registers the known backends and instantiates the
// configured pair.
func buildPredictors(cfg *config.Config) (diarization.Provider, transcription.Provider, error) {
	diarizers := diarization.NewRegistry()
	diarizers.RegisterFactory(baseten.ProviderName, baseten.Factory())
	diarizers.RegisterFactory(pyannote.ProviderName, pyannote.Factory())

	transcribers := transcription.NewRegistry()
	transcribers.RegisterFactory(groq.ProviderName, groq.Factory())
	transcribers.RegisterFactory(whisper.ProviderName, whisper.Factory())

	diarizer, err := diarizers.Create(cfg.Diarization.Provider, cfg.Diarization.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("diarization provider: %w", err)
	}
	transcriber, err := transcribers.Create(cfg.Transcription.Provider, cfg.Transcription.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("transcription provider: %w", err)
	}
	return diarizer, transcriber, nil
}
