package jobs

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/Edgar454/WhoIsTalking/internal/errors"

	"github.com/Edgar454/WhoIsTalking/internal/cache"
	"github.com/Edgar454/WhoIsTalking/internal/diarization"
	"github.com/Edgar454/WhoIsTalking/internal/logger"
	"github.com/Edgar454/WhoIsTalking/internal/observability"
	"github.com/Edgar454/WhoIsTalking/internal/transcript"
	"github.com/Edgar454/WhoIsTalking/internal/transcription"
)

// Orchestrator runs the processing pipeline for one audio submission: cache
// lookup, concurrent diarization and transcription, the alignment join, and
// the cache write.
type Orchestrator struct {
	cache       *cache.ResultStore
	diarizer    diarization.Provider
	transcriber transcription.Provider
	strict      bool
	log         *logger.Logger
	metrics     *observability.Metrics
}

// NewOrchestrator wires the orchestrator. With strict false (the default) a
// failed predictor branch degrades to an empty result; with strict true the
// branch error fails the whole job. metrics may be nil.
func NewOrchestrator(
	store *cache.ResultStore,
	diarizer diarization.Provider,
	transcriber transcription.Provider,
	strict bool,
	log *logger.Logger,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		cache:       store,
		diarizer:    diarizer,
		transcriber: transcriber,
		strict:      strict,
		log:         log.WithComponent("orchestrator"),
		metrics:     metrics,
	}
}

// Process produces the joined result for the given audio content.
//
// A cache hit returns immediately without touching either predictor, which
// is the content-addressed dedup guarantee: at most one diarization plus
// transcription round trip per distinct audio content. On a miss both
// predictors run concurrently and the join waits for both branches
// (barrier, no early exit), then the result is cached and returned. A cache
// failure is returned to the caller so the runner's retry bound applies.
func (o *Orchestrator) Process(ctx context.Context, fileHash string, audio []byte, filename string) (*transcript.JoinedResult, error) {
	ctx, span := observability.StartSpan(ctx, "job.process")
	defer span.End()

	cached, err := o.cache.Load(ctx, fileHash)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, apperrors.CacheError(err)
	}
	if cached != nil {
		o.log.Info("Cached result found, skipping predictors", map[string]interface{}{
			logger.FieldFileHash: fileHash,
		})
		o.metrics.RecordCacheLookup(ctx, "hit")
		return cached, nil
	}
	o.metrics.RecordCacheLookup(ctx, "miss")

	diar, chunks, err := o.predict(ctx, audio, filename)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	result := &transcript.JoinedResult{
		FileHash:          fileHash,
		Diarization:       diar,
		SpeakerTranscript: transcript.Join(diar, chunks),
	}

	if err := o.cache.Save(ctx, result); err != nil {
		observability.SetSpanError(ctx, err)
		return nil, apperrors.CacheError(err)
	}

	o.log.Info("Processing completed", map[string]interface{}{
		logger.FieldFileHash: fileHash,
		"speakers":           len(diar),
		"chunks":             len(chunks),
	})
	return result, nil
}

// predict fans out to both predictors and joins on both completions.
func (o *Orchestrator) predict(ctx context.Context, audio []byte, filename string) (transcript.Diarization, []transcript.Chunk, error) {
	var (
		wg    sync.WaitGroup
		dresp *diarization.Response
		derr  error
		tresp *transcription.Response
		terr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		dctx, span := observability.StartSpan(ctx, "predictor.diarize")
		defer span.End()
		dresp, derr = o.diarizer.Diarize(dctx, diarization.Request{Audio: audio})
	}()
	go func() {
		defer wg.Done()
		tctx, span := observability.StartSpan(ctx, "predictor.transcribe")
		defer span.End()
		tresp, terr = o.transcriber.Transcribe(tctx, transcription.Request{Audio: audio, Filename: filename})
	}()
	wg.Wait()

	diar, err := o.diarizationBranch(ctx, dresp, derr)
	if err != nil {
		return nil, nil, err
	}
	chunks, err := o.transcriptionBranch(ctx, tresp, terr)
	if err != nil {
		return nil, nil, err
	}
	return diar, chunks, nil
}

func (o *Orchestrator) diarizationBranch(ctx context.Context, resp *diarization.Response, err error) (transcript.Diarization, error) {
	if err == nil && resp == nil {
		err = errors.New("diarizer returned no response")
	}
	if err == nil {
		o.metrics.RecordPredictorCall(ctx, "diarization", "ok")
		return resp.Speakers, nil
	}
	o.metrics.RecordPredictorCall(ctx, "diarization", "error")
	if o.strict {
		return nil, apperrors.ExternalServiceError("diarization", err)
	}
	o.log.Warn("Diarization failed, degrading to empty result", logger.ErrorFields("diarize", err))
	return transcript.Diarization{}, nil
}

func (o *Orchestrator) transcriptionBranch(ctx context.Context, resp *transcription.Response, err error) ([]transcript.Chunk, error) {
	if err == nil && resp == nil {
		err = errors.New("transcriber returned no response")
	}
	if err == nil {
		o.metrics.RecordPredictorCall(ctx, "transcription", "ok")
		return resp.Chunks, nil
	}
	o.metrics.RecordPredictorCall(ctx, "transcription", "error")
	if o.strict {
		return nil, apperrors.ExternalServiceError("transcription", err)
	}
	o.log.Warn("Transcription failed, degrading to empty result", logger.ErrorFields("transcribe", err))
	return nil, nil
}
