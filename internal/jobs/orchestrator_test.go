package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/Edgar454/WhoIsTalking/internal/cache"
	"github.com/Edgar454/WhoIsTalking/internal/diarization"
	"github.com/Edgar454/WhoIsTalking/internal/logger"
	"github.com/Edgar454/WhoIsTalking/internal/redis"
	"github.com/Edgar454/WhoIsTalking/internal/transcript"
	"github.com/Edgar454/WhoIsTalking/internal/transcription"
)

// fakeDiarizer is a diarization.Provider with canned output and a call counter.
type fakeDiarizer struct {
	mu    sync.Mutex
	calls int
	resp  *diarization.Response
	err   error
}

func (f *fakeDiarizer) Name() string                        { return "fake-diarizer" }
func (f *fakeDiarizer) IsAvailable(_ context.Context) bool  { return true }
func (f *fakeDiarizer) callCount() int                      { f.mu.Lock(); defer f.mu.Unlock(); return f.calls }
func (f *fakeDiarizer) Diarize(_ context.Context, _ diarization.Request) (*diarization.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.resp, f.err
}

// fakeTranscriber is a transcription.Provider with canned output and a call counter.
type fakeTranscriber struct {
	mu    sync.Mutex
	calls int
	resp  *transcription.Response
	err   error
}

func (f *fakeTranscriber) Name() string                       { return "fake-transcriber" }
func (f *fakeTranscriber) IsAvailable(_ context.Context) bool { return true }
func (f *fakeTranscriber) callCount() int                     { f.mu.Lock(); defer f.mu.Unlock(); return f.calls }
func (f *fakeTranscriber) Transcribe(_ context.Context, _ transcription.Request) (*transcription.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.resp, f.err
}

func happyDiarizer() *fakeDiarizer {
	return &fakeDiarizer{
		resp: &diarization.Response{
			Speakers: transcript.Diarization{
				"SPEAKER_00": {{Start: 0, End: 5}},
				"SPEAKER_01": {{Start: 5, End: 10}},
			},
			NumSpeakers: 2,
		},
	}
}

func happyTranscriber() *fakeTranscriber {
	return &fakeTranscriber{
		resp: &transcription.Response{
			Text: "hello world",
			Chunks: []transcript.Chunk{
				{Start: 0, End: 4, Text: "hello"},
				{Start: 6, End: 9, Text: "world"},
			},
		},
	}
}

func newTestStore(t *testing.T) *cache.ResultStore {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mini.Close() })

	client, err := redis.New(redis.Config{Addr: mini.Addr()}, logger.NewDefault("jobs-test"))
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return cache.NewResultStore(client, cache.Config{})
}

func TestOrchestrator_ProcessJoinsBothBranches(t *testing.T) {
	store := newTestStore(t)
	d, tr := happyDiarizer(), happyTranscriber()
	o := NewOrchestrator(store, d, tr, false, logger.NewDefault("test"), nil)

	result, err := o.Process(context.Background(), "hash1", []byte("audio"), "a.wav")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.FileHash != "hash1" {
		t.Errorf("FileHash = %s, want hash1", result.FileHash)
	}
	if got := result.SpeakerTranscript["SPEAKER_00"]; len(got) != 1 || got[0] != "hello" {
		t.Errorf("SPEAKER_00 = %v, want [hello]", got)
	}
	if got := result.SpeakerTranscript["SPEAKER_01"]; len(got) != 1 || got[0] != "world" {
		t.Errorf("SPEAKER_01 = %v, want [world]", got)
	}
}

func TestOrchestrator_ProcessWritesCache(t *testing.T) {
	store := newTestStore(t)
	o := NewOrchestrator(store, happyDiarizer(), happyTranscriber(), false, logger.NewDefault("test"), nil)
	ctx := context.Background()

	if _, err := o.Process(ctx, "hash1", []byte("audio"), "a.wav"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	cached, err := store.Load(ctx, "hash1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cached == nil {
		t.Fatal("expected result in cache after processing")
	}
}

func TestOrchestrator_CacheHitSkipsPredictors(t *testing.T) {
	store := newTestStore(t)
	d, tr := happyDiarizer(), happyTranscriber()
	o := NewOrchestrator(store, d, tr, false, logger.NewDefault("test"), nil)
	ctx := context.Background()

	if _, err := o.Process(ctx, "hash1", []byte("audio"), "a.wav"); err != nil {
		t.Fatalf("first Process failed: %v", err)
	}
	if _, err := o.Process(ctx, "hash1", []byte("audio"), "a.wav"); err != nil {
		t.Fatalf("second Process failed: %v", err)
	}

	if d.callCount() != 1 {
		t.Errorf("diarizer called %d times, want 1", d.callCount())
	}
	if tr.callCount() != 1 {
		t.Errorf("transcriber called %d times, want 1", tr.callCount())
	}
}

func TestOrchestrator_DiarizerFailureDegradesToEmpty(t *testing.T) {
	store := newTestStore(t)
	d := &fakeDiarizer{err: errors.New("model down")}
	o := NewOrchestrator(store, d, happyTranscriber(), false, logger.NewDefault("test"), nil)

	result, err := o.Process(context.Background(), "hash1", []byte("audio"), "a.wav")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(result.Diarization) != 0 {
		t.Errorf("Diarization = %v, want empty", result.Diarization)
	}
	if len(result.SpeakerTranscript) != 0 {
		t.Errorf("SpeakerTranscript = %v, want empty", result.SpeakerTranscript)
	}
}

func TestOrchestrator_TranscriberFailureDegradesToEmpty(t *testing.T) {
	store := newTestStore(t)
	tr := &fakeTranscriber{err: errors.New("model down")}
	o := NewOrchestrator(store, happyDiarizer(), tr, false, logger.NewDefault("test"), nil)

	result, err := o.Process(context.Background(), "hash1", []byte("audio"), "a.wav")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	// Speakers remain, each with an empty block list.
	if len(result.Diarization) != 2 {
		t.Errorf("Diarization lost speakers: %v", result.Diarization)
	}
	for speaker, blocks := range result.SpeakerTranscript {
		if len(blocks) != 0 {
			t.Errorf("speaker %s has blocks %v, want none", speaker, blocks)
		}
	}
}

func TestOrchestrator_NilPredictorResponseDegrades(t *testing.T) {
	store := newTestStore(t)
	// A misbehaved provider can return neither a response nor an error.
	d := &fakeDiarizer{}
	tr := &fakeTranscriber{}
	o := NewOrchestrator(store, d, tr, false, logger.NewDefault("test"), nil)

	result, err := o.Process(context.Background(), "hash1", []byte("audio"), "a.wav")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(result.Diarization) != 0 || len(result.SpeakerTranscript) != 0 {
		t.Errorf("nil responses should degrade to empty: %+v", result)
	}
}

func TestOrchestrator_NilPredictorResponseFailsStrict(t *testing.T) {
	store := newTestStore(t)
	o := NewOrchestrator(store, &fakeDiarizer{}, happyTranscriber(), true, logger.NewDefault("test"), nil)

	if _, err := o.Process(context.Background(), "hash1", []byte("audio"), "a.wav"); err == nil {
		t.Fatal("expected error for nil diarizer response in strict mode")
	}
}

func TestOrchestrator_StrictModePropagatesPredictorError(t *testing.T) {
	store := newTestStore(t)
	d := &fakeDiarizer{err: errors.New("model down")}
	o := NewOrchestrator(store, d, happyTranscriber(), true, logger.NewDefault("test"), nil)
	ctx := context.Background()

	if _, err := o.Process(ctx, "hash1", []byte("audio"), "a.wav"); err == nil {
		t.Fatal("expected error in strict mode")
	}

	// Nothing should be cached for a failed job.
	cached, err := store.Load(ctx, "hash1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cached != nil {
		t.Errorf("failed job left cache entry: %+v", cached)
	}
}

func TestOrchestrator_BothPredictorsCalledOncePerMiss(t *testing.T) {
	store := newTestStore(t)
	d, tr := happyDiarizer(), happyTranscriber()
	o := NewOrchestrator(store, d, tr, false, logger.NewDefault("test"), nil)
	ctx := context.Background()

	if _, err := o.Process(ctx, "hashA", []byte("a"), "a.wav"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, err := o.Process(ctx, "hashB", []byte("b"), "b.wav"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if d.callCount() != 2 || tr.callCount() != 2 {
		t.Errorf("calls = %d/%d, want 2/2 for two distinct hashes", d.callCount(), tr.callCount())
	}
}
