// Package transcription defines the provider interface and common types for
// speech-to-text backends.
//
// Backends return their errors; the orchestrator decides whether to degrade
// a failed branch to an empty result or to fail the job.
//
// # Backends
//
//   - transcription/groq: Groq-hosted Whisper (remote API)
//   - transcription/whisper: local faster-whisper HTTP sidecar
package transcription

import (
	"context"

	"github.com/Edgar454/WhoIsTalking/internal/provider"
	"github.com/Edgar454/WhoIsTalking/internal/transcript"
)

// Request holds parameters for a transcription call.
type Request struct {
	// Audio is the raw audio content to transcribe.
	Audio []byte `json:"-"`
	// Filename is the original upload name, used only as a format hint.
	Filename string `json:"filename"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Model overrides the backend's configured model.
	Model string `json:"model,omitempty"`
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Chunks contains time-aligned transcript segments, in transcription order.
	Chunks []transcript.Chunk `json:"chunks,omitempty"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe sends audio for transcription and returns the result.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// NewRegistry creates a registry for transcription backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
