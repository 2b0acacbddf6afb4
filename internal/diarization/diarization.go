// Package diarization defines the provider interface and common types for
// speaker diarization backends.
//
// Backends return their errors; the orchestrator decides whether to degrade
// a failed branch to an empty result or to fail the job.
//
// # Backends
//
//   - diarization/baseten: Baseten-hosted pyannote model (remote API)
//   - diarization/pyannote: local pyannote HTTP sidecar
package diarization

import (
	"context"

	"github.com/Edgar454/WhoIsTalking/internal/provider"
	"github.com/Edgar454/WhoIsTalking/internal/transcript"
)

// Request holds parameters for a diarization call.
type Request struct {
	// Audio is the raw audio content to diarize.
	Audio []byte `json:"-"`
	// NumSpeakers is the exact number of speakers (0 = auto-detect).
	NumSpeakers int `json:"num_speakers,omitempty"`
	// MinSpeakers is the minimum expected number of speakers.
	MinSpeakers int `json:"min_speakers,omitempty"`
	// MaxSpeakers is the maximum expected number of speakers.
	MaxSpeakers int `json:"max_speakers,omitempty"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
}

// Response holds the result of a diarization call.
type Response struct {
	// Speakers maps each detected speaker label to its spans, in the order
	// the backend returned them.
	Speakers transcript.Diarization `json:"speakers"`
	// NumSpeakers is the number of speakers detected.
	NumSpeakers int `json:"num_speakers"`
}

// Provider is the interface that diarization backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Diarize sends audio for speaker diarization and returns the result.
	Diarize(ctx context.Context, req Request) (*Response, error)
}

// NewRegistry creates a registry for diarization backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
