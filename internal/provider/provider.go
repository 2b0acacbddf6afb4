// Package provider defines the base interface and registry shared by the
// predictor backends, so the active diarization and transcription backends
// can be selected from configuration at startup.
package provider

import "context"

// Provider is the base interface all predictor backends must implement.
type Provider interface {
	// Name returns the backend's unique name.
	Name() string
	// IsAvailable checks if the backend is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from configuration.
type Factory[T Provider] func(cfg map[string]any) (T, error)
