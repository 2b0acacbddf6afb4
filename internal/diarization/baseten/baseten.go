// Package baseten implements diarization.Provider against a Baseten-deployed
// pyannote model. The model takes base64 audio in a JSON body and answers
// with the speaker-to-spans mapping directly.
package baseten

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Edgar454/WhoIsTalking/internal/diarization"
	"github.com/Edgar454/WhoIsTalking/internal/provider"
	"github.com/Edgar454/WhoIsTalking/internal/transcript"
)

const (
	// ProviderName is the registered name for the Baseten provider.
	ProviderName = "baseten"

	defaultTimeout = 120 * time.Second
)

// Config holds configuration for the Baseten diarization provider.
type Config struct {
	// URL is the full predict endpoint of the deployed model.
	URL string `json:"url"`
	// APIKey authenticates against the Baseten API.
	APIKey string `json:"api_key"`
	// Timeout bounds each diarization call.
	Timeout time.Duration `json:"timeout"`
}

// Provider implements diarization.Provider using the Baseten model API.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new Baseten diarization provider.
func NewProvider(cfg Config) *Provider {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Factory returns a provider.Factory that creates Baseten Provider instances
// from a generic config map.
func Factory() provider.Factory[diarization.Provider] {
	return func(cfg map[string]any) (diarization.Provider, error) {
		bc := Config{}
		if v, ok := cfg["url"].(string); ok {
			bc.URL = v
		}
		if v, ok := cfg["api_key"].(string); ok {
			bc.APIKey = v
		}
		timeout, err := provider.Duration(cfg, "timeout")
		if err != nil {
			return nil, fmt.Errorf("baseten: %w", err)
		}
		bc.Timeout = timeout
		if bc.URL == "" {
			return nil, fmt.Errorf("baseten: url is required")
		}
		return NewProvider(bc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether the provider is configured. Baseten exposes no
// unauthenticated health endpoint, so reachability is only known at call time.
func (p *Provider) IsAvailable(_ context.Context) bool {
	return p.cfg.URL != "" && p.cfg.APIKey != ""
}

// Diarize sends base64-encoded audio to the Baseten model and returns the
// speaker segmentation.
func (p *Provider) Diarize(ctx context.Context, req diarization.Request) (*diarization.Response, error) {
	payload := struct {
		AudioBase64 string `json:"audio_base64"`
		NumSpeakers int    `json:"num_speakers,omitempty"`
		MinSpeakers int    `json:"min_speakers,omitempty"`
		MaxSpeakers int    `json:"max_speakers,omitempty"`
	}{
		AudioBase64: base64.StdEncoding.EncodeToString(req.Audio),
		NumSpeakers: req.NumSpeakers,
		MinSpeakers: req.MinSpeakers,
		MaxSpeakers: req.MaxSpeakers,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode diarization request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Api-Key "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("diarization error (status %d): %s", resp.StatusCode, string(respBody))
	}

	// The model answers with {"SPEAKER_00": [[start, end], ...], ...}.
	var raw map[string][][2]float64
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode diarization response: %w", err)
	}

	return toResponse(raw), nil
}

func toResponse(raw map[string][][2]float64) *diarization.Response {
	speakers := make(transcript.Diarization, len(raw))
	for label, pairs := range raw {
		spans := make([]transcript.Span, len(pairs))
		for i, pair := range pairs {
			spans[i] = transcript.Span{Start: pair[0], End: pair[1]}
		}
		speakers[label] = spans
	}
	return &diarization.Response{
		Speakers:    speakers,
		NumSpeakers: len(speakers),
	}
}
