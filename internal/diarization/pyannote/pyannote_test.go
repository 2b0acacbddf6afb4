package pyannote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Edgar454/WhoIsTalking/internal/diarization"
)

func TestProvider_DiarizeFoldsSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/diarize" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("audio"); err != nil {
			t.Errorf("missing audio part: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"segments": [
				{"speaker_id": "SPEAKER_00", "start_time": 0, "end_time": 2.5},
				{"speaker_id": "SPEAKER_01", "start_time": 2.5, "end_time": 5},
				{"speaker_id": "SPEAKER_00", "start_time": 5, "end_time": 8}
			],
			"num_speakers": 2
		}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL})
	resp, err := p.Diarize(context.Background(), diarization.Request{Audio: []byte("fake audio")})
	if err != nil {
		t.Fatalf("Diarize failed: %v", err)
	}

	if resp.NumSpeakers != 2 {
		t.Errorf("NumSpeakers = %d, want 2", resp.NumSpeakers)
	}
	spans := resp.Speakers["SPEAKER_00"]
	if len(spans) != 2 {
		t.Fatalf("SPEAKER_00 spans = %v, want 2", spans)
	}
	// Response order per speaker is preserved.
	if spans[0].Start != 0 || spans[1].Start != 5 {
		t.Errorf("span order = %v", spans)
	}
}

func TestProvider_DiarizeSidecarError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"segments": [], "error": "audio too short"}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL})
	if _, err := p.Diarize(context.Background(), diarization.Request{Audio: []byte("x")}); err == nil {
		t.Error("expected error when sidecar reports one")
	}
}

func TestProvider_IsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL})
	if !p.IsAvailable(context.Background()) {
		t.Error("expected available when /health answers 200")
	}

	down := NewProvider(Config{BaseURL: "http://127.0.0.1:1"})
	if down.IsAvailable(context.Background()) {
		t.Error("expected unavailable when sidecar is unreachable")
	}
}
