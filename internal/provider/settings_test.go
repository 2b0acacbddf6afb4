package provider

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name    string
		cfg     map[string]any
		want    time.Duration
		wantErr bool
	}{
		{name: "missing key", cfg: map[string]any{}, want: 0},
		{name: "nil value", cfg: map[string]any{"timeout": nil}, want: 0},
		{name: "string duration", cfg: map[string]any{"timeout": "120s"}, want: 120 * time.Second},
		{name: "native duration", cfg: map[string]any{"timeout": 5 * time.Minute}, want: 5 * time.Minute},
		{name: "garbage string", cfg: map[string]any{"timeout": "soon"}, wantErr: true},
		{name: "unsupported type", cfg: map[string]any{"timeout": 120}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Duration(tt.cfg, "timeout")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Duration(%v) = %v, want error", tt.cfg, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Duration failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Duration = %v, want %v", got, tt.want)
			}
		})
	}
}
