package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
base:
  name: whoistalking
  environment: production
logging:
  level: warn
  format: json
server:
  port: 9000
redis:
  addr: redis.internal:6379
cache:
  ttl: 24h
jobs:
  workers: 8
  max_attempts: 2
diarization:
  provider: pyannote
  settings:
    base_url: http://localhost:9999
transcription:
  provider: groq
  settings:
    api_key: test-key
`)

	cfg, err := Load("whoistalking", WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Base.Environment != "production" {
		t.Errorf("environment = %s", cfg.Base.Environment)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("redis addr = %s", cfg.Redis.Addr)
	}
	if cfg.Cache.TTL != "24h" {
		t.Errorf("cache ttl = %s", cfg.Cache.TTL)
	}
	if cfg.Jobs.Workers != 8 || cfg.Jobs.MaxAttempts != 2 {
		t.Errorf("jobs = %+v", cfg.Jobs)
	}
	if cfg.Diarization.Provider != "pyannote" {
		t.Errorf("diarization provider = %s", cfg.Diarization.Provider)
	}
	if got := cfg.Diarization.Settings["base_url"]; got != "http://localhost:9999" {
		t.Errorf("diarization settings = %v", cfg.Diarization.Settings)
	}
	if got := cfg.Transcription.Settings["api_key"]; got != "test-key" {
		t.Errorf("transcription settings = %v", cfg.Transcription.Settings)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("no-such-service", WithConfigFile(filepath.Join(t.TempDir(), "missing.yml")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Base.Name != "whoistalking" {
		t.Errorf("default name = %s", cfg.Base.Name)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("default redis addr = %s", cfg.Redis.Addr)
	}
	if cfg.Cache.KeyPrefix != "task_result" {
		t.Errorf("default cache prefix = %s", cfg.Cache.KeyPrefix)
	}
	if cfg.Jobs.MaxAttempts != 5 {
		t.Errorf("default max attempts = %d", cfg.Jobs.MaxAttempts)
	}
	if cfg.Diarization.Provider != "baseten" || cfg.Transcription.Provider != "groq" {
		t.Errorf("default providers = %s/%s", cfg.Diarization.Provider, cfg.Transcription.Provider)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("REDIS_ADDR", "override:6380")

	cfg, err := Load("no-such-service", WithConfigFile(filepath.Join(t.TempDir(), "missing.yml")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Redis.Addr != "override:6380" {
		t.Errorf("redis addr = %s, want env override", cfg.Redis.Addr)
	}
}

func TestLoad_SecretEnvReachesPredictorSettings(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-secret")
	t.Setenv("BASETEN_API_KEY", "baseten-secret")
	t.Setenv("BASETEN_URL", "https://model.api.baseten.co/production/predict")

	cfg, err := Load("no-such-service", WithConfigFile(filepath.Join(t.TempDir(), "missing.yml")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.Transcription.Settings["api_key"]; got != "groq-secret" {
		t.Errorf("transcription api_key = %v, want env value", got)
	}
	if got := cfg.Diarization.Settings["api_key"]; got != "baseten-secret" {
		t.Errorf("diarization api_key = %v, want env value", got)
	}
	if got := cfg.Diarization.Settings["url"]; got != "https://model.api.baseten.co/production/predict" {
		t.Errorf("diarization url = %v, want env value", got)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := writeConfigFile(t, `
base:
  environment: nonsense
`)

	if _, err := Load("whoistalking", WithConfigFile(path)); err == nil {
		t.Error("expected validation error for bad environment")
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("REDIS_POOL_SIZE")

	want := map[string]bool{
		"redis_pool_size": false,
		"redis.pool.size": false,
		"redis.pool_size": false,
	}
	for _, v := range got {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for variant, seen := range want {
		if !seen {
			t.Errorf("variant %q missing from %v", variant, got)
		}
	}
}
