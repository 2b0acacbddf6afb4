// Package cache implements the result cache: joined results keyed by content
// hash in Redis. A hit means the audio was already processed and neither
// predictor needs to be called again.
package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Edgar454/WhoIsTalking/internal/redis"
	"github.com/Edgar454/WhoIsTalking/internal/transcript"
)

// Config holds result cache configuration.
type Config struct {
	// KeyPrefix is prepended to every cache key, colon-separated.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`

	// TTL is how long entries live (e.g. "168h"). "0" keeps them forever.
	TTL string `yaml:"ttl" mapstructure:"ttl"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "task_result"
	}
	if c.TTL == "" {
		c.TTL = "0"
	}
}

// Validate checks that the TTL is parseable.
func (c *Config) Validate() error {
	if c.TTL != "0" {
		if _, err := time.ParseDuration(c.TTL); err != nil {
			return fmt.Errorf("invalid cache.ttl %q: %w", c.TTL, err)
		}
	}
	return nil
}

// ResultStore stores joined results in Redis, keyed by content hash.
// Entries are immutable once written; concurrent first-writers race and the
// last write wins, which is harmless because the value is derived
// deterministically from the same audio.
type ResultStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewResultStore creates a ResultStore backed by the given Redis client.
func NewResultStore(client *redis.Client, cfg Config) *ResultStore {
	cfg.ApplyDefaults()
	ttl, _ := time.ParseDuration(cfg.TTL)
	return &ResultStore{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       ttl,
	}
}

// Key returns the full Redis key for a content hash. The notification bus
// uses the same key as its channel name.
func (s *ResultStore) Key(fileHash string) string {
	return s.keyPrefix + ":" + fileHash
}

// Load fetches the cached joined result for a content hash.
// Returns (nil, nil) when no entry exists.
func (s *ResultStore) Load(ctx context.Context, fileHash string) (*transcript.JoinedResult, error) {
	raw, err := s.client.Get(ctx, s.Key(fileHash))
	if err != nil {
		if stderrors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("result cache load %q: %w", fileHash, err)
	}

	var result transcript.JoinedResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("result cache unmarshal %q: %w", fileHash, err)
	}
	return &result, nil
}

// Save writes a joined result. Re-setting the same key is harmless.
func (s *ResultStore) Save(ctx context.Context, result *transcript.JoinedResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("result cache marshal %q: %w", result.FileHash, err)
	}
	if err := s.client.Set(ctx, s.Key(result.FileHash), string(data), s.ttl); err != nil {
		return fmt.Errorf("result cache save %q: %w", result.FileHash, err)
	}
	return nil
}
