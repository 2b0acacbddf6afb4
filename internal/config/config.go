package config

import (
	"fmt"

	"github.com/Edgar454/WhoIsTalking/internal/cache"
	"github.com/Edgar454/WhoIsTalking/internal/jobs"
	"github.com/Edgar454/WhoIsTalking/internal/logger"
	"github.com/Edgar454/WhoIsTalking/internal/observability"
	"github.com/Edgar454/WhoIsTalking/internal/redis"
	"github.com/Edgar454/WhoIsTalking/internal/server"
)

// BaseConfig contains essential fields every service needs.
type BaseConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults applies default values to base configuration.
func (c *BaseConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "whoistalking"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
}

// Validate validates base configuration.
func (c *BaseConfig) Validate() error {
	for _, v := range []string{"development", "staging", "production"} {
		if c.Environment == v {
			return nil
		}
	}
	return fmt.Errorf("base.environment must be one of [development, staging, production] (got: %s)", c.Environment)
}

// PredictorConfig selects a predictor backend and carries its settings, which
// the backend's factory interprets.
type PredictorConfig struct {
	Provider string         `yaml:"provider" mapstructure:"provider"`
	Settings map[string]any `yaml:"settings" mapstructure:"settings"`
}

// Config is the full service configuration.
type Config struct {
	Base          BaseConfig           `yaml:"base" mapstructure:"base"`
	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Cache         cache.Config         `yaml:"cache" mapstructure:"cache"`
	Jobs          jobs.Config          `yaml:"jobs" mapstructure:"jobs"`
	Diarization   PredictorConfig      `yaml:"diarization" mapstructure:"diarization"`
	Transcription PredictorConfig      `yaml:"transcription" mapstructure:"transcription"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies defaults to all sections.
func (c *Config) ApplyDefaults() {
	c.Base.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Cache.ApplyDefaults()
	c.Jobs.ApplyDefaults()
	c.Observability.ApplyDefaults()
	if c.Diarization.Provider == "" {
		c.Diarization.Provider = "baseten"
	}
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "groq"
	}
}

// Validate validates all sections.
func (c *Config) Validate() error {
	if err := c.Base.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Jobs.Validate(); err != nil {
		return err
	}
	return nil
}

// Load reads the service configuration, applies defaults, and validates it.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
