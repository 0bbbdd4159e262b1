package config

import (
	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/validation"
)

// AppName is the name used to resolve config files and tag logs.
const AppName = "streamkit"

// StreamConfig holds the executor settings for parallel runs. Zero values
// mean "use the engine default".
type StreamConfig struct {
	// Workers is the worker pool size; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0,lte=1024"`
	// MinChunk is the size below which a source is not split further.
	MinChunk int `yaml:"min_chunk" mapstructure:"min_chunk" validate:"gte=0"`
	// LeafFactor bounds parallel leaves to Workers*LeafFactor.
	LeafFactor int `yaml:"leaf_factor" mapstructure:"leaf_factor" validate:"gte=0,lte=64"`
}

// TelemetryConfig enables OTLP export from the CLI.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// Config is the full streamkit configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Stream        StreamConfig    `yaml:"stream" mapstructure:"stream"`
	Telemetry     TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults fills in unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = AppName
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
}

// Validate checks the service fields and the struct tags, returning an
// INVALID_CONFIG error on failure.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return errors.InvalidConfig(err.Error()).WithCause(err)
	}
	return validation.Validate(c)
}

// Load reads, defaults and validates the streamkit configuration.
func Load(opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(AppName, &cfg, opts...); err != nil {
		return nil, errors.InvalidConfig("loading configuration").WithCause(err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
