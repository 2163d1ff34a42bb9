// Package config loads layered application configuration: built-in
// defaults, then an optional YAML file, then SONIQ_ environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g. SONIQ_SERVER_PORT.
const EnvPrefix = "SONIQ_"

// Config is the full application configuration. It is immutable after
// Load and safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Model     ModelConfig     `koanf:"model"`
	Database  DatabaseConfig  `koanf:"database"`
	Recommend RecommendConfig `koanf:"recommend"`
	Features  FeaturesConfig  `koanf:"features"`
	Lastfm    LastfmConfig    `koanf:"lastfm"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig locates the track catalog file.
type CatalogConfig struct {
	// Path to the NDJSON catalog of track embeddings.
	Path string `koanf:"path"`
}

// ModelConfig locates the fitted archetype model. The path is optional;
// without it the classifier falls back to heuristic rules.
type ModelConfig struct {
	Path string `koanf:"path"`
}

// DatabaseConfig holds the optional Postgres connection for listening
// events. With an empty URL the archetype endpoint is disabled.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// RecommendConfig tunes the recommendation pipeline.
type RecommendConfig struct {
	CandidateLimit     int           `koanf:"candidate_limit"`
	RecentLimit        int           `koanf:"recent_limit"`
	ExploreProbability float64       `koanf:"explore_probability"`
	SessionTTL         time.Duration `koanf:"session_ttl"`
}

// FeaturesConfig tunes behavioral feature extraction.
type FeaturesConfig struct {
	SessionGap time.Duration `koanf:"session_gap"`
}

// LastfmConfig enables optional genre enrichment. Enrichment runs only
// when an API key is set.
type LastfmConfig struct {
	APIKey      string `koanf:"api_key"`
	Concurrency int    `koanf:"concurrency"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Catalog: CatalogConfig{
			Path: "catalog.ndjson",
		},
		Recommend: RecommendConfig{
			CandidateLimit:     50,
			RecentLimit:        20,
			ExploreProbability: 0.20,
			SessionTTL:         4 * time.Hour,
		},
		Features: FeaturesConfig{
			SessionGap: 30 * time.Minute,
		},
		Lastfm: LastfmConfig{
			Concurrency: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path
// (skipped when path is empty or the file does not exist), and SONIQ_
// environment variables, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	// SONIQ_SERVER_PORT -> server.port, SONIQ_LASTFM_API_KEY -> lastfm.api_key.
	envProvider := env.Provider(EnvPrefix, ".", func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		return strings.Replace(key, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run
// with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Recommend.CandidateLimit < 1 {
		return fmt.Errorf("recommend.candidate_limit must be positive")
	}
	if c.Recommend.RecentLimit < 0 {
		return fmt.Errorf("recommend.recent_limit must not be negative")
	}
	if c.Recommend.ExploreProbability < 0 || c.Recommend.ExploreProbability > 1 {
		return fmt.Errorf("recommend.explore_probability %v outside [0,1]", c.Recommend.ExploreProbability)
	}
	if c.Features.SessionGap <= 0 {
		return fmt.Errorf("features.session_gap must be positive")
	}
	if c.Lastfm.APIKey != "" && c.Lastfm.Concurrency < 1 {
		return fmt.Errorf("lastfm.concurrency must be positive")
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q not recognized", c.Logging.Level)
	}
	return nil
}
