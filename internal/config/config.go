// Package config provides Config loading for the spielberg CLI.
// Config is read from spielberg.yaml in the working directory. A missing file
// returns sane defaults without error. CLI flags (bound via cobra) override
// config file values at the highest precedence by mutating the returned
// struct after loading. Secrets are never stored in the YAML file; they come
// from the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for Config fields.
const (
	DefaultModel               = "gpt-4o"
	DefaultPlatformBaseURL     = "https://api.apify.com/v2"
	DefaultConsoleBaseURL      = "https://console.apify.com"
	DefaultMaxIterations       = 3
	DefaultBuildTimeoutSeconds = 600
	DefaultPollIntervalSeconds = 10
	DefaultProbeTimeoutSeconds = 60
	DefaultProbeMemoryMB       = 256
	DefaultStorePath           = "spielberg.db"
	DefaultActorVersion        = "0.1"
)

// Config holds all configuration for the spielberg pipeline.
// It is read from spielberg.yaml in the working directory. CLI flags override
// it at the highest precedence by being applied after LoadConfig returns.
type Config struct {
	Model               string `yaml:"model"`
	PlatformBaseURL     string `yaml:"platform_base_url"`
	ConsoleBaseURL      string `yaml:"console_base_url"`
	MaxIterations       int    `yaml:"max_iterations"`
	BuildTimeoutSeconds int    `yaml:"build_timeout_seconds"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	ProbeTimeoutSeconds int    `yaml:"probe_timeout_seconds"`
	ProbeMemoryMB       int    `yaml:"probe_memory_mb"`
	StorePath           string `yaml:"store_path"`
	ActorVersion        string `yaml:"actor_version"`
}

// defaults returns a Config populated with sane defaults.
func defaults() Config {
	return Config{
		Model:               DefaultModel,
		PlatformBaseURL:     DefaultPlatformBaseURL,
		ConsoleBaseURL:      DefaultConsoleBaseURL,
		MaxIterations:       DefaultMaxIterations,
		BuildTimeoutSeconds: DefaultBuildTimeoutSeconds,
		PollIntervalSeconds: DefaultPollIntervalSeconds,
		ProbeTimeoutSeconds: DefaultProbeTimeoutSeconds,
		ProbeMemoryMB:       DefaultProbeMemoryMB,
		StorePath:           DefaultStorePath,
		ActorVersion:        DefaultActorVersion,
	}
}

// partialConfig is used during YAML parsing to distinguish between a field
// being absent (nil pointer) and a field being explicitly set to its zero value.
type partialConfig struct {
	Model               *string `yaml:"model"`
	PlatformBaseURL     *string `yaml:"platform_base_url"`
	ConsoleBaseURL      *string `yaml:"console_base_url"`
	MaxIterations       *int    `yaml:"max_iterations"`
	BuildTimeoutSeconds *int    `yaml:"build_timeout_seconds"`
	PollIntervalSeconds *int    `yaml:"poll_interval_seconds"`
	ProbeTimeoutSeconds *int    `yaml:"probe_timeout_seconds"`
	ProbeMemoryMB       *int    `yaml:"probe_memory_mb"`
	StorePath           *string `yaml:"store_path"`
	ActorVersion        *string `yaml:"actor_version"`
}

// LoadConfig reads spielberg.yaml at path and returns a Config.
// If the file does not exist, defaults are returned without error.
// Fields absent from the file are filled with their default values.
// Fields present in the file override the corresponding default.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, err
	}

	var partial partialConfig
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return nil, err
	}

	if partial.Model != nil {
		cfg.Model = *partial.Model
	}
	if partial.PlatformBaseURL != nil {
		cfg.PlatformBaseURL = *partial.PlatformBaseURL
	}
	if partial.ConsoleBaseURL != nil {
		cfg.ConsoleBaseURL = *partial.ConsoleBaseURL
	}
	if partial.MaxIterations != nil {
		cfg.MaxIterations = *partial.MaxIterations
	}
	if partial.BuildTimeoutSeconds != nil {
		cfg.BuildTimeoutSeconds = *partial.BuildTimeoutSeconds
	}
	if partial.PollIntervalSeconds != nil {
		cfg.PollIntervalSeconds = *partial.PollIntervalSeconds
	}
	if partial.ProbeTimeoutSeconds != nil {
		cfg.ProbeTimeoutSeconds = *partial.ProbeTimeoutSeconds
	}
	if partial.ProbeMemoryMB != nil {
		cfg.ProbeMemoryMB = *partial.ProbeMemoryMB
	}
	if partial.StorePath != nil {
		cfg.StorePath = *partial.StorePath
	}
	if partial.ActorVersion != nil {
		cfg.ActorVersion = *partial.ActorVersion
	}

	return &cfg, nil
}

// Validate checks the loaded configuration for values the pipeline cannot
// work with. MaxIterations below 1 is rejected here rather than deep inside
// the validation loop so the failure surfaces before any remote call is made.
func (c *Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be >= 1, got %d", c.MaxIterations)
	}
	if c.BuildTimeoutSeconds < 1 {
		return fmt.Errorf("build_timeout_seconds must be >= 1, got %d", c.BuildTimeoutSeconds)
	}
	if c.PollIntervalSeconds < 1 {
		return fmt.Errorf("poll_interval_seconds must be >= 1, got %d", c.PollIntervalSeconds)
	}
	if c.ProbeTimeoutSeconds < 1 {
		return fmt.Errorf("probe_timeout_seconds must be >= 1, got %d", c.ProbeTimeoutSeconds)
	}
	return nil
}

// Secrets holds the API credentials read from the environment.
type Secrets struct {
	OpenAIKey     string
	PlatformToken string
}

// LoadSecrets reads credentials from the environment, first loading a .env
// file from dir if one exists (a missing .env is not an error). Both keys are
// required: the LLM key for analysis/generation/repair and the platform token
// for deploy/build/run calls.
func LoadSecrets(dir string) (*Secrets, error) {
	// godotenv never overrides variables already set in the environment.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	s := &Secrets{
		OpenAIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		PlatformToken: strings.TrimSpace(os.Getenv("APIFY_TOKEN")),
	}

	var missing []string
	if s.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if s.PlatformToken == "" {
		missing = append(missing, "APIFY_TOKEN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return s, nil
}
