// Package config loads application configuration from files and environment.
package config

import (
	"fmt"
	"time"
)

// Config represents the full application configuration.
type Config struct {
	Backend       BackendConfig       `yaml:"backend"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	RateLimit     RateLimitConfig     `yaml:"rateLimit"`
	Output        OutputConfig        `yaml:"output"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// BackendConfig configures the model backend.
type BackendConfig struct {
	// Name selects the backend implementation: "bedrock" or "static".
	Name    string `yaml:"name"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Timeout string `yaml:"timeout"`
}

// AnalysisConfig configures the detection run itself.
type AnalysisConfig struct {
	MaxTokens           int     `yaml:"maxTokens"`
	MaxPromptTokens     int     `yaml:"maxPromptTokens"`
	ConfidenceThreshold float64 `yaml:"confidenceThreshold"`
	Workers             int     `yaml:"workers"`
	SafetyBuffer        string  `yaml:"safetyBuffer"`
	MinFileTimeout      string  `yaml:"minFileTimeout"`
	Optimize            bool    `yaml:"optimize"`
}

// RateLimitConfig configures invoker pacing and retries.
type RateLimitConfig struct {
	MinCallInterval string `yaml:"minCallInterval"`
	MaxAttempts     int    `yaml:"maxAttempts"`
	RetryDelay      string `yaml:"retryDelay"`
}

// OutputConfig configures report writing.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// Formats lists the reports to write: "json", "markdown".
	Formats []string `yaml:"formats"`
}

// StoreConfig configures run history persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// MetricsConfig controls in-process metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Validate checks cross-field constraints after loading.
func (c Config) Validate() error {
	switch c.Backend.Name {
	case "bedrock", "static":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend.Name)
	}
	if c.Backend.Name == "bedrock" && c.Backend.APIKey == "" {
		return fmt.Errorf("backend %q requires an API key", c.Backend.Name)
	}
	if c.Analysis.ConfidenceThreshold < 0 || c.Analysis.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidenceThreshold %v out of range [0,1]", c.Analysis.ConfidenceThreshold)
	}
	for _, name := range []string{c.Backend.Timeout, c.Analysis.SafetyBuffer, c.Analysis.MinFileTimeout,
		c.RateLimit.MinCallInterval, c.RateLimit.RetryDelay} {
		if name == "" {
			continue
		}
		if _, err := time.ParseDuration(name); err != nil {
			return fmt.Errorf("invalid duration %q: %w", name, err)
		}
	}
	for _, format := range c.Output.Formats {
		if format != "json" && format != "markdown" {
			return fmt.Errorf("unknown output format %q", format)
		}
	}
	return nil
}

// Duration parses a duration string with a fallback for empty values.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
