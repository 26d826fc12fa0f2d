package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the full engine configuration.
// Hierarchy (highest to lowest priority): CLI flags, DEONTICA_* environment
// variables, config file (~/.deontica/config.yaml), defaults.
type Config struct {
	Store       StoreConfig       `yaml:"store" json:"store"`
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// StoreConfig configures the persistence layer
type StoreConfig struct {
	Path string `yaml:"path" json:"path"` // SQLite database path
}

// HTTPConfig configures outbound fetching for URL ingestion
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" json:"insecure_tls"`
}

// CacheConfig configures read-side memoization
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// ConcurrencyConfig configures batch ingestion
type ConcurrencyConfig struct {
	IngestWorkers     int     `yaml:"ingest_workers" json:"ingest_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// LLMConfig configures the optional lint-report summarizer.
// The summarizer never affects conversion or conflict detection.
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // "openai" or "" (disabled)
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"-" json:"-"` // From environment only, never persisted
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: defaultStorePath(),
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Deontica/0.1 (+https://github.com/ksalter/deontica)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			IngestWorkers:     4,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 800,
		},
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "deontica.db"
	}
	return filepath.Join(home, ".deontica", "deontica.db")
}
