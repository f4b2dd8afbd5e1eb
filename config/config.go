// Package config holds the static pipeline configuration and the
// hot-reloadable policy document.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inscope-ai/ragcore/common/httpx"
)

// Config is the root configuration for the retrieval core.
type Config struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	VectorDB  VectorDBConfig  `json:"vectordb" yaml:"vectordb"`
	Web       WebConfig       `json:"web" yaml:"web"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Policy    PolicyConfig    `json:"policy" yaml:"policy"`
	HTTP      *httpx.Config   `json:"http,omitempty" yaml:"http,omitempty"`
	// MaxSteps bounds orchestrator transitions per turn, independent of the
	// replan budget.
	MaxSteps int `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
}

// SearchConfig tunes the hybrid search engine.
type SearchConfig struct {
	// BaseK is the starting fan-out before dynamic adjustment.
	BaseK int `json:"base_k,omitempty" yaml:"base_k,omitempty"`
	// MaxK caps the dynamic fan-out.
	MaxK int `json:"max_k,omitempty" yaml:"max_k,omitempty"`
	// Alpha is the vector weight in score fusion.
	Alpha float64 `json:"alpha,omitempty" yaml:"alpha,omitempty"`
	// AlphaInsurer applies when a target insurer is detected in the query.
	AlphaInsurer float64 `json:"alpha_insurer,omitempty" yaml:"alpha_insurer,omitempty"`
	// AlphaInsurerLiteral applies when the insurer name appears verbatim.
	AlphaInsurerLiteral float64 `json:"alpha_insurer_literal,omitempty" yaml:"alpha_insurer_literal,omitempty"`
	// WebWeight is the multiplicative weight for web pseudo-passages.
	WebWeight float64 `json:"web_weight,omitempty" yaml:"web_weight,omitempty"`
	// Normalizer selects the score normalization strategy: minmax, zscore, robust.
	Normalizer string `json:"normalizer,omitempty" yaml:"normalizer,omitempty"`
	// VectorPoolCap / KeywordPoolCap bound the candidate pools ahead of fusion.
	VectorPoolCap  int `json:"vector_pool_cap,omitempty" yaml:"vector_pool_cap,omitempty"`
	KeywordPoolCap int `json:"keyword_pool_cap,omitempty" yaml:"keyword_pool_cap,omitempty"`
}

// LLMConfig defines the OpenAI-compatible chat backend used by the quality
// gate, replanner, and default answerer adapter.
type LLMConfig struct {
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TimeoutMs   int     `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// EmbeddingConfig defines the embedding backend.
type EmbeddingConfig struct {
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model      string `json:"model" yaml:"model"`
	Dimensions int    `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// VectorDBConfig defines the vector store backend.
type VectorDBConfig struct {
	// Provider: "milvus" or "memory".
	Provider    string `json:"provider" yaml:"provider"`
	Address     string `json:"address,omitempty" yaml:"address,omitempty"`
	Collection  string `json:"collection,omitempty" yaml:"collection,omitempty"`
	VectorField string `json:"vector_field,omitempty" yaml:"vector_field,omitempty"`
}

// WebConfig defines the web-search provider.
type WebConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"` // duckduckgo, bing
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// CacheConfig defines the shared cache store.
type CacheConfig struct {
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	TTLSeconds    int    `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	// L1Size enables an in-process LRU in front of Redis when > 0.
	L1Size int `json:"l1_size,omitempty" yaml:"l1_size,omitempty"`
	// ConnectTimeoutMs bounds dial and per-op time against the store.
	ConnectTimeoutMs int `json:"connect_timeout_ms,omitempty" yaml:"connect_timeout_ms,omitempty"`
}

// PolicyConfig locates the policy document.
type PolicyConfig struct {
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	TTLSeconds int    `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
}

// Default returns a configuration with every tunable at its documented default.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			BaseK:               5,
			MaxK:                15,
			Alpha:               0.6,
			AlphaInsurer:        0.4,
			AlphaInsurerLiteral: 0.3,
			WebWeight:           0.2,
			Normalizer:          "minmax",
			VectorPoolCap:       50,
			KeywordPoolCap:      30,
		},
		LLM:       LLMConfig{Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 1024, TimeoutMs: 30000},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small", Dimensions: 1536},
		VectorDB:  VectorDBConfig{Provider: "memory", VectorField: "embedding"},
		Web:       WebConfig{Provider: "duckduckgo"},
		Cache:     CacheConfig{TTLSeconds: 3600, L1Size: 512, ConnectTimeoutMs: 500},
		Policy:    PolicyConfig{Path: "config/policies.yaml", TTLSeconds: 60},
		MaxSteps:  24,
	}
}

// Load reads a yaml config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
