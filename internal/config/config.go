package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

// PipelineConfig is the tuning surface of the resolution pipeline.
type PipelineConfig struct {
	// SimilarityThreshold gates knowledge-base matches and the decision to
	// call the inference fallback.
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	// PriorityOrder ranks attributes for follow-up questions, most
	// informative first.
	PriorityOrder []string `toml:"priority_order"`
	// RelaxOrder lists which constraints to drop first when a catalog
	// query matches nothing, least important first.
	RelaxOrder []string `toml:"relax_order"`
	// InferenceTimeoutSeconds bounds one fallback call.
	InferenceTimeoutSeconds int `toml:"inference_timeout_seconds"`
	// InferenceConfidence is assigned to accepted fallback values. It sits
	// below the similarity threshold so inference can only fill gaps, never
	// displace rule-based or user-stated values.
	InferenceConfidence float64 `toml:"inference_confidence"`
	MaxResults          int     `toml:"max_results"`
	// SessionIdleMinutes controls registry eviction of abandoned sessions.
	SessionIdleMinutes int `toml:"session_idle_minutes"`
}

type DataConfig struct {
	KnowledgeDir string `toml:"knowledge_dir"`
	CatalogPath  string `toml:"catalog_path"`
}

// InferencePrompts holds the fallback prompt templates. Keeping them in the
// config file lets them be tuned without a rebuild.
type InferencePrompts struct {
	// System is formatted with the category/vocabulary block.
	System string `toml:"system"`
	// User is formatted with the query, the known-attribute JSON and the
	// missing attribute list.
	User string `toml:"user"`
}

type Config struct {
	LLM       LLMConfig        `toml:"llm"`
	Pipeline  PipelineConfig   `toml:"pipeline"`
	Data      DataConfig       `toml:"data"`
	Inference InferencePrompts `toml:"inference"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// ApplyEnv overrides config fields from the environment so deployments can
// swap providers without editing the file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		c.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("KNOWLEDGE_DIR"); v != "" {
		c.Data.KnowledgeDir = v
	}
	if v := os.Getenv("CATALOG_PATH"); v != "" {
		c.Data.CatalogPath = v
	}
}

func (c *Config) applyDefaults() {
	if c.Pipeline.SimilarityThreshold == 0 {
		c.Pipeline.SimilarityThreshold = 0.8
	}
	if len(c.Pipeline.PriorityOrder) == 0 {
		c.Pipeline.PriorityOrder = []string{
			"category", "size", "budget", "fit", "color_or_print", "fabric",
		}
	}
	if len(c.Pipeline.RelaxOrder) == 0 {
		c.Pipeline.RelaxOrder = []string{
			"occasion", "fabric", "color_or_print", "fit", "sleeve_length",
			"neckline", "length", "pant_type",
		}
	}
	if c.Pipeline.InferenceTimeoutSeconds == 0 {
		c.Pipeline.InferenceTimeoutSeconds = 10
	}
	if c.Pipeline.InferenceConfidence == 0 {
		c.Pipeline.InferenceConfidence = 0.6
	}
	if c.Pipeline.MaxResults == 0 {
		c.Pipeline.MaxResults = 5
	}
	if c.Pipeline.SessionIdleMinutes == 0 {
		c.Pipeline.SessionIdleMinutes = 60
	}
	if c.Data.KnowledgeDir == "" {
		c.Data.KnowledgeDir = "data/vibes"
	}
	if c.Data.CatalogPath == "" {
		c.Data.CatalogPath = "data/catalog.csv"
	}
}

// InferenceTimeout returns the fallback call bound as a duration.
func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.Pipeline.InferenceTimeoutSeconds) * time.Second
}

// SessionIdle returns the registry eviction age.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.Pipeline.SessionIdleMinutes) * time.Minute
}
