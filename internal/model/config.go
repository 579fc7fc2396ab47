package model

import "time"

// Config is the top-level configuration for the stepsmith pipeline.
// Stage-specific tuning (boundary weights, validation thresholds) lives in the
// stage packages; this holds what the CLI and pipeline wire together.
type Config struct {
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// PipelineConfig controls which quality gates run and their headline knobs.
type PipelineConfig struct {
	EnableQAFilter         bool     `yaml:"enable_qa_filter" mapstructure:"enable_qa_filter"`
	EnableImportanceFilter bool     `yaml:"enable_importance_filter" mapstructure:"enable_importance_filter"`
	MinTotalSegments       int      `yaml:"min_total_segments" mapstructure:"min_total_segments"`
	BoundaryThreshold      float64  `yaml:"boundary_threshold" mapstructure:"boundary_threshold"`
	MinQADensity           float64  `yaml:"min_qa_density" mapstructure:"min_qa_density"`
	MinImportance          float64  `yaml:"min_importance" mapstructure:"min_importance"`
	KeepTopN               int      `yaml:"keep_top_n" mapstructure:"keep_top_n"` // 0 = keep all
	Tone                   string   `yaml:"tone" mapstructure:"tone"`
	Audience               string   `yaml:"audience" mapstructure:"audience"`
	KnowledgeURLs          []string `yaml:"knowledge_urls" mapstructure:"knowledge_urls"`
	UseSemanticSimilarity  bool     `yaml:"use_semantic_similarity" mapstructure:"use_semantic_similarity"`
	CustomFillerWords      []string `yaml:"custom_filler_words" mapstructure:"custom_filler_words"`
}

// HTTPConfig controls outbound requests made by the knowledge fetcher.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RatePerSec   float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RespectRobot bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the layered knowledge/embedding cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LLMConfig holds step-generator and embedding provider configuration.
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "openai", "azure", "" (disabled)
	Model          string `yaml:"model" mapstructure:"model"`
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ConcurrencyConfig sets worker counts for parallel stages.
type ConcurrencyConfig struct {
	GenerationWorkers int `yaml:"generation_workers" mapstructure:"generation_workers"`
	FetchWorkers      int `yaml:"fetch_workers" mapstructure:"fetch_workers"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			EnableQAFilter:         true,
			EnableImportanceFilter: true,
			MinTotalSegments:       3,
			BoundaryThreshold:      0.40,
			MinQADensity:           0.30,
			MinImportance:          0.3,
			KeepTopN:               0,
			Tone:                   "professional",
			Audience:               "general",
			UseSemanticSimilarity:  false,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Stepsmith/0.1 (+https://github.com/ppiankov/stepsmith)",
			MaxBodyBytes: 2_000_000,
			RatePerSec:   2.0,
			RespectRobot: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:       "",
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Timeout:        60,
			MaxTokens:      2000,
		},
		Concurrency: ConcurrencyConfig{
			GenerationWorkers: 4,
			FetchWorkers:      5,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}
