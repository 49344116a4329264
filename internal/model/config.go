package model

import "time"

// Config holds the complete pipeline configuration.
// All admission thresholds and propensity weights are tunable experiment
// parameters, not fixed constants.
type Config struct {
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	Propensity  PropensityConfig  `yaml:"propensity" mapstructure:"propensity"`
	Filter      FilterConfig      `yaml:"filter" mapstructure:"filter"`
	Target      TargetConfig      `yaml:"target" mapstructure:"target"`
	Aggregate   AggregateConfig   `yaml:"aggregate" mapstructure:"aggregate"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// PathsConfig locates the file artifacts the stages exchange.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" mapstructure:"data_dir"`
	Catalog    string `yaml:"catalog" mapstructure:"catalog"`
	Brands     string `yaml:"brands" mapstructure:"brands"`
	Logs       string `yaml:"logs" mapstructure:"logs"`
	Pairs      string `yaml:"pairs" mapstructure:"pairs"`
	Rules      string `yaml:"rules" mapstructure:"rules"`
	Candidates string `yaml:"candidates" mapstructure:"candidates"`
	Principles string `yaml:"principles" mapstructure:"principles"`
}

// PropensityConfig holds the bias-model weights. The reference tuning is
// 0.8/1.2/1.2; an earlier, more aggressive iteration used 1.5/2.0/2.5.
type PropensityConfig struct {
	LengthWeight  float64 `yaml:"length_weight" mapstructure:"length_weight"`
	BrandWeight   float64 `yaml:"brand_weight" mapstructure:"brand_weight"`
	RatingWeight  float64 `yaml:"rating_weight" mapstructure:"rating_weight"`
	MaxTextLength int     `yaml:"max_text_length" mapstructure:"max_text_length"`
}

// FilterConfig holds the three admission thresholds of the causal filter.
type FilterConfig struct {
	VisibilityFloor     float64 `yaml:"visibility_floor" mapstructure:"visibility_floor"`
	MinVisibilityGap    float64 `yaml:"min_visibility_gap" mapstructure:"min_visibility_gap"`
	PropensityThreshold float64 `yaml:"propensity_threshold" mapstructure:"propensity_threshold"`
}

// TargetConfig holds the opportunity-selection knobs.
type TargetConfig struct {
	// TopRankCutoff excludes losers already ranked at or above this
	// position; top-ranked items have little optimization headroom.
	TopRankCutoff int `yaml:"top_rank_cutoff" mapstructure:"top_rank_cutoff"`
}

// AggregateConfig holds the clustering and map-reduce knobs.
type AggregateConfig struct {
	BatchSize     int     `yaml:"batch_size" mapstructure:"batch_size"`
	Damping       float64 `yaml:"damping" mapstructure:"damping"`
	MaxIterations int     `yaml:"max_iterations" mapstructure:"max_iterations"`
	ConvergeAfter int     `yaml:"converge_after" mapstructure:"converge_after"`
}

// LLMConfig holds completion provider configuration.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"-" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// RetryConfig bounds the exponential backoff applied to transport failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
}

// CacheConfig controls embedding/completion memoization.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig bounds the per-query worker pool and external call rate.
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls CLI verbosity.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:    "data",
			Catalog:    "query.json",
			Brands:     "brand_popularity.json",
			Logs:       "simulation_logs.json",
			Pairs:      "causal_pairs.json",
			Rules:      "optimization_rules.json",
			Candidates: "target_candidates.json",
			Principles: "mgeo_principles.json",
		},
		Propensity: PropensityConfig{
			LengthWeight:  0.8,
			BrandWeight:   1.2,
			RatingWeight:  1.2,
			MaxTextLength: 2000,
		},
		Filter: FilterConfig{
			VisibilityFloor:     0.1,
			MinVisibilityGap:    0.2,
			PropensityThreshold: 0.86,
		},
		Target: TargetConfig{
			TopRankCutoff: 3,
		},
		Aggregate: AggregateConfig{
			BatchSize:     15,
			Damping:       0.9,
			MaxIterations: 200,
			ConvergeAfter: 15,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "",
			Timeout:   60,
			MaxTokens: 1000,
		},
		Embedding: EmbeddingConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
			Timeout:  30,
		},
		Retry: RetryConfig{
			MaxAttempts: 4,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    8 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".mgeo-cache",
			TTL:     7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           1,
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Output: OutputConfig{},
	}
}
