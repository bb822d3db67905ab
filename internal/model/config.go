package model

import "time"

// Config holds the complete docquiz configuration
type Config struct {
	LLM            LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Pipeline       PipelineConfig     `yaml:"pipeline" mapstructure:"pipeline"`
	Cache          CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting   RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Store          StoreConfig        `yaml:"store" mapstructure:"store"`
	Server         ServerConfig       `yaml:"server" mapstructure:"server"`
	HTTP           HTTPConfig         `yaml:"http" mapstructure:"http"`
	Log            LogConfig          `yaml:"log" mapstructure:"log"`
	Concurrency    ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	VocabularyFile string             `yaml:"vocabulary_file,omitempty" mapstructure:"vocabulary_file"`
}

// LLMConfig selects and configures the text-generation service.
// An empty Provider disables the service and forces the rule-based path.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, ""
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // HTTP client ceiling, seconds

	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`

	// Transcript logs every request/response at debug level
	Transcript bool `yaml:"transcript" mapstructure:"transcript"`
}

// PipelineConfig holds the generation pipeline's limits and call policies
type PipelineConfig struct {
	MinContentLength      int `yaml:"min_content_length" mapstructure:"min_content_length"`           // runes
	MaxSourceLength       int `yaml:"max_source_length" mapstructure:"max_source_length"`             // runes
	AnalysisPromptLength  int `yaml:"analysis_prompt_length" mapstructure:"analysis_prompt_length"`   // runes
	ShortContentThreshold int `yaml:"short_content_threshold" mapstructure:"short_content_threshold"` // runes
	QuestionCount         int `yaml:"question_count" mapstructure:"question_count"`

	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBase time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`

	AnalysisTimeout     time.Duration `yaml:"analysis_timeout" mapstructure:"analysis_timeout"`
	AnalysisTemperature float32       `yaml:"analysis_temperature" mapstructure:"analysis_temperature"`
	AnalysisMaxTokens   int           `yaml:"analysis_max_tokens" mapstructure:"analysis_max_tokens"`

	SynthesisTimeout     time.Duration `yaml:"synthesis_timeout" mapstructure:"synthesis_timeout"`
	SynthesisTemperature float32       `yaml:"synthesis_temperature" mapstructure:"synthesis_temperature"`
	SynthesisMaxTokens   int           `yaml:"synthesis_max_tokens" mapstructure:"synthesis_max_tokens"`

	// FallbackOnError degrades to the rule-based path when the
	// generation service stays unavailable after all attempts.
	FallbackOnError bool `yaml:"fallback_on_error" mapstructure:"fallback_on_error"`
}

// CacheConfig controls the optional analysis cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisAddr string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
}

// RateLimitingConfig throttles calls to the generation service
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`

	// Providers overrides the rate for individual services, keyed by
	// provider name (openai, anthropic, ollama)
	Providers map[string]ProviderRate `yaml:"providers,omitempty" mapstructure:"providers"`
}

// ProviderRate is one service's token bucket
type ProviderRate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// StoreConfig locates the document store
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// ServerConfig configures the HTTP endpoints
type ServerConfig struct {
	Addr         string   `yaml:"addr" mapstructure:"addr"`
	AllowOrigins []string `yaml:"allow_origins" mapstructure:"allow_origins"`

	// Per-client request rate on /api; zero disables the limit
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// HTTPConfig configures fetching documents by URL
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	// RespectRobots skips pages the site's robots.txt disallows
	RespectRobots bool `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// LogConfig selects the logger mode
type LogConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // development, production, nop
}

// ConcurrencyConfig bounds batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "", // Disabled by default
			Timeout:  60,
		},
		Pipeline: PipelineConfig{
			MinContentLength:      50,
			MaxSourceLength:       8000,
			AnalysisPromptLength:  6000,
			ShortContentThreshold: 100,
			QuestionCount:         5,

			MaxAttempts: 3,
			BackoffBase: 2 * time.Second,

			AnalysisTimeout:     30 * time.Second,
			AnalysisTemperature: 0.2,
			AnalysisMaxTokens:   2000,

			SynthesisTimeout:     45 * time.Second,
			SynthesisTemperature: 0.5,
			SynthesisMaxTokens:   3000,
		},
		Cache: CacheConfig{
			Enabled:   false,
			MemoryTTL: 30 * time.Minute,
			DiskDir:   ".docquiz-cache",
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
			Providers: map[string]ProviderRate{
				// a local model serves one request at a time
				"ollama": {RequestsPerSecond: 1, BurstSize: 1},
			},
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "docquiz.db",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			AllowOrigins: []string{"http://localhost:3000", "http://localhost:5173"},

			RequestsPerSecond: 5,
			BurstSize:         10,
		},
		HTTP: HTTPConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "docquiz/0.1 (+https://github.com/ppiankov/docquiz)",
			MaxBodyBytes:  2 << 20,
			RespectRobots: true,
		},
		Log: LogConfig{
			Mode: "development",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
	}
}
