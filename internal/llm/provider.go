package llm

import (
	"context"
	"errors"

	"github.com/ppiankov/docquiz/internal/model"
)

// ErrMissingAPIKey is returned when a provider requiring credentials has none
var ErrMissingAPIKey = errors.New("API key is required")

// ErrEmptyResponse is returned when the service replies without any text
var ErrEmptyResponse = errors.New("empty response from generation service")

// Provider defines the interface for text-generation services
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate sends one system instruction + user prompt and returns the reply text
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest is a single generation call.
// The per-call timeout is applied by the caller through ctx.
type GenerateRequest struct {
	// System is the system instruction
	System string

	// Prompt is the user prompt
	Prompt string

	// Temperature biases toward deterministic output when low
	Temperature float32

	// MaxTokens bounds the response size (0 uses the provider default)
	MaxTokens int

	// Model overrides the configured model (provider-specific)
	Model string
}

// GenerateResponse contains the service's free-form reply
type GenerateResponse struct {
	// Text is the reply, possibly wrapping a JSON fragment in prose
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout is the HTTP client ceiling in seconds
	Timeout int

	// MaxTokens is the default response budget
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   60,
		MaxTokens: 2000,
	}
}

func (c Config) maxTokens(req GenerateRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 2000
}

func (c Config) model(req GenerateRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = mc.Provider
	cfg.Model = mc.Model
	cfg.APIKey = mc.APIKey
	cfg.BaseURL = mc.BaseURL
	if mc.Timeout > 0 {
		cfg.Timeout = mc.Timeout
	}
	cfg.HTTPProxy = mc.HTTPProxy
	cfg.HTTPSProxy = mc.HTTPSProxy
	return cfg
}
