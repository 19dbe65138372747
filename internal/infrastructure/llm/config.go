package llm

import (
	"errors"
	"time"
)

// Defaults for an OpenAI-compatible endpoint
const (
	DefaultEndpoint    = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultTimeout     = 30 * time.Second
)

// Errors for LLM configuration
var (
	ErrConfigMissingAPIKey   = errors.New("llm: api key is required")
	ErrConfigMissingModel    = errors.New("llm: model is required")
	ErrConfigInvalidEndpoint = errors.New("llm: endpoint is required")
)

// Config holds the chat-completions client settings
type Config struct {
	// Endpoint is the API base URL, without the /chat/completions suffix
	Endpoint string
	// APIKey is sent as a bearer token
	APIKey      string
	Model       string
	Temperature float64
	// Timeout bounds a single HTTP round trip
	Timeout time.Duration
}

// NewConfig creates a configuration with defaults
func NewConfig(apiKey string) *Config {
	return &Config{
		Endpoint:    DefaultEndpoint,
		APIKey:      apiKey,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		Timeout:     DefaultTimeout,
	}
}

// Validate validates the configuration and fills the zero timeout
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.Model == "" {
		return ErrConfigMissingModel
	}
	if c.Endpoint == "" {
		return ErrConfigInvalidEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
