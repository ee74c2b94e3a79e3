package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Generation provider names. The fallback chain tries providers in the order
// they appear in ProvidersConfig.Order; unknown names are a config error.
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// ProvidersConfig holds generation backend configuration. A provider is
// enabled when its API key is set; Order lists enabled providers in fallback
// priority.
type ProvidersConfig struct {
	Order []string `env:"PROVIDER_ORDER" yaml:"provider_order" default:"groq,openai,anthropic,gemini"`

	// Per-call timeout before the chain advances to the next provider
	Timeout time.Duration `env:"PROVIDER_TIMEOUT" yaml:"provider_timeout" default:"8s"`

	Groq      GroqConfig      `yaml:"groq,inline"`
	OpenAI    OpenAIConfig    `yaml:"openai,inline"`
	Anthropic AnthropicConfig `yaml:"anthropic,inline"`
	Gemini    GeminiConfig    `yaml:"gemini,inline"`
}

// GroqConfig holds Groq configuration. Groq exposes an OpenAI-compatible API,
// so only the base URL differs from the OpenAI provider.
type GroqConfig struct {
	APIKey  string `env:"GROQ_API_KEY" yaml:"groq_api_key"`
	Model   string `env:"GROQ_MODEL" yaml:"groq_model" default:"llama-3.3-70b-versatile"`
	BaseURL string `env:"GROQ_BASE_URL" yaml:"groq_base_url" default:"https://api.groq.com/openai/v1"`
}

// OpenAIConfig holds OpenAI configuration.
type OpenAIConfig struct {
	APIKey string `env:"OPENAI_API_KEY" yaml:"openai_api_key"`
	Model  string `env:"OPENAI_MODEL" yaml:"openai_model" default:"gpt-4o-mini"`
}

// AnthropicConfig holds Anthropic configuration.
type AnthropicConfig struct {
	APIKey string `env:"ANTHROPIC_API_KEY" yaml:"anthropic_api_key"`
	Model  string `env:"CLAUDE_MODEL" yaml:"claude_model" default:"claude-3-5-haiku-20241022"`
}

// GeminiConfig holds Google Gemini configuration.
type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY" yaml:"gemini_api_key"`
	Model  string `env:"GEMINI_MODEL" yaml:"gemini_model" default:"gemini-2.0-flash"`
}

// Enabled reports whether a named provider has credentials configured.
func (p ProvidersConfig) Enabled(name string) bool {
	switch name {
	case ProviderGroq:
		return p.Groq.APIKey != ""
	case ProviderOpenAI:
		return p.OpenAI.APIKey != ""
	case ProviderAnthropic:
		return p.Anthropic.APIKey != ""
	case ProviderGemini:
		return p.Gemini.APIKey != ""
	default:
		return false
	}
}

// EnabledOrder returns the configured order filtered down to providers with
// credentials.
func (p ProvidersConfig) EnabledOrder() []string {
	var out []string
	for _, name := range p.Order {
		if p.Enabled(name) {
			out = append(out, name)
		}
	}
	return out
}

// Validate checks the provider configuration.
func (p ProvidersConfig) Validate() error {
	var result error

	known := map[string]bool{
		ProviderGroq:      true,
		ProviderOpenAI:    true,
		ProviderAnthropic: true,
		ProviderGemini:    true,
	}
	for _, name := range p.Order {
		if !known[name] {
			result = multierror.Append(result, fmt.Errorf("unknown provider %q in provider_order", name))
		}
	}
	if p.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("provider_timeout must be greater than 0"))
	}

	return result
}
