package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "shopping-assistant", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 8*time.Second, cfg.ExternalCallTimeout)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendBaseURL)
	assert.Equal(t, []string{"groq", "openai", "anthropic", "gemini"}, cfg.Providers.Order)
	assert.Equal(t, MemoryBackendInMemory, cfg.Memory.Backend)
	assert.Equal(t, 9999.0, cfg.Catalog.PriceSentinel)
	assert.Equal(t, 50.0, cfg.Catalog.AroundWindow)
	assert.Equal(t, 0.6, cfg.Memory.DedupThreshold)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PROVIDER_ORDER", "anthropic,groq")
	t.Setenv("MEMORY_BACKEND", "redis")
	t.Setenv("PRICE_AROUND_WINDOW", "25")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"anthropic", "groq"}, cfg.Providers.Order)
	assert.Equal(t, MemoryBackendRedis, cfg.Memory.Backend)
	assert.Equal(t, 25.0, cfg.Catalog.AroundWindow)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("MEMORY_BACKEND", "scratchpad")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory_backend")
}

func TestProvidersEnabledOrder(t *testing.T) {
	p := ProvidersConfig{
		Order:     []string{"groq", "openai", "anthropic", "gemini"},
		Groq:      GroqConfig{APIKey: "gsk-test"},
		Anthropic: AnthropicConfig{APIKey: "sk-ant-test"},
	}

	assert.Equal(t, []string{"groq", "anthropic"}, p.EnabledOrder())
	assert.True(t, p.Enabled(ProviderGroq))
	assert.False(t, p.Enabled(ProviderOpenAI))
	assert.False(t, p.Enabled("mystery"))
}

func TestProvidersValidateUnknownName(t *testing.T) {
	p := ProvidersConfig{Order: []string{"groq", "mystery"}, Timeout: time.Second}

	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}
