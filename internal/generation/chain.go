package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lewisedginton/shopping_assistant/pkg/logger"
	"github.com/lewisedginton/shopping_assistant/pkg/metrics"
)

// ErrAllProvidersFailed is wrapped into the error returned when every
// provider in the chain failed.
var ErrAllProvidersFailed = fmt.Errorf("all generation providers failed")

// Config holds the dependencies for a Chain.
type Config struct {
	Logger    logger.Logger
	Providers []Provider

	// Timeout bounds each individual provider call. A timed-out call still
	// advances to the next provider.
	Timeout time.Duration

	// Metrics is optional; fallbacks are counted per skipped provider.
	Metrics *metrics.Metrics
}

// Chain tries generation providers strictly in configured order. Raising,
// timing out and returning an empty string all count as provider failure.
type Chain struct {
	log       logger.Logger
	providers []Provider
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// New creates a Chain. At least one provider is required.
func New(cfg Config) (*Chain, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Chain{
		log:       cfg.Logger,
		providers: cfg.Providers,
		timeout:   timeout,
		metrics:   cfg.Metrics,
	}, nil
}

// Providers returns the provider names in fallback order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Generate tries each provider in order and returns the first non-empty
// completion. The error wraps ErrAllProvidersFailed when the whole chain is
// exhausted.
func (c *Chain) Generate(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveGenerationDuration(time.Since(start))
		}
	}()

	var lastErr error
	for _, p := range c.providers {
		// The parent context may already be done, but a per-provider timeout
		// on an expired parent would spin through the chain instantly.
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("generation cancelled: %w", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := p.Complete(callCtx, messages, temperature, maxTokens)
		cancel()

		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}

		if err == nil {
			err = fmt.Errorf("empty completion")
		}
		lastErr = err

		if c.log != nil {
			c.log.Warn("Generation provider failed, advancing chain",
				logger.StringField("provider", p.Name()),
				logger.ErrorField(err))
		}
		if c.metrics != nil {
			c.metrics.IncrementProviderFallbacks(p.Name())
		}
	}

	return "", fmt.Errorf("%w: %v", ErrAllProvidersFailed, lastErr)
}
