// Package groq provides the Groq generation provider. Groq serves an
// OpenAI-compatible API, so this is the OpenAI client pointed at Groq's
// endpoint.
package groq

import (
	"fmt"

	"github.com/openai/openai-go/option"

	"github.com/lewisedginton/shopping_assistant/internal/models/openai"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// New creates a Groq provider. An empty baseURL uses DefaultBaseURL.
func New(apiKey, modelName, baseURL string) (*openai.Model, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	m, err := openai.NewCompatible("groq", apiKey, modelName, option.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create groq provider: %w", err)
	}
	return m, nil
}
