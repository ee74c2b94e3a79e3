// Package openai provides the OpenAI generation provider.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lewisedginton/shopping_assistant/internal/generation"
)

// Model implements generation.Provider for OpenAI chat models.
type Model struct {
	client    *openai.Client
	modelName string
	name      string
}

// New creates an OpenAI provider.
func New(apiKey, modelName string) (*Model, error) {
	return NewCompatible("openai", apiKey, modelName)
}

// NewCompatible creates a provider against any OpenAI-compatible API. The
// Groq provider rides this with a base URL override.
func NewCompatible(name, apiKey, modelName string, opts ...option.RequestOption) (*Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Model{
		client:    &client,
		modelName: modelName,
		name:      name,
	}, nil
}

// Name returns the provider name.
func (m *Model) Name() string {
	return m.name
}

// Complete generates a chat completion.
func (m *Model) Complete(ctx context.Context, messages []generation.Message, temperature float64, maxTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       m.modelName,
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(temperature),
		Messages:    transformMessages(messages),
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", m.name, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", m.name)
	}
	return completion.Choices[0].Message.Content, nil
}

// transformMessages converts chat messages to OpenAI message params. Unknown
// roles default to user.
func transformMessages(messages []generation.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case generation.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case generation.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
