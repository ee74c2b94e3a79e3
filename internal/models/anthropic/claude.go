// Package anthropic provides the Anthropic Claude generation provider.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lewisedginton/shopping_assistant/internal/generation"
)

// Model implements generation.Provider for Claude models.
type Model struct {
	client    anthropic.Client
	modelName string
}

// New creates a Claude provider.
func New(apiKey, modelName string, opts ...option.RequestOption) (*Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	client := anthropic.NewClient(
		append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...,
	)

	return &Model{
		client:    client,
		modelName: modelName,
	}, nil
}

// Name returns the provider name.
func (m *Model) Name() string {
	return "anthropic"
}

// Complete generates a completion. System messages are lifted into the
// request's system field because the Anthropic API does not accept a system
// role inside the messages array.
func (m *Model) Complete(ctx context.Context, messages []generation.Message, temperature float64, maxTokens int) (string, error) {
	converted, system := transformMessages(messages)
	if len(converted) == 0 {
		return "", fmt.Errorf("no user or assistant messages to send")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.modelName),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		Messages:    converted,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), nil
}

// transformMessages converts chat messages to Anthropic message params and
// collects system content separately.
func transformMessages(messages []generation.Message) ([]anthropic.MessageParam, string) {
	var out []anthropic.MessageParam
	var system []string

	for _, msg := range messages {
		switch msg.Role {
		case generation.RoleSystem:
			system = append(system, msg.Content)
		case generation.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return out, strings.Join(system, "\n\n")
}
