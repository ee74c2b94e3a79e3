// Package gemini provides the Google Gemini generation provider.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/lewisedginton/shopping_assistant/internal/generation"
	"github.com/lewisedginton/shopping_assistant/pkg/utils"
)

// Model implements generation.Provider for Gemini models.
type Model struct {
	client    *genai.Client
	modelName string
}

// New creates a Gemini provider. The context is only used for client setup.
func New(ctx context.Context, apiKey, modelName string) (*Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Model{
		client:    client,
		modelName: modelName,
	}, nil
}

// Name returns the provider name.
func (m *Model) Name() string {
	return "gemini"
}

// Complete generates a completion. System messages become the system
// instruction; assistant turns map to the model role.
func (m *Model) Complete(ctx context.Context, messages []generation.Message, temperature float64, maxTokens int) (string, error) {
	contents, system := transformMessages(messages)
	if len(contents) == 0 {
		return "", fmt.Errorf("no user or assistant messages to send")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     utils.ToPtr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	return resp.Text(), nil
}

// transformMessages converts chat messages to genai contents, collecting
// system content separately.
func transformMessages(messages []generation.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var system string

	for _, msg := range messages {
		switch msg.Role {
		case generation.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
		case generation.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	return contents, system
}
