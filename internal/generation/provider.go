// Package generation provides the text-generation provider abstraction and
// the ordered fallback chain the pipeline calls for every completion.
package generation

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a single-element message slice, the common case for the
// pipeline's constrained prompts.
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// Provider is a single text-generation backend.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Complete generates a completion. An empty result with a nil error is
	// treated as a failure by the chain.
	Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
}
