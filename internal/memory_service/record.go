// Package memory_service provides per-user conversational memory: an
// append-only record store with durable (Redis) and in-process backends, the
// importance heuristic gating how much past context is forwarded, and the
// de-duplication filter keeping the current message out of its own context.
package memory_service

import (
	"context"
	"fmt"
	"time"
)

// Record is one completed exchange. Records are append-only and retrieved
// newest first; chronological recall is the primary axis, semantic search a
// best-effort secondary one.
type Record struct {
	UserID    string            `json:"user_id"`
	UserText  string            `json:"user_text"`
	BotText   string            `json:"bot_text"`
	Intent    string            `json:"intent"`
	Extra     map[string]string `json:"extra,omitempty"`
	Username  string            `json:"username,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ExtraMessage is the Extra key holding the verbatim user message. Handlers
// store UserText with a descriptive prefix; the raw message is kept here so
// de-duplication compares like with like.
const ExtraMessage = "message"

// Summary renders a record for injection into a prompt.
func (r Record) Summary() string {
	return fmt.Sprintf("User: %s | Assistant: %s", r.UserText, r.BotText)
}

// EchoText returns the verbatim user message when stored, falling back to the
// possibly-prefixed UserText.
func (r Record) EchoText() string {
	if raw := r.Extra[ExtraMessage]; raw != "" {
		return raw
	}
	return r.UserText
}

// Profile is the stored user identity.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Store is the memory backend contract. Implementations cap per-user history
// and evict oldest records on overflow.
type Store interface {
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]Record, error)

	// Search returns records related to the query, best effort, newest first.
	Search(ctx context.Context, userID, query string) ([]Record, error)

	// Append stores one completed exchange.
	Append(ctx context.Context, userID string, rec Record) error

	// StoreProfile saves the user identity.
	StoreProfile(ctx context.Context, userID, username, email string) error

	// Profile returns the stored identity, or nil when unknown.
	Profile(ctx context.Context, userID string) (*Profile, error)

	// Clear removes all memory and profile data for the user.
	Clear(ctx context.Context, userID string) error
}
