// Package issues persists support tickets reported through the chat
// pipeline.
package issues

import (
	"context"
	"errors"
	"time"

	"github.com/lewisedginton/shopping_assistant/pkg/prefixed_uuid"
)

// ErrNotFound is returned when no issue has the given id.
var ErrNotFound = errors.New("issue not found")

// Issue statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// ValidStatus reports whether s is a known issue status.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusResolved
}

// Issue is a reported problem. Reference is the user-facing identifier quoted
// back in chat replies.
type Issue struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewReference mints a user-facing issue reference.
func NewReference() string {
	return prefixed_uuid.New("issue").String()
}

// Store is the issue repository contract.
type Store interface {
	// Create persists a new pending issue and fills in its id, reference and
	// timestamps.
	Create(ctx context.Context, issue *Issue) error

	// List returns all issues, newest first.
	List(ctx context.Context) ([]Issue, error)

	// UpdateStatus moves an issue to a new status.
	UpdateStatus(ctx context.Context, id int64, status string) (*Issue, error)

	// Delete removes an issue.
	Delete(ctx context.Context, id int64) error
}
