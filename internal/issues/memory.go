package issues

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps issues in process memory. It backs deployments that run
// without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Issue
}

// NewMemoryStore creates an empty in-process issue store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		byID:   make(map[int64]Issue),
	}
}

// Create assigns an id, reference and timestamps, and stores the issue as
// pending.
func (s *MemoryStore) Create(_ context.Context, issue *Issue) error {
	if issue == nil {
		return fmt.Errorf("issue cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	issue.ID = s.nextID
	s.nextID++
	if issue.Reference == "" {
		issue.Reference = NewReference()
	}
	issue.Status = StatusPending
	issue.CreatedAt = now
	issue.UpdatedAt = now

	s.byID[issue.ID] = *issue
	return nil
}

// List returns all issues, newest first.
func (s *MemoryStore) List(_ context.Context) ([]Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Issue, 0, len(s.byID))
	for _, issue := range s.byID {
		out = append(out, issue)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus moves an issue to a new status.
func (s *MemoryStore) UpdateStatus(_ context.Context, id int64, status string) (*Issue, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("updating issue %d: %w", id, ErrNotFound)
	}
	issue.Status = status
	issue.UpdatedAt = time.Now().UTC()
	s.byID[id] = issue
	return &issue, nil
}

// Delete removes an issue.
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("deleting issue %d: %w", id, ErrNotFound)
	}
	delete(s.byID, id)
	return nil
}
