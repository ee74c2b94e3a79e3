package memory_service

import (
	"context"
	"sync"

	"github.com/lewisedginton/shopping_assistant/internal/catalog"
)

// InProcessStore is the bounded in-process fallback backend: per-user ordered
// lists capped at Cap records, oldest evicted on overflow. Chronological
// recall only; Search degrades to keyword overlap.
type InProcessStore struct {
	mu       sync.RWMutex
	cap      int
	records  map[string][]Record
	profiles map[string]Profile
}

// NewInProcessStore creates an in-process store capped at cap records per
// user.
func NewInProcessStore(cap int) *InProcessStore {
	if cap < 1 {
		cap = 50
	}
	return &InProcessStore{
		cap:      cap,
		records:  make(map[string][]Record),
		profiles: make(map[string]Profile),
	}
}

// Append stores a record, evicting the oldest when the cap is reached.
func (s *InProcessStore) Append(_ context.Context, userID string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.records[userID], rec)
	if len(history) > s.cap {
		history = history[len(history)-s.cap:]
	}
	s.records[userID] = history
	return nil
}

// Recent returns up to limit records, newest first.
func (s *InProcessStore) Recent(_ context.Context, userID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.records[userID]
	if limit < 1 || limit > len(history) {
		limit = len(history)
	}

	out := make([]Record, 0, limit)
	for i := len(history) - 1; i >= len(history)-limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

// Search returns records sharing at least one word with the query, newest
// first.
func (s *InProcessStore) Search(_ context.Context, userID, query string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queryWords := wordSet(query)
	history := s.records[userID]

	var out []Record
	for i := len(history) - 1; i >= 0; i-- {
		if sharesWord(queryWords, history[i]) {
			out = append(out, history[i])
		}
	}
	return out, nil
}

// StoreProfile saves the user identity.
func (s *InProcessStore) StoreProfile(_ context.Context, userID, username, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = Profile{Username: username, Email: email}
	return nil
}

// Profile returns the stored identity, or nil when unknown.
func (s *InProcessStore) Profile(_ context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Clear removes all memory and profile data for the user.
func (s *InProcessStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	delete(s.profiles, userID)
	return nil
}

func sharesWord(queryWords map[string]bool, r Record) bool {
	for _, tok := range catalog.Tokenize(r.UserText + " " + r.BotText) {
		if queryWords[tok] {
			return true
		}
	}
	return false
}
