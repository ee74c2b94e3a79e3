package memory_service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

// RedisStore is the durable memory backend: a per-user list of JSON records
// trimmed to Cap, plus a profile hash.
type RedisStore struct {
	client *redis.Client
	log    logger.Logger
	cap    int
}

// RedisConfig holds RedisStore dependencies.
type RedisConfig struct {
	Logger logger.Logger
	Client *redis.Client

	// Cap bounds per-user history; oldest records are trimmed away
	Cap int
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.Cap < 1 {
		cfg.Cap = 50
	}
	return &RedisStore{
		client: cfg.Client,
		log:    cfg.Logger,
		cap:    cfg.Cap,
	}, nil
}

// Client exposes the underlying client for health checks.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func memoryKey(userID string) string  { return "assistant:memory:" + userID }
func profileKey(userID string) string { return "assistant:profile:" + userID }

// Append pushes the record to the head of the user's list and trims history
// to the cap.
func (s *RedisStore) Append(ctx context.Context, userID string, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal memory record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, memoryKey(userID), payload)
	pipe.LTrim(ctx, memoryKey(userID), 0, int64(s.cap-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append memory record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *RedisStore) Recent(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit < 1 {
		limit = s.cap
	}
	raw, err := s.client.LRange(ctx, memoryKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read memory records: %w", err)
	}
	return s.decode(raw), nil
}

// Search fetches the whole capped history and filters by word overlap with
// the query. Best effort; the list is small by construction.
func (s *RedisStore) Search(ctx context.Context, userID, query string) ([]Record, error) {
	raw, err := s.client.LRange(ctx, memoryKey(userID), 0, int64(s.cap-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to search memory records: %w", err)
	}

	queryWords := wordSet(query)
	var out []Record
	for _, r := range s.decode(raw) {
		if sharesWord(queryWords, r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// StoreProfile saves the user identity.
func (s *RedisStore) StoreProfile(ctx context.Context, userID, username, email string) error {
	if err := s.client.HSet(ctx, profileKey(userID), "username", username, "email", email).Err(); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

// Profile returns the stored identity, or nil when unknown.
func (s *RedisStore) Profile(ctx context.Context, userID string) (*Profile, error) {
	fields, err := s.client.HGetAll(ctx, profileKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return &Profile{Username: fields["username"], Email: fields["email"]}, nil
}

// Clear removes all memory and profile data for the user.
func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, memoryKey(userID), profileKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear memory: %w", err)
	}
	return nil
}

// decode unmarshals raw list entries, skipping corrupt ones with a warning.
func (s *RedisStore) decode(raw []string) []Record {
	out := make([]Record, 0, len(raw))
	for _, entry := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			if s.log != nil {
				s.log.Warn("Skipping corrupt memory record", logger.ErrorField(err))
			}
			continue
		}
		out = append(out, rec)
	}
	return out
}
