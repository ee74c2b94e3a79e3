package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Memory backend names.
const (
	MemoryBackendRedis    = "redis"
	MemoryBackendInMemory = "memory"
)

// MemoryConfig holds conversational memory settings.
type MemoryConfig struct {
	// Backend selects the store implementation: redis or memory
	Backend string `env:"MEMORY_BACKEND" yaml:"memory_backend" default:"memory"`

	RedisURL      string        `env:"REDIS_URL" yaml:"redis_url" default:"redis://localhost:6379/0"`
	RedisPassword string        `env:"REDIS_PASSWORD" yaml:"redis_password"`
	RedisTimeout  time.Duration `env:"REDIS_TIMEOUT" yaml:"redis_timeout" default:"5s"`

	// RecentLimit is how many records a recency query returns
	RecentLimit int `env:"MEMORY_RECENT_LIMIT" yaml:"memory_recent_limit" default:"5"`

	// HistoryCap bounds per-user history; oldest records are evicted
	HistoryCap int `env:"MEMORY_HISTORY_CAP" yaml:"memory_history_cap" default:"50"`

	// DedupThreshold: records whose word overlap with the current message
	// meets or exceeds this fraction are excluded from injected context
	DedupThreshold float64 `env:"MEMORY_DEDUP_THRESHOLD" yaml:"memory_dedup_threshold" default:"0.6"`

	// TruncateLength bounds memory context forwarded at medium/low importance
	TruncateLength int `env:"MEMORY_TRUNCATE_LENGTH" yaml:"memory_truncate_length" default:"200"`
}

// Validate checks the memory configuration.
func (m MemoryConfig) Validate() error {
	var result error

	if m.Backend != MemoryBackendRedis && m.Backend != MemoryBackendInMemory {
		result = multierror.Append(result, fmt.Errorf("memory_backend must be %q or %q, got %q",
			MemoryBackendRedis, MemoryBackendInMemory, m.Backend))
	}
	if m.Backend == MemoryBackendRedis && m.RedisURL == "" {
		result = multierror.Append(result, fmt.Errorf("redis_url is required when memory_backend is redis"))
	}
	if m.RecentLimit < 1 {
		result = multierror.Append(result, fmt.Errorf("memory_recent_limit must be positive, got %d", m.RecentLimit))
	}
	if m.HistoryCap < m.RecentLimit {
		result = multierror.Append(result, fmt.Errorf("memory_history_cap (%d) cannot be below memory_recent_limit (%d)",
			m.HistoryCap, m.RecentLimit))
	}
	if m.DedupThreshold <= 0 || m.DedupThreshold > 1 {
		result = multierror.Append(result, fmt.Errorf("memory_dedup_threshold must be in (0, 1], got %v", m.DedupThreshold))
	}
	if m.TruncateLength < 1 {
		result = multierror.Append(result, fmt.Errorf("memory_truncate_length must be positive, got %d", m.TruncateLength))
	}

	return result
}
