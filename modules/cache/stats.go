// Package cache keeps task statistics in Redis between mutations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofiber/storage/redis/v3"
	goredis "github.com/redis/go-redis/v9"

	domain "github.com/kabilangimba/team-task-management-system/domain/task"
)

// ErrNotStarted is returned when the cache is used before its plugin has connected.
var ErrNotStarted = errors.New("stats cache not started")

const generationKey = "generation"

// StatsCache stores per-scope task statistics keyed by a generation number.
// Invalidation bumps the generation instead of deleting keys; entries of older
// generations are never read again and expire with their TTL.
type StatsCache struct {
	storage *redis.Storage
	prefix  string
	ttl     time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// Counters is a snapshot of cache effectiveness.
type Counters struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// NewStatsCache wraps an open Redis storage. storage may be nil until attach is called.
func NewStatsCache(storage *redis.Storage, prefix string, ttl time.Duration) *StatsCache {
	return &StatsCache{storage: storage, prefix: prefix, ttl: ttl}
}

func (c *StatsCache) attach(storage *redis.Storage) {
	c.storage = storage
}

// Generation returns the current generation. A missing counter reads as zero.
func (c *StatsCache) Generation(ctx context.Context) (int64, error) {
	if c.storage == nil {
		return 0, ErrNotStarted
	}
	gen, err := c.storage.Conn().Get(ctx, c.prefix+generationKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation error: %w", err)
	}
	return gen, nil
}

// Get returns the statistics cached for key in generation gen.
func (c *StatsCache) Get(ctx context.Context, gen int64, key string) (domain.Stats, bool, error) {
	var stats domain.Stats
	if c.storage == nil {
		return stats, false, ErrNotStarted
	}

	data, err := c.storage.GetWithContext(ctx, c.key(gen, key))
	if err != nil {
		return stats, false, fmt.Errorf("cache get error: %w", err)
	}
	if len(data) == 0 {
		c.misses.Add(1)
		return stats, false, nil
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		return stats, false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	c.hits.Add(1)
	return stats, true, nil
}

// Set stores stats for key in generation gen with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, gen int64, key string, stats domain.Stats) error {
	if c.storage == nil {
		return ErrNotStarted
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.storage.SetWithContext(ctx, c.key(gen, key), data, c.ttl); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// Invalidate retires every cached entry by moving to the next generation.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if c.storage == nil {
		return ErrNotStarted
	}
	if err := c.storage.Conn().Incr(ctx, c.prefix+generationKey).Err(); err != nil {
		return fmt.Errorf("cache invalidate error: %w", err)
	}
	return nil
}

// Counters returns the hit and miss counts since start.
func (c *StatsCache) Counters() Counters {
	return Counters{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *StatsCache) key(gen int64, key string) string {
	return c.prefix + "v" + strconv.FormatInt(gen, 10) + ":" + key
}
