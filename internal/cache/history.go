package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ayushbunkar/Meditrack/internal/model"
)

// DefaultHistoryTTL bounds staleness if an invalidation is lost.
const DefaultHistoryTTL = 30 * time.Second

// generationTTL outlives any entry, so a generation never restarts while
// an entry written under an older one can still be read.
const generationTTL = 24 * time.Hour

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// HistoryCache stores a user's joined alert history.
//
// Entries are versioned by a per-user generation. GetHistory reports the
// current generation even on a miss; SetHistory stores under the generation
// the caller read before loading from the store. InvalidateHistory bumps the
// generation, so a load that raced with a write lands under a generation
// nobody reads any more.
type HistoryCache interface {
	GetHistory(ctx context.Context, userID string) ([]*model.AlertDetail, uint64, error)
	SetHistory(ctx context.Context, userID string, gen uint64, history []*model.AlertDetail) error
	InvalidateHistory(ctx context.Context, userID string) error
}

var _ HistoryCache = (*RedisHistory)(nil)

// RedisHistory is a HistoryCache on top of Cache.
type RedisHistory struct {
	cache *Cache
	ttl   time.Duration
}

// NewRedisHistory returns a history cache. ttl <= 0 uses DefaultHistoryTTL.
func NewRedisHistory(c *Cache, ttl time.Duration) *RedisHistory {
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	return &RedisHistory{cache: c, ttl: ttl}
}

func (h *RedisHistory) genKey(userID string) string {
	return h.cache.key("history", "gen", userID)
}

func (h *RedisHistory) key(userID string, gen uint64) string {
	return h.cache.key("history", userID, strconv.FormatUint(gen, 10))
}

func (h *RedisHistory) generation(ctx context.Context, userID string) (uint64, error) {
	gen, err := h.cache.client.Get(ctx, h.genKey(userID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

// GetHistory returns the cached history of the current generation, or
// ErrCacheMiss together with that generation.
func (h *RedisHistory) GetHistory(ctx context.Context, userID string) ([]*model.AlertDetail, uint64, error) {
	gen, err := h.generation(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	data, err := h.cache.client.Get(ctx, h.key(userID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, ErrCacheMiss
	}
	if err != nil {
		return nil, 0, fmt.Errorf("redis get failed: %w", err)
	}

	var history []*model.AlertDetail
	if err := json.Unmarshal(data, &history); err != nil {
		// Corrupted entry - treat as miss
		return nil, gen, ErrCacheMiss
	}
	return history, gen, nil
}

// SetHistory stores the history under gen with the configured TTL.
func (h *RedisHistory) SetHistory(ctx context.Context, userID string, gen uint64, history []*model.AlertDetail) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return h.cache.client.Set(ctx, h.key(userID, gen), data, h.ttl).Err()
}

// InvalidateHistory moves the user to a new generation.
func (h *RedisHistory) InvalidateHistory(ctx context.Context, userID string) error {
	pipe := h.cache.client.TxPipeline()
	pipe.Incr(ctx, h.genKey(userID))
	pipe.Expire(ctx, h.genKey(userID), generationTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// NopHistory never caches. Used when Redis is not configured.
type NopHistory struct{}

var _ HistoryCache = NopHistory{}

func (NopHistory) GetHistory(context.Context, string) ([]*model.AlertDetail, uint64, error) {
	return nil, 0, ErrCacheMiss
}

func (NopHistory) SetHistory(context.Context, string, uint64, []*model.AlertDetail) error { return nil }

func (NopHistory) InvalidateHistory(context.Context, string) error { return nil }
