package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitResult is the outcome of taking one token.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter checks token buckets keyed by client IP or user.
// Callers decide whether to fail open on error.
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error)
	CheckUserRateLimit(ctx context.Context, userID string, ratePerMinute, burst int) (*RateLimitResult, error)
}

var _ RateLimiter = (*Cache)(nil)

// bucket describes one token bucket family.
type bucket struct {
	scope string
	rate  float64 // tokens per second
	burst int
}

// ttl keeps an idle bucket just long enough to refill completely.
func (b bucket) ttl() time.Duration {
	full := time.Duration(math.Ceil(float64(b.burst)/b.rate*1000)) * time.Millisecond
	if full < time.Second {
		full = time.Second
	}
	return full + time.Second
}

// unlimited is returned when a bucket has no rate configured.
func (b bucket) unlimited(now time.Time) *RateLimitResult {
	return &RateLimitResult{Allowed: true, Remaining: int64(b.burst), ResetAt: now}
}

// takeTokenScript refills by elapsed milliseconds and takes one token.
// Returns {allowed, wait_ms, remaining}.
var takeTokenScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now
if now > ts then
	tokens = math.min(burst, tokens + (now - ts) * rate)
end

local allowed = 0
local wait = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	wait = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, wait, math.floor(tokens)}
`)

// CheckUserRateLimit takes a token from the user's bucket.
func (c *Cache) CheckUserRateLimit(ctx context.Context, userID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	b := bucket{scope: "user", rate: float64(ratePerMinute) / 60, burst: burst}
	return c.take(ctx, b, userID)
}

// CheckIPRateLimit takes a token from the client IP's bucket. The IP is
// stored hashed.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	b := bucket{scope: "ip", rate: float64(ratePerSecond), burst: burst}
	return c.take(ctx, b, hashIP(ip))
}

func (c *Cache) take(ctx context.Context, b bucket, id string) (*RateLimitResult, error) {
	now := time.Now()
	if b.rate <= 0 {
		return b.unlimited(now), nil
	}

	res, err := takeTokenScript.Run(ctx, c.client,
		[]string{c.key("ratelimit", b.scope, id)},
		b.rate/1000, b.burst, now.UnixMilli(), b.ttl().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", b.scope, err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit %s: unexpected reply %v", b.scope, res)
	}

	wait := time.Duration(res[1]) * time.Millisecond
	result := &RateLimitResult{
		Allowed:   res[0] == 1,
		Remaining: res[2],
		ResetAt:   now.Add(time.Duration(float64(time.Second) / b.rate)),
	}
	if !result.Allowed {
		result.RetryAfter = wait
		result.ResetAt = now.Add(wait)
	}
	return result, nil
}

// hashIP returns the first 8 bytes of SHA-256 as hex.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
