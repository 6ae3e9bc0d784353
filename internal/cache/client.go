package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// ErrKeyExists is returned when a set-if-absent finds the key taken.
var ErrKeyExists = errors.New("key already exists")

// Client wraps Redis operations using rueidis.
type Client struct {
	redis rueidis.Client
}

// NewClient creates a new Redis client.
func NewClient(ctx context.Context, url string) (*Client, error) {
	// Parse Redis URL (redis://localhost:6379)
	opts, err := rueidis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}

	// Verify connection
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{redis: client}, nil
}

// Close closes the Redis client.
func (c *Client) Close() {
	c.redis.Close()
}

// Ping checks if Redis is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.redis.Do(ctx, c.redis.B().Ping().Build()).Error()
}

// --- JSON values ---

// SetJSON stores v as JSON under key with a TTL.
func (c *Client) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.redis.Do(ctx,
		c.redis.B().Set().Key(key).Value(string(data)).Ex(ttl).Build(),
	).Error()
}

// GetJSON loads key into v. It returns false if the key does not exist.
func (c *Client) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.redis.Do(ctx, c.redis.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Delete removes a key.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.redis.Do(ctx, c.redis.B().Del().Key(key).Build()).Error()
}

// --- Rate Limiting ---

// CheckRateLimit checks if a session has exceeded its rate limit.
// Returns true if request is allowed, false if rate limited.
func (c *Client) CheckRateLimit(ctx context.Context, subject string, limitPerMinute int) (bool, error) {
	key := fmt.Sprintf("rate_limit:%s", subject)
	now := time.Now().UnixMilli()
	windowStart := now - 60_000 // 1 minute window

	// Use a Lua script for atomic rate limiting
	script := `
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window_start = tonumber(ARGV[2])
		local limit = tonumber(ARGV[3])

		-- Remove old entries
		redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

		-- Count current requests
		local count = redis.call('ZCARD', key)

		if count < limit then
			-- Add current request
			redis.call('ZADD', key, now, now .. ':' .. math.random())
			redis.call('EXPIRE', key, 60)
			return 1
		else
			return 0
		end
	`

	result, err := c.redis.Do(ctx,
		c.redis.B().Eval().Script(script).Numkeys(1).Key(key).Arg(
			fmt.Sprintf("%d", now),
			fmt.Sprintf("%d", windowStart),
			fmt.Sprintf("%d", limitPerMinute),
		).Build(),
	).ToInt64()

	if err != nil {
		return false, fmt.Errorf("check rate limit: %w", err)
	}

	return result == 1, nil
}

// --- Idempotency ---

// SetIdempotencyKey stores the result of a create call under a client-chosen key.
func (c *Client) SetIdempotencyKey(ctx context.Context, scope, key string, result []byte, ttl time.Duration) error {
	redisKey := fmt.Sprintf("idempotency:%s:%s", scope, key)

	cmd := c.redis.B().Set().Key(redisKey).Value(string(result)).Nx().ExSeconds(int64(ttl.Seconds())).Build()
	err := c.redis.Do(ctx, cmd).Error()
	if rueidis.IsRedisNil(err) {
		return ErrKeyExists
	}
	return err
}

// GetIdempotencyKey retrieves an idempotency result.
func (c *Client) GetIdempotencyKey(ctx context.Context, scope, key string) ([]byte, error) {
	redisKey := fmt.Sprintf("idempotency:%s:%s", scope, key)
	result, err := c.redis.Do(ctx, c.redis.B().Get().Key(redisKey).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(result), nil
}
