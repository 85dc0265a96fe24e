package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter 基于 Redis 的固定窗口限流器，多实例共享计数
type FixedWindowLimiter struct {
	client redis.Cmdable
	config Config
	now    func() time.Time
}

// NewFixedWindowLimiter 创建固定窗口限流器
func NewFixedWindowLimiter(client redis.Cmdable, config Config) (*FixedWindowLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.Limit <= 0 {
		return nil, fmt.Errorf("invalid limit %d", config.Limit)
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaultKeyPrefix
	}

	return &FixedWindowLimiter{
		client: client,
		config: config,
		now:    time.Now,
	}, nil
}

// Redis Lua脚本：固定窗口算法
// KEYS[1]: 当前窗口的计数器key
// ARGV[1]: 限制数量  ARGV[2]: 窗口秒数  ARGV[3]: 请求数量  ARGV[4]: 距窗口结束的秒数
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local requests = tonumber(ARGV[3])
local retry_after = tonumber(ARGV[4])

local current = tonumber(redis.call('GET', key) or 0)

if current + requests > limit then
    return {0, limit - current, retry_after, current}
end

local count = redis.call('INCRBY', key, requests)
if count == requests then
    redis.call('EXPIRE', key, window)
end
return {1, limit - count, 0, count}
`)

// getKey 生成Redis key
func (fw *FixedWindowLimiter) getKey(key string) string {
	return fmt.Sprintf("%s:%s", fw.config.KeyPrefix, key)
}

// Allow 检查是否允许请求通过
func (fw *FixedWindowLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	return fw.AllowN(ctx, key, 1)
}

// AllowN 检查是否允许N个请求通过
func (fw *FixedWindowLimiter) AllowN(ctx context.Context, key string, n int64) (*LimitResult, error) {
	now := fw.now().Unix()
	start := fw.config.windowStart(now)
	window := fw.config.windowSeconds()
	windowKey := fmt.Sprintf("%s:%d", fw.getKey(key), start)

	values, err := fixedWindowScript.Run(ctx, fw.client,
		[]string{windowKey},
		fw.config.Limit,
		window,
		n,
		start+window-now,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("run fixed window script: %w", err)
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result length %d", len(values))
	}

	return &LimitResult{
		Allowed:       values[0] == 1,
		Remaining:     values[1],
		RetryAfter:    time.Duration(values[2]) * time.Second,
		TotalRequests: values[3],
	}, nil
}

// Reset 删除 key 的所有窗口计数
func (fw *FixedWindowLimiter) Reset(ctx context.Context, key string) error {
	pattern := fw.getKey(key) + ":*"
	iter := fw.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan limiter keys: %w", err)
	}

	if len(keys) > 0 {
		if err := fw.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete limiter keys: %w", err)
		}
	}
	return nil
}
