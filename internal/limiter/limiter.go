// Package limiter 提供固定窗口限流器及其 gin 中间件
package limiter

import (
	"context"
	"time"
)

// LimitResult 限流结果
type LimitResult struct {
	Allowed       bool          `json:"allowed"`        // 是否允许通过
	Remaining     int64         `json:"remaining"`      // 剩余配额
	RetryAfter    time.Duration `json:"retry_after"`    // 建议重试时间
	TotalRequests int64         `json:"total_requests"` // 当前窗口内的请求数
}

// Limiter 限流器接口
type Limiter interface {
	// Allow 检查是否允许请求通过
	Allow(ctx context.Context, key string) (*LimitResult, error)

	// AllowN 检查是否允许N个请求通过
	AllowN(ctx context.Context, key string, n int64) (*LimitResult, error)

	// Reset 重置限流状态
	Reset(ctx context.Context, key string) error
}

// Config 限流配置
type Config struct {
	Limit     int64         `json:"limit"`      // 每个窗口允许的请求数
	Window    time.Duration `json:"window"`     // 时间窗口
	KeyPrefix string        `json:"key_prefix"` // Key前缀
}

const defaultKeyPrefix = "limiter:fw"

// windowSeconds 窗口长度（秒），不足一秒按一秒计
func (c *Config) windowSeconds() int64 {
	secs := int64(c.Window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// windowStart 返回 now 所在窗口的起始时间戳（秒）
func (c *Config) windowStart(now int64) int64 {
	w := c.windowSeconds()
	return (now / w) * w
}
