package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const maxMemoryKeys = 10000

type memoryWindow struct {
	start int64
	count int64
}

// MemoryLimiter 进程内固定窗口限流器，用于单实例部署或 Redis 不可用时
type MemoryLimiter struct {
	mu      sync.Mutex
	config  Config
	windows map[string]*memoryWindow
	now     func() time.Time
}

// NewMemoryLimiter 创建进程内固定窗口限流器
func NewMemoryLimiter(config Config) (*MemoryLimiter, error) {
	if config.Limit <= 0 {
		return nil, fmt.Errorf("invalid limit %d", config.Limit)
	}
	return &MemoryLimiter{
		config:  config,
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}, nil
}

// Allow 检查是否允许请求通过
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	return m.AllowN(ctx, key, 1)
}

// AllowN 检查是否允许N个请求通过
func (m *MemoryLimiter) AllowN(_ context.Context, key string, n int64) (*LimitResult, error) {
	now := m.now().Unix()
	start := m.config.windowStart(now)

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || w.start != start {
		if len(m.windows) >= maxMemoryKeys {
			m.sweep(start)
		}
		w = &memoryWindow{start: start}
		m.windows[key] = w
	}

	if w.count+n > m.config.Limit {
		retry := start + m.config.windowSeconds() - now
		return &LimitResult{
			Allowed:       false,
			Remaining:     m.config.Limit - w.count,
			RetryAfter:    time.Duration(retry) * time.Second,
			TotalRequests: w.count,
		}, nil
	}

	w.count += n
	return &LimitResult{
		Allowed:       true,
		Remaining:     m.config.Limit - w.count,
		TotalRequests: w.count,
	}, nil
}

// sweep 清理不属于当前窗口的计数
func (m *MemoryLimiter) sweep(start int64) {
	for k, w := range m.windows {
		if w.start != start {
			delete(m.windows, k)
		}
	}
}

// Reset 重置 key 的计数
func (m *MemoryLimiter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.windows, key)
	m.mu.Unlock()
	return nil
}
