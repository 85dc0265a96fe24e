package limiter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/middleware"
	"github.com/MorseWayne/shoe_catalog/internal/resp"
)

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	// 限流器
	Limiter Limiter

	// Key生成函数
	KeyGenerator func(*gin.Context) string

	// 错误处理函数
	ErrorHandler func(*gin.Context, error)

	// 限流回调函数
	OnLimitReached func(*gin.Context, *LimitResult)

	// 是否跳过限流检查
	Skip func(*gin.Context) bool

	// 响应头配置
	Headers *HeaderConfig

	Logger *zap.Logger
}

// HeaderConfig 响应头配置
type HeaderConfig struct {
	Enable           bool
	RemainingHeader  string // X-RateLimit-Remaining
	RetryAfterHeader string // Retry-After
}

// DefaultHeaderConfig 默认头配置
func DefaultHeaderConfig() *HeaderConfig {
	return &HeaderConfig{
		Enable:           true,
		RemainingHeader:  "X-RateLimit-Remaining",
		RetryAfterHeader: "Retry-After",
	}
}

// DefaultKeyGenerator 默认Key生成器（基于IP）
func DefaultKeyGenerator(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// PathKeyGenerator 路径Key生成器
func PathKeyGenerator(c *gin.Context) string {
	return fmt.Sprintf("path:%s:%s", c.Request.Method, c.FullPath())
}

// CombinedKeyGenerator 组合Key生成器
func CombinedKeyGenerator(generators ...func(*gin.Context) string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		parts := make([]string, 0, len(generators))
		for _, gen := range generators {
			parts = append(parts, gen(c))
		}
		return strings.Join(parts, ":")
	}
}

// RateLimitMiddleware 创建限流中间件
func RateLimitMiddleware(config *MiddlewareConfig) gin.HandlerFunc {
	if config.KeyGenerator == nil {
		config.KeyGenerator = DefaultKeyGenerator
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.ErrorHandler == nil {
		logger := config.Logger
		config.ErrorHandler = func(c *gin.Context, err error) {
			// 限流服务不可用时放行
			logger.Warn("rate limiter unavailable", zap.String("path", c.FullPath()), zap.Error(err))
			c.Next()
		}
	}
	if config.OnLimitReached == nil {
		config.OnLimitReached = defaultOnLimitReached
	}
	if config.Headers == nil {
		config.Headers = DefaultHeaderConfig()
	}

	return func(c *gin.Context) {
		if config.Skip != nil && config.Skip(c) {
			c.Next()
			return
		}

		key := config.KeyGenerator(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		result, err := config.Limiter.Allow(ctx, key)
		if err != nil {
			config.ErrorHandler(c, err)
			return
		}

		if config.Headers.Enable {
			setRateLimitHeaders(c, result, config.Headers)
		}

		if !result.Allowed {
			config.OnLimitReached(c, result)
			c.Abort()
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders 设置限流相关的响应头
func setRateLimitHeaders(c *gin.Context, result *LimitResult, headers *HeaderConfig) {
	if headers.RemainingHeader != "" {
		remaining := result.Remaining
		if remaining < 0 {
			remaining = 0
		}
		c.Header(headers.RemainingHeader, strconv.FormatInt(remaining, 10))
	}

	if headers.RetryAfterHeader != "" && result.RetryAfter > 0 {
		c.Header(headers.RetryAfterHeader, strconv.FormatInt(int64(result.RetryAfter.Seconds()), 10))
	}
}

// defaultOnLimitReached 默认限流回调
func defaultOnLimitReached(c *gin.Context, _ *LimitResult) {
	reqID := middleware.RequestIDFromContext(c.Request.Context())
	resp.Error(c.Writer, http.StatusTooManyRequests, resp.CodeRateLimited,
		"too many requests", reqID, "")
}

// CatalogRateLimitMiddleware 目录接口限流：按客户端IP和路由计数
func CatalogRateLimitMiddleware(limiter Limiter, logger *zap.Logger) gin.HandlerFunc {
	return RateLimitMiddleware(&MiddlewareConfig{
		Limiter:      limiter,
		KeyGenerator: CombinedKeyGenerator(DefaultKeyGenerator, PathKeyGenerator),
		Skip: func(c *gin.Context) bool {
			return c.Request.Method == http.MethodOptions
		},
		Headers: DefaultHeaderConfig(),
		Logger:  logger,
	})
}
