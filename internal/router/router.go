// Package router 提供 HTTP 路由设置和中间件配置功能
package router

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/api"
	"github.com/MorseWayne/shoe_catalog/internal/cache"
	"github.com/MorseWayne/shoe_catalog/internal/config"
	"github.com/MorseWayne/shoe_catalog/internal/limiter"
	"github.com/MorseWayne/shoe_catalog/internal/middleware"
	"github.com/MorseWayne/shoe_catalog/internal/service"
)

// Dependencies 包含路由设置所需的所有依赖
type Dependencies struct {
	CatalogHandler *api.CatalogHandler
	JWTService     service.JWTService
	// Limiter 为 nil 时不限流
	Limiter limiter.Limiter
	// Cache 用于健康检查，为 nil 时跳过
	Cache cache.Cache
}

// healthPingTimeout 健康检查中探测缓存的超时
const healthPingTimeout = time.Second

// Router 路由器接口
type Router interface {
	Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler
}

// GinRouter Gin路由器实现
type GinRouter struct {
	engine *gin.Engine
	deps   *Dependencies
	logger *zap.Logger
	cfg    *config.Config
}

// New 创建新的路由器实例
func New() Router {
	return &GinRouter{}
}

// Setup 设置路由和中间件
func (r *GinRouter) Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler {
	switch cfg.App.Env {
	case "prod":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r.engine = gin.New()
	r.deps = deps
	r.logger = lg
	r.cfg = cfg

	r.setupMiddleware()
	r.setupRoutes()

	return r.engine
}

// setupMiddleware 设置 Gin 中间件
func (r *GinRouter) setupMiddleware() {
	r.engine.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		r.logger.Error("handler panic", zap.Any("panic", rec), zap.String("route", c.FullPath()))
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	r.engine.Use(r.ginLogger())
	r.engine.Use(r.corsMiddleware())
}

// setupRoutes 设置所有路由
func (r *GinRouter) setupRoutes() {
	r.engine.GET("/healthz", r.healthCheck)

	h := r.deps.CatalogHandler
	v1 := r.engine.Group("/api/v1")
	{
		// 目录页（公开，限流）
		catalog := v1.Group("/catalog")
		if r.deps.Limiter != nil {
			catalog.Use(limiter.CatalogRateLimitMiddleware(r.deps.Limiter, r.logger))
		}
		{
			catalog.GET("/options", h.GetOptions)

			sessions := catalog.Group("/sessions")
			{
				sessions.POST("", h.OpenSession)
				sessions.GET("/:id", h.GetSession)
				sessions.PUT("/:id/filters", h.ApplyFilter)
				sessions.POST("/:id/next", h.NextPage)
				sessions.POST("/:id/prev", h.PrevPage)
			}

			catalog.GET("/products/:code/contact", h.Contact)
		}

		// 管理员路由（需要管理端令牌）
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(r.deps.JWTService, r.logger))
		{
			admin.POST("/catalog/options/refresh", h.RefreshOptions)
		}
	}
}

// healthCheck 健康检查处理器，缓存不可用时返回 503
func (r *GinRouter) healthCheck(c *gin.Context) {
	status, cacheState := http.StatusOK, "disabled"
	if r.deps.Cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()

		cacheState = "ok"
		if err := r.deps.Cache.Ping(ctx); err != nil {
			r.logger.Warn("health check: cache unavailable", zap.Error(err))
			status, cacheState = http.StatusServiceUnavailable, "unavailable"
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"cache":   cacheState,
		"version": r.cfg.App.Version,
	})
}

// ginLogger 路由级请求日志，记录匹配到的路由模板与客户端IP
func (r *GinRouter) ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		r.logger.Debug("route served",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.RequestIDFromContext(c.Request.Context())),
		)
	}
}

// corsMiddleware CORS 中间件
func (r *GinRouter) corsMiddleware() gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:  r.cfg.CORS.AllowedMethods,
		AllowHeaders:  r.cfg.CORS.AllowedHeaders,
		ExposeHeaders: []string{middleware.HeaderRequestID, "Retry-After", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(r.cfg.CORS.AllowedOrigins) == 0 || slices.Contains(r.cfg.CORS.AllowedOrigins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = r.cfg.CORS.AllowedOrigins
	}
	return cors.New(corsCfg)
}
