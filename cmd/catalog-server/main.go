package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/api"
	"github.com/MorseWayne/shoe_catalog/internal/cache"
	"github.com/MorseWayne/shoe_catalog/internal/catalog"
	"github.com/MorseWayne/shoe_catalog/internal/cms"
	"github.com/MorseWayne/shoe_catalog/internal/config"
	"github.com/MorseWayne/shoe_catalog/internal/database"
	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/limiter"
	"github.com/MorseWayne/shoe_catalog/internal/logger"
	mw "github.com/MorseWayne/shoe_catalog/internal/middleware"
	"github.com/MorseWayne/shoe_catalog/internal/mq"
	"github.com/MorseWayne/shoe_catalog/internal/repo"
	"github.com/MorseWayne/shoe_catalog/internal/router"
	"github.com/MorseWayne/shoe_catalog/internal/service"
	"github.com/MorseWayne/shoe_catalog/internal/session"
)

// dataSources 商品与品牌数据源
type dataSources struct {
	products repo.ProductRepository
	brands   repo.BrandRepository
	closer   io.Closer
}

// infra 缓存相关基础设施
type infra struct {
	cache    cache.Cache
	redis    *cache.RedisCache
	sessions session.Store
}

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %v", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %v", err)
	}

	return cfg, lg, nil
}

// initDataSources 按配置选择 SQL 数据库或托管 CMS 作为数据源
func initDataSources(cfg *config.Config, lg *zap.Logger) (*dataSources, error) {
	switch cfg.Catalog.DataSource {
	case config.DataSourceCMS:
		client := cms.NewClient(cfg.Catalog.CMS, lg)
		lg.Sugar().Infow("using cms data source", "base_url", cfg.Catalog.CMS.BaseURL,
			"products", cfg.Catalog.CMS.ProductsCollection, "brands", cfg.Catalog.CMS.BrandsCollection)
		return &dataSources{
			products: cms.NewProductSource(client),
			brands:   cms.NewBrandSource(client),
			closer:   client,
		}, nil

	default:
		db, err := database.New(cfg, lg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %v", err)
		}

		// 启动时、HTTP服务器启动前执行迁移
		lg.Sugar().Infow("using migrations directory", "path", cfg.Migrations.Dir)
		if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run database migrations: %v", err)
		}

		return &dataSources{
			products: repo.NewProductRepository(db.DB),
			brands:   repo.NewBrandRepository(db.DB),
			closer:   db,
		}, nil
	}
}

// initCache 初始化缓存实例与会话存储。
// 缓存关闭时会话仍需要存储，退回到进程内缓存。
func initCache(cfg *config.Config, lg *zap.Logger) *infra {
	in := &infra{}

	needRedis := (cfg.Cache.Enabled && cfg.Cache.Type == "redis") || cfg.RateLimit.Enabled
	if needRedis {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			lg.Sugar().Warnw("failed to connect to Redis, falling back to memory", "addr", cfg.Redis.Addr(), "error", err)
		} else {
			in.redis = redisCache
		}
	}

	switch {
	case !cfg.Cache.Enabled:
		in.cache = cache.NewNullCache()
		lg.Sugar().Infow("cache disabled")
	case cfg.Cache.Type == "redis" && in.redis != nil:
		in.cache = in.redis
		lg.Sugar().Infow("cache enabled", "type", "redis", "addr", cfg.Redis.Addr(), "ttl", cfg.Cache.TTL)
	default:
		in.cache = cache.NewMemoryCache()
		lg.Sugar().Infow("cache enabled", "type", "memory", "ttl", cfg.Cache.TTL)
	}

	if in.redis != nil && cfg.Cache.Type == "redis" {
		in.sessions = session.NewRedisStore(cache.NewSessionCache(in.redis.Client()), cfg.Session.TTL)
		lg.Sugar().Infow("session store", "type", "redis", "ttl", cfg.Session.TTL)
	} else {
		store := in.cache
		if _, ok := store.(*cache.MemoryCache); !ok {
			store = cache.NewMemoryCache()
		}
		in.sessions = session.NewCacheStore(store, cfg.Session.TTL)
		lg.Sugar().Infow("session store", "type", "memory", "ttl", cfg.Session.TTL)
	}

	return in
}

// initLimiter 初始化限流器，未启用时返回 nil
func initLimiter(cfg *config.Config, in *infra, lg *zap.Logger) (limiter.Limiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}

	lcfg := limiter.Config{Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window, KeyPrefix: "catalog:ratelimit"}
	if in.redis != nil {
		lg.Sugar().Infow("rate limit enabled", "type", "redis", "limit", lcfg.Limit, "window", lcfg.Window)
		return limiter.NewFixedWindowLimiter(in.redis.Client(), lcfg)
	}
	lg.Sugar().Infow("rate limit enabled", "type", "memory", "limit", lcfg.Limit, "window", lcfg.Window)
	return limiter.NewMemoryLimiter(lcfg)
}

// initPublisher 初始化联系事件发布者，MQ 不可用时退回空实现
func initPublisher(cfg *config.Config, lg *zap.Logger) mq.Publisher {
	if !cfg.MQ.Enabled {
		return mq.NewNullPublisher(lg)
	}

	p, err := mq.NewAMQPPublisher(mq.Config{
		URL:        cfg.MQ.URL,
		Exchange:   cfg.MQ.Exchange,
		RoutingKey: cfg.MQ.RoutingKey,
	}, lg)
	if err != nil {
		lg.Sugar().Warnw("failed to connect to RabbitMQ, contact events disabled", "error", err)
		return mq.NewNullPublisher(lg)
	}
	lg.Sugar().Infow("contact events enabled", "exchange", cfg.MQ.Exchange, "routing_key", cfg.MQ.RoutingKey)
	return p
}

// initDependencies 初始化依赖注入链：数据源 -> 服务 -> API处理器
func initDependencies(cfg *config.Config, src *dataSources, in *infra, lim limiter.Limiter, pub mq.Publisher, lg *zap.Logger) *router.Dependencies {
	products := src.products
	if cfg.Cache.Enabled {
		products = repo.NewCachedProductRepository(products, in.cache, cfg.Cache.TTL, lg)
	}

	buckets := domain.DefaultPriceBuckets()
	links := catalog.NewLinkBuilder(cfg.Catalog.ContactPhone, cfg.Catalog.ImageBaseURL)
	manager := session.NewManager(in.sessions, products, links, buckets, cfg.Catalog.PageSize, lg)

	catalogService := service.NewCatalogService(products, src.brands, manager, buckets, in.cache, cfg.Cache.TTL, lg)
	contactService := service.NewContactService(products, links, pub, lg)
	jwtService := service.NewJWTService(cfg.JWT, lg)

	return &router.Dependencies{
		CatalogHandler: api.NewCatalogHandler(catalogService, contactService, lg),
		JWTService:     jwtService,
		Limiter:        lim,
		Cache:          in.cache,
	}
}

// buildHandler 构建中间件链：请求进入时执行顺序为 access log → timeout → recovery → request ID → gin
func buildHandler(cfg *config.Config, deps *router.Dependencies, lg *zap.Logger) http.Handler {
	handler := router.New().Setup(cfg, deps, lg)
	handler = mw.RequestID(handler)
	handler = mw.Recovery(lg)(handler)
	handler = mw.Timeout(cfg.App.RequestTimeout)(handler)
	handler = mw.AccessLog(lg)(handler)
	return handler
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, handler http.Handler, lg *zap.Logger) {
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	lg.Sugar().Infow("server starting", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Sugar().Errorw("server error", "err", err)
			return
		}
	case <-quit:
		lg.Sugar().Infow("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Sugar().Errorw("server shutdown error", "err", err)
	}
	lg.Sugar().Infow("server exited")
}

// closeAll 按逆序释放资源
func closeAll(lg *zap.Logger, closers ...io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if closers[i] == nil {
			continue
		}
		if err := closers[i].Close(); err != nil {
			lg.Sugar().Errorw("failed to close resource", "err", err)
		}
	}
}

func main() {
	// 1) 加载配置和初始化日志
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}
	defer lg.Sync()

	// 2) 初始化数据源
	src, err := initDataSources(cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize data source", "err", err)
	}

	// 3) 初始化缓存、会话存储与限流
	in := initCache(cfg, lg)
	lim, err := initLimiter(cfg, in, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize rate limiter", "err", err)
	}

	// 4) 联系事件发布者
	pub := initPublisher(cfg, lg)

	var redisCloser io.Closer
	if in.redis != nil {
		redisCloser = in.redis
	}
	defer closeAll(lg, src.closer, redisCloser, pub)

	// 5) 组装依赖与路由
	deps := initDependencies(cfg, src, in, lim, pub, lg)
	handler := buildHandler(cfg, deps, lg)

	// 6) 启动 HTTP 服务器
	startServer(cfg, handler, lg)
}
