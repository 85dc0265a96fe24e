package repo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/cache"
	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/query"
)

// 缓存键
const (
	productCodeKeyTemplate = "catalog:product:code:%s"
)

// CachedProductRepository 带缓存的商品仓储。
// 按编码查询走缓存；分页查询和全量读取参数组合太多或数据量大，不缓存。
type CachedProductRepository struct {
	repo   ProductRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(repo ProductRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) ProductRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProductRepository{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// ListAll 读取全部商品（不缓存，选项集合由服务层缓存）
func (r *CachedProductRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	return r.repo.ListAll(ctx)
}

// FindPage 分页查询（不缓存）
func (r *CachedProductRepository) FindPage(ctx context.Context, filter query.Predicate, offset, limit int) ([]*domain.Product, error) {
	return r.repo.FindPage(ctx, filter, offset, limit)
}

// GetByCode 根据编码获取商品（带缓存）
func (r *CachedProductRepository) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	cacheKey := fmt.Sprintf(productCodeKeyTemplate, code)

	var product domain.Product
	err := r.cache.Get(ctx, cacheKey, &product)
	if err == nil {
		return &product, nil
	}
	if !cache.IsMiss(err) {
		r.logger.Warn("product cache read failed", zap.String("key", cacheKey), zap.Error(err))
	}

	// 缓存未命中，从数据源获取
	result, err := r.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	if err := r.cache.Set(ctx, cacheKey, result, r.ttl); err != nil {
		r.logger.Warn("product cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return result, nil
}
