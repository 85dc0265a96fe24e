package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MorseWayne/shoe_catalog/internal/cache"
	"github.com/MorseWayne/shoe_catalog/internal/catalog"
	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/repo"
)

// 缓存键
const (
	optionsCacheKey = "catalog:options"
)

// CatalogService 目录页业务：下拉框选项与会话内的过滤、翻页
type CatalogService interface {
	GetFilterOptions(ctx context.Context) (*domain.FilterOptions, error)
	RefreshOptions(ctx context.Context) error

	OpenSession(ctx context.Context) (*domain.CatalogPage, error)
	CurrentPage(ctx context.Context, sessionID string) (*domain.CatalogPage, error)
	ApplyFilter(ctx context.Context, sessionID string, sel domain.FilterSelection) (*domain.CatalogPage, error)
	NextPage(ctx context.Context, sessionID string) (*domain.CatalogPage, error)
	PrevPage(ctx context.Context, sessionID string) (*domain.CatalogPage, error)
}

// Browser 会话浏览操作，由 session.Manager 实现
type Browser interface {
	Open(ctx context.Context) (*domain.CatalogPage, error)
	Current(ctx context.Context, id string) (*domain.CatalogPage, error)
	SetFilter(ctx context.Context, id string, sel domain.FilterSelection) (*domain.CatalogPage, error)
	Next(ctx context.Context, id string) (*domain.CatalogPage, error)
	Prev(ctx context.Context, id string) (*domain.CatalogPage, error)
}

type catalogService struct {
	products repo.ProductRepository
	brands   repo.BrandRepository
	browser  Browser
	buckets  []domain.PriceBucket
	cache    cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCatalogService 创建目录服务
func NewCatalogService(
	products repo.ProductRepository,
	brands repo.BrandRepository,
	browser Browser,
	buckets []domain.PriceBucket,
	c cache.Cache,
	ttl time.Duration,
	logger *zap.Logger,
) CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &catalogService{
		products: products,
		brands:   brands,
		browser:  browser,
		buckets:  buckets,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
	}
}

// GetFilterOptions 返回三个下拉框的选项。
// 商品与品牌并发读取，推导结果写入缓存。
func (s *catalogService) GetFilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	var cached domain.FilterOptions
	err := s.cache.Get(ctx, optionsCacheKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !cache.IsMiss(err) {
		s.logger.Warn("options cache read failed", zap.Error(err))
	}

	var (
		products []*domain.Product
		brands   []*domain.Brand
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.products.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		products = list
		return nil
	})
	g.Go(func() error {
		list, err := s.brands.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("list brands: %w", err)
		}
		brands = list
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("load filter options failed", zap.Error(err))
		return nil, err
	}

	opts := catalog.BuildFilterOptions(products, brands, s.buckets)

	if err := s.cache.Set(ctx, optionsCacheKey, opts, s.ttl); err != nil {
		s.logger.Warn("options cache write failed", zap.Error(err))
	}

	s.logger.Debug("filter options derived",
		zap.Int("products", len(products)),
		zap.Int("brands", len(brands)),
		zap.Int("sizes", len(opts.Sizes)-1),
	)
	return opts, nil
}

// RefreshOptions 丢弃缓存的选项，下次读取时重新推导
func (s *catalogService) RefreshOptions(ctx context.Context) error {
	if err := s.cache.Del(ctx, optionsCacheKey); err != nil {
		return fmt.Errorf("drop options cache: %w", err)
	}
	s.logger.Info("filter options cache dropped")
	return nil
}

// OpenSession 创建新会话并返回第0页
func (s *catalogService) OpenSession(ctx context.Context) (*domain.CatalogPage, error) {
	return s.browser.Open(ctx)
}

// CurrentPage 重新加载会话当前页
func (s *catalogService) CurrentPage(ctx context.Context, sessionID string) (*domain.CatalogPage, error) {
	return s.browser.Current(ctx, sessionID)
}

// ApplyFilter 替换过滤条件并回到第0页
func (s *catalogService) ApplyFilter(ctx context.Context, sessionID string, sel domain.FilterSelection) (*domain.CatalogPage, error) {
	return s.browser.SetFilter(ctx, sessionID, normalizeSelection(sel))
}

// NextPage 下一页
func (s *catalogService) NextPage(ctx context.Context, sessionID string) (*domain.CatalogPage, error) {
	return s.browser.Next(ctx, sessionID)
}

// PrevPage 上一页
func (s *catalogService) PrevPage(ctx context.Context, sessionID string) (*domain.CatalogPage, error) {
	return s.browser.Prev(ctx, sessionID)
}

// normalizeSelection 去掉首尾空白，空白选项等同于不约束
func normalizeSelection(sel domain.FilterSelection) domain.FilterSelection {
	return domain.FilterSelection{
		Size:             strings.TrimSpace(sel.Size),
		Brand:            strings.TrimSpace(sel.Brand),
		PriceBucketLabel: strings.TrimSpace(sel.PriceBucketLabel),
	}
}
