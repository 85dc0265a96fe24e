package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/query"
)

// PageSource 按过滤条件分页读取商品的数据源
type PageSource interface {
	FindPage(ctx context.Context, filter query.Predicate, offset, limit int) ([]*domain.Product, error)
}

// Pager 基于偏移量的分页加载器
type Pager struct {
	source PageSource
	logger *zap.Logger
}

// NewPager 创建分页加载器
func NewPager(source PageSource, logger *zap.Logger) *Pager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pager{source: source, logger: logger}
}

// LoadPage 读取 state 所在页的商品并返回更新后的状态。
// 读取失败时记录日志并原样返回 state，调用方应保留上一次成功加载的内容。
func (p *Pager) LoadPage(ctx context.Context, state domain.PageState, filter query.Predicate) ([]*domain.Product, domain.PageState, error) {
	items, err := p.source.FindPage(ctx, filter, state.Offset(), state.PageSize)
	if err != nil {
		p.logger.Error("load page failed",
			zap.Int("page", state.CurrentPage),
			zap.Int("page_size", state.PageSize),
			zap.String("filter", filter.String()),
			zap.Error(err),
		)
		return nil, state, fmt.Errorf("load page %d: %w", state.CurrentPage, err)
	}

	return items, state.WithFetched(len(items)), nil
}
