package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/catalog"
	"github.com/MorseWayne/shoe_catalog/internal/domain"
)

// Manager 会话控制器：把下拉框变化和翻页操作转换为“状态迁移 + 加载 + 提交”
type Manager struct {
	store    Store
	pager    *catalog.Pager
	links    *catalog.LinkBuilder
	buckets  []domain.PriceBucket
	pageSize int
	logger   *zap.Logger
}

// NewManager 创建会话控制器
func NewManager(store Store, source catalog.PageSource, links *catalog.LinkBuilder, buckets []domain.PriceBucket, pageSize int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &Manager{
		store:    store,
		pager:    catalog.NewPager(source, logger),
		links:    links,
		buckets:  buckets,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Open 创建新会话并加载第0页（无过滤条件）
func (m *Manager) Open(ctx context.Context) (*domain.CatalogPage, error) {
	id := uuid.NewString()
	if err := m.store.Create(ctx, id, State{Page: domain.NewPageState(m.pageSize)}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.logger.Debug("session opened", zap.String("session_id", id))
	return m.run(ctx, id, Intent{Op: OpReload})
}

// Current 重新加载当前页
func (m *Manager) Current(ctx context.Context, id string) (*domain.CatalogPage, error) {
	return m.run(ctx, id, Intent{Op: OpReload})
}

// SetFilter 替换过滤条件并回到第0页
func (m *Manager) SetFilter(ctx context.Context, id string, sel domain.FilterSelection) (*domain.CatalogPage, error) {
	return m.run(ctx, id, Intent{Op: OpFilter, Selection: sel})
}

// Next 下一页；没有更多数据时重新加载当前页
func (m *Manager) Next(ctx context.Context, id string) (*domain.CatalogPage, error) {
	return m.run(ctx, id, Intent{Op: OpNext})
}

// Prev 上一页；已在第0页时重新加载当前页
func (m *Manager) Prev(ctx context.Context, id string) (*domain.CatalogPage, error) {
	return m.run(ctx, id, Intent{Op: OpPrev})
}

// maxRebase 加载期间其他请求先提交时，基于最新状态重做的次数上限
const maxRebase = 3

// run 签发令牌并记录操作，然后在已提交状态上按令牌顺序重放所有不晚于本请求的操作，加载数据后提交。
// 较早但仍在加载的请求的操作也会被重放，因此先发出的过滤条件不会被后发出的翻页覆盖；
// 若较新的请求已经提交（其状态已包含本请求的操作），本次结果作废。
func (m *Manager) run(ctx context.Context, id string, in Intent) (*domain.CatalogPage, error) {
	token, err := m.store.Issue(ctx, id, in)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		snap, err := m.store.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if token <= snap.Committed {
			return nil, m.discard(id, token)
		}

		next := snap.Replay(token)
		filter := catalog.BuildFilter(next.Selection, m.buckets)

		items, page, err := m.pager.LoadPage(ctx, next.Page, filter)
		if err != nil {
			m.abandon(ctx, id, token)
			return nil, err
		}
		next.Page = page

		err = m.store.Commit(ctx, id, token, snap.Committed, next)
		switch {
		case err == nil:
			return &domain.CatalogPage{
				SessionID:   id,
				Selection:   next.Selection,
				Page:        next.Page,
				HasPrevious: next.Page.HasPrevious(),
				Items:       m.links.Views(items),
			}, nil
		case errors.Is(err, ErrStaleResult):
			return nil, m.discard(id, token)
		case errors.Is(err, ErrBaseChanged) && attempt < maxRebase:
			m.logger.Debug("session changed during load, replaying",
				zap.String("session_id", id),
				zap.Uint64("token", token),
				zap.Int("attempt", attempt+1),
			)
		case errors.Is(err, ErrBaseChanged):
			m.abandon(ctx, id, token)
			return nil, m.discard(id, token)
		default:
			return nil, err
		}
	}
}

func (m *Manager) discard(id string, token uint64) error {
	m.logger.Info("discard stale page result",
		zap.String("session_id", id),
		zap.Uint64("token", token),
	)
	return ErrStaleResult
}

// abandon 撤销加载失败的操作，失败只记录日志
func (m *Manager) abandon(ctx context.Context, id string, token uint64) {
	if err := m.store.Abandon(context.WithoutCancel(ctx), id, token); err != nil {
		m.logger.Warn("failed to abandon session intent",
			zap.String("session_id", id),
			zap.Uint64("token", token),
			zap.Error(err),
		)
	}
}
