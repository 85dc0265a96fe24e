package service

import (
	"context"
	"errors"
	"sync"

	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/query"
)

// mockProductRepository 内存商品仓储
type mockProductRepository struct {
	mu       sync.Mutex
	products []*domain.Product
	err      error
	listHits int
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	return &mockProductRepository{products: products}
}

func (m *mockProductRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listHits++
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockProductRepository) FindPage(ctx context.Context, filter query.Predicate, offset, limit int) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	matched := query.Filter(m.products, filter)
	if offset >= len(matched) {
		return []*domain.Product{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m *mockProductRepository) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, nil
}

// mockBrandRepository 内存品牌仓储
type mockBrandRepository struct {
	brands []*domain.Brand
	err    error
}

func (m *mockBrandRepository) ListAll(ctx context.Context) ([]*domain.Brand, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.brands, nil
}

// mockBrowser 记录调用的会话浏览器
type mockBrowser struct {
	lastID  string
	lastSel domain.FilterSelection
	calls   []string
}

func (m *mockBrowser) page(op, id string) (*domain.CatalogPage, error) {
	m.calls = append(m.calls, op)
	m.lastID = id
	return &domain.CatalogPage{SessionID: id}, nil
}

func (m *mockBrowser) Open(ctx context.Context) (*domain.CatalogPage, error) {
	return m.page("open", "new")
}

func (m *mockBrowser) Current(ctx context.Context, id string) (*domain.CatalogPage, error) {
	return m.page("current", id)
}

func (m *mockBrowser) SetFilter(ctx context.Context, id string, sel domain.FilterSelection) (*domain.CatalogPage, error) {
	m.lastSel = sel
	return m.page("filter", id)
}

func (m *mockBrowser) Next(ctx context.Context, id string) (*domain.CatalogPage, error) {
	return m.page("next", id)
}

func (m *mockBrowser) Prev(ctx context.Context, id string) (*domain.CatalogPage, error) {
	return m.page("prev", id)
}

// mockPublisher 记录发布的联系事件，block 非空时等待其关闭后再发布
type mockPublisher struct {
	mu     sync.Mutex
	events []*domain.ContactEvent
	err    error
	block  chan struct{}
	ctxErr error
}

func (m *mockPublisher) PublishContact(ctx context.Context, event *domain.ContactEvent) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ctxErr = ctx.Err()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

var errDataSource = errors.New("data source unavailable")

func price(v float64) *float64 { return &v }

func priority(v int) *int { return &v }
