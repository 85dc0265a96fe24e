package repo

import (
	"context"
	"testing"
	"time"

	"github.com/MorseWayne/shoe_catalog/internal/cache"
	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/query"
)

// countingRepo 统计调用次数的商品仓储
type countingRepo struct {
	product *domain.Product
	calls   int
}

func (r *countingRepo) ListAll(ctx context.Context) ([]*domain.Product, error) {
	return []*domain.Product{r.product}, nil
}

func (r *countingRepo) FindPage(ctx context.Context, filter query.Predicate, offset, limit int) ([]*domain.Product, error) {
	return []*domain.Product{r.product}, nil
}

func (r *countingRepo) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	r.calls++
	if code != r.product.Code {
		return nil, nil
	}
	return r.product, nil
}

func TestCachedProductRepository_GetByCode(t *testing.T) {
	price := 99.0
	inner := &countingRepo{product: &domain.Product{Code: "C1", Name: "Runner", Price: &price}}
	repo := NewCachedProductRepository(inner, cache.NewMemoryCache(), time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := repo.GetByCode(ctx, "C1")
		if err != nil || p == nil || p.Name != "Runner" || *p.Price != 99 {
			t.Fatalf("GetByCode() = %+v, %v", p, err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", inner.calls)
	}

	// 不存在的商品不写缓存
	repo.GetByCode(ctx, "nope")
	repo.GetByCode(ctx, "nope")
	if inner.calls != 3 {
		t.Errorf("expected misses to hit backend, got %d calls", inner.calls)
	}
}

func TestCachedProductRepository_NullCache(t *testing.T) {
	inner := &countingRepo{product: &domain.Product{Code: "C1"}}
	repo := NewCachedProductRepository(inner, cache.NewNullCache(), time.Minute, nil)

	repo.GetByCode(context.Background(), "C1")
	repo.GetByCode(context.Background(), "C1")
	if inner.calls != 2 {
		t.Errorf("disabled cache should always hit backend, got %d calls", inner.calls)
	}
}
