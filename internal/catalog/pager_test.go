package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/query"
)

// sliceSource 内存数据源
type sliceSource struct {
	products []*domain.Product
	err      error
	calls    int
}

func (s *sliceSource) FindPage(ctx context.Context, filter query.Predicate, offset, limit int) ([]*domain.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	matched := query.Filter(s.products, filter)
	if offset >= len(matched) {
		return []*domain.Product{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func makeProducts(n int) []*domain.Product {
	products := make([]*domain.Product, n)
	for i := range products {
		products[i] = &domain.Product{Code: fmt.Sprintf("P%02d", i), Sizes: "40", Price: price(100)}
	}
	return products
}

func TestPager_LoadPage(t *testing.T) {
	source := &sliceSource{products: makeProducts(40)}
	pager := NewPager(source, nil)
	ctx := context.Background()

	state := domain.NewPageState(domain.DefaultPageSize)

	items, state, err := pager.LoadPage(ctx, state, query.And())
	if err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if len(items) != 18 || !state.HasMoreItems {
		t.Fatalf("first page: got %d items, hasMore=%v", len(items), state.HasMoreItems)
	}

	state = state.Next()
	items, state, _ = pager.LoadPage(ctx, state, query.And())
	if items[0].Code != "P18" || !state.HasMoreItems {
		t.Fatalf("second page starts at %s, hasMore=%v", items[0].Code, state.HasMoreItems)
	}

	state = state.Next()
	items, state, _ = pager.LoadPage(ctx, state, query.And())
	if len(items) != 4 || state.HasMoreItems {
		t.Fatalf("last page: got %d items, hasMore=%v", len(items), state.HasMoreItems)
	}

	if next := state.Next(); next.CurrentPage != 2 {
		t.Errorf("Next() without more items moved to page %d", next.CurrentPage)
	}
}

func TestPager_ExactlyFullPageReportsMore(t *testing.T) {
	source := &sliceSource{products: makeProducts(18)}
	pager := NewPager(source, nil)

	_, state, err := pager.LoadPage(context.Background(), domain.NewPageState(18), query.And())
	if err != nil {
		t.Fatalf("LoadPage() error = %v", err)
	}
	if !state.HasMoreItems {
		t.Fatal("a full page is reported as having more items")
	}

	items, state, _ := pager.LoadPage(context.Background(), state.Next(), query.And())
	if len(items) != 0 || state.HasMoreItems {
		t.Errorf("empty follow-up page: got %d items, hasMore=%v", len(items), state.HasMoreItems)
	}
}

func TestPager_FailureKeepsState(t *testing.T) {
	source := &sliceSource{err: errors.New("boom")}
	pager := NewPager(source, nil)

	before := domain.PageState{CurrentPage: 3, PageSize: 18, HasMoreItems: true}
	items, after, err := pager.LoadPage(context.Background(), before, query.And())
	if err == nil {
		t.Fatal("expected error")
	}
	if items != nil {
		t.Errorf("expected no items, got %d", len(items))
	}
	if after != before {
		t.Errorf("state changed on failure: %+v -> %+v", before, after)
	}
}
