package catalog

import (
	"testing"

	"github.com/MorseWayne/shoe_catalog/internal/domain"
)

func TestBuildFilter(t *testing.T) {
	buckets := domain.DefaultPriceBuckets()

	nike := &domain.Product{Code: "N1", Sizes: "39 - 40", Brand: "Nike", Price: price(200)}
	big := &domain.Product{Code: "B1", Sizes: "140", Brand: "Nike", Price: price(300)}
	adidas := &domain.Product{Code: "A1", Sizes: "40 - 41", Brand: "Adidas Originals", Price: price(450)}

	tests := []struct {
		name string
		sel  domain.FilterSelection
		p    *domain.Product
		want bool
	}{
		{"size token in list", domain.FilterSelection{Size: "40"}, nike, true},
		{"size not substring", domain.FilterSelection{Size: "40"}, big, false},
		{"size at start", domain.FilterSelection{Size: "40"}, adidas, true},
		{"brand substring", domain.FilterSelection{Brand: "Adidas"}, adidas, true},
		{"brand miss", domain.FilterSelection{Brand: "Puma"}, nike, false},
		{"price upper bound inclusive", domain.FilterSelection{PriceBucketLabel: domain.Bucket200To300}, big, true},
		{"price boundary overlap low", domain.FilterSelection{PriceBucketLabel: domain.BucketUpTo200}, nike, true},
		{"price boundary overlap high", domain.FilterSelection{PriceBucketLabel: domain.Bucket200To300}, nike, true},
		{"price open ended", domain.FilterSelection{PriceBucketLabel: domain.BucketOver400}, adidas, true},
		{"price miss", domain.FilterSelection{PriceBucketLabel: domain.BucketOver400}, nike, false},
		{"unknown price label ignored", domain.FilterSelection{PriceBucketLabel: "gratis"}, nike, true},
		{"combined", domain.FilterSelection{Size: "40", Brand: "nike", PriceBucketLabel: domain.BucketUpTo200}, nike, true},
		{"combined miss", domain.FilterSelection{Size: "41", Brand: "nike"}, nike, false},
		{"empty selection matches all", domain.FilterSelection{}, big, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := BuildFilter(tt.sel, buckets)
			if got := filter.Eval(tt.p); got != tt.want {
				t.Errorf("BuildFilter(%+v).Eval(%s) = %v, want %v", tt.sel, tt.p.Code, got, tt.want)
			}
		})
	}
}

func TestBuildFilter_UnsetFieldsAddNoClause(t *testing.T) {
	filter := BuildFilter(domain.FilterSelection{}, domain.DefaultPriceBuckets())
	if !filter.IsMatchAll() {
		t.Errorf("expected empty conjunction, got %s", filter)
	}

	filter = BuildFilter(domain.FilterSelection{PriceBucketLabel: domain.Bucket200To300}, domain.DefaultPriceBuckets())
	if len(filter.Args) != 2 {
		t.Errorf("expected two range clauses, got %s", filter)
	}

	filter = BuildFilter(domain.FilterSelection{PriceBucketLabel: domain.BucketUpTo200}, domain.DefaultPriceBuckets())
	if len(filter.Args) != 1 {
		t.Errorf("expected only an upper bound, got %s", filter)
	}
}
