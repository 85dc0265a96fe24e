// Package catalog 实现商品目录页的核心逻辑：下拉选项提取、组合过滤条件构建、分页加载以及联系链接生成。
package catalog

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/MorseWayne/shoe_catalog/internal/domain"
)

// 下拉框占位选项
const (
	AllOptionLabel   = "TODAS"
	PriceOptionLabel = "FILTRAR PRECIO"
)

// numericPrefix 匹配尺码开头的数字部分（与 parseFloat 的宽松解析一致）
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// DeriveSizeOptions 从商品列表中提取去重后的尺码，按数值升序排列。
// 无法解析为数字的尺码排在所有数字尺码之后，彼此按字典序排列；数值相同的保持首次出现顺序。
func DeriveSizeOptions(products []*domain.Product) []string {
	seen := make(map[string]struct{})
	var sizes []string

	for _, p := range products {
		if p == nil || p.Sizes == "" {
			continue
		}
		for _, token := range domain.SizeTokens(p.Sizes) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			sizes = append(sizes, token)
		}
	}

	sort.SliceStable(sizes, func(i, j int) bool {
		return sizeLess(sizes[i], sizes[j])
	})
	return sizes
}

// sizeLess 尺码排序规则
func sizeLess(a, b string) bool {
	na, okA := parseSize(a)
	nb, okB := parseSize(b)
	switch {
	case okA && okB:
		return na < nb
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

// parseSize 解析尺码开头的数字，例如 "38.5" -> 38.5，"40 EU" -> 40
func parseSize(s string) (float64, bool) {
	m := numericPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// DeriveBrandOptions 提取品牌名称：跳过没有优先级的品牌，按名称去重（先出现者生效），
// 再按优先级升序稳定排序。
func DeriveBrandOptions(brands []*domain.Brand) []string {
	seen := make(map[string]struct{})
	var kept []*domain.Brand

	for _, b := range brands {
		if b == nil || b.Name == "" || !b.HasPriority() {
			continue
		}
		if _, ok := seen[b.Name]; ok {
			continue
		}
		seen[b.Name] = struct{}{}
		kept = append(kept, b)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return *kept[i].Priority < *kept[j].Priority
	})

	names := make([]string, 0, len(kept))
	for _, b := range kept {
		names = append(names, b.Name)
	}
	return names
}

// DerivePriceOptions 将每个商品的价格归入价格区间，返回按区间顺序排列的去重标签。
// 缺失价格或价格非法的商品被跳过。
func DerivePriceOptions(products []*domain.Product, buckets []domain.PriceBucket) []string {
	seen := make(map[string]domain.PriceBucket)

	for _, p := range products {
		if p == nil || !p.HasPrice() {
			continue
		}
		bucket, err := domain.AssignBucket(buckets, *p.Price)
		if err != nil {
			// NaN 等非法价格不计入任何区间
			continue
		}
		seen[bucket.Label] = bucket
	}

	found := make([]domain.PriceBucket, 0, len(seen))
	for _, b := range seen {
		found = append(found, b)
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].Order < found[j].Order
	})

	labels := make([]string, 0, len(found))
	for _, b := range found {
		labels = append(labels, b.Label)
	}
	return labels
}

// ToDropdown 将选项值转换为下拉框选项，并在最前面加入占位选项
func ToDropdown(placeholder string, values []string) []domain.DropdownOption {
	options := make([]domain.DropdownOption, 0, len(values)+1)
	options = append(options, domain.DropdownOption{Label: placeholder, Value: ""})
	for _, v := range values {
		options = append(options, domain.DropdownOption{Label: v, Value: v})
	}
	return options
}

// BuildFilterOptions 一次性生成三个下拉框的选项
func BuildFilterOptions(products []*domain.Product, brands []*domain.Brand, buckets []domain.PriceBucket) *domain.FilterOptions {
	return &domain.FilterOptions{
		Sizes:  ToDropdown(AllOptionLabel, DeriveSizeOptions(products)),
		Brands: ToDropdown(AllOptionLabel, DeriveBrandOptions(brands)),
		Prices: ToDropdown(PriceOptionLabel, DerivePriceOptions(products, buckets)),
	}
}
