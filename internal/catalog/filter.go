package catalog

import (
	"github.com/MorseWayne/shoe_catalog/internal/domain"
	"github.com/MorseWayne/shoe_catalog/internal/query"
)

// BuildFilter 根据选中的过滤条件构建组合谓词（各子句以 AND 连接）。
// 未选择的条件不产生子句；未知的价格区间标签按“无价格约束”处理。
func BuildFilter(sel domain.FilterSelection, buckets []domain.PriceBucket) query.Predicate {
	var clauses []query.Predicate

	if sel.Size != "" {
		// 整词匹配，避免 "40" 命中 "140"
		clauses = append(clauses, query.HasToken(domain.FieldSizes, sel.Size, domain.SizeDelimiter))
	}

	if sel.Brand != "" {
		clauses = append(clauses, query.Contains(domain.FieldBrand, sel.Brand))
	}

	if sel.PriceBucketLabel != "" {
		if r, ok := domain.BucketRange(buckets, sel.PriceBucketLabel); ok {
			if r.Min != nil {
				clauses = append(clauses, query.Ge(domain.FieldPrice, *r.Min))
			}
			if r.Max != nil {
				clauses = append(clauses, query.Le(domain.FieldPrice, *r.Max))
			}
		}
	}

	return query.And(clauses...)
}
