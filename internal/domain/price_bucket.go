package domain

import (
	"errors"
	"fmt"
	"math"
)

// 价格区间相关错误
var (
	ErrInvalidPrice   = errors.New("invalid price")
	ErrBucketNotFound = errors.New("price bucket not found")
)

// 固定的价格区间标签
const (
	BucketUpTo200  = "Hasta S/ 200"
	Bucket200To300 = "S/ 200 - S/ 300"
	Bucket300To400 = "S/ 300 - S/ 400"
	BucketOver400  = "De S/ 400 a más"
)

// PriceBucket 表示一个带标签、可排序的价格区间。
// 价格按 UpperLimit 升序首个满足 price <= UpperLimit 的区间归类。
type PriceBucket struct {
	UpperLimit float64 `json:"upper_limit"` // math.Inf(1) 表示无上限
	Label      string  `json:"label"`
	Order      int     `json:"order"`
}

// Unbounded 判断区间是否无上限
func (b PriceBucket) Unbounded() bool {
	return math.IsInf(b.UpperLimit, 1)
}

// PriceRange 表示闭区间价格范围，nil 表示该侧无约束
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// DefaultPriceBuckets 返回配置的四个价格区间（按 UpperLimit 升序）
func DefaultPriceBuckets() []PriceBucket {
	return []PriceBucket{
		{UpperLimit: 200, Label: BucketUpTo200, Order: 1},
		{UpperLimit: 300, Label: Bucket200To300, Order: 2},
		{UpperLimit: 400, Label: Bucket300To400, Order: 3},
		{UpperLimit: math.Inf(1), Label: BucketOver400, Order: 4},
	}
}

// AssignBucket 返回价格所属的区间
func AssignBucket(buckets []PriceBucket, price float64) (PriceBucket, error) {
	if math.IsNaN(price) {
		return PriceBucket{}, ErrInvalidPrice
	}

	for _, b := range buckets {
		if price <= b.UpperLimit {
			return b, nil
		}
	}
	return PriceBucket{}, fmt.Errorf("%w: price %v", ErrBucketNotFound, price)
}

// BucketRange 将区间标签还原为闭区间 [前一区间上限, 本区间上限]。
// 相邻区间在边界处重叠（如 200 同时满足前两个区间的过滤条件）。
// 未知标签返回 false。
func BucketRange(buckets []PriceBucket, label string) (PriceRange, bool) {
	for i, b := range buckets {
		if b.Label != label {
			continue
		}

		var r PriceRange
		if i > 0 {
			low := buckets[i-1].UpperLimit
			r.Min = &low
		}
		if !b.Unbounded() {
			high := b.UpperLimit
			r.Max = &high
		}
		return r, true
	}
	return PriceRange{}, false
}
