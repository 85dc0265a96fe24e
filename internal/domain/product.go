// Package domain 定义商品目录的业务领域模型和核心业务规则。
package domain

import "strings"

// SizeDelimiter 尺码字段中各尺码之间的分隔符
const SizeDelimiter = " - "

// 商品字段名，与数据层的列/字段名保持一致
const (
	FieldCode  = "code"
	FieldName  = "name"
	FieldSizes = "sizes"
	FieldBrand = "brand"
	FieldPrice = "price"
)

// Product 表示目录中的商品（只读，由外部数据源维护）
type Product struct {
	Code  string   `json:"code"`
	Name  string   `json:"name"`
	Sizes string   `json:"sizes"` // 例如 "38 - 39 - 40"
	Brand string   `json:"brand"`
	Price *float64 `json:"price"` // 可能缺失
}

// HasPrice 判断商品是否有价格
func (p *Product) HasPrice() bool {
	return p.Price != nil
}

// Field 按字段名读取商品属性，供谓词求值使用
func (p *Product) Field(name string) (any, bool) {
	switch name {
	case FieldCode:
		return p.Code, true
	case FieldName:
		return p.Name, true
	case FieldSizes:
		return p.Sizes, true
	case FieldBrand:
		return p.Brand, true
	case FieldPrice:
		if p.Price == nil {
			return nil, false
		}
		return *p.Price, true
	}
	return nil, false
}

// SizeTokens 将尺码字段拆分为尺码列表。
// 先按分隔符拆分，再对每一段按同一分隔符拆分一次，以兼容单/双分隔符混用的数据；
// 去除首尾空白并丢弃空串，顺序保持不变（可能包含重复项）。
func SizeTokens(sizes string) []string {
	if strings.TrimSpace(sizes) == "" {
		return nil
	}

	var tokens []string
	for _, part := range strings.Split(sizes, SizeDelimiter) {
		for _, sub := range strings.Split(part, SizeDelimiter) {
			token := strings.TrimSpace(sub)
			if token == "" {
				continue
			}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// ProductView 表示列表中渲染的一行商品（附带图片地址和联系链接）
type ProductView struct {
	*Product
	ImageURL   string `json:"image_url"`
	ContactURL string `json:"contact_url"`
}

// ContactEvent 表示用户点击商品图片发起咨询的事件
type ContactEvent struct {
	EventID     string `json:"event_id"`
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	Link        string `json:"link"`
	RequestID   string `json:"request_id,omitempty"`
	OccurredAt  int64  `json:"occurred_at"`
}
