package domain

// Brand 表示品牌，Priority 越小展示越靠前；缺失优先级的品牌不参与下拉选项
type Brand struct {
	Name     string `json:"name"`
	Priority *int   `json:"priority"`
}

// HasPriority 判断品牌是否配置了优先级
func (b *Brand) HasPriority() bool {
	return b.Priority != nil
}
