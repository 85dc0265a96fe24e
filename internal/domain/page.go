package domain

// DefaultPageSize 每页展示的商品数
const DefaultPageSize = 18

// FilterSelection 表示当前选中的过滤条件，空串表示不约束
type FilterSelection struct {
	Size             string `json:"size"`
	Brand            string `json:"brand"`
	PriceBucketLabel string `json:"price"`
}

// IsEmpty 判断是否未选择任何过滤条件
func (s FilterSelection) IsEmpty() bool {
	return s.Size == "" && s.Brand == "" && s.PriceBucketLabel == ""
}

// PageState 表示分页游标（页码从0开始）。
// 所有状态迁移都返回新值，不修改接收者。
type PageState struct {
	CurrentPage  int  `json:"current_page"`
	PageSize     int  `json:"page_size"`
	HasMoreItems bool `json:"has_more_items"`
}

// NewPageState 创建第0页的分页状态
func NewPageState(pageSize int) PageState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return PageState{PageSize: pageSize}
}

// Offset 当前页的起始偏移量
func (s PageState) Offset() int {
	return s.CurrentPage * s.PageSize
}

// HasPrevious 是否存在上一页
func (s PageState) HasPrevious() bool {
	return s.CurrentPage > 0
}

// Next 下一页；没有更多数据时原样返回
func (s PageState) Next() PageState {
	if !s.HasMoreItems {
		return s
	}
	s.CurrentPage++
	return s
}

// Prev 上一页；已在第0页时原样返回
func (s PageState) Prev() PageState {
	if s.CurrentPage == 0 {
		return s
	}
	s.CurrentPage--
	return s
}

// Reset 过滤条件变化时回到第0页
func (s PageState) Reset() PageState {
	s.CurrentPage = 0
	return s
}

// WithFetched 根据本次取回的条数更新 HasMoreItems。
// 恰好取满一页时认为还有更多数据（下一次取到空页前会误判一次）。
func (s PageState) WithFetched(count int) PageState {
	s.HasMoreItems = count == s.PageSize
	return s
}

// DropdownOption 下拉框选项
type DropdownOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FilterOptions 三个下拉框的选项集合
type FilterOptions struct {
	Sizes  []DropdownOption `json:"sizes"`
	Brands []DropdownOption `json:"brands"`
	Prices []DropdownOption `json:"prices"`
}

// CatalogPage 表示一次分页加载的结果
type CatalogPage struct {
	SessionID   string          `json:"session_id"`
	Selection   FilterSelection `json:"selection"`
	Page        PageState       `json:"page"`
	HasPrevious bool            `json:"has_previous"`
	Items       []*ProductView  `json:"items"`
}
