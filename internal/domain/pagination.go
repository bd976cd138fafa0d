package domain

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage 页码上限，保证 OFFSET 不溢出
	MaxPage = 100000
)

// PageRequest 通用分页参数，页码从1开始
type PageRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Normalize 填充默认值并限制每页大小
func (p *PageRequest) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset 返回 SQL 偏移量
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page 分页结果
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
