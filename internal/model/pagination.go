package model

// Pagination defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageInfo describes one page of a listing
type PageInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPageInfo clamps page and pageSize and computes the page count
func NewPageInfo(page, pageSize, total int) PageInfo {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
}

// Bounds returns the slice bounds of the page within total items
func (p PageInfo) Bounds() (start, end int) {
	start = (p.Page - 1) * p.PageSize
	if start > p.Total {
		start = p.Total
	}
	end = start + p.PageSize
	if end > p.Total {
		end = p.Total
	}
	return start, end
}
