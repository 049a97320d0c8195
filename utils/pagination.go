package utils

import "strconv"

// Pagination describes the slice of a collection returned by list endpoints.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// NewPagination computes page metadata: pages = ceil(total/limit),
// hasNext = page < pages, hasPrev = page > 1.
func NewPagination(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// Offset returns the number of records to skip for this page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePageLimit parses page/limit query values, falling back to page 1 and
// defaultLimit, and capping limit at 100.
func ParsePageLimit(pageStr, limitStr string, defaultLimit int) (int, int) {
	page := 1
	limit := defaultLimit
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}
