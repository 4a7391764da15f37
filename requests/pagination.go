package requests

import "fmt"

// Pagination bounds page sizes accepted by the list operations.
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultPagination matches the dashboard's page size of five.
var DefaultPagination = Pagination{DefaultLimit: 5, MaxLimit: 100}

// Validate reports inconsistent limits.
func (p Pagination) Validate() error {
	if p.DefaultLimit < 1 {
		return fmt.Errorf("pagination: default limit must be positive")
	}
	if p.MaxLimit < 1 {
		return fmt.Errorf("pagination: max limit must be positive")
	}
	if p.DefaultLimit > p.MaxLimit {
		return fmt.Errorf("pagination: default limit cannot exceed max limit")
	}
	return nil
}

// PageQuery is a requested page. Zero or negative values fall back to the
// configured defaults.
type PageQuery struct {
	Page  int
	Limit int
}

// Normalize fills defaults and clamps the limit to MaxLimit. The clamp is
// deliberate: an oversized limit is served and reported as MaxLimit, and
// totalPages is computed from it. Pages beyond the last one are kept as-is.
func (q PageQuery) Normalize(p Pagination) PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = p.DefaultLimit
	}
	if q.Limit > p.MaxLimit {
		q.Limit = p.MaxLimit
	}
	return q
}

// Offset is the number of records skipped before this page.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// PageResult is one page of records plus pagination metadata.
type PageResult struct {
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
	Items      []Record `json:"items"`
}

// NewPageResult computes TotalPages as ceil(total/limit), zero when there are
// no records.
func NewPageResult(items []Record, total int, q PageQuery) PageResult {
	if items == nil {
		items = []Record{}
	}
	totalPages := 0
	if q.Limit > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}
	return PageResult{
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
		Items:      items,
	}
}
