package search

import "math"

// PageRequest is a resolved page/limit pair.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest clamps page to at least 1 and limit to [1, max].
// A max below 1 disables the ceiling.
func NewPageRequest(page, limit, max int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if max > 0 && limit > max {
		limit = max
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset is the number of rows to skip. It saturates at math.MaxInt so a
// huge page number lands past the end instead of wrapping negative.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata returned alongside a page of results.
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Paginate computes metadata for total matching rows.
func (p PageRequest) Paginate(total int) Pagination {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}

	return Pagination{
		Total:       total,
		Page:        p.Page,
		Limit:       p.Limit,
		TotalPages:  totalPages,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
}

// Result is a page of rows plus its pagination metadata.
type Result[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewResult builds a Result, replacing a nil slice with an empty one.
func NewResult[T any](data []T, total int, page PageRequest) *Result[T] {
	if data == nil {
		data = []T{}
	}
	return &Result[T]{Data: data, Pagination: page.Paginate(total)}
}
