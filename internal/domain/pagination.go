package domain

import (
	"math"
	"strings"
)

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// maxPage keeps (Page-1)*PageSize within int for any allowed page size.
const maxPage = math.MaxInt / MaxPageSize

type Pagination struct {
	Page      int       `json:"page" query:"page"`
	PageSize  int       `json:"pageSize" query:"pageSize"`
	SortBy    string    `json:"sortBy,omitempty" query:"sortBy"`
	SortOrder SortOrder `json:"sortOrder,omitempty" query:"sortOrder"`
}

// Normalize applies defaults and clamps. The sort field is validated
// against allowed; an empty SortBy falls back to created_at.
func (p Pagination) Normalize(allowed []string) (Pagination, error) {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	switch {
	case p.PageSize == 0:
		p.PageSize = DefaultPageSize
	case p.PageSize < MinPageSize:
		p.PageSize = MinPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}

	if p.SortBy == "" {
		p.SortBy = "created_at"
	}
	found := false
	for _, a := range allowed {
		if a == p.SortBy {
			found = true
			break
		}
	}
	if !found {
		return p, Invalid("sortBy", "unsupported sort field "+p.SortBy)
	}

	switch SortOrder(strings.ToUpper(string(p.SortOrder))) {
	case "":
		p.SortOrder = SortDesc
	case SortAsc:
		p.SortOrder = SortAsc
	case SortDesc:
		p.SortOrder = SortDesc
	default:
		return p, Invalid("sortOrder", "must be ASC or DESC")
	}
	return p, nil
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

func NewPage[T any](items []T, total int64, p Pagination) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.PageSize > 0 {
		pages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return Page[T]{
		Items:      items,
		TotalCount: total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: pages,
	}
}

// MapPage converts the items of a page while keeping its counters.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, it := range p.Items {
		items[i] = fn(it)
	}
	return Page[U]{
		Items:      items,
		TotalCount: p.TotalCount,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}
