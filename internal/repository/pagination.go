package repository

import (
	"storefront/internal/models"
)

// List page sizing shared by the catalog and the vacancy board.
const (
	DefaultPerPage = 12
	DefaultOrphans = 4
)

// LastPage requests the final page whatever its number.
const LastPage = -1

// Pagination selects one page of a list. A last page holding Orphans items
// or fewer is merged into the page before it.
type Pagination struct {
	Page    int
	PerPage int
	Orphans int
}

// NewPagination returns the default sizing for the given 1-based page.
func NewPagination(page int) Pagination {
	return Pagination{Page: page, PerPage: DefaultPerPage, Orphans: DefaultOrphans}
}

// Page is one page of results plus the totals needed to render a pager.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	NumPages int   `json:"num_pages"`
	HasNext  bool  `json:"has_next"`
	HasPrev  bool  `json:"has_previous"`
}

// NumPages is the page count for total items. An empty list still has one
// (empty) page.
func (p Pagination) NumPages(total int64) int {
	perPage := int64(p.normalized().PerPage)
	hits := total - int64(p.normalized().Orphans)
	if hits < 1 {
		hits = 1
	}
	return int((hits + perPage - 1) / perPage)
}

func (p Pagination) normalized() Pagination {
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.Orphans < 0 {
		p.Orphans = 0
	}
	if p.Page == 0 {
		p.Page = 1
	}
	return p
}

// window resolves the offset and limit of the requested page, or NotFound
// when the page is out of range.
func (p Pagination) window(total int64) (offset, limit int, err error) {
	p = p.normalized()
	numPages := p.NumPages(total)
	if p.Page == LastPage {
		p.Page = numPages
	}
	if p.Page < 1 || p.Page > numPages {
		return 0, 0, models.NewNotFoundError("Page", p.Page)
	}

	bottom := int64(p.Page-1) * int64(p.PerPage)
	top := bottom + int64(p.PerPage)
	if top+int64(p.Orphans) >= total {
		top = total
	}
	if top < bottom {
		top = bottom
	}
	return int(bottom), int(top - bottom), nil
}

func newPage[T any](items []T, total int64, p Pagination) *Page[T] {
	p = p.normalized()
	numPages := p.NumPages(total)
	if p.Page == LastPage {
		p.Page = numPages
	}
	return &Page[T]{
		Items:    items,
		Total:    total,
		Page:     p.Page,
		PerPage:  p.PerPage,
		NumPages: numPages,
		HasNext:  p.Page < numPages,
		HasPrev:  p.Page > 1,
	}
}
