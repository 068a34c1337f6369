package helpers

import (
	"net/http"
	"strconv"
	"strings"

	"eventcrm/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads page and page_size from the request query string,
// clamps them to valid ranges, and returns domain.PaginationParams.
// Invalid or missing values fall back to defaults.
func ParsePagination(r *http.Request) domain.PaginationParams {
	page := DefaultPage
	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			page = v
		}
	}
	pageSize := DefaultPageSize
	if s := r.URL.Query().Get("page_size"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			pageSize = min(v, MaxPageSize)
		}
	}
	return domain.PaginationParams{Page: page, PageSize: pageSize}
}

// ParsePaginationStrict is ParsePagination except that a page_size that is not an
// integer is rejected. Positive out-of-range values are still clamped.
func ParsePaginationStrict(r *http.Request) (domain.PaginationParams, error) {
	if s := strings.TrimSpace(r.URL.Query().Get("page_size")); s != "" {
		if _, err := strconv.Atoi(s); err != nil {
			return domain.PaginationParams{}, domain.NewValidationError("page_size", "must be an integer")
		}
	}
	return ParsePagination(r), nil
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta from the current page, page size, and total count.
// TotalPages is computed as ceiling(total / pageSize); if pageSize is 0, TotalPages is 0.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// PaginatedList is the data payload of paginated list endpoints.
type PaginatedList[T any] struct {
	Items      []T            `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
	Ordering   string         `json:"ordering,omitempty"`
}

// NewPaginatedList wraps items with their pagination metadata. A nil slice is encoded as [].
func NewPaginatedList[T any](items []T, params domain.PaginationParams, total int, ordering string) PaginatedList[T] {
	if items == nil {
		items = []T{}
	}
	return PaginatedList[T]{
		Items:      items,
		Pagination: NewPaginationMeta(params.Page, params.PageSize, total),
		Ordering:   ordering,
	}
}
