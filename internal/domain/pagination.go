package domain

// PaginationParams holds offset-based pagination parameters for list queries.
// A zero PageSize means "no limit".
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page (0-based).
// Formula: (Page - 1) * PageSize.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// SortOrder is a validated ORDER BY field and direction. Field is always a key of an allow-list.
type SortOrder struct {
	Field string
	Desc  bool
}

// ParseSortOrder resolves raw ("field" or "-field") against allowed. Anything not in the
// allow-list falls back to def.
func ParseSortOrder(raw string, allowed map[string]struct{}, def SortOrder) SortOrder {
	desc := false
	field := raw
	if len(field) > 0 && field[0] == '-' {
		desc = true
		field = field[1:]
	}
	if _, ok := allowed[field]; !ok || field == "" {
		return def
	}
	return SortOrder{Field: field, Desc: desc}
}

// String renders the order back to its query-string form.
func (o SortOrder) String() string {
	if o.Desc {
		return "-" + o.Field
	}
	return o.Field
}
