package domain

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// SegmentCriteria selects users by profile substrings and inclusive counter bounds.
// All set fields are combined with AND. The JSON form is stored on send logs.
type SegmentCriteria struct {
	Company  string `json:"company,omitempty"`
	JobTitle string `json:"job_title,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`

	OwnedMin      *int `json:"total_owned_events_min,omitempty"`
	OwnedMax      *int `json:"total_owned_events_max,omitempty"`
	HostingMin    *int `json:"total_hosting_events_min,omitempty"`
	HostingMax    *int `json:"total_hosting_events_max,omitempty"`
	RegisteredMin *int `json:"total_registered_events_min,omitempty"`
	RegisteredMax *int `json:"total_registered_events_max,omitempty"`
}

// Bound pairs a counter column with its optional limits.
type Bound struct {
	Counter string
	Min     *int
	Max     *int
}

// Bounds lists the counter bounds in a fixed order.
func (c SegmentCriteria) Bounds() []Bound {
	return []Bound{
		{Counter: CounterOwned, Min: c.OwnedMin, Max: c.OwnedMax},
		{Counter: CounterHosting, Min: c.HostingMin, Max: c.HostingMax},
		{Counter: CounterRegistered, Min: c.RegisteredMin, Max: c.RegisteredMax},
	}
}

// Counter names, shared by filters, ordering and the listing payload.
const (
	CounterOwned      = "total_owned_events"
	CounterHosting    = "total_hosting_events"
	CounterRegistered = "total_registered_events"
)

// Normalize trims the text filters.
func (c *SegmentCriteria) Normalize() {
	c.Company = strings.TrimSpace(c.Company)
	c.JobTitle = strings.TrimSpace(c.JobTitle)
	c.City = strings.TrimSpace(c.City)
	c.State = strings.TrimSpace(c.State)
}

// Validate rejects negative bounds.
func (c SegmentCriteria) Validate() error {
	for _, b := range c.Bounds() {
		if b.Min != nil && *b.Min < 0 {
			return NewValidationError(b.Counter+"_min", "must be a non-negative integer")
		}
		if b.Max != nil && *b.Max < 0 {
			return NewValidationError(b.Counter+"_max", "must be a non-negative integer")
		}
	}
	return nil
}

// ParseSegmentCriteria reads criteria from query parameters. Empty values are ignored;
// a present but non-integer bound is a validation error.
func ParseSegmentCriteria(q url.Values) (SegmentCriteria, error) {
	c := SegmentCriteria{
		Company:  q.Get("company"),
		JobTitle: q.Get("job_title"),
		City:     q.Get("city"),
		State:    q.Get("state"),
	}
	targets := map[string]**int{
		CounterOwned + "_min":      &c.OwnedMin,
		CounterOwned + "_max":      &c.OwnedMax,
		CounterHosting + "_min":    &c.HostingMin,
		CounterHosting + "_max":    &c.HostingMax,
		CounterRegistered + "_min": &c.RegisteredMin,
		CounterRegistered + "_max": &c.RegisteredMax,
	}
	for name, dst := range targets {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return SegmentCriteria{}, NewValidationError(name, "must be an integer")
		}
		*dst = &v
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return SegmentCriteria{}, err
	}
	return c, nil
}

// UserSortFields is the ORDER BY allow-list for segment listings.
var UserSortFields = map[string]struct{}{
	"username":        {},
	"email":           {},
	"date_joined":     {},
	"company":         {},
	"job_title":       {},
	"city":            {},
	"state":           {},
	CounterOwned:      {},
	CounterHosting:    {},
	CounterRegistered: {},
}

// DefaultUserSort is ascending by username.
var DefaultUserSort = SortOrder{Field: "username"}

// ParseUserOrdering resolves an ordering parameter against UserSortFields.
func ParseUserOrdering(raw string) SortOrder {
	return ParseSortOrder(strings.TrimSpace(raw), UserSortFields, DefaultUserSort)
}

// SegmentService resolves segments.
type SegmentService interface {
	Filter(ctx context.Context, criteria SegmentCriteria, order SortOrder, params PaginationParams) ([]*UserSummary, int, error)
	// All returns the whole segment in the default order.
	All(ctx context.Context, criteria SegmentCriteria) ([]*UserSummary, error)
}
