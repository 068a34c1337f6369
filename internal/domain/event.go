package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
)

var slugRegexp = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Event is something users can host or attend.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	MaxCapacity *int      `json:"max_capacity"`
	OwnerID     string    `json:"owner_id"`
}

// NewEvent returns a new Event. ID is set by the repository on create.
func NewEvent(slug, title string, startAt, endAt time.Time, maxCapacity *int, ownerID string) *Event {
	return &Event{
		Slug:        strings.ToLower(strings.TrimSpace(slug)),
		Title:       strings.TrimSpace(title),
		StartAt:     startAt,
		EndAt:       endAt,
		MaxCapacity: maxCapacity,
		OwnerID:     ownerID,
	}
}

// Validate checks the event invariants.
func (e *Event) Validate() error {
	if !slugRegexp.MatchString(e.Slug) {
		return NewValidationError("slug", "must be lowercase letters, digits and single hyphens")
	}
	if e.Title == "" {
		return NewValidationError("title", "is required")
	}
	if e.StartAt.IsZero() || e.EndAt.IsZero() {
		return NewValidationError("start_at", "start_at and end_at are required")
	}
	if e.EndAt.Before(e.StartAt) {
		return NewValidationError("end_at", "must not be before start_at")
	}
	if e.MaxCapacity != nil && *e.MaxCapacity < 0 {
		return NewValidationError("max_capacity", "must not be negative")
	}
	return nil
}

// ValidSlug reports whether s has the shape of an event slug.
func ValidSlug(s string) bool {
	return slugRegexp.MatchString(s)
}

// HostSummary is the public view of a host in an event aggregate.
type HostSummary struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// EventAggregate is the event plus its current participation totals.
// swagger:model EventAggregate
type EventAggregate struct {
	Event         *Event         `json:"event"`
	Hosts         []*HostSummary `json:"hosts"`
	HostCount     int            `json:"host_count"`
	AttendeeCount int            `json:"attendee_count"`
	SpotsLeft     *int           `json:"spots_left"`
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

// EventService defines event management operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetAggregate(ctx context.Context, slug string) (*EventAggregate, error)
	DeleteEvent(ctx context.Context, slug string) error
}
