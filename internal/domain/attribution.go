package domain

import (
	"context"
	"strings"
	"time"
)

// UTMParams are the campaign tags carried by a role-change request.
type UTMParams struct {
	Source    string `json:"utm_source"`
	Medium    string `json:"utm_medium"`
	Campaign  string `json:"utm_campaign"`
	Term      string `json:"utm_term"`
	Content   string `json:"utm_content"`
	SessionID string `json:"session_id"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (u UTMParams) Trimmed() UTMParams {
	return UTMParams{
		Source:    strings.TrimSpace(u.Source),
		Medium:    strings.TrimSpace(u.Medium),
		Campaign:  strings.TrimSpace(u.Campaign),
		Term:      strings.TrimSpace(u.Term),
		Content:   strings.TrimSpace(u.Content),
		SessionID: strings.TrimSpace(u.SessionID),
	}
}

// IsEmpty reports whether no tag and no session id is set.
func (u UTMParams) IsEmpty() bool {
	t := u.Trimmed()
	return t.Source == "" && t.Medium == "" && t.Campaign == "" && t.Term == "" && t.Content == "" && t.SessionID == ""
}

// AttributionRecord is an append-only log of a role change tagged with UTM data.
// UserID and EventID become nil when the referenced rows are deleted.
// swagger:model AttributionRecord
type AttributionRecord struct {
	ID             string     `json:"id"`
	UserID         *string    `json:"user_id"`
	UserEmail      string     `json:"user_email,omitempty"`
	EventID        *string    `json:"event_id"`
	EventTitle     string     `json:"event_title,omitempty"`
	UTMSource      string     `json:"utm_source"`
	UTMMedium      string     `json:"utm_medium"`
	UTMCampaign    string     `json:"utm_campaign"`
	UTMTerm        string     `json:"utm_term"`
	UTMContent     string     `json:"utm_content"`
	SessionID      string     `json:"session_id"`
	RoleChangeType ChangeType `json:"role_change_type"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AttributionQuery filters attribution listings. Search matches user email, username,
// event title and campaign; the UTM fields match exactly.
type AttributionQuery struct {
	Search         string
	UTMSource      string
	UTMMedium      string
	UTMCampaign    string
	RoleChangeType ChangeType
}

// AttributionSortFields is the ORDER BY allow-list for attribution listings.
var AttributionSortFields = map[string]struct{}{
	"created_at":       {},
	"utm_source":       {},
	"utm_medium":       {},
	"utm_campaign":     {},
	"role_change_type": {},
}

// DefaultAttributionSort is newest first.
var DefaultAttributionSort = SortOrder{Field: "created_at", Desc: true}

// AttributionRepository defines storage for attribution records.
type AttributionRepository interface {
	Create(ctx context.Context, rec *AttributionRecord) error
	List(ctx context.Context, q AttributionQuery, order SortOrder, params PaginationParams) ([]*AttributionRecord, int, error)
}

// RecordOutcome is the best-effort result of writing an attribution record.
type RecordOutcome struct {
	Recorded bool
	Message  string
}

// AttributionService records and lists attribution data.
type AttributionService interface {
	// Record writes one record when changeType is a real change and utm is non-empty.
	// It never returns an error: storage failures come back as an unrecorded outcome.
	Record(ctx context.Context, userID, eventID string, changeType ChangeType, utm UTMParams) RecordOutcome
	List(ctx context.Context, q AttributionQuery, order SortOrder, params PaginationParams) ([]*AttributionRecord, int, error)
}
