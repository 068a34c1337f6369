package domain

import (
	"context"
	"time"
)

// SendStatus is the lifecycle state of a bulk send. Pending after completion means the
// send was interrupted.
type SendStatus string

const (
	SendPending        SendStatus = "pending"
	SendSuccess        SendStatus = "success"
	SendPartialSuccess SendStatus = "partial_success"
	SendFailed         SendStatus = "failed"
)

// Valid reports whether s is a known status.
func (s SendStatus) Valid() bool {
	switch s {
	case SendPending, SendSuccess, SendPartialSuccess, SendFailed:
		return true
	}
	return false
}

// StatusFor derives the final status from delivery counts.
func StatusFor(sent, total int) SendStatus {
	switch {
	case total > 0 && sent == total:
		return SendSuccess
	case sent > 0:
		return SendPartialSuccess
	default:
		return SendFailed
	}
}

// SendLog is the audit row of one bulk-send attempt.
// swagger:model SendLog
type SendLog struct {
	ID                  string          `json:"id"`
	Subject             string          `json:"subject"`
	Body                string          `json:"body"`
	FiltersApplied      SegmentCriteria `json:"filters_applied"`
	Recipients          []string        `json:"recipients"`
	NumRecipients       int             `json:"num_recipients"`
	NumSentSuccessfully int             `json:"num_sent_successfully"`
	Status              SendStatus      `json:"status"`
	ErrorMessage        string          `json:"error_message"`
	EventID             *string         `json:"event_id"`
	EventTitle          string          `json:"event_title,omitempty"`
	SentByID            *string         `json:"sent_by_id"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// SendLogQuery filters send log listings.
type SendLogQuery struct {
	Status      SendStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	EventTitle  string
}

// SendLogSortFields is the ORDER BY allow-list for send log listings.
var SendLogSortFields = map[string]struct{}{
	"created_at":            {},
	"subject":               {},
	"status":                {},
	"num_recipients":        {},
	"num_sent_successfully": {},
}

// DefaultSendLogSort is newest first.
var DefaultSendLogSort = SortOrder{Field: "created_at", Desc: true}

// SendLogRepository defines storage for send logs.
type SendLogRepository interface {
	Create(ctx context.Context, log *SendLog) error
	Finalize(ctx context.Context, id string, sent int, status SendStatus, errorMessage string) error
	List(ctx context.Context, q SendLogQuery, order SortOrder, params PaginationParams) ([]*SendLog, int, error)
}

// BulkSendRequest describes one send to a segment.
type BulkSendRequest struct {
	Subject   string
	Body      string
	HTMLBody  string
	Criteria  SegmentCriteria
	EventSlug string
	SenderID  string
}

// SendOutcome summarizes a bulk send for the caller.
// swagger:model SendOutcome
type SendOutcome struct {
	SentCount       int        `json:"sent_count"`
	RecipientsCount int        `json:"recipients_count"`
	Status          SendStatus `json:"status,omitempty"`
	SendLogID       string     `json:"send_log_id,omitempty"`
	Failed          []string   `json:"failed"`
	Message         string     `json:"message"`
}

// BulkMailService sends personalized emails to a segment.
type BulkMailService interface {
	SendToSegment(ctx context.Context, req BulkSendRequest) (*SendOutcome, error)
}

// SendLogService lists send logs.
type SendLogService interface {
	List(ctx context.Context, q SendLogQuery, order SortOrder, params PaginationParams) ([]*SendLog, int, error)
}
