package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"eventcrm/internal/domain"
)

type sendLogRepository struct {
	DB *sql.DB
}

func NewSendLogRepository(db *sql.DB) domain.SendLogRepository {
	return &sendLogRepository{DB: db}
}

func (r *sendLogRepository) Create(ctx context.Context, l *domain.SendLog) error {
	filters, err := json.Marshal(l.FiltersApplied)
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}
	recipients := l.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	query := `
		INSERT INTO send_logs (subject, body, filters_applied, recipients, num_recipients, num_sent_successfully, status, error_message, event_id, sent_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		l.Subject, l.Body, filters, pq.Array(recipients), l.NumRecipients, l.NumSentSuccessfully,
		string(l.Status), l.ErrorMessage, l.EventID, l.SentByID,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *sendLogRepository) Finalize(ctx context.Context, id string, sent int, status domain.SendStatus, errorMessage string) error {
	query := `
		UPDATE send_logs
		SET num_sent_successfully = $2, status = $3, error_message = $4, updated_at = now()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, id, sent, string(status), errorMessage)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var sendLogOrderColumns = map[string]string{
	"created_at":            "l.created_at",
	"subject":               "l.subject",
	"status":                "l.status",
	"num_recipients":        "l.num_recipients",
	"num_sent_successfully": "l.num_sent_successfully",
}

const sendLogFrom = `
	FROM send_logs l
	LEFT JOIN events e ON e.id = l.event_id`

func sendLogWhere(q domain.SendLogQuery) *whereBuilder {
	w := &whereBuilder{}
	if q.Status != "" {
		w.add(`l.status = ?`, string(q.Status))
	}
	if q.CreatedFrom != nil {
		w.add(`l.created_at >= ?`, *q.CreatedFrom)
	}
	if q.CreatedTo != nil {
		w.add(`l.created_at <= ?`, *q.CreatedTo)
	}
	if q.EventTitle != "" {
		w.add(`e.title ILIKE ?`, containsPattern(q.EventTitle))
	}
	return w
}

func (r *sendLogRepository) List(ctx context.Context, q domain.SendLogQuery, order domain.SortOrder, params domain.PaginationParams) ([]*domain.SendLog, int, error) {
	w := sendLogWhere(q)
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*)`+sendLogFrom+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := w.page(params)
	query := `
		SELECT l.id, l.subject, l.body, l.filters_applied, l.recipients, l.num_recipients, l.num_sent_successfully,
			l.status, l.error_message, l.event_id, e.title, l.sent_by, l.created_at, l.updated_at` +
		sendLogFrom + w.clause() +
		orderBy(order, domain.DefaultSendLogSort, sendLogOrderColumns, "l.id") + limit
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	logs := make([]*domain.SendLog, 0)
	for rows.Next() {
		l := &domain.SendLog{}
		var filters []byte
		var status string
		var eventID, title, sentBy sql.NullString
		if err := rows.Scan(&l.ID, &l.Subject, &l.Body, &filters, pq.Array(&l.Recipients), &l.NumRecipients,
			&l.NumSentSuccessfully, &status, &l.ErrorMessage, &eventID, &title, &sentBy, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if len(filters) > 0 {
			if err := json.Unmarshal(filters, &l.FiltersApplied); err != nil {
				return nil, 0, fmt.Errorf("decode filters of send log %s: %w", l.ID, err)
			}
		}
		if l.Recipients == nil {
			l.Recipients = []string{}
		}
		if eventID.Valid {
			l.EventID = &eventID.String
		}
		if sentBy.Valid {
			l.SentByID = &sentBy.String
		}
		l.EventTitle = title.String
		l.Status = domain.SendStatus(status)
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}
