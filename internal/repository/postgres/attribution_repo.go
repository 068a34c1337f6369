package postgres

import (
	"context"
	"database/sql"

	"eventcrm/internal/domain"
)

type attributionRepository struct {
	DB *sql.DB
}

func NewAttributionRepository(db *sql.DB) domain.AttributionRepository {
	return &attributionRepository{DB: db}
}

func (r *attributionRepository) Create(ctx context.Context, rec *domain.AttributionRecord) error {
	query := `
		INSERT INTO attribution_records (user_id, event_id, utm_source, utm_medium, utm_campaign, utm_term, utm_content, session_id, role_change_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query,
		rec.UserID, rec.EventID, rec.UTMSource, rec.UTMMedium, rec.UTMCampaign, rec.UTMTerm, rec.UTMContent,
		rec.SessionID, string(rec.RoleChangeType),
	).Scan(&rec.ID, &rec.CreatedAt)
}

var attributionOrderColumns = map[string]string{
	"created_at":       "a.created_at",
	"utm_source":       "a.utm_source",
	"utm_medium":       "a.utm_medium",
	"utm_campaign":     "a.utm_campaign",
	"role_change_type": "a.role_change_type",
}

const attributionFrom = `
	FROM attribution_records a
	LEFT JOIN users u ON u.id = a.user_id
	LEFT JOIN events e ON e.id = a.event_id`

func attributionWhere(q domain.AttributionQuery) *whereBuilder {
	w := &whereBuilder{}
	if q.Search != "" {
		w.add(`(u.email ILIKE ? OR u.username ILIKE ? OR e.title ILIKE ? OR a.utm_campaign ILIKE ?)`, containsPattern(q.Search))
	}
	if q.UTMSource != "" {
		w.add(`a.utm_source = ?`, q.UTMSource)
	}
	if q.UTMMedium != "" {
		w.add(`a.utm_medium = ?`, q.UTMMedium)
	}
	if q.UTMCampaign != "" {
		w.add(`a.utm_campaign = ?`, q.UTMCampaign)
	}
	if q.RoleChangeType != "" {
		w.add(`a.role_change_type = ?`, string(q.RoleChangeType))
	}
	return w
}

func (r *attributionRepository) List(ctx context.Context, q domain.AttributionQuery, order domain.SortOrder, params domain.PaginationParams) ([]*domain.AttributionRecord, int, error) {
	w := attributionWhere(q)
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*)`+attributionFrom+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := w.page(params)
	query := `
		SELECT a.id, a.user_id, u.email, a.event_id, e.title, a.utm_source, a.utm_medium, a.utm_campaign,
			a.utm_term, a.utm_content, a.session_id, a.role_change_type, a.created_at` +
		attributionFrom + w.clause() +
		orderBy(order, domain.DefaultAttributionSort, attributionOrderColumns, "a.id") + limit
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	records := make([]*domain.AttributionRecord, 0)
	for rows.Next() {
		rec := &domain.AttributionRecord{}
		var userID, email, eventID, title sql.NullString
		var changeType string
		if err := rows.Scan(&rec.ID, &userID, &email, &eventID, &title, &rec.UTMSource, &rec.UTMMedium, &rec.UTMCampaign,
			&rec.UTMTerm, &rec.UTMContent, &rec.SessionID, &changeType, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		if userID.Valid {
			rec.UserID = &userID.String
		}
		if eventID.Valid {
			rec.EventID = &eventID.String
		}
		rec.UserEmail = email.String
		rec.EventTitle = title.String
		rec.RoleChangeType = domain.ChangeType(changeType)
		records = append(records, rec)
	}
	return records, total, rows.Err()
}
