package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventcrm/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (slug, title, description, venue, start_at, end_at, max_capacity, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var capacity sql.NullInt64
	if e.MaxCapacity != nil {
		capacity = sql.NullInt64{Int64: int64(*e.MaxCapacity), Valid: true}
	}
	err := r.DB.QueryRowContext(ctx, query,
		e.Slug, e.Title, e.Description, e.Venue, e.StartAt, e.EndAt, capacity, e.OwnerID,
	).Scan(&e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: event slug %q already exists", domain.ErrConflict, e.Slug)
		}
		return err
	}
	return nil
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	query := `
		SELECT id, slug, title, description, venue, start_at, end_at, max_capacity, owner_id
		FROM events
		WHERE slug = $1
	`
	e := &domain.Event{}
	var capacity sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, slug).Scan(
		&e.ID, &e.Slug, &e.Title, &e.Description, &e.Venue, &e.StartAt, &e.EndAt, &capacity, &e.OwnerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	if capacity.Valid {
		n := int(capacity.Int64)
		e.MaxCapacity = &n
	}
	return e, nil
}

func (r *eventRepository) DeleteBySlug(ctx context.Context, slug string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}
