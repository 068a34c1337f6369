package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventcrm/internal/domain"
)

type participationRepository struct {
	DB *sql.DB
}

func NewParticipationRepository(db *sql.DB) domain.ParticipationRepository {
	return &participationRepository{DB: db}
}

// WithEventLock serializes role changes per event with a transaction-scoped advisory lock.
// The lock is released on commit or rollback.
func (r *participationRepository) WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.ParticipationTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin role change: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, eventID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("lock event: %w", err)
	}
	if err := fn(ctx, &participationTx{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit role change: %w", err)
	}
	return nil
}

func (r *participationRepository) GetRole(ctx context.Context, eventID, userID string) (domain.Role, error) {
	p, err := getParticipation(ctx, r.DB, eventID, userID, false)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.RoleNone, nil
	}
	if err != nil {
		return domain.RoleNone, err
	}
	return p.Role, nil
}

func (r *participationRepository) CountByRole(ctx context.Context, eventID string, role domain.Role) (int, error) {
	return countByRole(ctx, r.DB, eventID, role)
}

func (r *participationRepository) ListHosts(ctx context.Context, eventID string) ([]*domain.HostSummary, error) {
	query := `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name
		FROM participations p
		JOIN users u ON u.id = p.user_id
		WHERE p.event_id = $1 AND p.role = 'host'
		ORDER BY p.joined_at, u.id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hosts := make([]*domain.HostSummary, 0)
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName); err != nil {
			return nil, err
		}
		hosts = append(hosts, &domain.HostSummary{UserID: u.ID, DisplayName: u.DisplayName()})
	}
	return hosts, rows.Err()
}

type participationTx struct {
	q querier
}

func (t *participationTx) Get(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	return getParticipation(ctx, t.q, eventID, userID, true)
}

func (t *participationTx) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	result, err := t.q.ExecContext(ctx, `DELETE FROM participations WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (t *participationTx) Insert(ctx context.Context, p *domain.Participation) error {
	query := `
		INSERT INTO participations (user_id, event_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at
	`
	err := t.q.QueryRowContext(ctx, query, p.UserID, p.EventID, string(p.Role)).Scan(&p.ID, &p.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: participation already exists", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (t *participationTx) CountByRole(ctx context.Context, eventID string, role domain.Role) (int, error) {
	return countByRole(ctx, t.q, eventID, role)
}

func getParticipation(ctx context.Context, q querier, eventID, userID string, forUpdate bool) (*domain.Participation, error) {
	query := `
		SELECT id, user_id, event_id, role, joined_at
		FROM participations
		WHERE event_id = $1 AND user_id = $2
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	p := &domain.Participation{}
	var role string
	err := q.QueryRowContext(ctx, query, eventID, userID).Scan(&p.ID, &p.UserID, &p.EventID, &role, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Role = domain.Role(role)
	return p, nil
}

func countByRole(ctx context.Context, q querier, eventID string, role domain.Role) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM participations WHERE event_id = $1 AND role = $2`, eventID, string(role)).Scan(&n)
	return n, err
}
