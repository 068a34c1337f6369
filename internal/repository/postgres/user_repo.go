package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"eventcrm/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `id, username, email, password_hash, salt, first_name, last_name, company, job_title, city, state, is_staff, date_joined`

func scanUser(row *sql.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Salt, &u.FirstName, &u.LastName,
		&u.Company, &u.JobTitle, &u.City, &u.State, &u.IsStaff, &u.DateJoined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.DB.QueryRowContext(ctx, query, strings.TrimSpace(email)))
}

func (r *userRepository) ListSegment(ctx context.Context, criteria domain.SegmentCriteria, order domain.SortOrder, params domain.PaginationParams) ([]*domain.UserSummary, int, error) {
	countQuery, listQuery, countArgs, listArgs := buildSegmentQuery(criteria, order, params)

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users := make([]*domain.UserSummary, 0)
	for rows.Next() {
		u := &domain.UserSummary{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Company, &u.JobTitle,
			&u.City, &u.State, &u.DateJoined, &u.TotalOwnedEvents, &u.TotalHostingEvents, &u.TotalRegisteredEvents); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}
