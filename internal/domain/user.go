package domain

import (
	"context"
	"time"
)

// User is a CRM contact. Staff users may also log in to the back office.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Company      string    `json:"company"`
	JobTitle     string    `json:"job_title"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	IsStaff      bool      `json:"is_staff"`
	DateJoined   time.Time `json:"date_joined"`
}

// DisplayName returns the best human label for the user.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// UserSummary is a user annotated with distinct participation counters.
// swagger:model UserSummary
type UserSummary struct {
	ID                    string    `json:"id"`
	Username              string    `json:"username"`
	Email                 string    `json:"email"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	Company               string    `json:"company"`
	JobTitle              string    `json:"job_title"`
	City                  string    `json:"city"`
	State                 string    `json:"state"`
	DateJoined            time.Time `json:"date_joined"`
	TotalOwnedEvents      int       `json:"total_owned_events"`
	TotalHostingEvents    int       `json:"total_hosting_events"`
	TotalRegisteredEvents int       `json:"total_registered_events"`
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues bearer tokens for an authenticated staff user.
type TokenIssuer interface {
	Issue(userID, email string, staff bool, expiry time.Duration) (string, error)
}

// AccessClaims are the verified contents of a bearer token.
type AccessClaims struct {
	UserID string
	Email  string
	Staff  bool
}

// TokenVerifier verifies a bearer token.
type TokenVerifier interface {
	Verify(token string) (*AccessClaims, error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// ListSegment returns the users matching criteria with their counters, and the total match count.
	ListSegment(ctx context.Context, criteria SegmentCriteria, order SortOrder, params PaginationParams) ([]*UserSummary, int, error)
}

// AuthService authenticates staff users.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, err error)
}
