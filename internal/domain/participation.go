package domain

import (
	"context"
	"time"
)

// Role is the single role a user holds on an event. RoleNone means no participation row.
type Role string

const (
	RoleNone     Role = ""
	RoleHost     Role = "host"
	RoleAttendee Role = "attendee"
)

// ChangeType classifies the outcome of a role transition.
type ChangeType string

const (
	ChangeNone         ChangeType = "none"
	ChangeHost         ChangeType = "host"
	ChangeAttendee     ChangeType = "attendee"
	ChangeUnregistered ChangeType = "unregistered"
)

// Participation is the unique (user, event) row holding the user's role.
// swagger:model Participation
type Participation struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	EventID  string    `json:"event_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// DesiredRole maps the two request flags onto a role.
// Both flags set is rejected before any state is read.
func DesiredRole(wantHost, wantAttendee bool) (Role, error) {
	switch {
	case wantHost && wantAttendee:
		return RoleNone, NewValidationError("is_host", "cannot host and attend the same event")
	case wantHost:
		return RoleHost, nil
	case wantAttendee:
		return RoleAttendee, nil
	default:
		return RoleNone, nil
	}
}

// TransitionPlan is the set of row operations needed to move from Current to Desired.
type TransitionPlan struct {
	Current    Role
	Desired    Role
	Remove     bool
	Insert     Role
	ChangeType ChangeType
}

// PlanTransition computes the delete-then-insert steps for a role change.
// A plan whose Desired equals Current touches nothing.
func PlanTransition(current, desired Role) TransitionPlan {
	p := TransitionPlan{Current: current, Desired: desired, ChangeType: ChangeNone}
	if current == desired {
		return p
	}
	p.Remove = current != RoleNone
	p.Insert = desired
	switch desired {
	case RoleHost:
		p.ChangeType = ChangeHost
	case RoleAttendee:
		p.ChangeType = ChangeAttendee
	default:
		p.ChangeType = ChangeUnregistered
	}
	return p
}

// NeedsCapacityCheck reports whether the plan inserts a capacity-limited row.
// Hosts are never counted against max_capacity.
func (p TransitionPlan) NeedsCapacityCheck() bool {
	return p.Insert == RoleAttendee
}

// TransitionResult reports what a role transition did.
// swagger:model TransitionResult
type TransitionResult struct {
	Applied          bool       `json:"applied"`
	ChangeType       ChangeType `json:"change_type"`
	FinalIsHosting   bool       `json:"is_hosting"`
	FinalIsAttending bool       `json:"is_attending"`
	Messages         []string   `json:"messages"`
}

func (r *TransitionResult) setFinal(role Role) {
	r.FinalIsHosting = role == RoleHost
	r.FinalIsAttending = role == RoleAttendee
}

// NewTransitionResult returns a result whose final flags reflect role.
func NewTransitionResult(role Role, changeType ChangeType, applied bool, messages ...string) *TransitionResult {
	r := &TransitionResult{Applied: applied, ChangeType: changeType, Messages: messages}
	if r.Messages == nil {
		r.Messages = []string{}
	}
	r.setFinal(role)
	return r
}

// ParticipationTx is the participation table as seen inside one locked transaction.
type ParticipationTx interface {
	Get(ctx context.Context, eventID, userID string) (*Participation, error)
	Delete(ctx context.Context, eventID, userID string) (bool, error)
	Insert(ctx context.Context, p *Participation) error
	CountByRole(ctx context.Context, eventID string, role Role) (int, error)
}

// ParticipationRepository defines storage for participations.
type ParticipationRepository interface {
	// WithEventLock runs fn in a single transaction that holds the event's role-change lock.
	// Any error returned by fn rolls the transaction back.
	WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, tx ParticipationTx) error) error
	GetRole(ctx context.Context, eventID, userID string) (Role, error)
	CountByRole(ctx context.Context, eventID string, role Role) (int, error)
	ListHosts(ctx context.Context, eventID string) ([]*HostSummary, error)
}

// RoleChangeRequest is a token-authorized self-service role change.
type RoleChangeRequest struct {
	Token     string
	EventSlug string
	IsHost    bool
	IsAttend  bool
	UTM       UTMParams
}

// RoleChangeResponse is the role-change outcome plus the event's current aggregate.
// swagger:model RoleChangeResponse
type RoleChangeResponse struct {
	Messages    []string        `json:"messages"`
	IsHosting   bool            `json:"is_hosting"`
	IsAttending bool            `json:"is_attending"`
	ChangeType  ChangeType      `json:"change_type"`
	Applied     bool            `json:"applied"`
	Event       *EventAggregate `json:"event"`
}

// ParticipationService applies role transitions.
type ParticipationService interface {
	// Transition changes the user's role on the event. On validation and capacity failures
	// it returns both a result carrying the unchanged status and the error.
	Transition(ctx context.Context, event *Event, userID string, wantHost, wantAttendee bool) (*TransitionResult, error)
	// ChangeRoleWithToken redeems the link token and applies the transition for its user.
	ChangeRoleWithToken(ctx context.Context, req RoleChangeRequest) (*RoleChangeResponse, error)
}
