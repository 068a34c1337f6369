package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcrm/internal/domain"
)

const (
	userAda   = "11111111-1111-4111-8111-111111111111"
	userGrace = "22222222-2222-4222-8222-222222222222"
	userLinus = "33333333-3333-4333-8333-333333333333"
)

var fixtureNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type participationFixture struct {
	events   *fakeEventRepo
	parts    *fakeParticipationRepo
	users    *fakeUserRepo
	attrRepo *fakeAttributionRepo
	codec    domain.LinkTokenCodec
	svc      domain.ParticipationService
}

func newParticipationFixture(t *testing.T, events ...*domain.Event) *participationFixture {
	t.Helper()
	users := []*domain.User{
		{ID: userAda, Username: "ada", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
		{ID: userGrace, Username: "grace", Email: "grace@example.com"},
		{ID: userLinus, Username: "linus", Email: "linus@example.com"},
	}
	f := &participationFixture{
		events:   newFakeEventRepo(events...),
		parts:    newFakeParticipationRepo(users...),
		users:    newFakeUserRepo(users...),
		attrRepo: &fakeAttributionRepo{},
		codec:    newTestCodec(t, fixtureNow),
	}
	f.svc = NewParticipationService(ParticipationDeps{
		EventRepo:         f.events,
		ParticipationRepo: f.parts,
		UserRepo:          f.users,
		Codec:             f.codec,
		Attribution:       NewAttributionService(f.attrRepo, testLogger, testTimeout),
		Events:            NewEventService(f.events, f.parts, testTimeout),
		Logger:            testLogger,
	}, testTimeout)
	return f
}

func springMeetup(capacity *int) *domain.Event {
	return &domain.Event{
		ID:          "ev-spring",
		Slug:        "spring-meetup",
		Title:       "Spring Meetup",
		StartAt:     fixtureNow.Add(24 * time.Hour),
		EndAt:       fixtureNow.Add(27 * time.Hour),
		MaxCapacity: capacity,
	}
}

func TestParticipationService_Transition_HostIsIdempotent(t *testing.T) {
	ctx := context.Background()
	event := springMeetup(nil)
	f := newParticipationFixture(t, event)

	first, err := f.svc.Transition(ctx, event, userAda, true, false)
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.Equal(t, domain.ChangeHost, first.ChangeType)
	assert.True(t, first.FinalIsHosting)
	assert.False(t, first.FinalIsAttending)

	second, err := f.svc.Transition(ctx, event, userAda, true, false)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Equal(t, domain.ChangeNone, second.ChangeType)
	assert.True(t, second.FinalIsHosting)
	assert.Equal(t, []string{"You are already hosting Spring Meetup."}, second.Messages)

	assert.Equal(t, 1, f.parts.countRows(event.ID, userAda))
	role, err := f.parts.GetRole(ctx, event.ID, userAda)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHost, role)
}

func TestParticipationService_Transition_StateMachine(t *testing.T) {
	tests := []struct {
		name        string
		current     domain.Role
		wantHost    bool
		wantAttend  bool
		wantApplied bool
		wantChange  domain.ChangeType
		wantRole    domain.Role
	}{
		{"none to host", domain.RoleNone, true, false, true, domain.ChangeHost, domain.RoleHost},
		{"none to attendee", domain.RoleNone, false, true, true, domain.ChangeAttendee, domain.RoleAttendee},
		{"none to none", domain.RoleNone, false, false, false, domain.ChangeNone, domain.RoleNone},
		{"attendee to host", domain.RoleAttendee, true, false, true, domain.ChangeHost, domain.RoleHost},
		{"host to attendee", domain.RoleHost, false, true, true, domain.ChangeAttendee, domain.RoleAttendee},
		{"attendee to none", domain.RoleAttendee, false, false, true, domain.ChangeUnregistered, domain.RoleNone},
		{"host to none", domain.RoleHost, false, false, true, domain.ChangeUnregistered, domain.RoleNone},
		{"attendee to attendee", domain.RoleAttendee, false, true, false, domain.ChangeNone, domain.RoleAttendee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			event := springMeetup(nil)
			f := newParticipationFixture(t, event)
			if tt.current != domain.RoleNone {
				f.parts.seed(event.ID, userAda, tt.current)
			}

			res, err := f.svc.Transition(ctx, event, userAda, tt.wantHost, tt.wantAttend)
			require.NoError(t, err)
			assert.Equal(t, tt.wantApplied, res.Applied)
			assert.Equal(t, tt.wantChange, res.ChangeType)
			assert.Equal(t, tt.wantRole == domain.RoleHost, res.FinalIsHosting)
			assert.Equal(t, tt.wantRole == domain.RoleAttendee, res.FinalIsAttending)
			assert.Len(t, res.Messages, 1)

			role, err := f.parts.GetRole(ctx, event.ID, userAda)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, role)
			assert.LessOrEqual(t, f.parts.countRows(event.ID, userAda), 1)
		})
	}
}

func TestParticipationService_Transition_BothFlagsRejected(t *testing.T) {
	for _, current := range []domain.Role{domain.RoleNone, domain.RoleHost, domain.RoleAttendee} {
		t.Run(fmt.Sprintf("current=%q", current), func(t *testing.T) {
			ctx := context.Background()
			event := springMeetup(intPtr(5))
			f := newParticipationFixture(t, event)
			if current != domain.RoleNone {
				f.parts.seed(event.ID, userAda, current)
			}

			res, err := f.svc.Transition(ctx, event, userAda, true, true)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotNil(t, res)
			assert.False(t, res.Applied)
			assert.Equal(t, current == domain.RoleHost, res.FinalIsHosting)
			assert.Equal(t, current == domain.RoleAttendee, res.FinalIsAttending)
			assert.Zero(t, f.parts.lockCalls, "rejected before any mutation")

			role, err := f.parts.GetRole(ctx, event.ID, userAda)
			require.NoError(t, err)
			assert.Equal(t, current, role)
		})
	}
}

func TestParticipationService_Transition_Capacity(t *testing.T) {
	ctx := context.Background()

	t.Run("full event rejects new attendee and creates no row", func(t *testing.T) {
		event := springMeetup(intPtr(2))
		f := newParticipationFixture(t, event)
		f.parts.seed(event.ID, userGrace, domain.RoleAttendee)
		f.parts.seed(event.ID, userLinus, domain.RoleAttendee)

		res, err := f.svc.Transition(ctx, event, userAda, false, true)
		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
		require.ErrorIs(t, err, domain.ErrConflict)
		require.NotNil(t, res)
		assert.False(t, res.Applied)
		assert.False(t, res.FinalIsAttending)
		assert.False(t, res.FinalIsHosting)
		assert.Equal(t, 0, f.parts.countRows(event.ID, userAda))
	})

	t.Run("host moving to a full attendee list keeps hosting", func(t *testing.T) {
		event := springMeetup(intPtr(1))
		f := newParticipationFixture(t, event)
		f.parts.seed(event.ID, userAda, domain.RoleHost)
		f.parts.seed(event.ID, userGrace, domain.RoleAttendee)

		res, err := f.svc.Transition(ctx, event, userAda, false, true)
		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
		assert.True(t, res.FinalIsHosting)

		role, err := f.parts.GetRole(ctx, event.ID, userAda)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleHost, role, "delete is rolled back with the failed insert")
	})

	t.Run("hosts are not capacity limited", func(t *testing.T) {
		event := springMeetup(intPtr(1))
		f := newParticipationFixture(t, event)
		f.parts.seed(event.ID, userGrace, domain.RoleAttendee)

		res, err := f.svc.Transition(ctx, event, userAda, true, false)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.True(t, res.FinalIsHosting)
	})

	t.Run("existing attendee on a full event is a no-op", func(t *testing.T) {
		event := springMeetup(intPtr(1))
		f := newParticipationFixture(t, event)
		f.parts.seed(event.ID, userAda, domain.RoleAttendee)

		res, err := f.svc.Transition(ctx, event, userAda, false, true)
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.True(t, res.FinalIsAttending)
	})

	t.Run("zero capacity admits nobody", func(t *testing.T) {
		event := springMeetup(intPtr(0))
		f := newParticipationFixture(t, event)

		_, err := f.svc.Transition(ctx, event, userAda, false, true)
		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	})
}

func TestParticipationService_Transition_ConcurrentRequestsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	event := springMeetup(intPtr(1))
	f := newParticipationFixture(t, event)

	users := make([]string, 10)
	for i := range users {
		users[i] = fmt.Sprintf("user-%d", i)
	}
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, full := 0, 0
	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := f.svc.Transition(ctx, event, userID, false, true)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrCapacityExceeded):
				full++
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, full)
	n, err := f.parts.CountByRole(ctx, event.ID, domain.RoleAttendee)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestParticipationService_Transition_InsertConflict(t *testing.T) {
	event := springMeetup(nil)
	f := newParticipationFixture(t, event)
	f.parts.insertErr = fmt.Errorf("%w: participation already exists", domain.ErrConflict)

	res, err := f.svc.Transition(context.Background(), event, userAda, true, false)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Nil(t, res)
}

func TestParticipationService_Transition_StorageError(t *testing.T) {
	event := springMeetup(nil)
	f := newParticipationFixture(t, event)
	f.parts.seed(event.ID, userAda, domain.RoleAttendee)
	f.parts.deleteErr = errors.New("connection reset")

	_, err := f.svc.Transition(context.Background(), event, userAda, true, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	role, _ := f.parts.GetRole(context.Background(), event.ID, userAda)
	assert.Equal(t, domain.RoleAttendee, role)
}

func TestParticipationService_ChangeRoleWithToken_SpringMeetup(t *testing.T) {
	ctx := context.Background()
	event := springMeetup(intPtr(1))
	f := newParticipationFixture(t, event)

	tokenA, err := f.codec.Issue("ada@example.com", userAda, event.EndAt)
	require.NoError(t, err)
	tokenB, err := f.codec.Issue("grace@example.com", userGrace, event.EndAt)
	require.NoError(t, err)

	respA, err := f.svc.ChangeRoleWithToken(ctx, domain.RoleChangeRequest{Token: tokenA, EventSlug: "spring-meetup", IsAttend: true})
	require.NoError(t, err)
	assert.True(t, respA.IsAttending)
	assert.True(t, respA.Applied)
	assert.Equal(t, 1, respA.Event.AttendeeCount)
	require.NotNil(t, respA.Event.SpotsLeft)
	assert.Equal(t, 0, *respA.Event.SpotsLeft)

	respB, err := f.svc.ChangeRoleWithToken(ctx, domain.RoleChangeRequest{Token: tokenB, EventSlug: "spring-meetup", IsAttend: true})
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	require.NotNil(t, respB)
	assert.False(t, respB.IsHosting)
	assert.False(t, respB.IsAttending)
	assert.Equal(t, 1, respB.Event.AttendeeCount)
	assert.Contains(t, respB.Messages[0], "maximum capacity")
}

func TestParticipationService_ChangeRoleWithToken_Rejections(t *testing.T) {
	ctx := context.Background()
	event := springMeetup(nil)
	f := newParticipationFixture(t, event)

	valid, err := f.codec.Issue("ada@example.com", userAda, event.EndAt)
	require.NoError(t, err)
	expired, err := f.codec.Issue("ada@example.com", userAda, fixtureNow.Add(-time.Minute))
	require.NoError(t, err)
	wrongEmail, err := f.codec.Issue("mallory@example.com", userAda, event.EndAt)
	require.NoError(t, err)
	unknownUser, err := f.codec.Issue("nobody@example.com", "99999999-9999-4999-8999-999999999999", event.EndAt)
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     domain.RoleChangeRequest
		wantErr error
	}{
		{"garbage token", domain.RoleChangeRequest{Token: "not-a-token", EventSlug: "spring-meetup", IsHost: true}, domain.ErrInvalidToken},
		{"expired token", domain.RoleChangeRequest{Token: expired, EventSlug: "spring-meetup", IsHost: true}, domain.ErrInvalidToken},
		{"email mismatch", domain.RoleChangeRequest{Token: wrongEmail, EventSlug: "spring-meetup", IsHost: true}, domain.ErrInvalidToken},
		{"unknown user", domain.RoleChangeRequest{Token: unknownUser, EventSlug: "spring-meetup", IsHost: true}, domain.ErrInvalidToken},
		{"unknown event", domain.RoleChangeRequest{Token: valid, EventSlug: "autumn-meetup", IsHost: true}, domain.ErrEventNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.ChangeRoleWithToken(ctx, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, resp)
		})
	}
	assert.Zero(t, f.parts.lockCalls)

	t.Run("both flags report current status", func(t *testing.T) {
		resp, err := f.svc.ChangeRoleWithToken(ctx, domain.RoleChangeRequest{Token: valid, EventSlug: "spring-meetup", IsHost: true, IsAttend: true})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		require.NotNil(t, resp)
		assert.False(t, resp.Applied)
		assert.NotNil(t, resp.Event)
	})
}

func TestParticipationService_ChangeRoleWithToken_Attribution(t *testing.T) {
	ctx := context.Background()
	utm := domain.UTMParams{Source: "crm_email", Medium: "email", Campaign: "event_spring_meetup", Content: "textlink"}

	t.Run("applied change is recorded", func(t *testing.T) {
		event := springMeetup(nil)
		f := newParticipationFixture(t, event)
		token, err := f.codec.Issue("ada@example.com", userAda, event.EndAt)
		require.NoError(t, err)

		resp, err := f.svc.ChangeRoleWithToken(ctx, domain.RoleChangeRequest{Token: token, EventSlug: event.Slug, IsHost: true, UTM: utm})
		require.NoError(t, err)
		assert.Len(t, resp.Messages, 1)
		require.Len(t, f.attrRepo.records, 1)
		rec := f.attrRepo.records[0]
		assert.Equal(t, userAda, *rec.UserID)
		assert.Equal(t, event.ID, *rec.EventID)
		assert.Equal(t, domain.ChangeHost, rec.RoleChangeType)
		assert.Equal(t, "event_spring_meetup", rec.UTMCampaign)
		assert.Equal(t, []*domain.HostSummary{{UserID: userAda, DisplayName: "Ada Lovelace"}}, resp.Event.Hosts)
	})

	t.Run("no-op change is not recorded", func(t *testing.T) {
		event := springMeetup(nil)
		f := newParticipationFixture(t, event)
		token, err := f.codec.Issue("ada@example.com", userAda, event.EndAt)
		require.NoError(t, err)

		_, err = f.svc.ChangeRoleWithToken(ctx, domain.RoleChangeRequest{Token: token, EventSlug: event.Slug, UTM: utm})
		require.NoError(t, err)
		assert.Empty(t, f.attrRepo.records)
	})

	t.Run("missing utm is not recorded", func(t *testing.T) {
		event := springMeetup(nil)
		f := newParticipationFixture(t, event)
		token, err := f.codec.Issue("ada@example.com", userAda, event.EndAt)
		require.NoError(t, err)

		_, err = f.svc.ChangeRoleWithToken(ctx, domain.RoleChangeRequest{Token: token, EventSlug: event.Slug, IsAttend: true})
		require.NoError(t, err)
		assert.Empty(t, f.attrRepo.records)
	})

	t.Run("storage failure keeps the role change", func(t *testing.T) {
		event := springMeetup(nil)
		f := newParticipationFixture(t, event)
		f.attrRepo.err = errors.New("disk full")
		token, err := f.codec.Issue("ada@example.com", userAda, event.EndAt)
		require.NoError(t, err)

		resp, err := f.svc.ChangeRoleWithToken(ctx, domain.RoleChangeRequest{Token: token, EventSlug: event.Slug, IsAttend: true, UTM: utm})
		require.NoError(t, err)
		assert.True(t, resp.IsAttending)
		require.Len(t, resp.Messages, 2)
		assert.Contains(t, resp.Messages[1], "campaign tracking could not be recorded")

		role, _ := f.parts.GetRole(ctx, event.ID, userAda)
		assert.Equal(t, domain.RoleAttendee, role)
	})
}
