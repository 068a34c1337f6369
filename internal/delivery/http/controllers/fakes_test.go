package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"eventcrm/internal/delivery/http/helpers"
	"eventcrm/internal/delivery/http/middleware"
	"eventcrm/internal/domain"

	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

func withStaff(ctx context.Context, userID string) context.Context {
	return middleware.SetClaims(ctx, &domain.AccessClaims{UserID: userID, Email: userID + "@example.com", Staff: true})
}

// decodeEnvelope decodes the response envelope and, when data is non-nil, its data field into data.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if data != nil && envelope.Data != nil {
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, data))
	}
	return envelope
}

// fakeParticipationService implements domain.ParticipationService for handler tests.
type fakeParticipationService struct {
	resp    *domain.RoleChangeResponse
	err     error
	lastReq domain.RoleChangeRequest
}

func (f *fakeParticipationService) Transition(ctx context.Context, event *domain.Event, userID string, wantHost, wantAttendee bool) (*domain.TransitionResult, error) {
	return nil, nil
}

func (f *fakeParticipationService) ChangeRoleWithToken(ctx context.Context, req domain.RoleChangeRequest) (*domain.RoleChangeResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

// fakeSegmentService implements domain.SegmentService for handler tests.
type fakeSegmentService struct {
	users        []*domain.UserSummary
	total        int
	err          error
	lastCriteria domain.SegmentCriteria
	lastOrder    domain.SortOrder
	lastParams   domain.PaginationParams
}

func (f *fakeSegmentService) Filter(ctx context.Context, criteria domain.SegmentCriteria, order domain.SortOrder, params domain.PaginationParams) ([]*domain.UserSummary, int, error) {
	f.lastCriteria, f.lastOrder, f.lastParams = criteria, order, params
	return f.users, f.total, f.err
}

func (f *fakeSegmentService) All(ctx context.Context, criteria domain.SegmentCriteria) ([]*domain.UserSummary, error) {
	f.lastCriteria = criteria
	return f.users, f.err
}

// fakeBulkMailService implements domain.BulkMailService for handler tests.
type fakeBulkMailService struct {
	out     *domain.SendOutcome
	err     error
	lastReq domain.BulkSendRequest
	calls   int
}

func (f *fakeBulkMailService) SendToSegment(ctx context.Context, req domain.BulkSendRequest) (*domain.SendOutcome, error) {
	f.calls++
	f.lastReq = req
	return f.out, f.err
}

// fakeSendLogService implements domain.SendLogService for handler tests.
type fakeSendLogService struct {
	logs      []*domain.SendLog
	err       error
	lastQuery domain.SendLogQuery
	lastOrder domain.SortOrder
}

func (f *fakeSendLogService) List(ctx context.Context, q domain.SendLogQuery, order domain.SortOrder, params domain.PaginationParams) ([]*domain.SendLog, int, error) {
	f.lastQuery, f.lastOrder = q, order
	return f.logs, len(f.logs), f.err
}

// fakeAttributionService implements domain.AttributionService for handler tests.
type fakeAttributionService struct {
	records   []*domain.AttributionRecord
	err       error
	lastQuery domain.AttributionQuery
	lastOrder domain.SortOrder
}

func (f *fakeAttributionService) Record(ctx context.Context, userID, eventID string, changeType domain.ChangeType, utm domain.UTMParams) domain.RecordOutcome {
	return domain.RecordOutcome{Recorded: true}
}

func (f *fakeAttributionService) List(ctx context.Context, q domain.AttributionQuery, order domain.SortOrder, params domain.PaginationParams) ([]*domain.AttributionRecord, int, error) {
	f.lastQuery, f.lastOrder = q, order
	return f.records, len(f.records), f.err
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	agg       *domain.EventAggregate
	createErr error
	getErr    error
	deleteErr error
	created   *domain.Event
	deleted   string
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	event.ID = "ev-1"
	f.created = event
	return nil
}

func (f *fakeEventService) GetAggregate(ctx context.Context, slug string) (*domain.EventAggregate, error) {
	return f.agg, f.getErr
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, slug string) error {
	f.deleted = slug
	return f.deleteErr
}

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return f.token, f.err
}
