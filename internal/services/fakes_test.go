package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventcrm/internal/adapters/linktoken"
	"eventcrm/internal/domain"
)

const testTimeout = 5 * time.Second

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

func intPtr(n int) *int { return &n }

func newTestCodec(t *testing.T, now time.Time) domain.LinkTokenCodec {
	t.Helper()
	codec, err := linktoken.New(map[byte][]byte{1: bytes.Repeat([]byte{7}, 32)}, 1, time.UTC,
		linktoken.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return codec
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	bySlug map[string]*domain.Event
	nextID int
	err    error
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{bySlug: make(map[string]*domain.Event), nextID: 1}
	for _, e := range events {
		f.bySlug[e.Slug] = e
	}
	return f
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.bySlug[e.Slug]; ok {
		return fmt.Errorf("%w: event slug %q already exists", domain.ErrConflict, e.Slug)
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.bySlug[e.Slug] = e
	return nil
}

func (f *fakeEventRepo) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.bySlug[slug]; ok {
		return e, nil
	}
	return nil, domain.ErrEventNotFound
}

func (f *fakeEventRepo) DeleteBySlug(ctx context.Context, slug string) error {
	if _, ok := f.bySlug[slug]; !ok {
		return domain.ErrEventNotFound
	}
	delete(f.bySlug, slug)
	return nil
}

// fakeParticipationRepo keeps rows in memory. WithEventLock holds a mutex for the whole
// callback and restores the previous rows when the callback fails.
type fakeParticipationRepo struct {
	mu        sync.Mutex
	rows      map[string]*domain.Participation
	users     map[string]*domain.User
	nextID    int
	insertErr error
	deleteErr error
	lockCalls int
}

func newFakeParticipationRepo(users ...*domain.User) *fakeParticipationRepo {
	f := &fakeParticipationRepo{rows: map[string]*domain.Participation{}, users: map[string]*domain.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func participationKey(eventID, userID string) string { return eventID + "|" + userID }

func (f *fakeParticipationRepo) seed(eventID, userID string, role domain.Role) {
	f.rows[participationKey(eventID, userID)] = &domain.Participation{
		ID: fmt.Sprintf("seed-%d", len(f.rows)), UserID: userID, EventID: eventID, Role: role,
	}
}

func (f *fakeParticipationRepo) countRows(eventID, userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[participationKey(eventID, userID)]; ok {
		return 1
	}
	return 0
}

func (f *fakeParticipationRepo) WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.ParticipationTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockCalls++
	snapshot := make(map[string]*domain.Participation, len(f.rows))
	for k, v := range f.rows {
		cp := *v
		snapshot[k] = &cp
	}
	if err := fn(ctx, &fakeParticipationTx{f: f}); err != nil {
		f.rows = snapshot
		return err
	}
	return nil
}

func (f *fakeParticipationRepo) GetRole(ctx context.Context, eventID, userID string) (domain.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[participationKey(eventID, userID)]; ok {
		return p.Role, nil
	}
	return domain.RoleNone, nil
}

func (f *fakeParticipationRepo) CountByRole(ctx context.Context, eventID string, role domain.Role) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count(eventID, role), nil
}

func (f *fakeParticipationRepo) count(eventID string, role domain.Role) int {
	n := 0
	for _, p := range f.rows {
		if p.EventID == eventID && p.Role == role {
			n++
		}
	}
	return n
}

func (f *fakeParticipationRepo) ListHosts(ctx context.Context, eventID string) ([]*domain.HostSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hosts := make([]*domain.HostSummary, 0)
	for _, p := range f.rows {
		if p.EventID != eventID || p.Role != domain.RoleHost {
			continue
		}
		name := p.UserID
		if u, ok := f.users[p.UserID]; ok {
			name = u.DisplayName()
		}
		hosts = append(hosts, &domain.HostSummary{UserID: p.UserID, DisplayName: name})
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].UserID < hosts[j].UserID })
	return hosts, nil
}

type fakeParticipationTx struct {
	f *fakeParticipationRepo
}

func (t *fakeParticipationTx) Get(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	if p, ok := t.f.rows[participationKey(eventID, userID)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (t *fakeParticipationTx) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	if t.f.deleteErr != nil {
		return false, t.f.deleteErr
	}
	k := participationKey(eventID, userID)
	_, ok := t.f.rows[k]
	delete(t.f.rows, k)
	return ok, nil
}

func (t *fakeParticipationTx) Insert(ctx context.Context, p *domain.Participation) error {
	if t.f.insertErr != nil {
		return t.f.insertErr
	}
	k := participationKey(p.EventID, p.UserID)
	if _, ok := t.f.rows[k]; ok {
		return fmt.Errorf("%w: participation already exists", domain.ErrConflict)
	}
	t.f.nextID++
	p.ID = fmt.Sprintf("p-%d", t.f.nextID)
	p.JoinedAt = time.Now()
	cp := *p
	t.f.rows[k] = &cp
	return nil
}

func (t *fakeParticipationTx) CountByRole(ctx context.Context, eventID string, role domain.Role) (int, error) {
	return t.f.count(eventID, role), nil
}

// fakeUserRepo serves users and segments from memory.
type fakeUserRepo struct {
	byID       map[string]*domain.User
	segment    []*domain.UserSummary
	segmentErr error
	lastOrder  domain.SortOrder
	lastParams domain.PaginationParams
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: map[string]*domain.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) ListSegment(ctx context.Context, criteria domain.SegmentCriteria, order domain.SortOrder, params domain.PaginationParams) ([]*domain.UserSummary, int, error) {
	f.lastOrder = order
	f.lastParams = params
	if f.segmentErr != nil {
		return nil, 0, f.segmentErr
	}
	return f.segment, len(f.segment), nil
}

// fakeAttributionRepo records created attribution rows.
type fakeAttributionRepo struct {
	mu      sync.Mutex
	records []*domain.AttributionRecord
	err     error
}

func (f *fakeAttributionRepo) Create(ctx context.Context, rec *domain.AttributionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	rec.ID = fmt.Sprintf("attr-%d", len(f.records)+1)
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeAttributionRepo) List(ctx context.Context, q domain.AttributionQuery, order domain.SortOrder, params domain.PaginationParams) ([]*domain.AttributionRecord, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.records, len(f.records), nil
}

// fakeSendLogRepo stores send logs by id.
type fakeSendLogRepo struct {
	logs        map[string]*domain.SendLog
	createErr   error
	finalizeErr error
}

func newFakeSendLogRepo() *fakeSendLogRepo {
	return &fakeSendLogRepo{logs: map[string]*domain.SendLog{}}
}

func (f *fakeSendLogRepo) Create(ctx context.Context, l *domain.SendLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	l.ID = fmt.Sprintf("log-%d", len(f.logs)+1)
	cp := *l
	f.logs[l.ID] = &cp
	return nil
}

func (f *fakeSendLogRepo) Finalize(ctx context.Context, id string, sent int, status domain.SendStatus, errorMessage string) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	l, ok := f.logs[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.NumSentSuccessfully = sent
	l.Status = status
	l.ErrorMessage = errorMessage
	return nil
}

func (f *fakeSendLogRepo) List(ctx context.Context, q domain.SendLogQuery, order domain.SortOrder, params domain.PaginationParams) ([]*domain.SendLog, int, error) {
	out := make([]*domain.SendLog, 0, len(f.logs))
	for _, l := range f.logs {
		out = append(out, l)
	}
	return out, len(out), nil
}

type sentMail struct {
	To, Subject, HTML, Text string
}

// fakeMailer records every message and fails for addresses in failFor.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html, Text: text})
	return nil
}

// fakeRenderer returns the campaign bodies unchanged.
type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(templateName string, data any) (string, string, error) {
	if r.err != nil {
		return "", "", r.err
	}
	d := data.(domain.CampaignEmailData)
	htmlBody := d.HTMLBody
	if htmlBody == "" {
		htmlBody = "<pre>" + d.TextBody + "</pre>"
	}
	return htmlBody, d.TextBody, nil
}
