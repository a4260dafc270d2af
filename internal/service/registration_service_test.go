package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
	"github.com/lib/pq"
)

type mockEventReader struct {
	events map[string]models.Event
}

func (m *mockEventReader) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if e, ok := m.events[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

type mockRegistrationRepo struct {
	registrations map[string]models.EventRegistration
	activeCount   int
	createErr     error
	created       *models.EventRegistration
	statusUpdates map[string]models.RegistrationStatus
}

func (m *mockRegistrationRepo) key(eventID, studentID string) string {
	return eventID + "|" + studentID
}

func (m *mockRegistrationRepo) FindByEventAndStudent(ctx context.Context, eventID, studentID string) (*models.EventRegistration, error) {
	if r, ok := m.registrations[m.key(eventID, studentID)]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) FindActiveByEventAndStudent(ctx context.Context, eventID, studentID string) (*models.EventRegistration, error) {
	if r, ok := m.registrations[m.key(eventID, studentID)]; ok && r.Status != models.RegistrationCancelled {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) CountActiveByEvent(ctx context.Context, eventID string) (int, error) {
	return m.activeCount, nil
}

func (m *mockRegistrationRepo) Create(ctx context.Context, reg *models.EventRegistration) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.registrations == nil {
		m.registrations = make(map[string]models.EventRegistration)
	}
	reg.ID = "reg-new"
	m.registrations[m.key(reg.EventID, reg.StudentID)] = *reg
	m.created = reg
	return nil
}

func (m *mockRegistrationRepo) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	if m.statusUpdates == nil {
		m.statusUpdates = make(map[string]models.RegistrationStatus)
	}
	m.statusUpdates[id] = status
	for k, r := range m.registrations {
		if r.ID == id {
			r.Status = status
			m.registrations[k] = r
		}
	}
	return nil
}

func (m *mockRegistrationRepo) ListByStudent(ctx context.Context, studentID string, page, size int) ([]models.RegistrationDetail, int, error) {
	return nil, 0, nil
}

func (m *mockRegistrationRepo) ListByEvent(ctx context.Context, eventID string, page, size int) ([]models.EventRegistration, int, error) {
	var list []models.EventRegistration
	for _, r := range m.registrations {
		if r.EventID == eventID && r.Status != models.RegistrationCancelled {
			list = append(list, r)
		}
	}
	return list, len(list), nil
}

type mockStatsInvalidator struct {
	invalidated []models.ClubName
}

func (m *mockStatsInvalidator) Invalidate(ctx context.Context, club models.ClubName) {
	m.invalidated = append(m.invalidated, club)
}

func testStudent() *models.User {
	roll := "CS101"
	dept := "CSE"
	return &models.User{ID: "student-1", Name: "Asha", Email: "asha@campus.edu", Role: models.RoleStudent, RollNumber: &roll, Department: &dept}
}

func testAdmin(club models.ClubName) *models.User {
	return &models.User{ID: "admin-1", Name: "Admin", Email: "admin@campus.edu", Role: models.RoleClubAdmin, ClubName: &club}
}

func openEvent() models.Event {
	return models.Event{ID: "event-1", Title: "Intro Workshop", ClubName: models.ClubCSI, Date: time.Now().Add(72 * time.Hour), IsActive: true}
}

func newTestRegistrationService(events *mockEventReader, repo *mockRegistrationRepo) *RegistrationService {
	return NewRegistrationService(events, repo, func(err error) bool {
		pqErr, ok := err.(*pq.Error)
		return ok && pqErr.Code == "23505"
	}, nil, nil, nil)
}

func TestRegistrationServiceRegister(t *testing.T) {
	events := &mockEventReader{events: map[string]models.Event{"event-1": openEvent()}}
	repo := &mockRegistrationRepo{}
	svc := newTestRegistrationService(events, repo)

	reg, err := svc.Register(context.Background(), testStudent(), "event-1", EventRegisterRequest{Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRegistered, reg.Status)
	assert.Equal(t, "Asha", reg.StudentName)
	assert.Equal(t, "CS101", reg.RollNumber)
	assert.Equal(t, "CSE", reg.Department)
	assert.Equal(t, "555", reg.Phone)
}

func TestRegistrationServiceRegisterEventMissing(t *testing.T) {
	svc := newTestRegistrationService(&mockEventReader{}, &mockRegistrationRepo{})

	_, err := svc.Register(context.Background(), testStudent(), "missing", EventRegisterRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterDuplicate(t *testing.T) {
	events := &mockEventReader{events: map[string]models.Event{"event-1": openEvent()}}
	repo := &mockRegistrationRepo{registrations: map[string]models.EventRegistration{
		"event-1|student-1": {ID: "reg-1", EventID: "event-1", StudentID: "student-1", Status: models.RegistrationRegistered},
	}}
	svc := newTestRegistrationService(events, repo)

	_, err := svc.Register(context.Background(), testStudent(), "event-1", EventRegisterRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyRegistered.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceCancelledStillBlocks(t *testing.T) {
	events := &mockEventReader{events: map[string]models.Event{"event-1": openEvent()}}
	repo := &mockRegistrationRepo{registrations: map[string]models.EventRegistration{
		"event-1|student-1": {ID: "reg-1", EventID: "event-1", StudentID: "student-1", Status: models.RegistrationCancelled},
	}}
	svc := newTestRegistrationService(events, repo)

	_, err := svc.Register(context.Background(), testStudent(), "event-1", EventRegisterRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyRegistered.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterCapacityFull(t *testing.T) {
	event := openEvent()
	max := 3
	event.MaxParticipants = &max
	events := &mockEventReader{events: map[string]models.Event{"event-1": event}}
	repo := &mockRegistrationRepo{activeCount: 3}
	svc := newTestRegistrationService(events, repo)

	_, err := svc.Register(context.Background(), testStudent(), "event-1", EventRegisterRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityFull.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterDeadlinePassed(t *testing.T) {
	event := openEvent()
	deadline := time.Now().Add(-time.Hour)
	event.RegistrationDeadline = &deadline
	events := &mockEventReader{events: map[string]models.Event{"event-1": event}}
	svc := newTestRegistrationService(events, &mockRegistrationRepo{})

	_, err := svc.Register(context.Background(), testStudent(), "event-1", EventRegisterRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterRaceLoserGetsDuplicate(t *testing.T) {
	events := &mockEventReader{events: map[string]models.Event{"event-1": openEvent()}}
	repo := &mockRegistrationRepo{createErr: &pq.Error{Code: "23505"}}
	svc := newTestRegistrationService(events, repo)

	_, err := svc.Register(context.Background(), testStudent(), "event-1", EventRegisterRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyRegistered.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceCancel(t *testing.T) {
	events := &mockEventReader{events: map[string]models.Event{"event-1": openEvent()}}
	repo := &mockRegistrationRepo{registrations: map[string]models.EventRegistration{
		"event-1|student-1": {ID: "reg-1", EventID: "event-1", StudentID: "student-1", Status: models.RegistrationRegistered},
	}}
	svc := newTestRegistrationService(events, repo)

	err := svc.Cancel(context.Background(), "student-1", "event-1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancelled, repo.statusUpdates["reg-1"])

	// the registration is now cancelled, a second cancel finds nothing
	err = svc.Cancel(context.Background(), "student-1", "event-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceCancelPastEvent(t *testing.T) {
	event := openEvent()
	event.Date = time.Now().Add(-48 * time.Hour)
	events := &mockEventReader{events: map[string]models.Event{"event-1": event}}
	repo := &mockRegistrationRepo{registrations: map[string]models.EventRegistration{
		"event-1|student-1": {ID: "reg-1", EventID: "event-1", StudentID: "student-1", Status: models.RegistrationRegistered},
	}}
	svc := newTestRegistrationService(events, repo)

	err := svc.Cancel(context.Background(), "student-1", "event-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyOccurred.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statusUpdates)
}

func TestRegistrationServiceRegisterInactiveEventNotFound(t *testing.T) {
	event := openEvent()
	event.IsActive = false
	events := &mockEventReader{events: map[string]models.Event{"event-1": event}}
	svc := newTestRegistrationService(events, &mockRegistrationRepo{})

	_, err := svc.Register(context.Background(), testStudent(), "event-1", EventRegisterRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterPastEventBeatsDuplicate(t *testing.T) {
	event := openEvent()
	event.Date = time.Now().Add(-24 * time.Hour)
	events := &mockEventReader{events: map[string]models.Event{"event-1": event}}
	repo := &mockRegistrationRepo{registrations: map[string]models.EventRegistration{
		"event-1|student-1": {ID: "reg-1", EventID: "event-1", StudentID: "student-1", Status: models.RegistrationRegistered},
	}}
	svc := newTestRegistrationService(events, repo)

	// admission runs before the duplicate check, so the past-event
	// rejection wins even though a registration already exists
	_, err := svc.Register(context.Background(), testStudent(), "event-1", EventRegisterRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyOccurred.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceStatsInvalidation(t *testing.T) {
	events := &mockEventReader{events: map[string]models.Event{"event-1": openEvent()}}
	repo := &mockRegistrationRepo{}
	stats := &mockStatsInvalidator{}
	svc := NewRegistrationService(events, repo, nil, stats, nil, nil)

	_, err := svc.Register(context.Background(), testStudent(), "event-1", EventRegisterRequest{})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), "student-1", "event-1"))
	assert.Equal(t, []models.ClubName{models.ClubCSI, models.ClubCSI}, stats.invalidated)
}

func TestRegistrationServiceListForEventScoped(t *testing.T) {
	events := &mockEventReader{events: map[string]models.Event{"event-1": openEvent()}}
	svc := newTestRegistrationService(events, &mockRegistrationRepo{})

	_, _, err := svc.ListForEvent(context.Background(), testAdmin(models.ClubGDSC), "event-1", 1, 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, _, err = svc.ListForEvent(context.Background(), testAdmin(models.ClubCSI), "event-1", 1, 10)
	assert.NoError(t, err)
}
