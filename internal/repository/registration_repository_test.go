package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/club-portal-api/internal/models"
)

func newRegistrationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func registrationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "event_id", "student_id", "student_name", "roll_number", "department", "email", "phone", "status", "additional_info", "created_at", "updated_at"}).
		AddRow("reg-1", "event-1", "student-1", "Asha", "CS101", "CSE", "asha@campus.edu", "", models.RegistrationRegistered, "", time.Now(), time.Now())
}

func TestRegistrationRepositoryFindByEventAndStudent(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM event_registrations WHERE event_id = $1 AND student_id = $2 LIMIT 1")).
		WithArgs("event-1", "student-1").
		WillReturnRows(registrationRows())

	reg, err := repo.FindByEventAndStudent(context.Background(), "event-1", "student-1")
	require.NoError(t, err)
	assert.Equal(t, "reg-1", reg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryFindActiveSkipsCancelled(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM event_registrations WHERE event_id = $1 AND student_id = $2 AND status <> $3 LIMIT 1")).
		WithArgs("event-1", "student-1", models.RegistrationCancelled).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByEventAndStudent(context.Background(), "event-1", "student-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCountActiveByEvent(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status IN ($2, $3)")).
		WithArgs("event-1", models.RegistrationRegistered, models.RegistrationConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountActiveByEvent(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("INSERT INTO event_registrations").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	reg := &models.EventRegistration{EventID: "event-1", StudentID: "student-1", StudentName: "Asha", RollNumber: "CS101", Department: "CSE", Email: "asha@campus.edu"}
	err := repo.Create(context.Background(), reg)
	require.NoError(t, err)
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, models.RegistrationRegistered, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("INSERT INTO event_registrations").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.EventRegistration{EventID: "event-1", StudentID: "student-1"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("UPDATE event_registrations SET status").
		WithArgs("reg-1", models.RegistrationCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "reg-1", models.RegistrationCancelled)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "event_id", "student_id", "student_name", "roll_number", "department", "email", "phone", "status", "additional_info", "created_at", "updated_at", "event_title", "event_date", "event_time", "event_venue", "event_club"}).
		AddRow("reg-1", "event-1", "student-1", "Asha", "CS101", "CSE", "asha@campus.edu", "", models.RegistrationRegistered, "", time.Now(), time.Now(), "Intro Workshop", time.Now(), "10:00", "Auditorium", models.ClubCSI)
	mock.ExpectQuery("JOIN events e ON e.id = r.event_id").
		WithArgs("student-1", models.RegistrationCancelled).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM event_registrations r JOIN events e")).
		WithArgs("student-1", models.RegistrationCancelled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	details, total, err := repo.ListByStudent(context.Background(), "student-1", 1, 10)
	require.NoError(t, err)
	assert.Len(t, details, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Intro Workshop", details[0].EventTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryRegisteredEventIDs(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("SELECT event_id FROM event_registrations").
		WithArgs("student-1", models.RegistrationCancelled, "event-1", "event-2").
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("event-2"))

	registered, err := repo.RegisteredEventIDs(context.Background(), "student-1", []string{"event-1", "event-2"})
	require.NoError(t, err)
	assert.False(t, registered["event-1"])
	assert.True(t, registered["event-2"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
