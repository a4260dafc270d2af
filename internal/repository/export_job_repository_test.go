package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/club-portal-api/internal/models"
)

func newExportJobMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExportJobRepositoryCreateDefaultsPending(t *testing.T) {
	db, mock, cleanup := newExportJobMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectExec("INSERT INTO export_jobs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{Kind: models.ExportEventRegistrations, TargetID: "event-1", ClubName: models.ClubCSI, Format: models.ExportCSV, RequestedBy: "admin-1"}
	err := repo.Create(context.Background(), job)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportPending, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryMarkCompleted(t *testing.T) {
	db, mock, cleanup := newExportJobMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	expires := time.Now().Add(time.Hour)
	mock.ExpectExec("UPDATE export_jobs SET status").
		WithArgs("job-1", models.ExportCompleted, "exports/job-1.csv", "/api/exports/job-1/download?sig=abc", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkCompleted(context.Background(), "job-1", "exports/job-1.csv", "/api/exports/job-1/download?sig=abc", expires)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryMarkFailed(t *testing.T) {
	db, mock, cleanup := newExportJobMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectExec("UPDATE export_jobs SET status").
		WithArgs("job-1", models.ExportFailed, "render failed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkFailed(context.Background(), "job-1", "render failed")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryListByClub(t *testing.T) {
	db, mock, cleanup := newExportJobMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	rows := sqlmock.NewRows([]string{"id", "kind", "target_id", "club_name", "format", "status", "requested_by", "file_path", "download_url", "error", "expires_at", "created_at", "updated_at"}).
		AddRow("job-1", models.ExportEventRegistrations, "event-1", models.ClubCSI, models.ExportCSV, models.ExportCompleted, "admin-1", "exports/job-1.csv", "", "", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM export_jobs WHERE club_name = $1")).
		WithArgs(models.ClubCSI).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM export_jobs WHERE club_name = $1")).
		WithArgs(models.ClubCSI).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	jobs, total, err := repo.ListByClub(context.Background(), models.ClubCSI, 1, 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
