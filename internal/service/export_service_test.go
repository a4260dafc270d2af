package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
	"github.com/campushub/club-portal-api/pkg/jobs"
	"github.com/campushub/club-portal-api/pkg/storage"
)

type mockExportJobRepo struct {
	mu   sync.Mutex
	jobs map[string]models.ExportJob
	seq  int
}

func newMockExportJobRepo() *mockExportJobRepo {
	return &mockExportJobRepo{jobs: make(map[string]models.ExportJob)}
}

func (m *mockExportJobRepo) Create(ctx context.Context, job *models.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	job.ID = "job-" + string(rune('0'+m.seq))
	job.Status = models.ExportPending
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockExportJobRepo) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		return &j, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExportJobRepo) MarkProcessing(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[id]
	j.Status = models.ExportProcessing
	m.jobs[id] = j
	return nil
}

func (m *mockExportJobRepo) MarkCompleted(ctx context.Context, id, filePath, downloadURL string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[id]
	j.Status = models.ExportCompleted
	j.FilePath = filePath
	j.DownloadURL = downloadURL
	j.ExpiresAt = &expiresAt
	m.jobs[id] = j
	return nil
}

func (m *mockExportJobRepo) MarkFailed(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[id]
	j.Status = models.ExportFailed
	j.Error = reason
	m.jobs[id] = j
	return nil
}

func (m *mockExportJobRepo) ListByClub(ctx context.Context, club models.ClubName, page, size int) ([]models.ExportJob, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ExportJob
	for _, j := range m.jobs {
		if j.ClubName == club {
			out = append(out, j)
		}
	}
	return out, len(out), nil
}

func (m *mockExportJobRepo) ListExpired(ctx context.Context, cutoff time.Time) ([]models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ExportJob
	for _, j := range m.jobs {
		if j.Status == models.ExportCompleted && j.ExpiresAt != nil && j.ExpiresAt.Before(cutoff) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *mockExportJobRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	return nil
}

func (m *mockExportJobRepo) status(id string) models.ExportStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id].Status
}

type mockExportEventRepo struct {
	events map[string]models.Event
}

func (m *mockExportEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if e, ok := m.events[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

type mockExportRegistrationRepo struct {
	registrations []models.EventRegistration
}

func (m *mockExportRegistrationRepo) ListAllByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error) {
	return m.registrations, nil
}

type mockExportRecruitmentRepo struct {
	recruitments map[string]models.Recruitment
}

func (m *mockExportRecruitmentRepo) FindByID(ctx context.Context, id string) (*models.Recruitment, error) {
	if r, ok := m.recruitments[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

type mockExportApplicationRepo struct {
	applications []models.ClubApplication
}

func (m *mockExportApplicationRepo) ListAllByRecruitment(ctx context.Context, recruitmentID string) ([]models.ClubApplication, error) {
	return m.applications, nil
}

type tempFileStorage struct {
	dir string
}

func (s *tempFileStorage) Save(filename string, data []byte) (string, error) {
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", err
	}
	return filename, nil
}

func (s *tempFileStorage) Open(filename string) (*os.File, error) {
	return os.Open(filepath.Join(s.dir, filename))
}

func (s *tempFileStorage) Delete(filename string) error {
	return os.Remove(filepath.Join(s.dir, filename))
}

func newTestExportService(t *testing.T, repo *mockExportJobRepo, events *mockExportEventRepo, regs *mockExportRegistrationRepo, recs *mockExportRecruitmentRepo, apps *mockExportApplicationRepo) *ExportService {
	t.Helper()
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	fs := &tempFileStorage{dir: t.TempDir()}
	return NewExportService(repo, events, regs, recs, apps, fs, signer,
		ExportConfig{APIPrefix: "/api", ResultTTL: time.Hour},
		jobs.QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond}, nil)
}

func TestExportServiceRequestValidation(t *testing.T) {
	svc := newTestExportService(t, newMockExportJobRepo(), &mockExportEventRepo{}, &mockExportRegistrationRepo{}, &mockExportRecruitmentRepo{}, &mockExportApplicationRepo{})
	admin := testAdmin(models.ClubCSI)

	_, err := svc.Request(context.Background(), admin, ExportRequest{Kind: "attendance", TargetID: "event-1", Format: models.ExportCSV})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Request(context.Background(), admin, ExportRequest{Kind: models.ExportEventRegistrations, TargetID: "event-1", Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Request(context.Background(), admin, ExportRequest{Kind: models.ExportEventRegistrations, Format: models.ExportCSV})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceRequestForeignClub(t *testing.T) {
	events := &mockExportEventRepo{events: map[string]models.Event{"event-1": openEvent()}}
	svc := newTestExportService(t, newMockExportJobRepo(), events, &mockExportRegistrationRepo{}, &mockExportRecruitmentRepo{}, &mockExportApplicationRepo{})

	_, err := svc.Request(context.Background(), testAdmin(models.ClubGDSC), ExportRequest{
		Kind: models.ExportEventRegistrations, TargetID: "event-1", Format: models.ExportCSV,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceCompletesRegistrationExport(t *testing.T) {
	repo := newMockExportJobRepo()
	events := &mockExportEventRepo{events: map[string]models.Event{"event-1": openEvent()}}
	regs := &mockExportRegistrationRepo{registrations: []models.EventRegistration{
		{StudentName: "Asha", RollNumber: "CS101", Department: "CSE", Email: "asha@campus.edu", Status: models.RegistrationRegistered},
	}}
	svc := newTestExportService(t, repo, events, regs, &mockExportRecruitmentRepo{}, &mockExportApplicationRepo{})

	ctx := context.Background()
	svc.Start(ctx)
	defer svc.Stop()

	job, err := svc.Request(ctx, testAdmin(models.ClubCSI), ExportRequest{
		Kind: models.ExportEventRegistrations, TargetID: "event-1", Format: models.ExportCSV,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExportPending, job.Status)

	require.Eventually(t, func() bool {
		return repo.status(job.ID) == models.ExportCompleted
	}, 5*time.Second, 20*time.Millisecond)

	completed, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, completed.FilePath)
	assert.Contains(t, completed.DownloadURL, "/api/exports/download/")

	file, downloaded, err := svc.OpenDownload(ctx, filepath.Base(completed.DownloadURL))
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, job.ID, downloaded.ID)
}

func TestExportServiceOpenDownloadBadToken(t *testing.T) {
	svc := newTestExportService(t, newMockExportJobRepo(), &mockExportEventRepo{}, &mockExportRegistrationRepo{}, &mockExportRecruitmentRepo{}, &mockExportApplicationRepo{})

	_, _, err := svc.OpenDownload(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestExportServiceStatusScoped(t *testing.T) {
	repo := newMockExportJobRepo()
	svc := newTestExportService(t, repo, &mockExportEventRepo{}, &mockExportRegistrationRepo{}, &mockExportRecruitmentRepo{}, &mockExportApplicationRepo{})

	job := &models.ExportJob{Kind: models.ExportEventRegistrations, TargetID: "event-1", ClubName: models.ClubCSI, Format: models.ExportCSV}
	require.NoError(t, repo.Create(context.Background(), job))

	_, err := svc.Status(context.Background(), testAdmin(models.ClubGDSC), job.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	got, err := svc.Status(context.Background(), testAdmin(models.ClubCSI), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

func TestExportServiceCleanupExpired(t *testing.T) {
	repo := newMockExportJobRepo()
	fsDir := t.TempDir()
	fs := &tempFileStorage{dir: fsDir}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(repo, &mockExportEventRepo{}, &mockExportRegistrationRepo{}, &mockExportRecruitmentRepo{}, &mockExportApplicationRepo{}, fs, signer,
		ExportConfig{}, jobs.QueueConfig{}, nil)

	job := &models.ExportJob{Kind: models.ExportEventRegistrations, TargetID: "event-1", ClubName: models.ClubCSI, Format: models.ExportCSV}
	require.NoError(t, repo.Create(context.Background(), job))
	relPath, err := fs.Save("stale.csv", []byte("Name\n"))
	require.NoError(t, err)
	require.NoError(t, repo.MarkCompleted(context.Background(), job.ID, relPath, "/api/exports/download/x", time.Now().Add(-time.Hour)))

	svc.CleanupExpired(context.Background())

	_, err = repo.FindByID(context.Background(), job.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = os.Stat(filepath.Join(fsDir, "stale.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestRegistrationsDataset(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	data := registrationsDataset([]models.EventRegistration{
		{StudentName: "Asha", RollNumber: "CS101", Department: "CSE", Email: "asha@campus.edu", Phone: "555", Status: models.RegistrationRegistered, CreatedAt: created},
	})
	assert.Equal(t, []string{"Name", "Roll Number", "Department", "Email", "Phone", "Status", "Registered At"}, data.Headers)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "Asha", data.Rows[0]["Name"])
	assert.Equal(t, "registered", data.Rows[0]["Status"])
	assert.Equal(t, "2026-03-01T10:00:00Z", data.Rows[0]["Registered At"])
}

func TestApplicationsDatasetQuestionColumns(t *testing.T) {
	rec := openRecruitment()
	data := applicationsDataset(&rec, []models.ClubApplication{
		{
			StudentName: "Asha", RollNumber: "CS101", AppliedPosition: "Developer", Status: models.ApplicationApplied,
			Answers: models.AnswerList{
				{QuestionText: "Why do you want to join?", Answer: answer(`"I like building things"`)},
				{QuestionText: "Known languages", Answer: answer(`["Go","Python"]`)},
			},
		},
	})
	require.Len(t, data.Headers, 8+len(rec.Questions))
	assert.Contains(t, data.Headers, "Why do you want to join?")
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "I like building things", data.Rows[0]["Why do you want to join?"])
	assert.Equal(t, "Go, Python", data.Rows[0]["Known languages"])
}
