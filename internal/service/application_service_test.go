package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
)

type mockRecruitmentReader struct {
	recruitments map[string]models.Recruitment
}

func (m *mockRecruitmentReader) FindByID(ctx context.Context, id string) (*models.Recruitment, error) {
	if r, ok := m.recruitments[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

type mockApplicationRepo struct {
	applications map[string]models.ClubApplication
	createErr    error
	created      *models.ClubApplication
	reviewed     map[string]models.ApplicationStatus
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.ClubApplication, error) {
	for _, a := range m.applications {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) FindByRecruitmentAndStudent(ctx context.Context, recruitmentID, studentID string) (*models.ClubApplication, error) {
	if a, ok := m.applications[recruitmentID+"|"+studentID]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *models.ClubApplication) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.applications == nil {
		m.applications = make(map[string]models.ClubApplication)
	}
	app.ID = "app-new"
	m.applications[app.RecruitmentID+"|"+app.StudentID] = *app
	m.created = app
	return nil
}

func (m *mockApplicationRepo) UpdateReview(ctx context.Context, id string, status models.ApplicationStatus, interviewDate *time.Time, feedback string) error {
	if m.reviewed == nil {
		m.reviewed = make(map[string]models.ApplicationStatus)
	}
	m.reviewed[id] = status
	return nil
}

func (m *mockApplicationRepo) ListByStudent(ctx context.Context, studentID string, page, size int) ([]models.ApplicationDetail, int, error) {
	return nil, 0, nil
}

func (m *mockApplicationRepo) ListByRecruitment(ctx context.Context, recruitmentID string, status models.ApplicationStatus, page, size int) ([]models.ClubApplication, int, error) {
	return nil, 0, nil
}

type mockAuditWriter struct {
	logs []models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func answer(raw string) models.AnswerValue {
	var v models.AnswerValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		panic(err)
	}
	return v
}

func openRecruitment() models.Recruitment {
	return models.Recruitment{
		ID:                  "rec-1",
		Title:               "Core Team 2026",
		ClubName:            models.ClubGDSC,
		IsActive:            true,
		ApplicationDeadline: time.Now().Add(72 * time.Hour),
		Positions:           models.PositionList{{Role: "Developer", Count: 2}, {Role: "Designer", Count: 1}},
		Questions: models.QuestionList{
			{QuestionText: "Why do you want to join?", FieldType: models.FieldLongText, Required: true},
			{QuestionText: "Years of experience", FieldType: models.FieldNumber, Required: false},
			{QuestionText: "Preferred track", FieldType: models.FieldSelect, Required: true, Options: []string{"Web", "Mobile", "ML"}},
			{QuestionText: "Known languages", FieldType: models.FieldMultiSelect, Required: false, Options: []string{"Go", "Python", "Java"}},
		},
	}
}

func validApplyRequest() ApplyRequest {
	return ApplyRequest{
		Phone:           "9876543210",
		AppliedPosition: "Developer",
		WhyJoin:         "I like building things",
		Answers: []models.QuestionAnswer{
			{QuestionText: "Why do you want to join?", Answer: answer(`"I like building things"`)},
			{QuestionText: "Preferred track", Answer: answer(`"Web"`)},
			{QuestionText: "Known languages", Answer: answer(`["Go","Python"]`)},
		},
	}
}

func newTestApplicationService(recs *mockRecruitmentReader, repo *mockApplicationRepo, strict bool) (*ApplicationService, *mockAuditWriter) {
	audit := &mockAuditWriter{}
	svc := NewApplicationService(recs, repo, audit, func(err error) bool {
		pqErr, ok := err.(*pq.Error)
		return ok && pqErr.Code == "23505"
	}, nil, strict, nil, nil)
	return svc, audit
}

func TestApplicationServiceApply(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	repo := &mockApplicationRepo{}
	svc, _ := newTestApplicationService(recs, repo, false)

	app, err := svc.Apply(context.Background(), testStudent(), "rec-1", validApplyRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApplied, app.Status)
	assert.Equal(t, "Developer", app.AppliedPosition)
	assert.Equal(t, "CS101", app.RollNumber)
	assert.Equal(t, "9876543210", app.Phone)

	// answers are normalized to schema order, skipped optional dropped
	require.Len(t, app.Answers, 3)
	assert.Equal(t, "Why do you want to join?", app.Answers[0].QuestionText)
	assert.Equal(t, "Preferred track", app.Answers[1].QuestionText)
	assert.Equal(t, "Known languages", app.Answers[2].QuestionText)
}

func TestApplicationServiceApplyDeadlinePassed(t *testing.T) {
	rec := openRecruitment()
	rec.ApplicationDeadline = time.Now().Add(-time.Hour)
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": rec}}
	svc, _ := newTestApplicationService(recs, &mockApplicationRepo{}, false)

	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", validApplyRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyDuplicate(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	repo := &mockApplicationRepo{applications: map[string]models.ClubApplication{
		"rec-1|student-1": {ID: "app-1", RecruitmentID: "rec-1", StudentID: "student-1"},
	}}
	svc, _ := newTestApplicationService(recs, repo, false)

	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", validApplyRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyApplied.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyRaceLoserGetsDuplicate(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	repo := &mockApplicationRepo{createErr: &pq.Error{Code: "23505"}}
	svc, _ := newTestApplicationService(recs, repo, false)

	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", validApplyRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyApplied.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyMissingWhyJoin(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	svc, _ := newTestApplicationService(recs, &mockApplicationRepo{}, false)

	req := validApplyRequest()
	req.WhyJoin = ""
	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyInactiveRecruitmentNotFound(t *testing.T) {
	rec := openRecruitment()
	rec.IsActive = false
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": rec}}
	svc, _ := newTestApplicationService(recs, &mockApplicationRepo{}, false)

	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", validApplyRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyBadPositionBeatsDuplicate(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	repo := &mockApplicationRepo{applications: map[string]models.ClubApplication{
		"rec-1|student-1": {ID: "app-1", RecruitmentID: "rec-1", StudentID: "student-1"},
	}}
	svc, _ := newTestApplicationService(recs, repo, false)

	// the position check runs before the duplicate check, so a
	// re-applicant with a bad position hears about the position
	req := validApplyRequest()
	req.AppliedPosition = "Treasurer"
	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidPosition.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceStatsInvalidation(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	repo := &mockApplicationRepo{}
	stats := &mockStatsInvalidator{}
	svc := NewApplicationService(recs, repo, &mockAuditWriter{}, nil, stats, false, nil, nil)

	app, err := svc.Apply(context.Background(), testStudent(), "rec-1", validApplyRequest())
	require.NoError(t, err)
	_, err = svc.Review(context.Background(), testAdmin(models.ClubGDSC), app.ID, ReviewRequest{Status: models.ApplicationShortlisted})
	require.NoError(t, err)
	assert.Equal(t, []models.ClubName{models.ClubGDSC, models.ClubGDSC}, stats.invalidated)
}

func TestApplicationServiceApplyUnknownPosition(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	svc, _ := newTestApplicationService(recs, &mockApplicationRepo{}, false)

	req := validApplyRequest()
	req.AppliedPosition = "Treasurer"
	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidPosition.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyMissingRequiredAnswer(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	svc, _ := newTestApplicationService(recs, &mockApplicationRepo{}, false)

	req := validApplyRequest()
	req.Answers = []models.QuestionAnswer{
		{QuestionText: "Preferred track", Answer: answer(`"Web"`)},
	}
	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMissingRequiredAnswers.Code, appErr.Code)
	details, ok := appErr.Details.(map[string][]string)
	require.True(t, ok)
	assert.Equal(t, []string{"Why do you want to join?"}, details["missing_questions"])
}

func TestApplicationServiceApplyWhitespaceAnswerIsMissing(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	svc, _ := newTestApplicationService(recs, &mockApplicationRepo{}, false)

	req := validApplyRequest()
	req.Answers[0].Answer = answer(`"   "`)
	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingRequiredAnswers.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyZeroIsValidNumberAnswer(t *testing.T) {
	rec := openRecruitment()
	rec.Questions[1].Required = true
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": rec}}
	svc, _ := newTestApplicationService(recs, &mockApplicationRepo{}, false)

	req := validApplyRequest()
	req.Answers = append(req.Answers, models.QuestionAnswer{QuestionText: "Years of experience", Answer: answer(`0`)})
	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", req)
	assert.NoError(t, err)
}

func TestApplicationServiceApplyInvalidSelectOption(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	svc, _ := newTestApplicationService(recs, &mockApplicationRepo{}, false)

	req := validApplyRequest()
	req.Answers[1].Answer = answer(`"Gaming"`)
	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidOptionValue.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyInvalidMultiSelectValue(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	svc, _ := newTestApplicationService(recs, &mockApplicationRepo{}, false)

	req := validApplyRequest()
	req.Answers[2].Answer = answer(`["Go","Rust"]`)
	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidOptionValue.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceApplyScalarForMultiSelect(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	svc, _ := newTestApplicationService(recs, &mockApplicationRepo{}, false)

	req := validApplyRequest()
	req.Answers[2].Answer = answer(`"Go"`)
	_, err := svc.Apply(context.Background(), testStudent(), "rec-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidOptionValue.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceReview(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	repo := &mockApplicationRepo{applications: map[string]models.ClubApplication{
		"rec-1|student-1": {ID: "app-1", RecruitmentID: "rec-1", StudentID: "student-1", Status: models.ApplicationApplied},
	}}
	svc, audit := newTestApplicationService(recs, repo, false)

	app, err := svc.Review(context.Background(), testAdmin(models.ClubGDSC), "app-1", ReviewRequest{Status: models.ApplicationShortlisted, Feedback: "good fit"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationShortlisted, app.Status)
	assert.Equal(t, "good fit", app.Feedback)
	assert.Equal(t, models.ApplicationShortlisted, repo.reviewed["app-1"])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStatusChange, audit.logs[0].Action)
}

func TestApplicationServiceReviewKeepsAnnotations(t *testing.T) {
	interview := time.Now().Add(24 * time.Hour)
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	repo := &mockApplicationRepo{applications: map[string]models.ClubApplication{
		"rec-1|student-1": {ID: "app-1", RecruitmentID: "rec-1", StudentID: "student-1", Status: models.ApplicationShortlisted, Feedback: "strong portfolio", InterviewDate: &interview},
	}}
	svc, _ := newTestApplicationService(recs, repo, false)

	// a review that omits feedback and interview date keeps both
	app, err := svc.Review(context.Background(), testAdmin(models.ClubGDSC), "app-1", ReviewRequest{Status: models.ApplicationSelected})
	require.NoError(t, err)
	assert.Equal(t, "strong portfolio", app.Feedback)
	require.NotNil(t, app.InterviewDate)
	assert.True(t, app.InterviewDate.Equal(interview))
}

func TestApplicationServiceReviewForeignClub(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	repo := &mockApplicationRepo{applications: map[string]models.ClubApplication{
		"rec-1|student-1": {ID: "app-1", RecruitmentID: "rec-1", StudentID: "student-1", Status: models.ApplicationApplied},
	}}
	svc, _ := newTestApplicationService(recs, repo, false)

	_, err := svc.Review(context.Background(), testAdmin(models.ClubCSI), "app-1", ReviewRequest{Status: models.ApplicationShortlisted})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceReviewStrictFlow(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	repo := &mockApplicationRepo{applications: map[string]models.ClubApplication{
		"rec-1|student-1": {ID: "app-1", RecruitmentID: "rec-1", StudentID: "student-1", Status: models.ApplicationSelected},
	}}
	svc, _ := newTestApplicationService(recs, repo, true)

	_, err := svc.Review(context.Background(), testAdmin(models.ClubGDSC), "app-1", ReviewRequest{Status: models.ApplicationApplied})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceReviewUnknownStatus(t *testing.T) {
	recs := &mockRecruitmentReader{recruitments: map[string]models.Recruitment{"rec-1": openRecruitment()}}
	repo := &mockApplicationRepo{applications: map[string]models.ClubApplication{
		"rec-1|student-1": {ID: "app-1", RecruitmentID: "rec-1", StudentID: "student-1", Status: models.ApplicationApplied},
	}}
	svc, _ := newTestApplicationService(recs, repo, false)

	_, err := svc.Review(context.Background(), testAdmin(models.ClubGDSC), "app-1", ReviewRequest{Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
