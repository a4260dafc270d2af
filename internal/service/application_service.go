package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
)

type applicationRecruitmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Recruitment, error)
}

type applicationRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClubApplication, error)
	FindByRecruitmentAndStudent(ctx context.Context, recruitmentID, studentID string) (*models.ClubApplication, error)
	Create(ctx context.Context, app *models.ClubApplication) error
	UpdateReview(ctx context.Context, id string, status models.ApplicationStatus, interviewDate *time.Time, feedback string) error
	ListByStudent(ctx context.Context, studentID string, page, size int) ([]models.ApplicationDetail, int, error)
	ListByRecruitment(ctx context.Context, recruitmentID string, status models.ApplicationStatus, page, size int) ([]models.ClubApplication, int, error)
}

type applicationAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ApplyRequest is the payload a student submits to a recruitment drive.
type ApplyRequest struct {
	Phone           string                  `json:"phone"`
	AppliedPosition string                  `json:"applied_position" validate:"required"`
	Experience      string                  `json:"experience"`
	Skills          string                  `json:"skills"`
	WhyJoin         string                  `json:"why_join" validate:"required"`
	Portfolio       string                  `json:"portfolio"`
	Resume          string                  `json:"resume"`
	Answers         []models.QuestionAnswer `json:"answers"`
}

// ReviewRequest is the payload a club admin submits when moving an
// application through the review pipeline.
type ReviewRequest struct {
	Status        models.ApplicationStatus `json:"status" validate:"required"`
	InterviewDate *time.Time               `json:"interview_date"`
	Feedback      string                   `json:"feedback"`
}

// ApplicationService implements the recruitment application flow:
// admission checks, answer validation against the drive's question
// schema, the duplicate guard and the review status pipeline.
type ApplicationService struct {
	recruitments applicationRecruitmentRepository
	repo         applicationRepository
	audit        applicationAuditRepository
	isUnique     func(error) bool
	stats        clubStatsInvalidator
	strictFlow   bool
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewApplicationService constructs an ApplicationService instance.
// stats, when non-nil, is told after every application mutation so the
// club's cached dashboard numbers stay fresh.
func NewApplicationService(recruitments applicationRecruitmentRepository, repo applicationRepository, audit applicationAuditRepository, isUnique func(error) bool, stats clubStatsInvalidator, strictFlow bool, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if isUnique == nil {
		isUnique = func(error) bool { return false }
	}
	if stats == nil {
		stats = noopStatsInvalidator{}
	}
	return &ApplicationService{
		recruitments: recruitments,
		repo:         repo,
		audit:        audit,
		isUnique:     isUnique,
		stats:        stats,
		strictFlow:   strictFlow,
		validator:    validate,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Apply submits an application. Missing and inactive drives both read as
// not found. The applied position must be one of the drive's open roles
// and the answers must satisfy the drive's question schema. The unique
// index backs the duplicate pre-check under races.
func (s *ApplicationService) Apply(ctx context.Context, student *models.User, recruitmentID string, req ApplyRequest) (*models.ClubApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	rec, err := s.recruitments.FindByID(ctx, recruitmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recruitment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recruitment")
	}

	if !rec.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "recruitment not found")
	}

	if admissionErr := CheckRecruitmentAdmission(rec, s.now()); admissionErr != nil {
		return nil, admissionErr
	}

	if !rec.Positions.HasRole(req.AppliedPosition) {
		return nil, appErrors.Clone(appErrors.ErrInvalidPosition, "")
	}

	if _, err := s.repo.FindByRecruitmentAndStudent(ctx, recruitmentID, student.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrAlreadyApplied, "")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check application")
	}

	answers, answerErr := validateAnswers(rec.Questions, req.Answers)
	if answerErr != nil {
		return nil, answerErr
	}

	app := &models.ClubApplication{
		RecruitmentID:   recruitmentID,
		StudentID:       student.ID,
		StudentName:     student.Name,
		Email:           student.Email,
		Phone:           req.Phone,
		AppliedPosition: req.AppliedPosition,
		Experience:      req.Experience,
		Skills:          req.Skills,
		WhyJoin:         req.WhyJoin,
		Portfolio:       req.Portfolio,
		Resume:          req.Resume,
		Answers:         answers,
		Status:          models.ApplicationApplied,
	}
	if student.RollNumber != nil {
		app.RollNumber = *student.RollNumber
	}
	if student.Department != nil {
		app.Department = *student.Department
	}

	if err := s.repo.Create(ctx, app); err != nil {
		if s.isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyApplied, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	s.stats.Invalidate(ctx, rec.ClubName)
	s.logger.Info("application submitted",
		zap.String("recruitment_id", recruitmentID),
		zap.String("student_id", student.ID),
		zap.String("position", req.AppliedPosition),
	)
	return app, nil
}

// Review moves an application through the status pipeline. Only the
// admin of the recruitment's club may review it. Status, interview date
// and feedback are written in one statement. An omitted feedback or
// interview date keeps the stored annotation; a review never clears
// either field.
func (s *ApplicationService) Review(ctx context.Context, admin *models.User, applicationID string, req ReviewRequest) (*models.ClubApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	rec, err := s.recruitments.FindByID(ctx, app.RecruitmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recruitment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recruitment")
	}
	if admin.AdminClub() != rec.ClubName {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application belongs to another club")
	}

	if transitionErr := CheckStatusTransition(app.Status, req.Status, s.strictFlow); transitionErr != nil {
		return nil, transitionErr
	}

	interviewDate := req.InterviewDate
	if interviewDate == nil {
		interviewDate = app.InterviewDate
	}
	feedback := req.Feedback
	if feedback == "" {
		feedback = app.Feedback
	}

	if err := s.repo.UpdateReview(ctx, app.ID, req.Status, interviewDate, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
	}

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &admin.ID,
		Action:     models.AuditActionStatusChange,
		Resource:   "application",
		ResourceID: &app.ID,
		NewValues:  []byte(fmt.Sprintf(`{"from":%q,"to":%q}`, app.Status, req.Status)),
	}); err != nil {
		s.logger.Warn("failed to record status change audit log", zap.Error(err))
	}

	s.stats.Invalidate(ctx, rec.ClubName)

	app.Status = req.Status
	app.InterviewDate = interviewDate
	app.Feedback = feedback
	return app, nil
}

// ListMine returns the student's applications with recruitment context.
func (s *ApplicationService) ListMine(ctx context.Context, studentID string, page, size int) ([]models.ApplicationDetail, *models.Pagination, error) {
	details, total, err := s.repo.ListByStudent(ctx, studentID, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	page, size = normalizePage(page, size)
	return details, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListForRecruitment returns a drive's applications for its club admin,
// optionally filtered by status.
func (s *ApplicationService) ListForRecruitment(ctx context.Context, admin *models.User, recruitmentID string, status models.ApplicationStatus, page, size int) ([]models.ClubApplication, *models.Pagination, error) {
	if status != "" && !status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown application status")
	}

	rec, err := s.recruitments.FindByID(ctx, recruitmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "recruitment not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recruitment")
	}
	if admin.AdminClub() != rec.ClubName {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "recruitment belongs to another club")
	}

	apps, total, err := s.repo.ListByRecruitment(ctx, recruitmentID, status, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	page, size = normalizePage(page, size)
	return apps, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// validateAnswers checks submitted answers against the question schema
// and returns the normalized list that gets persisted: one entry per
// schema question, in schema order, unknown submissions dropped.
func validateAnswers(questions models.QuestionList, submitted []models.QuestionAnswer) (models.AnswerList, *appErrors.Error) {
	byText := make(map[string]models.AnswerValue, len(submitted))
	for _, qa := range submitted {
		byText[qa.QuestionText] = qa.Answer
	}

	var missing []string
	normalized := make(models.AnswerList, 0, len(questions))
	for _, q := range questions {
		answer, present := byText[q.QuestionText]
		if !present || answer.IsEmpty() {
			if q.Required {
				missing = append(missing, q.QuestionText)
			}
			continue
		}

		switch q.FieldType {
		case models.FieldSelect:
			if answer.IsList() {
				return nil, appErrors.Clone(appErrors.ErrInvalidOptionValue, "expected a single option for question: "+q.QuestionText)
			}
			if !containsOption(q.Options, answer.String()) {
				return nil, appErrors.Clone(appErrors.ErrInvalidOptionValue, "invalid option for question: "+q.QuestionText)
			}
		case models.FieldMultiSelect:
			if !answer.IsList() {
				return nil, appErrors.Clone(appErrors.ErrInvalidOptionValue, "expected a list of options for question: "+q.QuestionText)
			}
			for _, opt := range answer.Options {
				if !containsOption(q.Options, opt) {
					return nil, appErrors.Clone(appErrors.ErrInvalidOptionValue, "invalid option for question: "+q.QuestionText)
				}
			}
		}

		normalized = append(normalized, models.QuestionAnswer{QuestionText: q.QuestionText, Answer: answer})
	}

	if len(missing) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrMissingRequiredAnswers, map[string][]string{"missing_questions": missing})
	}
	return normalized, nil
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
