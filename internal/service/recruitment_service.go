package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
)

type recruitmentRepository interface {
	List(ctx context.Context, filter models.RecruitmentFilter) ([]models.Recruitment, int, error)
	FindByID(ctx context.Context, id string) (*models.Recruitment, error)
	FindDetailByID(ctx context.Context, id string) (*models.RecruitmentDetail, error)
	Create(ctx context.Context, rec *models.Recruitment) error
	Update(ctx context.Context, rec *models.Recruitment) error
	Deactivate(ctx context.Context, id string) error
}

// CreateRecruitmentRequest is the payload for creating or updating a
// recruitment drive.
type CreateRecruitmentRequest struct {
	Title               string            `json:"title" validate:"required,min=3"`
	Description         string            `json:"description"`
	Positions           []models.Position `json:"positions" validate:"required,min=1"`
	Eligibility         string            `json:"eligibility"`
	ApplicationDeadline time.Time         `json:"application_deadline" validate:"required"`
	ApplicationProcess  string            `json:"application_process"`
	Tags                []string          `json:"tags"`
	Questions           []models.Question `json:"questions"`
}

// RecruitmentService provides recruitment discovery and management.
type RecruitmentService struct {
	repo      recruitmentRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRecruitmentService constructs a RecruitmentService instance.
func NewRecruitmentService(repo recruitmentRepository, validate *validator.Validate, logger *zap.Logger) *RecruitmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RecruitmentService{repo: repo, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns active recruitment drives.
func (s *RecruitmentService) List(ctx context.Context, filter models.RecruitmentFilter) ([]models.Recruitment, *models.Pagination, error) {
	if filter.ClubName != "" && !filter.ClubName.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown club name")
	}
	recruitments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recruitments")
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	return recruitments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one active recruitment with creator info.
func (s *RecruitmentService) Get(ctx context.Context, id string) (*models.RecruitmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recruitment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recruitment")
	}
	if !detail.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "recruitment not found")
	}
	return detail, nil
}

// Create opens a recruitment drive owned by the admin's club.
func (s *RecruitmentService) Create(ctx context.Context, admin *models.User, req CreateRecruitmentRequest) (*models.Recruitment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recruitment payload")
	}
	club := admin.AdminClub()
	if club == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only club admins can open recruitments")
	}
	if !req.ApplicationDeadline.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application deadline must be in the future")
	}
	if err := validateQuestionSchema(req.Questions); err != nil {
		return nil, err
	}

	rec := &models.Recruitment{
		Title:               req.Title,
		Description:         req.Description,
		ClubName:            club,
		CreatedBy:           admin.ID,
		Positions:           models.PositionList(req.Positions),
		Eligibility:         req.Eligibility,
		ApplicationDeadline: req.ApplicationDeadline,
		ApplicationProcess:  req.ApplicationProcess,
		Tags:                models.StringList(req.Tags),
		Questions:           models.QuestionList(req.Questions),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create recruitment")
	}
	return rec, nil
}

// Update rewrites a recruitment's mutable fields, club scoped.
func (s *RecruitmentService) Update(ctx context.Context, admin *models.User, id string, req CreateRecruitmentRequest) (*models.Recruitment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recruitment payload")
	}
	if !req.ApplicationDeadline.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application deadline must be in the future")
	}
	if err := validateQuestionSchema(req.Questions); err != nil {
		return nil, err
	}

	rec, err := s.ownedRecruitment(ctx, admin, id)
	if err != nil {
		return nil, err
	}

	rec.Title = req.Title
	rec.Description = req.Description
	rec.Positions = models.PositionList(req.Positions)
	rec.Eligibility = req.Eligibility
	rec.ApplicationDeadline = req.ApplicationDeadline
	rec.ApplicationProcess = req.ApplicationProcess
	rec.Tags = models.StringList(req.Tags)
	rec.Questions = models.QuestionList(req.Questions)

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update recruitment")
	}
	return rec, nil
}

// Delete soft-deletes a recruitment. Submitted applications stay on
// record for review.
func (s *RecruitmentService) Delete(ctx context.Context, admin *models.User, id string) error {
	rec, err := s.ownedRecruitment(ctx, admin, id)
	if err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, rec.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete recruitment")
	}
	return nil
}

func (s *RecruitmentService) ownedRecruitment(ctx context.Context, admin *models.User, id string) (*models.Recruitment, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recruitment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recruitment")
	}
	if !rec.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "recruitment not found")
	}
	if admin.AdminClub() != rec.ClubName {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "recruitment belongs to another club")
	}
	return rec, nil
}

// validateQuestionSchema rejects malformed question schemas at authoring
// time: blank or duplicate question texts, unknown field types, and
// select questions without options.
func validateQuestionSchema(questions []models.Question) *appErrors.Error {
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		text := strings.TrimSpace(q.QuestionText)
		if text == "" {
			return appErrors.Clone(appErrors.ErrValidation, "question text must not be empty")
		}
		if seen[text] {
			return appErrors.Clone(appErrors.ErrValidation, "duplicate question text: "+text)
		}
		seen[text] = true
		if !q.FieldType.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, "unknown field type for question: "+text)
		}
		if q.FieldType.IsSelect() && len(q.Options) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "options are required for question: "+text)
		}
	}
	return nil
}
