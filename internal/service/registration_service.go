package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
)

type registrationEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type registrationRepository interface {
	FindByEventAndStudent(ctx context.Context, eventID, studentID string) (*models.EventRegistration, error)
	FindActiveByEventAndStudent(ctx context.Context, eventID, studentID string) (*models.EventRegistration, error)
	CountActiveByEvent(ctx context.Context, eventID string) (int, error)
	Create(ctx context.Context, reg *models.EventRegistration) error
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error
	ListByStudent(ctx context.Context, studentID string, page, size int) ([]models.RegistrationDetail, int, error)
	ListByEvent(ctx context.Context, eventID string, page, size int) ([]models.EventRegistration, int, error)
}

// EventRegisterRequest carries the optional free-text extras a student may
// attach when registering for an event.
type EventRegisterRequest struct {
	Phone          string `json:"phone"`
	AdditionalInfo string `json:"additional_info"`
}

// RegistrationService implements the event admission flow: policy checks,
// the duplicate guard and registration lifecycle.
type RegistrationService struct {
	events    registrationEventRepository
	repo      registrationRepository
	isUnique  func(error) bool
	stats     clubStatsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistrationService constructs a RegistrationService instance.
// isUnique recognises unique-index violations from the underlying store.
// stats, when non-nil, is told after every registration mutation so the
// club's cached dashboard numbers stay fresh.
func NewRegistrationService(events registrationEventRepository, repo registrationRepository, isUnique func(error) bool, stats clubStatsInvalidator, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
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
	return &RegistrationService{events: events, repo: repo, isUnique: isUnique, stats: stats, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Register creates a registration for the student. Missing and inactive
// events both read as not found. Admission checks run before the
// duplicate pre-check, which is backed by the unique index, so a
// concurrent duplicate surfaces as the same rejection. Cancelled rows
// block re-registration: the slot stays taken.
func (s *RegistrationService) Register(ctx context.Context, student *models.User, eventID string, req EventRegisterRequest) (*models.EventRegistration, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if !event.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}

	count, err := s.repo.CountActiveByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}

	if admissionErr := CheckEventAdmission(event, s.now(), count); admissionErr != nil {
		return nil, admissionErr
	}

	if _, err := s.repo.FindByEventAndStudent(ctx, eventID, student.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}

	reg := &models.EventRegistration{
		EventID:        eventID,
		StudentID:      student.ID,
		StudentName:    student.Name,
		Email:          student.Email,
		Phone:          req.Phone,
		AdditionalInfo: req.AdditionalInfo,
		Status:         models.RegistrationRegistered,
	}
	if student.RollNumber != nil {
		reg.RollNumber = *student.RollNumber
	}
	if student.Department != nil {
		reg.Department = *student.Department
	}

	if err := s.repo.Create(ctx, reg); err != nil {
		if s.isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}

	s.stats.Invalidate(ctx, event.ClubName)
	s.logger.Info("event registration created",
		zap.String("event_id", eventID),
		zap.String("student_id", student.ID),
	)
	return reg, nil
}

// Cancel marks the student's registration as cancelled. Registrations
// for events that already took place stay on the roster. Only a live
// registration can be cancelled; a repeated cancel finds nothing.
func (s *RegistrationService) Cancel(ctx context.Context, studentID, eventID string) error {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if s.now().After(event.Date) {
		return appErrors.Clone(appErrors.ErrAlreadyOccurred, "cannot cancel a registration for a past event")
	}

	reg, err := s.repo.FindActiveByEventAndStudent(ctx, eventID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	if err := s.repo.UpdateStatus(ctx, reg.ID, models.RegistrationCancelled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel registration")
	}

	s.stats.Invalidate(ctx, event.ClubName)
	s.logger.Info("event registration cancelled",
		zap.String("event_id", eventID),
		zap.String("student_id", studentID),
	)
	return nil
}

// ListMine returns the student's registrations for active events.
func (s *RegistrationService) ListMine(ctx context.Context, studentID string, page, size int) ([]models.RegistrationDetail, *models.Pagination, error) {
	details, total, err := s.repo.ListByStudent(ctx, studentID, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	page, size = normalizePage(page, size)
	return details, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListForEvent returns the roster of an event for its club admin,
// cancelled entries excluded.
func (s *RegistrationService) ListForEvent(ctx context.Context, admin *models.User, eventID string, page, size int) ([]models.EventRegistration, *models.Pagination, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if admin.AdminClub() != event.ClubName {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "event belongs to another club")
	}

	regs, total, err := s.repo.ListByEvent(ctx, eventID, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	page, size = normalizePage(page, size)
	return regs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
