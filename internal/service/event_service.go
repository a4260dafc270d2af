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

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindDetailByID(ctx context.Context, id string) (*models.EventDetail, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Deactivate(ctx context.Context, id string) error
}

type eventRegistrationFlags interface {
	RegisteredEventIDs(ctx context.Context, studentID string, eventIDs []string) (map[string]bool, error)
}

// CreateEventRequest is the payload for creating or updating an event.
type CreateEventRequest struct {
	Title                string     `json:"title" validate:"required,min=3"`
	Description          string     `json:"description"`
	Date                 time.Time  `json:"date" validate:"required"`
	Time                 string     `json:"time"`
	Venue                string     `json:"venue" validate:"required"`
	EventType            string     `json:"event_type" validate:"required"`
	Image                *string    `json:"image"`
	MaxParticipants      *int       `json:"max_participants"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	Tags                 []string   `json:"tags"`
}

// EventService provides event discovery and management use cases.
type EventService struct {
	repo          eventRepository
	registrations eventRegistrationFlags
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewEventService constructs an EventService instance.
func NewEventService(repo eventRepository, registrations eventRegistrationFlags, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{repo: repo, registrations: registrations, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *EventService) validateSchedule(req CreateEventRequest) *appErrors.Error {
	if !req.Date.After(s.now()) {
		return appErrors.Clone(appErrors.ErrValidation, "event date must be in the future")
	}
	return nil
}

// List returns active events. When studentID is set, each event is
// flagged with whether that student already holds a registration.
func (s *EventService) List(ctx context.Context, filter models.EventFilter, studentID string) ([]models.EventWithRegistration, *models.Pagination, error) {
	if filter.ClubName != "" && !filter.ClubName.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown club name")
	}
	if filter.EventType != "" && !filter.EventType.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown event type")
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	registered := map[string]bool{}
	if studentID != "" && len(events) > 0 {
		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		registered, err = s.registrations.RegisteredEventIDs(ctx, studentID, ids)
		if err != nil {
			s.logger.Warn("failed to resolve registration flags", zap.Error(err))
			registered = map[string]bool{}
		}
	}

	out := make([]models.EventWithRegistration, len(events))
	for i, e := range events {
		out[i] = models.EventWithRegistration{EventDetail: e, IsRegistered: registered[e.ID]}
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	return out, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one active event with creator info and the caller's
// registration flag.
func (s *EventService) Get(ctx context.Context, id, studentID string) (*models.EventWithRegistration, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if !detail.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}

	out := &models.EventWithRegistration{EventDetail: *detail}
	if studentID != "" {
		registered, err := s.registrations.RegisteredEventIDs(ctx, studentID, []string{detail.ID})
		if err != nil {
			s.logger.Warn("failed to resolve registration flag", zap.Error(err))
		} else {
			out.IsRegistered = registered[detail.ID]
		}
	}
	return out, nil
}

// Create publishes a new event owned by the admin's club.
func (s *EventService) Create(ctx context.Context, admin *models.User, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	eventType := models.EventType(req.EventType)
	if !eventType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown event type")
	}
	if schedErr := s.validateSchedule(req); schedErr != nil {
		return nil, schedErr
	}
	club := admin.AdminClub()
	if club == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only club admins can create events")
	}

	event := &models.Event{
		Title:                req.Title,
		Description:          req.Description,
		Date:                 req.Date,
		Time:                 req.Time,
		Venue:                req.Venue,
		ClubName:             club,
		CreatedBy:            admin.ID,
		Image:                req.Image,
		MaxParticipants:      req.MaxParticipants,
		RegistrationDeadline: req.RegistrationDeadline,
		Tags:                 models.StringList(req.Tags),
		IsActive:             true,
		EventType:            eventType,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// Update rewrites an event's mutable fields. Admins may only touch events
// belonging to their own club.
func (s *EventService) Update(ctx context.Context, admin *models.User, id string, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	eventType := models.EventType(req.EventType)
	if !eventType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown event type")
	}
	if schedErr := s.validateSchedule(req); schedErr != nil {
		return nil, schedErr
	}

	event, err := s.ownedEvent(ctx, admin, id)
	if err != nil {
		return nil, err
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Date = req.Date
	event.Time = req.Time
	event.Venue = req.Venue
	event.Image = req.Image
	event.MaxParticipants = req.MaxParticipants
	event.RegistrationDeadline = req.RegistrationDeadline
	event.Tags = models.StringList(req.Tags)
	event.EventType = eventType

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

// Delete soft-deletes an event. Existing registrations are preserved for
// history; the event simply stops being listed and accepting entries.
func (s *EventService) Delete(ctx context.Context, admin *models.User, id string) error {
	event, err := s.ownedEvent(ctx, admin, id)
	if err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, event.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}

func (s *EventService) ownedEvent(ctx context.Context, admin *models.User, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if !event.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	if admin.AdminClub() != event.ClubName {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "event belongs to another club")
	}
	return event, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	return page, size
}
