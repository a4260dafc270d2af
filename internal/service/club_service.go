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

type clubRepository interface {
	FindByName(ctx context.Context, name models.ClubName) (*models.Club, error)
	Upsert(ctx context.Context, club *models.Club) error
}

type clubEventLister interface {
	ListByClubAndWindow(ctx context.Context, club models.ClubName, pivot time.Time, upcoming bool, limit int) ([]models.Event, error)
}

// UpdateClubRequest is the payload a club admin submits to edit the
// club's public profile.
type UpdateClubRequest struct {
	Description   string              `json:"description"`
	PopularPeople []models.ClubPerson `json:"popular_people"`
}

// ClubService serves club profile pages and profile management.
type ClubService struct {
	repo      clubRepository
	events    clubEventLister
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewClubService constructs a ClubService instance.
func NewClubService(repo clubRepository, events clubEventLister, validate *validator.Validate, logger *zap.Logger) *ClubService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClubService{repo: repo, events: events, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns the closed set of clubs with their profiles.
func (s *ClubService) List(ctx context.Context) ([]models.Club, error) {
	clubs := make([]models.Club, 0, len(models.AllClubs))
	for _, name := range models.AllClubs {
		club, err := s.repo.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				clubs = append(clubs, models.Club{Name: name, PopularPeople: models.ClubPersonList{}})
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club")
		}
		clubs = append(clubs, *club)
	}
	return clubs, nil
}

// Profile returns a club's profile page with its upcoming and recent
// past events.
func (s *ClubService) Profile(ctx context.Context, name models.ClubName) (*models.ClubProfile, error) {
	if !name.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "club not found")
	}

	club, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			club = &models.Club{Name: name, PopularPeople: models.ClubPersonList{}}
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club")
		}
	}

	now := s.now()
	upcoming, err := s.events.ListByClubAndWindow(ctx, name, now, true, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load upcoming events")
	}
	past, err := s.events.ListByClubAndWindow(ctx, name, now, false, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load past events")
	}

	return &models.ClubProfile{Club: *club, UpcomingEvents: upcoming, PastEvents: past}, nil
}

// UpdateProfile edits the public profile of the admin's own club.
func (s *ClubService) UpdateProfile(ctx context.Context, admin *models.User, name models.ClubName, req UpdateClubRequest) (*models.Club, error) {
	if !name.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "club not found")
	}
	if admin.AdminClub() != name {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot edit another club's profile")
	}

	club, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			club = &models.Club{Name: name}
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club")
		}
	}

	club.Description = req.Description
	club.PopularPeople = models.ClubPersonList(req.PopularPeople)
	if club.PopularPeople == nil {
		club.PopularPeople = models.ClubPersonList{}
	}

	if err := s.repo.Upsert(ctx, club); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update club")
	}
	return club, nil
}
