package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
)

type statsEventRepository interface {
	CountByClub(ctx context.Context, club models.ClubName, now time.Time) (int, int, error)
	IDsByClub(ctx context.Context, club models.ClubName) ([]string, error)
}

type statsRegistrationRepository interface {
	CountByEventIDs(ctx context.Context, eventIDs []string) (int, error)
}

type statsRecruitmentRepository interface {
	CountByClub(ctx context.Context, club models.ClubName) (int, int, error)
	IDsByClub(ctx context.Context, club models.ClubName) ([]string, error)
}

type statsApplicationRepository interface {
	CountByRecruitmentIDs(ctx context.Context, recruitmentIDs []string) (int, error)
	CountByStatusForRecruitments(ctx context.Context, recruitmentIDs []string) (map[models.ApplicationStatus]int, error)
}

// clubStatsInvalidator is implemented by StatsService; the mutation
// services call it after a write that changes a club's numbers.
type clubStatsInvalidator interface {
	Invalidate(ctx context.Context, club models.ClubName)
}

type noopStatsInvalidator struct{}

func (noopStatsInvalidator) Invalidate(context.Context, models.ClubName) {}

// StatsService aggregates a club's dashboard numbers, cached per club.
type StatsService struct {
	events        statsEventRepository
	registrations statsRegistrationRepository
	recruitments  statsRecruitmentRepository
	applications  statsApplicationRepository
	cache         *CacheService
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewStatsService constructs a StatsService instance.
func NewStatsService(events statsEventRepository, registrations statsRegistrationRepository, recruitments statsRecruitmentRepository, applications statsApplicationRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &StatsService{
		events:        events,
		registrations: registrations,
		recruitments:  recruitments,
		applications:  applications,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func statsCacheKey(club models.ClubName) string {
	return fmt.Sprintf("stats:club:%s", club)
}

// ClubStats returns the admin dashboard aggregates for a club, serving
// from cache when warm.
func (s *StatsService) ClubStats(ctx context.Context, club models.ClubName) (*models.ClubStats, error) {
	if !club.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown club name")
	}

	key := statsCacheKey(club)
	var cached models.ClubStats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	stats, err := s.computeClubStats(ctx, club)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache club stats", zap.String("club", string(club)), zap.Error(err))
	}
	return stats, nil
}

// Invalidate drops the cached aggregates for a club. Called after any
// write that changes the numbers.
func (s *StatsService) Invalidate(ctx context.Context, club models.ClubName) {
	if err := s.cache.Invalidate(ctx, statsCacheKey(club)); err != nil {
		s.logger.Warn("failed to invalidate club stats", zap.String("club", string(club)), zap.Error(err))
	}
}

func (s *StatsService) computeClubStats(ctx context.Context, club models.ClubName) (*models.ClubStats, error) {
	now := s.now()

	totalEvents, upcomingEvents, err := s.events.CountByClub(ctx, club, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count events")
	}

	eventIDs, err := s.events.IDsByClub(ctx, club)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	totalRegistrations, err := s.registrations.CountByEventIDs(ctx, eventIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}

	totalRecruitments, openRecruitments, err := s.recruitments.CountByClub(ctx, club)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count recruitments")
	}

	recruitmentIDs, err := s.recruitments.IDsByClub(ctx, club)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recruitments")
	}
	totalApplications, err := s.applications.CountByRecruitmentIDs(ctx, recruitmentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}
	byStatus, err := s.applications.CountByStatusForRecruitments(ctx, recruitmentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to break down applications")
	}

	return &models.ClubStats{
		ClubName:            club,
		TotalEvents:         totalEvents,
		UpcomingEvents:      upcomingEvents,
		TotalRegistrations:  totalRegistrations,
		TotalRecruitments:   totalRecruitments,
		OpenRecruitments:    openRecruitments,
		TotalApplications:   totalApplications,
		ApplicationByStatus: byStatus,
		GeneratedAt:         now,
	}, nil
}
