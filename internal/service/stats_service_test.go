package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	delete(m.entries, pattern)
	return nil
}

type mockStatsEventRepo struct {
	total    int
	upcoming int
	ids      []string
	calls    int
}

func (m *mockStatsEventRepo) CountByClub(ctx context.Context, club models.ClubName, now time.Time) (int, int, error) {
	m.calls++
	return m.total, m.upcoming, nil
}

func (m *mockStatsEventRepo) IDsByClub(ctx context.Context, club models.ClubName) ([]string, error) {
	return m.ids, nil
}

type mockStatsRegistrationRepo struct {
	count int
}

func (m *mockStatsRegistrationRepo) CountByEventIDs(ctx context.Context, eventIDs []string) (int, error) {
	return m.count, nil
}

type mockStatsRecruitmentRepo struct {
	total int
	open  int
	ids   []string
}

func (m *mockStatsRecruitmentRepo) CountByClub(ctx context.Context, club models.ClubName) (int, int, error) {
	return m.total, m.open, nil
}

func (m *mockStatsRecruitmentRepo) IDsByClub(ctx context.Context, club models.ClubName) ([]string, error) {
	return m.ids, nil
}

type mockStatsApplicationRepo struct {
	count    int
	byStatus map[models.ApplicationStatus]int
}

func (m *mockStatsApplicationRepo) CountByRecruitmentIDs(ctx context.Context, recruitmentIDs []string) (int, error) {
	return m.count, nil
}

func (m *mockStatsApplicationRepo) CountByStatusForRecruitments(ctx context.Context, recruitmentIDs []string) (map[models.ApplicationStatus]int, error) {
	return m.byStatus, nil
}

func newTestStatsService(events *mockStatsEventRepo, cacheRepo CacheRepository) *StatsService {
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, cacheRepo != nil)
	registrations := &mockStatsRegistrationRepo{count: 42}
	recruitments := &mockStatsRecruitmentRepo{total: 3, open: 1, ids: []string{"rec-1"}}
	applications := &mockStatsApplicationRepo{count: 12, byStatus: map[models.ApplicationStatus]int{
		models.ApplicationApplied:     7,
		models.ApplicationShortlisted: 5,
	}}
	return NewStatsService(events, registrations, recruitments, applications, cache, time.Minute, nil)
}

func TestStatsServiceClubStats(t *testing.T) {
	events := &mockStatsEventRepo{total: 8, upcoming: 2, ids: []string{"event-1", "event-2"}}
	svc := newTestStatsService(events, newMemoryCacheRepo())

	stats, err := svc.ClubStats(context.Background(), models.ClubCSI)
	require.NoError(t, err)
	assert.Equal(t, models.ClubCSI, stats.ClubName)
	assert.Equal(t, 8, stats.TotalEvents)
	assert.Equal(t, 2, stats.UpcomingEvents)
	assert.Equal(t, 42, stats.TotalRegistrations)
	assert.Equal(t, 3, stats.TotalRecruitments)
	assert.Equal(t, 1, stats.OpenRecruitments)
	assert.Equal(t, 12, stats.TotalApplications)
	assert.Equal(t, 7, stats.ApplicationByStatus[models.ApplicationApplied])
}

func TestStatsServiceServesFromCache(t *testing.T) {
	events := &mockStatsEventRepo{total: 8, upcoming: 2}
	svc := newTestStatsService(events, newMemoryCacheRepo())

	_, err := svc.ClubStats(context.Background(), models.ClubCSI)
	require.NoError(t, err)
	_, err = svc.ClubStats(context.Background(), models.ClubCSI)
	require.NoError(t, err)
	assert.Equal(t, 1, events.calls)
}

func TestStatsServiceInvalidateForcesRecompute(t *testing.T) {
	events := &mockStatsEventRepo{total: 8, upcoming: 2}
	svc := newTestStatsService(events, newMemoryCacheRepo())

	_, err := svc.ClubStats(context.Background(), models.ClubCSI)
	require.NoError(t, err)
	svc.Invalidate(context.Background(), models.ClubCSI)
	_, err = svc.ClubStats(context.Background(), models.ClubCSI)
	require.NoError(t, err)
	assert.Equal(t, 2, events.calls)
}

func TestStatsServiceDisabledCache(t *testing.T) {
	events := &mockStatsEventRepo{total: 8, upcoming: 2}
	svc := newTestStatsService(events, nil)

	_, err := svc.ClubStats(context.Background(), models.ClubCSI)
	require.NoError(t, err)
	_, err = svc.ClubStats(context.Background(), models.ClubCSI)
	require.NoError(t, err)
	assert.Equal(t, 2, events.calls)
}

func TestStatsServiceUnknownClub(t *testing.T) {
	svc := newTestStatsService(&mockStatsEventRepo{}, nil)

	_, err := svc.ClubStats(context.Background(), "Chess Club")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
