package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/club-portal-api/internal/models"
)

// EventRepository handles persistence of events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `e.id, e.title, e.description, e.date, e.time, e.venue, e.club_name, e.created_by, e.image,
        e.max_participants, e.registration_deadline, e.tags, e.is_active, e.event_type, e.created_at, e.updated_at`

// List returns active events filtered by club and type, newest date first.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error) {
	base := `FROM events e LEFT JOIN users u ON u.id = e.created_by WHERE e.is_active = TRUE`
	countBase := `FROM events e WHERE e.is_active = TRUE`
	var conditions []string
	var args []interface{}

	if filter.ClubName != "" {
		conditions = append(conditions, fmt.Sprintf("e.club_name = $%d", len(args)+1))
		args = append(args, filter.ClubName)
	}
	if filter.EventType != "" {
		conditions = append(conditions, fmt.Sprintf("e.event_type = $%d", len(args)+1))
		args = append(args, filter.EventType)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, COALESCE(u.name, '') AS creator_name %s ORDER BY e.date ASC LIMIT %d OFFSET %d`,
		eventColumns, base+clause, size, offset)

	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", countBase+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindByID returns an event regardless of active state.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	const query = `SELECT id, title, description, date, time, venue, club_name, created_by, image,
        max_participants, registration_deadline, tags, is_active, event_type, created_at, updated_at
        FROM events WHERE id = $1 LIMIT 1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// FindDetailByID returns an event with its creator's name.
func (r *EventRepository) FindDetailByID(ctx context.Context, id string) (*models.EventDetail, error) {
	query := fmt.Sprintf(`SELECT %s, COALESCE(u.name, '') AS creator_name
        FROM events e LEFT JOIN users u ON u.id = e.created_by WHERE e.id = $1 LIMIT 1`, eventColumns)
	var detail models.EventDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO events (id, title, description, date, time, venue, club_name, created_by, image,
        max_participants, registration_deadline, tags, is_active, event_type, created_at, updated_at)
        VALUES (:id, :title, :description, :date, :time, :venue, :club_name, :created_by, :image,
        :max_participants, :registration_deadline, :tags, :is_active, :event_type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an event. Club and creator are
// deliberately excluded.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, description = :description, date = :date, time = :time,
        venue = :venue, image = :image, max_participants = :max_participants,
        registration_deadline = :registration_deadline, tags = :tags, event_type = :event_type,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Deactivate soft-deletes an event.
func (r *EventRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE events SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate event: %w", err)
	}
	return nil
}

// ListByClubAndWindow returns up to limit active events for a club on one
// side of the pivot time. Upcoming events sort soonest first, past events
// most recent first.
func (r *EventRepository) ListByClubAndWindow(ctx context.Context, club models.ClubName, pivot time.Time, upcoming bool, limit int) ([]models.Event, error) {
	cmp, order := ">=", "ASC"
	if !upcoming {
		cmp, order = "<", "DESC"
	}
	query := fmt.Sprintf(`SELECT id, title, description, date, time, venue, club_name, created_by, image,
        max_participants, registration_deadline, tags, is_active, event_type, created_at, updated_at
        FROM events WHERE club_name = $1 AND is_active = TRUE AND date %s $2 ORDER BY date %s LIMIT %d`, cmp, order, limit)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, club, pivot); err != nil {
		return nil, fmt.Errorf("list club events: %w", err)
	}
	return events, nil
}

// CountByClub returns total and upcoming event counts for a club.
func (r *EventRepository) CountByClub(ctx context.Context, club models.ClubName, now time.Time) (total, upcoming int, err error) {
	const totalQuery = `SELECT COUNT(*) FROM events WHERE club_name = $1`
	if err = r.db.GetContext(ctx, &total, totalQuery, club); err != nil {
		return 0, 0, fmt.Errorf("count club events: %w", err)
	}
	const upcomingQuery = `SELECT COUNT(*) FROM events WHERE club_name = $1 AND date >= $2`
	if err = r.db.GetContext(ctx, &upcoming, upcomingQuery, club, now); err != nil {
		return 0, 0, fmt.Errorf("count upcoming club events: %w", err)
	}
	return total, upcoming, nil
}

// IDsByClub returns all event IDs belonging to a club.
func (r *EventRepository) IDsByClub(ctx context.Context, club models.ClubName) ([]string, error) {
	const query = `SELECT id FROM events WHERE club_name = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, club); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("list club event ids: %w", err)
	}
	return ids, nil
}
