package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/club-portal-api/internal/models"
)

// RegistrationRepository handles persistence of event registrations. The
// event_registrations table carries a unique index on (event_id,
// student_id) spanning every status; inserts racing past the duplicate
// pre-check fail there and are translated upstream.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `r.id, r.event_id, r.student_id, r.student_name, r.roll_number, r.department,
        r.email, r.phone, r.status, r.additional_info, r.created_at, r.updated_at`

// FindByEventAndStudent returns the registration for a pair, any status.
func (r *RegistrationRepository) FindByEventAndStudent(ctx context.Context, eventID, studentID string) (*models.EventRegistration, error) {
	const query = `SELECT id, event_id, student_id, student_name, roll_number, department, email, phone,
        status, additional_info, created_at, updated_at
        FROM event_registrations WHERE event_id = $1 AND student_id = $2 LIMIT 1`
	var reg models.EventRegistration
	if err := r.db.GetContext(ctx, &reg, query, eventID, studentID); err != nil {
		return nil, err
	}
	return &reg, nil
}

// FindActiveByEventAndStudent returns the non-cancelled registration for a
// pair. Cancelled rows do not match, so a second cancel attempt surfaces
// as not found.
func (r *RegistrationRepository) FindActiveByEventAndStudent(ctx context.Context, eventID, studentID string) (*models.EventRegistration, error) {
	const query = `SELECT id, event_id, student_id, student_name, roll_number, department, email, phone,
        status, additional_info, created_at, updated_at
        FROM event_registrations WHERE event_id = $1 AND student_id = $2 AND status <> $3 LIMIT 1`
	var reg models.EventRegistration
	if err := r.db.GetContext(ctx, &reg, query, eventID, studentID, models.RegistrationCancelled); err != nil {
		return nil, err
	}
	return &reg, nil
}

// CountActiveByEvent counts registrations holding a slot: registered or
// confirmed, cancelled and attended excluded per the capacity rule.
func (r *RegistrationRepository) CountActiveByEvent(ctx context.Context, eventID string) (int, error) {
	const query = `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status IN ($2, $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, eventID, models.RegistrationRegistered, models.RegistrationConfirmed); err != nil {
		return 0, fmt.Errorf("count event registrations: %w", err)
	}
	return count, nil
}

// Create persists a new registration.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.EventRegistration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now
	if reg.Status == "" {
		reg.Status = models.RegistrationRegistered
	}
	const query = `INSERT INTO event_registrations (id, event_id, student_id, student_name, roll_number,
        department, email, phone, status, additional_info, created_at, updated_at)
        VALUES (:id, :event_id, :student_id, :student_name, :roll_number,
        :department, :email, :phone, :status, :additional_info, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		return err
	}
	return nil
}

// UpdateStatus sets the status of a registration.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	const query = `UPDATE event_registrations SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	return nil
}

// ListByStudent returns a student's non-cancelled registrations for active
// events, most recent first.
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string, page, size int) ([]models.RegistrationDetail, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, e.title AS event_title, e.date AS event_date, e.time AS event_time,
        e.venue AS event_venue, e.club_name AS event_club
        FROM event_registrations r
        JOIN events e ON e.id = r.event_id
        WHERE r.student_id = $1 AND r.status <> $2 AND e.is_active = TRUE
        ORDER BY r.created_at DESC LIMIT %d OFFSET %d`, registrationColumns, size, offset)

	var details []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID, models.RegistrationCancelled); err != nil {
		return nil, 0, fmt.Errorf("list student registrations: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM event_registrations r JOIN events e ON e.id = r.event_id
        WHERE r.student_id = $1 AND r.status <> $2 AND e.is_active = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, studentID, models.RegistrationCancelled); err != nil {
		return nil, 0, fmt.Errorf("count student registrations: %w", err)
	}
	return details, total, nil
}

// ListByEvent returns non-cancelled registrations for an event, most
// recent first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string, page, size int) ([]models.EventRegistration, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, event_id, student_id, student_name, roll_number, department, email,
        phone, status, additional_info, created_at, updated_at
        FROM event_registrations WHERE event_id = $1 AND status <> $2
        ORDER BY created_at DESC LIMIT %d OFFSET %d`, size, offset)

	var regs []models.EventRegistration
	if err := r.db.SelectContext(ctx, &regs, query, eventID, models.RegistrationCancelled); err != nil {
		return nil, 0, fmt.Errorf("list event registrations: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status <> $2`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, eventID, models.RegistrationCancelled); err != nil {
		return nil, 0, fmt.Errorf("count event registrations: %w", err)
	}
	return regs, total, nil
}

// ListAllByEvent returns every non-cancelled registration for an event
// without pagination, oldest first, for roster exports.
func (r *RegistrationRepository) ListAllByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error) {
	const query = `SELECT id, event_id, student_id, student_name, roll_number, department, email,
        phone, status, additional_info, created_at, updated_at
        FROM event_registrations WHERE event_id = $1 AND status <> $2
        ORDER BY created_at ASC`
	var regs []models.EventRegistration
	if err := r.db.SelectContext(ctx, &regs, query, eventID, models.RegistrationCancelled); err != nil {
		return nil, fmt.Errorf("list event registrations: %w", err)
	}
	return regs, nil
}

// RegisteredEventIDs returns the subset of eventIDs the student holds a
// non-cancelled registration for.
func (r *RegistrationRepository) RegisteredEventIDs(ctx context.Context, studentID string, eventIDs []string) (map[string]bool, error) {
	if len(eventIDs) == 0 {
		return map[string]bool{}, nil
	}
	query, args, err := sqlx.In(`SELECT event_id FROM event_registrations WHERE student_id = ? AND status <> ? AND event_id IN (?)`,
		studentID, models.RegistrationCancelled, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("build registered events query: %w", err)
	}
	query = r.db.Rebind(query)

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("list registered events: %w", err)
	}
	registered := make(map[string]bool, len(ids))
	for _, id := range ids {
		registered[id] = true
	}
	return registered, nil
}

// CountByEventIDs counts all registrations across the given events.
func (r *RegistrationRepository) CountByEventIDs(ctx context.Context, eventIDs []string) (int, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM event_registrations WHERE event_id IN (?)`, eventIDs)
	if err != nil {
		return 0, fmt.Errorf("build registration count query: %w", err)
	}
	query = r.db.Rebind(query)
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}
