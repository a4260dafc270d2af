package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/club-portal-api/internal/models"
)

// ApplicationRepository handles persistence of club applications. The
// club_applications table carries a unique index on (recruitment_id,
// student_id); inserts racing past the duplicate pre-check fail there
// and are translated upstream.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, recruitment_id, student_id, student_name, roll_number, department,
        email, phone, applied_position, experience, skills, why_join, portfolio, resume,
        answers, status, interview_date, feedback, created_at, updated_at`

// FindByID returns an application by id.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.ClubApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM club_applications WHERE id = $1`, applicationColumns)
	var app models.ClubApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByRecruitmentAndStudent returns the application for a pair.
func (r *ApplicationRepository) FindByRecruitmentAndStudent(ctx context.Context, recruitmentID, studentID string) (*models.ClubApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM club_applications WHERE recruitment_id = $1 AND student_id = $2 LIMIT 1`,
		applicationColumns)
	var app models.ClubApplication
	if err := r.db.GetContext(ctx, &app, query, recruitmentID, studentID); err != nil {
		return nil, err
	}
	return &app, nil
}

// Create persists a new application.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.ClubApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	if app.Status == "" {
		app.Status = models.ApplicationApplied
	}
	const query = `INSERT INTO club_applications (id, recruitment_id, student_id, student_name,
        roll_number, department, email, phone, applied_position, experience, skills, why_join,
        portfolio, resume, answers, status, interview_date, feedback, created_at, updated_at)
        VALUES (:id, :recruitment_id, :student_id, :student_name,
        :roll_number, :department, :email, :phone, :applied_position, :experience, :skills, :why_join,
        :portfolio, :resume, :answers, :status, :interview_date, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return err
	}
	return nil
}

// UpdateReview writes the review fields of an application in one
// statement so status, interview date and feedback move together.
func (r *ApplicationRepository) UpdateReview(ctx context.Context, id string, status models.ApplicationStatus, interviewDate *time.Time, feedback string) error {
	const query = `UPDATE club_applications
        SET status = $2, interview_date = $3, feedback = $4, updated_at = $5
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, interviewDate, feedback, time.Now().UTC()); err != nil {
		return fmt.Errorf("update application review: %w", err)
	}
	return nil
}

// ListByStudent returns a student's applications with recruitment
// context, most recent first.
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID string, page, size int) ([]models.ApplicationDetail, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.recruitment_id, a.student_id, a.student_name, a.roll_number,
        a.department, a.email, a.phone, a.applied_position, a.experience, a.skills, a.why_join,
        a.portfolio, a.resume, a.answers, a.status, a.interview_date, a.feedback, a.created_at,
        a.updated_at,
        rc.title AS recruitment_title, rc.club_name AS recruitment_club,
        rc.application_deadline AS recruitment_deadline
        FROM club_applications a
        JOIN recruitments rc ON rc.id = a.recruitment_id
        WHERE a.student_id = $1
        ORDER BY a.created_at DESC LIMIT %d OFFSET %d`, size, offset)

	var details []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID); err != nil {
		return nil, 0, fmt.Errorf("list student applications: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM club_applications WHERE student_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, studentID); err != nil {
		return nil, 0, fmt.Errorf("count student applications: %w", err)
	}
	return details, total, nil
}

// ListByRecruitment returns applications for a drive, optionally
// narrowed to one status, most recent first.
func (r *ApplicationRepository) ListByRecruitment(ctx context.Context, recruitmentID string, status models.ApplicationStatus, page, size int) ([]models.ClubApplication, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	where := "WHERE recruitment_id = $1"
	args := []interface{}{recruitmentID}
	if status != "" {
		where += " AND status = $2"
		args = append(args, status)
	}

	query := fmt.Sprintf(`SELECT %s FROM club_applications %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		applicationColumns, where, size, offset)

	var apps []models.ClubApplication
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list recruitment applications: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM club_applications %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count recruitment applications: %w", err)
	}
	return apps, total, nil
}

// ListAllByRecruitment returns every application for a drive without
// pagination, oldest first, for roster exports.
func (r *ApplicationRepository) ListAllByRecruitment(ctx context.Context, recruitmentID string) ([]models.ClubApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM club_applications WHERE recruitment_id = $1 ORDER BY created_at ASC`,
		applicationColumns)
	var apps []models.ClubApplication
	if err := r.db.SelectContext(ctx, &apps, query, recruitmentID); err != nil {
		return nil, fmt.Errorf("list recruitment applications: %w", err)
	}
	return apps, nil
}

// CountByRecruitmentIDs counts applications across the given drives.
func (r *ApplicationRepository) CountByRecruitmentIDs(ctx context.Context, recruitmentIDs []string) (int, error) {
	if len(recruitmentIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM club_applications WHERE recruitment_id IN (?)`, recruitmentIDs)
	if err != nil {
		return 0, fmt.Errorf("build application count query: %w", err)
	}
	query = r.db.Rebind(query)
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

// CountByStatusForRecruitments breaks down application counts by status
// across the given drives.
func (r *ApplicationRepository) CountByStatusForRecruitments(ctx context.Context, recruitmentIDs []string) (map[models.ApplicationStatus]int, error) {
	counts := map[models.ApplicationStatus]int{}
	if len(recruitmentIDs) == 0 {
		return counts, nil
	}
	query, args, err := sqlx.In(`SELECT status, COUNT(*) AS count FROM club_applications
        WHERE recruitment_id IN (?) GROUP BY status`, recruitmentIDs)
	if err != nil {
		return nil, fmt.Errorf("build status breakdown query: %w", err)
	}
	query = r.db.Rebind(query)

	rows := []struct {
		Status models.ApplicationStatus `db:"status"`
		Count  int                      `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count applications by status: %w", err)
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
