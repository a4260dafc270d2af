package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/club-portal-api/internal/models"
)

// RecruitmentRepository handles persistence of recruitment drives.
type RecruitmentRepository struct {
	db *sqlx.DB
}

// NewRecruitmentRepository constructs the repository.
func NewRecruitmentRepository(db *sqlx.DB) *RecruitmentRepository {
	return &RecruitmentRepository{db: db}
}

const recruitmentColumns = `id, title, description, club_name, created_by, positions, eligibility,
        application_deadline, application_process, is_active, tags, questions, created_at, updated_at`

// List returns active recruitments matching the filter, newest first.
func (r *RecruitmentRepository) List(ctx context.Context, filter models.RecruitmentFilter) ([]models.Recruitment, int, error) {
	where := "WHERE is_active = TRUE"
	args := []interface{}{}
	idx := 1

	if filter.ClubName != "" {
		where += fmt.Sprintf(" AND club_name = $%d", idx)
		args = append(args, filter.ClubName)
		idx++
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

	query := fmt.Sprintf(`SELECT %s FROM recruitments %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		recruitmentColumns, where, size, offset)

	var recruitments []models.Recruitment
	if err := r.db.SelectContext(ctx, &recruitments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list recruitments: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM recruitments %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count recruitments: %w", err)
	}
	return recruitments, total, nil
}

// FindByID returns a recruitment by id regardless of active flag.
func (r *RecruitmentRepository) FindByID(ctx context.Context, id string) (*models.Recruitment, error) {
	query := fmt.Sprintf(`SELECT %s FROM recruitments WHERE id = $1`, recruitmentColumns)
	var rec models.Recruitment
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindDetailByID returns a recruitment with its creator's name.
func (r *RecruitmentRepository) FindDetailByID(ctx context.Context, id string) (*models.RecruitmentDetail, error) {
	const query = `SELECT r.id, r.title, r.description, r.club_name, r.created_by, r.positions,
        r.eligibility, r.application_deadline, r.application_process, r.is_active, r.tags,
        r.questions, r.created_at, r.updated_at,
        COALESCE(u.name, '') AS creator_name
        FROM recruitments r
        LEFT JOIN users u ON u.id = r.created_by
        WHERE r.id = $1`
	var detail models.RecruitmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new recruitment drive.
func (r *RecruitmentRepository) Create(ctx context.Context, rec *models.Recruitment) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.IsActive = true

	const query = `INSERT INTO recruitments (id, title, description, club_name, created_by, positions,
        eligibility, application_deadline, application_process, is_active, tags, questions,
        created_at, updated_at)
        VALUES (:id, :title, :description, :club_name, :created_by, :positions,
        :eligibility, :application_deadline, :application_process, :is_active, :tags, :questions,
        :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("create recruitment: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a recruitment. Club and creator
// never change after creation.
func (r *RecruitmentRepository) Update(ctx context.Context, rec *models.Recruitment) error {
	rec.UpdatedAt = time.Now().UTC()
	const query = `UPDATE recruitments SET title = :title, description = :description,
        positions = :positions, eligibility = :eligibility,
        application_deadline = :application_deadline, application_process = :application_process,
        tags = :tags, questions = :questions, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("update recruitment: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a recruitment.
func (r *RecruitmentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE recruitments SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate recruitment: %w", err)
	}
	return nil
}

// CountByClub returns total and currently open recruitment counts for a club.
func (r *RecruitmentRepository) CountByClub(ctx context.Context, club models.ClubName) (int, int, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE application_deadline > $2) AS open
        FROM recruitments WHERE club_name = $1 AND is_active = TRUE`
	row := struct {
		Total int `db:"total"`
		Open  int `db:"open"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, club, time.Now().UTC()); err != nil {
		return 0, 0, fmt.Errorf("count recruitments: %w", err)
	}
	return row.Total, row.Open, nil
}

// IDsByClub returns ids of all active recruitments of a club.
func (r *RecruitmentRepository) IDsByClub(ctx context.Context, club models.ClubName) ([]string, error) {
	const query = `SELECT id FROM recruitments WHERE club_name = $1 AND is_active = TRUE`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, club); err != nil {
		return nil, fmt.Errorf("list recruitment ids: %w", err)
	}
	return ids, nil
}
