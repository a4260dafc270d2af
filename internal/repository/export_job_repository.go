package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/club-portal-api/internal/models"
)

// ExportJobRepository handles persistence of roster export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

const exportJobColumns = `id, kind, target_id, club_name, format, status, requested_by,
        file_path, download_url, error, expires_at, created_at, updated_at`

// Create persists a new pending export job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.ExportPending
	}
	const query = `INSERT INTO export_jobs (id, kind, target_id, club_name, format, status,
        requested_by, file_path, download_url, error, expires_at, created_at, updated_at)
        VALUES (:id, :kind, :target_id, :club_name, :format, :status,
        :requested_by, :file_path, :download_url, :error, :expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID returns an export job by id.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM export_jobs WHERE id = $1`, exportJobColumns)
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkProcessing moves a job into the processing state.
func (r *ExportJobRepository) MarkProcessing(ctx context.Context, id string) error {
	const query = `UPDATE export_jobs SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportProcessing, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export processing: %w", err)
	}
	return nil
}

// MarkCompleted records the stored file and signed download URL.
func (r *ExportJobRepository) MarkCompleted(ctx context.Context, id, filePath, downloadURL string, expiresAt time.Time) error {
	const query = `UPDATE export_jobs SET status = $2, file_path = $3, download_url = $4,
        expires_at = $5, error = '', updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportCompleted, filePath, downloadURL, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE export_jobs SET status = $2, error = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportFailed, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return nil
}

// ListByClub returns a club's export jobs, newest first.
func (r *ExportJobRepository) ListByClub(ctx context.Context, club models.ClubName, page, size int) ([]models.ExportJob, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM export_jobs WHERE club_name = $1
        ORDER BY created_at DESC LIMIT %d OFFSET %d`, exportJobColumns, size, offset)

	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, club); err != nil {
		return nil, 0, fmt.Errorf("list export jobs: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM export_jobs WHERE club_name = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, club); err != nil {
		return nil, 0, fmt.Errorf("count export jobs: %w", err)
	}
	return jobs, total, nil
}

// ListExpired returns completed jobs whose download window lapsed before
// the cutoff. The cleanup loop removes their files and marks them failed
// with an expiry note.
func (r *ExportJobRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]models.ExportJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM export_jobs
        WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2`, exportJobColumns)
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ExportCompleted, cutoff); err != nil {
		return nil, fmt.Errorf("list expired export jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes an export job row.
func (r *ExportJobRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM export_jobs WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete export job: %w", err)
	}
	return nil
}
