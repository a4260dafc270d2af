package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/club-portal-api/internal/models"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
	"github.com/campushub/club-portal-api/pkg/export"
	"github.com/campushub/club-portal-api/pkg/jobs"
	"github.com/campushub/club-portal-api/pkg/storage"
)

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath, downloadURL string, expiresAt time.Time) error
	MarkFailed(ctx context.Context, id, reason string) error
	ListByClub(ctx context.Context, club models.ClubName, page, size int) ([]models.ExportJob, int, error)
	ListExpired(ctx context.Context, cutoff time.Time) ([]models.ExportJob, error)
	Delete(ctx context.Context, id string) error
}

type exportEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type exportRegistrationRepository interface {
	ListAllByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error)
}

type exportRecruitmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Recruitment, error)
}

type exportApplicationRepository interface {
	ListAllByRecruitment(ctx context.Context, recruitmentID string) ([]models.ClubApplication, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes roster export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportRequest asks for a roster export of one event or recruitment.
type ExportRequest struct {
	Kind     models.ExportKind   `json:"kind"`
	TargetID string              `json:"target_id"`
	Format   models.ExportFormat `json:"format"`
}

// ExportService runs asynchronous roster exports: an admin requests one,
// a worker renders the roster to CSV or PDF, stores the file and signs a
// time-limited download URL.
type ExportService struct {
	repo          exportJobRepository
	events        exportEventRepository
	registrations exportRegistrationRepository
	recruitments  exportRecruitmentRepository
	applications  exportApplicationRepository
	storage       fileStorage
	csv           csvRenderer
	pdf           pdfRenderer
	signer        *storage.SignedURLSigner
	queue         *jobs.Queue
	logger        *zap.Logger
	cfg           ExportConfig
}

// NewExportService constructs an ExportService. Call Start before
// accepting requests; jobs are processed by the embedded queue.
func NewExportService(repo exportJobRepository, events exportEventRepository, registrations exportRegistrationRepository, recruitments exportRecruitmentRepository, applications exportApplicationRepository, fs fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, queueCfg jobs.QueueConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	s := &ExportService{
		repo:          repo,
		events:        events,
		registrations: registrations,
		recruitments:  recruitments,
		applications:  applications,
		storage:       fs,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		signer:        signer,
		logger:        logger,
		cfg:           cfg,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("exports", s.process, queueCfg)
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Request validates ownership of the export target, records a pending
// job and enqueues it.
func (s *ExportService) Request(ctx context.Context, admin *models.User, req ExportRequest) (*models.ExportJob, error) {
	if !req.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown export kind")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown export format")
	}
	if req.TargetID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target id is required")
	}

	club := admin.AdminClub()
	switch req.Kind {
	case models.ExportEventRegistrations:
		event, err := s.events.FindByID(ctx, req.TargetID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
		}
		if event.ClubName != club {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "event belongs to another club")
		}
	case models.ExportRecruitmentApplicants:
		rec, err := s.recruitments.FindByID(ctx, req.TargetID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "recruitment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recruitment")
		}
		if rec.ClubName != club {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "recruitment belongs to another club")
		}
	}

	job := &models.ExportJob{
		Kind:        req.Kind,
		TargetID:    req.TargetID,
		ClubName:    club,
		Format:      req.Format,
		RequestedBy: admin.ID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(req.Kind)}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "queue unavailable"); markErr != nil {
			s.logger.Error("failed to mark export job", zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// Status returns one export job, club scoped.
func (s *ExportService) Status(ctx context.Context, admin *models.User, jobID string) (*models.ExportJob, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.ClubName != admin.AdminClub() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export belongs to another club")
	}
	return job, nil
}

// List returns the admin's club export jobs.
func (s *ExportService) List(ctx context.Context, admin *models.User, page, size int) ([]models.ExportJob, *models.Pagination, error) {
	jobsList, total, err := s.repo.ListByClub(ctx, admin.AdminClub(), page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export jobs")
	}
	page, size = normalizePage(page, size)
	return jobsList, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// OpenDownload validates a signed token and returns the stored file.
func (s *ExportService) OpenDownload(ctx context.Context, token string) (*os.File, *models.ExportJob, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportCompleted || job.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export file not available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return file, job, nil
}

// CleanupExpired removes files and rows of jobs whose download window
// lapsed. Run periodically.
func (s *ExportService) CleanupExpired(ctx context.Context) {
	expired, err := s.repo.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Warn("failed to list expired exports", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.FilePath != "" {
			if err := s.storage.Delete(job.FilePath); err != nil {
				s.logger.Warn("failed to delete expired export file", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
		if err := s.repo.Delete(ctx, job.ID); err != nil {
			s.logger.Warn("failed to delete expired export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func (s *ExportService) process(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.FindByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	if job.Status != models.ExportPending {
		return nil
	}
	if err := s.repo.MarkProcessing(ctx, job.ID); err != nil {
		return fmt.Errorf("mark export job %s: %w", job.ID, err)
	}

	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return s.fail(ctx, job, err)
	}

	var payload []byte
	switch job.Format {
	case models.ExportCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return s.fail(ctx, job, err)
	}

	filename := fmt.Sprintf("%s_%s_%s.%s", job.Kind, job.TargetID, job.ID, job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return s.fail(ctx, job, err)
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return s.fail(ctx, job, err)
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	downloadURL := fmt.Sprintf("%s/exports/download/%s", prefix, token)

	if err := s.repo.MarkCompleted(ctx, job.ID, relPath, downloadURL, expiresAt); err != nil {
		return fmt.Errorf("complete export job %s: %w", job.ID, err)
	}

	s.logger.Info("export completed",
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.String("format", string(job.Format)),
	)
	return nil
}

func (s *ExportService) fail(ctx context.Context, job *models.ExportJob, cause error) error {
	if err := s.repo.MarkFailed(ctx, job.ID, cause.Error()); err != nil {
		s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.logger.Warn("export failed", zap.String("job_id", job.ID), zap.Error(cause))
	return nil
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Kind {
	case models.ExportEventRegistrations:
		event, err := s.events.FindByID(ctx, job.TargetID)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load event: %w", err)
		}
		regs, err := s.registrations.ListAllByEvent(ctx, job.TargetID)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load registrations: %w", err)
		}
		return registrationsDataset(regs), "Registrations: " + event.Title, nil
	case models.ExportRecruitmentApplicants:
		rec, err := s.recruitments.FindByID(ctx, job.TargetID)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load recruitment: %w", err)
		}
		apps, err := s.applications.ListAllByRecruitment(ctx, job.TargetID)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load applications: %w", err)
		}
		return applicationsDataset(rec, apps), "Applicants: " + rec.Title, nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export kind %s", job.Kind)
	}
}

func registrationsDataset(regs []models.EventRegistration) export.Dataset {
	headers := []string{"Name", "Roll Number", "Department", "Email", "Phone", "Status", "Registered At"}
	rows := make([]map[string]string, 0, len(regs))
	for _, r := range regs {
		rows = append(rows, map[string]string{
			"Name":          r.StudentName,
			"Roll Number":   r.RollNumber,
			"Department":    r.Department,
			"Email":         r.Email,
			"Phone":         r.Phone,
			"Status":        string(r.Status),
			"Registered At": r.CreatedAt.Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func applicationsDataset(rec *models.Recruitment, apps []models.ClubApplication) export.Dataset {
	headers := []string{"Name", "Roll Number", "Department", "Email", "Phone", "Position", "Status", "Applied At"}
	for _, q := range rec.Questions {
		headers = append(headers, q.QuestionText)
	}
	rows := make([]map[string]string, 0, len(apps))
	for _, a := range apps {
		row := map[string]string{
			"Name":        a.StudentName,
			"Roll Number": a.RollNumber,
			"Department":  a.Department,
			"Email":       a.Email,
			"Phone":       a.Phone,
			"Position":    a.AppliedPosition,
			"Status":      string(a.Status),
			"Applied At":  a.CreatedAt.Format(time.RFC3339),
		}
		for _, qa := range a.Answers {
			row[qa.QuestionText] = qa.Answer.String()
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
