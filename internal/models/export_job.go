package models

import "time"

// ExportKind selects which roster an export job renders.
type ExportKind string

const (
	ExportEventRegistrations    ExportKind = "event_registrations"
	ExportRecruitmentApplicants ExportKind = "recruitment_applications"
)

// Valid reports whether the kind belongs to the enumeration.
func (k ExportKind) Valid() bool {
	return k == ExportEventRegistrations || k == ExportRecruitmentApplicants
}

// ExportFormat selects the rendered file format.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// Valid reports whether the format belongs to the enumeration.
func (f ExportFormat) Valid() bool {
	return f == ExportCSV || f == ExportPDF
}

// ExportStatus is the lifecycle of an export job.
type ExportStatus string

const (
	ExportPending    ExportStatus = "pending"
	ExportProcessing ExportStatus = "processing"
	ExportCompleted  ExportStatus = "completed"
	ExportFailed     ExportStatus = "failed"
)

// ExportJob tracks an asynchronous roster export requested by a club
// admin. Completed jobs reference the stored file and a signed download
// token with an expiry.
type ExportJob struct {
	ID          string       `db:"id" json:"id"`
	Kind        ExportKind   `db:"kind" json:"kind"`
	TargetID    string       `db:"target_id" json:"target_id"`
	ClubName    ClubName     `db:"club_name" json:"club_name"`
	Format      ExportFormat `db:"format" json:"format"`
	Status      ExportStatus `db:"status" json:"status"`
	RequestedBy string       `db:"requested_by" json:"requested_by"`
	FilePath    string       `db:"file_path" json:"-"`
	DownloadURL string       `db:"download_url" json:"download_url,omitempty"`
	Error       string       `db:"error" json:"error,omitempty"`
	ExpiresAt   *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}
