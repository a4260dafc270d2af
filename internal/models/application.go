package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ApplicationStatus is the review lifecycle of a club application.
type ApplicationStatus string

const (
	ApplicationApplied     ApplicationStatus = "applied"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationSelected    ApplicationStatus = "selected"
	ApplicationRejected    ApplicationStatus = "rejected"
)

// Valid reports whether the status belongs to the enumeration.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationApplied, ApplicationUnderReview, ApplicationShortlisted, ApplicationSelected, ApplicationRejected:
		return true
	}
	return false
}

// AnswerKind tags the shape of a submitted answer value.
type AnswerKind int

const (
	AnswerEmpty AnswerKind = iota
	AnswerText
	AnswerNumber
	AnswerOptions
)

// AnswerValue holds one answer to a custom question. Submissions carry
// free text, a number or a list of selected options depending on the
// question's field type, so the value is a tagged variant resolved while
// decoding rather than an untyped blob carried through storage.
type AnswerValue struct {
	Kind    AnswerKind
	Text    string
	Number  float64
	Options []string
}

// UnmarshalJSON accepts a string, a number, null or an array of strings.
func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*a = AnswerValue{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AnswerValue{Kind: AnswerText, Text: s}
		return nil
	case '[':
		var opts []string
		if err := json.Unmarshal(data, &opts); err != nil {
			return fmt.Errorf("answer array must contain strings: %w", err)
		}
		*a = AnswerValue{Kind: AnswerOptions, Options: opts}
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported answer value %s", trimmed)
		}
		*a = AnswerValue{Kind: AnswerNumber, Number: n}
		return nil
	}
}

// MarshalJSON emits the original submitted shape.
func (a AnswerValue) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerNumber:
		return json.Marshal(a.Number)
	case AnswerOptions:
		if a.Options == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Options)
	default:
		return []byte("null"), nil
	}
}

// IsList reports whether the answer carries multiple option values.
func (a AnswerValue) IsList() bool {
	return a.Kind == AnswerOptions
}

// String renders the answer for display and emptiness checks.
func (a AnswerValue) String() string {
	switch a.Kind {
	case AnswerText:
		return a.Text
	case AnswerNumber:
		return strconv.FormatFloat(a.Number, 'f', -1, 64)
	case AnswerOptions:
		return strings.Join(a.Options, ", ")
	default:
		return ""
	}
}

// IsEmpty reports whether the answer, after trimming/stringifying, carries
// no content. Required questions reject empty answers.
func (a AnswerValue) IsEmpty() bool {
	if a.Kind == AnswerNumber {
		return false
	}
	return strings.TrimSpace(a.String()) == ""
}

// QuestionAnswer pairs a question text with its submitted answer.
type QuestionAnswer struct {
	QuestionText string      `json:"question_text"`
	Answer       AnswerValue `json:"answer"`
}

// AnswerList stores normalized answers as a JSONB column.
type AnswerList []QuestionAnswer

// Value implements driver.Valuer.
func (l AnswerList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *AnswerList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// ClubApplication links a student to a recruitment drive. Identity fields
// are snapshotted at submission time, with empty-string defaults when the
// profile lacks them. A unique index on (recruitment_id, student_id)
// guarantees at most one application per pair.
type ClubApplication struct {
	ID              string            `db:"id" json:"id"`
	RecruitmentID   string            `db:"recruitment_id" json:"recruitment_id"`
	StudentID       string            `db:"student_id" json:"student_id"`
	StudentName     string            `db:"student_name" json:"student_name"`
	RollNumber      string            `db:"roll_number" json:"roll_number"`
	Department      string            `db:"department" json:"department"`
	Email           string            `db:"email" json:"email"`
	Phone           string            `db:"phone" json:"phone"`
	AppliedPosition string            `db:"applied_position" json:"applied_position"`
	Experience      string            `db:"experience" json:"experience"`
	Skills          string            `db:"skills" json:"skills"`
	WhyJoin         string            `db:"why_join" json:"why_join"`
	Portfolio       string            `db:"portfolio" json:"portfolio"`
	Resume          string            `db:"resume" json:"resume"`
	Answers         AnswerList        `db:"answers" json:"answers"`
	Status          ApplicationStatus `db:"status" json:"status"`
	InterviewDate   *time.Time        `db:"interview_date" json:"interview_date,omitempty"`
	Feedback        string            `db:"feedback" json:"feedback,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// ApplicationDetail enriches an application with recruitment context.
type ApplicationDetail struct {
	ClubApplication
	RecruitmentTitle    string    `db:"recruitment_title" json:"recruitment_title"`
	RecruitmentClub     ClubName  `db:"recruitment_club" json:"recruitment_club"`
	RecruitmentDeadline time.Time `db:"recruitment_deadline" json:"recruitment_deadline"`
}
