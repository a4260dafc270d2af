package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// QuestionFieldType enumerates the supported custom question kinds.
type QuestionFieldType string

const (
	FieldShortText   QuestionFieldType = "short_text"
	FieldLongText    QuestionFieldType = "long_text"
	FieldURL         QuestionFieldType = "url"
	FieldNumber      QuestionFieldType = "number"
	FieldSelect      QuestionFieldType = "select"
	FieldMultiSelect QuestionFieldType = "multiselect"
)

// Valid reports whether the field type belongs to the enumeration.
func (t QuestionFieldType) Valid() bool {
	switch t {
	case FieldShortText, FieldLongText, FieldURL, FieldNumber, FieldSelect, FieldMultiSelect:
		return true
	}
	return false
}

// IsSelect reports whether the field type constrains answers to options.
func (t QuestionFieldType) IsSelect() bool {
	return t == FieldSelect || t == FieldMultiSelect
}

// Question is one entry of a recruitment's custom question schema. The
// question text doubles as its identity: submitted answers are matched
// back to questions by exact text equality, there is no surrogate id.
type Question struct {
	QuestionText string            `json:"question_text"`
	FieldType    QuestionFieldType `json:"field_type"`
	Required     bool              `json:"required"`
	Options      []string          `json:"options,omitempty"`
}

// QuestionList stores the ordered question schema as a JSONB column.
type QuestionList []Question

// Value implements driver.Valuer.
func (l QuestionList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *QuestionList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// ByText indexes questions by their text.
func (l QuestionList) ByText() map[string]Question {
	index := make(map[string]Question, len(l))
	for _, q := range l {
		index[q.QuestionText] = q
	}
	return index
}

// Position is an open role within a recruitment drive. Count is
// descriptive only; it is not enforced as a quota.
type Position struct {
	Role         string `json:"role"`
	Count        int    `json:"count"`
	Requirements string `json:"requirements"`
}

// PositionList stores open positions as a JSONB column.
type PositionList []Position

// Value implements driver.Valuer.
func (l PositionList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *PositionList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// HasRole reports whether any position matches the given role name.
func (l PositionList) HasRole(role string) bool {
	for _, p := range l {
		if p.Role == role {
			return true
		}
	}
	return false
}

// Recruitment is a club's open call for members. Applications are accepted
// only while IsActive and before ApplicationDeadline.
type Recruitment struct {
	ID                  string       `db:"id" json:"id"`
	Title               string       `db:"title" json:"title"`
	Description         string       `db:"description" json:"description"`
	ClubName            ClubName     `db:"club_name" json:"club_name"`
	CreatedBy           string       `db:"created_by" json:"created_by"`
	Positions           PositionList `db:"positions" json:"positions"`
	Eligibility         string       `db:"eligibility" json:"eligibility"`
	ApplicationDeadline time.Time    `db:"application_deadline" json:"application_deadline"`
	ApplicationProcess  string       `db:"application_process" json:"application_process"`
	IsActive            bool         `db:"is_active" json:"is_active"`
	Tags                StringList   `db:"tags" json:"tags"`
	Questions           QuestionList `db:"questions" json:"questions"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updated_at"`
}

// RecruitmentDetail enriches Recruitment with the creator's name.
type RecruitmentDetail struct {
	Recruitment
	CreatorName string `db:"creator_name" json:"creator_name"`
}

// RecruitmentFilter captures criteria for listing recruitments.
type RecruitmentFilter struct {
	ClubName ClubName
	Page     int
	PageSize int
}
