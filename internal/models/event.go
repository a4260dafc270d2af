package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// EventType categorises campus events.
type EventType string

const (
	EventWorkshop    EventType = "workshop"
	EventSeminar     EventType = "seminar"
	EventCompetition EventType = "competition"
	EventCultural    EventType = "cultural"
	EventTechnical   EventType = "technical"
	EventOther       EventType = "other"
)

// Valid reports whether the event type belongs to the enumeration.
func (t EventType) Valid() bool {
	switch t {
	case EventWorkshop, EventSeminar, EventCompetition, EventCultural, EventTechnical, EventOther:
		return true
	}
	return false
}

// StringList stores a slice of strings as a JSONB column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Event is a one-time club event students may register for. Date and time
// are modelled separately: Date carries the calendar day used for deadline
// fallback and past-event checks, Time is a display string. Deleting an
// event flips IsActive; rows are never removed.
type Event struct {
	ID                   string     `db:"id" json:"id"`
	Title                string     `db:"title" json:"title"`
	Description          string     `db:"description" json:"description"`
	Date                 time.Time  `db:"date" json:"date"`
	Time                 string     `db:"time" json:"time"`
	Venue                string     `db:"venue" json:"venue"`
	ClubName             ClubName   `db:"club_name" json:"club_name"`
	CreatedBy            string     `db:"created_by" json:"created_by"`
	Image                *string    `db:"image" json:"image,omitempty"`
	MaxParticipants      *int       `db:"max_participants" json:"max_participants,omitempty"`
	RegistrationDeadline *time.Time `db:"registration_deadline" json:"registration_deadline,omitempty"`
	Tags                 StringList `db:"tags" json:"tags"`
	IsActive             bool       `db:"is_active" json:"is_active"`
	EventType            EventType  `db:"event_type" json:"event_type"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// EventDetail enriches Event with the creator's name.
type EventDetail struct {
	Event
	CreatorName string `db:"creator_name" json:"creator_name"`
}

// EventWithRegistration adds the calling student's registration state.
type EventWithRegistration struct {
	EventDetail
	IsRegistered bool `json:"is_registered"`
}

// EventFilter captures criteria for listing events.
type EventFilter struct {
	ClubName  ClubName
	EventType EventType
	Page      int
	PageSize  int
}
