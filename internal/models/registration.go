package models

import "time"

// RegistrationStatus is the lifecycle of an event registration.
type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationConfirmed  RegistrationStatus = "confirmed"
	RegistrationAttended   RegistrationStatus = "attended"
	RegistrationCancelled  RegistrationStatus = "cancelled"
)

// EventRegistration links a student to an event. Student identity fields
// are snapshotted at submission time and never re-synchronised with later
// profile edits; historical rosters stay audit-stable. A unique index on
// (event_id, student_id) covers every status, so a cancelled registration
// still occupies the slot.
type EventRegistration struct {
	ID             string             `db:"id" json:"id"`
	EventID        string             `db:"event_id" json:"event_id"`
	StudentID      string             `db:"student_id" json:"student_id"`
	StudentName    string             `db:"student_name" json:"student_name"`
	RollNumber     string             `db:"roll_number" json:"roll_number"`
	Department     string             `db:"department" json:"department"`
	Email          string             `db:"email" json:"email"`
	Phone          string             `db:"phone" json:"phone,omitempty"`
	Status         RegistrationStatus `db:"status" json:"status"`
	AdditionalInfo string             `db:"additional_info" json:"additional_info,omitempty"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// RegistrationDetail enriches a registration with event context.
type RegistrationDetail struct {
	EventRegistration
	EventTitle string    `db:"event_title" json:"event_title"`
	EventDate  time.Time `db:"event_date" json:"event_date"`
	EventTime  string    `db:"event_time" json:"event_time"`
	EventVenue string    `db:"event_venue" json:"event_venue"`
	EventClub  ClubName  `db:"event_club" json:"event_club"`
}
