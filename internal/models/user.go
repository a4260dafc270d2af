package models

import "time"

// UserRole distinguishes students from club administrators.
type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleClubAdmin UserRole = "club_admin"
)

// User represents an account in the users table. Exactly one of the
// role-specific field sets is populated: students carry roll number and
// department, club admins carry a club name. Role is immutable after
// registration.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	RollNumber   *string   `db:"roll_number" json:"roll_number,omitempty"`
	Department   *string   `db:"department" json:"department,omitempty"`
	ClubName     *ClubName `db:"club_name" json:"club_name,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsStudent reports whether the user holds the student role.
func (u *User) IsStudent() bool {
	return u != nil && u.Role == RoleStudent
}

// AdminClub returns the admin's club, or empty when not an admin.
func (u *User) AdminClub() ClubName {
	if u == nil || u.Role != RoleClubAdmin || u.ClubName == nil {
		return ""
	}
	return *u.ClubName
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
