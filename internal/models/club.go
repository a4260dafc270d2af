package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ClubName identifies one of the campus clubs. The set is closed: the same
// enumeration is referenced by users, events and recruitments rather than
// being repeated as string literals per entity.
type ClubName string

const (
	ClubCSI        ClubName = "CSI"
	ClubGDSC       ClubName = "GDSC"
	ClubAptnusGana ClubName = "Aptnus Gana"
)

// AllClubs lists every known club in display order.
var AllClubs = []ClubName{ClubCSI, ClubGDSC, ClubAptnusGana}

// Valid reports whether the club name belongs to the closed set.
func (c ClubName) Valid() bool {
	switch c {
	case ClubCSI, ClubGDSC, ClubAptnusGana:
		return true
	}
	return false
}

// ClubPerson is a notable member shown on the club profile page.
type ClubPerson struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Image    string `json:"image,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// ClubPersonList stores notable members as a JSONB column.
type ClubPersonList []ClubPerson

// Value implements driver.Valuer.
func (l ClubPersonList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *ClubPersonList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Club is the profile record for a campus club.
type Club struct {
	ID            string         `db:"id" json:"id"`
	Name          ClubName       `db:"name" json:"name"`
	Description   string         `db:"description" json:"description"`
	PopularPeople ClubPersonList `db:"popular_people" json:"popular_people"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ClubProfile combines the club record with its event context.
type ClubProfile struct {
	Club           Club    `json:"club"`
	UpcomingEvents []Event `json:"upcoming_events"`
	PastEvents     []Event `json:"past_events"`
}

func scanJSON(src, dest interface{}) error {
	switch data := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(data, dest)
	case string:
		return json.Unmarshal([]byte(data), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
