package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/club-portal-api/internal/models"
)

// ClubRepository handles persistence of club profiles.
type ClubRepository struct {
	db *sqlx.DB
}

// NewClubRepository constructs the repository.
func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

// FindByName returns the profile row for a club.
func (r *ClubRepository) FindByName(ctx context.Context, name models.ClubName) (*models.Club, error) {
	const query = `SELECT id, name, description, popular_people, created_at, updated_at
        FROM clubs WHERE name = $1`
	var club models.Club
	if err := r.db.GetContext(ctx, &club, query, name); err != nil {
		return nil, err
	}
	return &club, nil
}

// Upsert writes a club profile, keyed by name.
func (r *ClubRepository) Upsert(ctx context.Context, club *models.Club) error {
	if club.ID == "" {
		club.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if club.CreatedAt.IsZero() {
		club.CreatedAt = now
	}
	club.UpdatedAt = now
	const query = `INSERT INTO clubs (id, name, description, popular_people, created_at, updated_at)
        VALUES (:id, :name, :description, :popular_people, :created_at, :updated_at)
        ON CONFLICT (name) DO UPDATE SET
        description = EXCLUDED.description,
        popular_people = EXCLUDED.popular_people,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, club); err != nil {
		return fmt.Errorf("upsert club: %w", err)
	}
	return nil
}

// EnsureDefaults seeds an empty profile row for every known club that
// does not have one yet.
func (r *ClubRepository) EnsureDefaults(ctx context.Context) error {
	for _, name := range models.AllClubs {
		if _, err := r.FindByName(ctx, name); err == nil {
			continue
		} else if err != sql.ErrNoRows {
			return fmt.Errorf("check club %s: %w", name, err)
		}
		club := &models.Club{Name: name, PopularPeople: models.ClubPersonList{}}
		if err := r.Upsert(ctx, club); err != nil {
			return err
		}
	}
	return nil
}
