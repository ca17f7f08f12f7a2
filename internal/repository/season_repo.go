package repository

import (
	"database/sql"
	"fmt"

	"starquest/internal/database"
	"starquest/internal/models"
)

// SeasonRepository handles database operations for seasons
type SeasonRepository struct {
	db *database.DB
}

// NewSeasonRepository creates a new season repository
func NewSeasonRepository(db *database.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

// List retrieves seasons in phase order
func (r *SeasonRepository) List(activeOnly bool) ([]models.Season, error) {
	query := "SELECT id, title, COALESCE(description, ''), phase, is_active, created_at FROM seasons"
	if activeOnly {
		query += " WHERE is_active = ?"
	}
	query += " ORDER BY phase, created_at"

	var (
		rows *sql.Rows
		err  error
	)
	if activeOnly {
		rows, err = r.db.Query(query, true)
	} else {
		rows, err = r.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	defer rows.Close()

	var seasons []models.Season
	for rows.Next() {
		var s models.Season
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Phase, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

// GetByID retrieves a season, nil when absent
func (r *SeasonRepository) GetByID(id string) (*models.Season, error) {
	query := "SELECT id, title, COALESCE(description, ''), phase, is_active, created_at FROM seasons WHERE id = ?"
	var s models.Season
	err := r.db.QueryRow(query, id).Scan(&s.ID, &s.Title, &s.Description, &s.Phase, &s.IsActive, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get season: %w", err)
	}
	return &s, nil
}

// Upsert inserts a season or updates its metadata when the id exists
func (r *SeasonRepository) Upsert(s *models.Season) error {
	existing, err := r.GetByID(s.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		query := "INSERT INTO seasons (id, title, description, phase, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)"
		if _, err := r.db.Exec(query, s.ID, s.Title, s.Description, s.Phase, s.IsActive, s.CreatedAt); err != nil {
			return fmt.Errorf("failed to create season: %w", err)
		}
		return nil
	}

	query := "UPDATE seasons SET title = ?, description = ?, phase = ?, is_active = ? WHERE id = ?"
	if _, err := r.db.Exec(query, s.Title, s.Description, s.Phase, s.IsActive, s.ID); err != nil {
		return fmt.Errorf("failed to update season: %w", err)
	}
	return nil
}
