package repository

import (
	"database/sql"
	"fmt"
	"time"

	"starquest/internal/database"
	"starquest/internal/models"
)

// ModuleFilter narrows a catalog listing. Zero values mean "any".
type ModuleFilter struct {
	Phase      int
	AgeGroup   models.AgeGroup
	Difficulty models.Difficulty
	SeasonID   string
	ActiveOnly bool
}

// ModuleRepository handles database operations for catalog modules
type ModuleRepository struct {
	db *database.DB
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *database.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

const moduleColumns = `id, title, age_group, difficulty, description, duration,
		COALESCE(video_url, ''), COALESCE(thumbnail, ''), phase, season_id,
		quiz, badges, skills, tags, is_active, created_at, updated_at`

// Create inserts a new catalog module
func (r *ModuleRepository) Create(m *models.Module) error {
	quiz, err := marshalJSON(m.Quiz)
	if err != nil {
		return err
	}
	badges, err := marshalJSON(m.Badges)
	if err != nil {
		return err
	}
	skills, err := marshalJSON(m.Skills)
	if err != nil {
		return err
	}
	tags, err := marshalJSON(m.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO modules (id, title, age_group, difficulty, description, duration,
			video_url, thumbnail, phase, season_id, quiz, badges, skills, tags,
			is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		m.ID, m.Title, string(m.AgeGroup), string(m.Difficulty), m.Description, m.Duration,
		m.VideoURL, m.Thumbnail, m.Phase, m.SeasonID, quiz, badges, skills, tags,
		m.IsActive, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}
	return nil
}

// GetByID retrieves a module by its external id, nil when absent
func (r *ModuleRepository) GetByID(id string) (*models.Module, error) {
	query := "SELECT " + moduleColumns + " FROM modules WHERE id = ?"
	m, err := r.scanRow(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// List retrieves modules matching the filter in stable creation order
func (r *ModuleRepository) List(filter ModuleFilter) ([]models.Module, error) {
	query := "SELECT " + moduleColumns + " FROM modules WHERE 1=1"
	var args []interface{}

	if filter.ActiveOnly {
		query += " AND is_active = ?"
		args = append(args, true)
	}
	if filter.Phase != 0 {
		query += " AND phase = ?"
		args = append(args, filter.Phase)
	}
	if filter.AgeGroup != "" {
		query += " AND age_group = ?"
		args = append(args, string(filter.AgeGroup))
	}
	if filter.Difficulty != "" {
		query += " AND difficulty = ?"
		args = append(args, string(filter.Difficulty))
	}
	if filter.SeasonID != "" {
		query += " AND season_id = ?"
		args = append(args, filter.SeasonID)
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	var modules []models.Module
	for rows.Next() {
		m, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, *m)
	}
	return modules, rows.Err()
}

// Update persists changed module fields
func (r *ModuleRepository) Update(m *models.Module) error {
	quiz, err := marshalJSON(m.Quiz)
	if err != nil {
		return err
	}
	badges, err := marshalJSON(m.Badges)
	if err != nil {
		return err
	}
	skills, err := marshalJSON(m.Skills)
	if err != nil {
		return err
	}
	tags, err := marshalJSON(m.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE modules
		SET title = ?, age_group = ?, difficulty = ?, description = ?, duration = ?,
			video_url = ?, thumbnail = ?, phase = ?, season_id = ?, quiz = ?,
			badges = ?, skills = ?, tags = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query,
		m.Title, string(m.AgeGroup), string(m.Difficulty), m.Description, m.Duration,
		m.VideoURL, m.Thumbnail, m.Phase, m.SeasonID, quiz,
		badges, skills, tags, m.IsActive, time.Now(), m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	return nil
}

// SetActive flips a module's visibility (soft delete when false)
func (r *ModuleRepository) SetActive(id string, active bool) error {
	query := "UPDATE modules SET is_active = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, active, time.Now(), id); err != nil {
		return fmt.Errorf("failed to set module active flag: %w", err)
	}
	return nil
}

func (r *ModuleRepository) scanRow(row rowScanner) (*models.Module, error) {
	m := &models.Module{}
	var ageGroup, difficulty, quiz, badges, skills, tags string

	err := row.Scan(
		&m.ID, &m.Title, &ageGroup, &difficulty, &m.Description, &m.Duration,
		&m.VideoURL, &m.Thumbnail, &m.Phase, &m.SeasonID,
		&quiz, &badges, &skills, &tags, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan module: %w", err)
	}

	m.AgeGroup = models.AgeGroup(ageGroup)
	m.Difficulty = models.Difficulty(difficulty)
	if err := unmarshalJSON(quiz, &m.Quiz); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(badges, &m.Badges); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(skills, &m.Skills); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(tags, &m.Tags); err != nil {
		return nil, err
	}
	return m, nil
}
