package repository

import (
	"database/sql"
	"fmt"
	"time"

	"starquest/internal/database"
	"starquest/internal/models"
)

// ProgressRepository handles database operations for progress records
type ProgressRepository struct {
	db *database.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *database.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `id, user_id, module_id, video_watched, percentage, completed,
		quiz_attempt, last_accessed, created_at, updated_at`

// Get retrieves the progress record for one (user, module) pair, nil when absent
func (r *ProgressRepository) Get(userID, moduleID string) (*models.Progress, error) {
	query := "SELECT " + progressColumns + " FROM progress WHERE user_id = ? AND module_id = ?"
	p, err := r.scanRow(r.db.QueryRow(query, userID, moduleID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListByUser retrieves all progress records for a user, most recent first
func (r *ProgressRepository) ListByUser(userID string) ([]models.Progress, error) {
	query := "SELECT " + progressColumns + " FROM progress WHERE user_id = ? ORDER BY updated_at DESC"
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var records []models.Progress
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *p)
	}
	return records, rows.Err()
}

// Insert creates a progress record. The caller guarantees no record exists
// for the pair (upsert serialization happens in the service).
func (r *ProgressRepository) Insert(p *models.Progress) error {
	attempt, err := marshalJSON(p.QuizAttempt)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO progress (id, user_id, module_id, video_watched, percentage, completed,
			quiz_attempt, last_accessed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		p.ID, p.UserID, p.ModuleID, p.VideoWatched, p.Percentage, p.Completed,
		attempt, p.LastAccessed, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert progress: %w", err)
	}
	return nil
}

// Update overwrites the stored state for an existing record
func (r *ProgressRepository) Update(p *models.Progress) error {
	attempt, err := marshalJSON(p.QuizAttempt)
	if err != nil {
		return err
	}

	query := `
		UPDATE progress
		SET video_watched = ?, percentage = ?, completed = ?, quiz_attempt = ?,
			last_accessed = ?, updated_at = ?
		WHERE user_id = ? AND module_id = ?
	`
	_, err = r.db.Exec(query,
		p.VideoWatched, p.Percentage, p.Completed, attempt,
		p.LastAccessed, time.Now(), p.UserID, p.ModuleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

func (r *ProgressRepository) scanRow(row rowScanner) (*models.Progress, error) {
	p := &models.Progress{}
	var attempt string

	err := row.Scan(
		&p.ID, &p.UserID, &p.ModuleID, &p.VideoWatched, &p.Percentage, &p.Completed,
		&attempt, &p.LastAccessed, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan progress: %w", err)
	}

	if err := unmarshalJSON(attempt, &p.QuizAttempt); err != nil {
		return nil, err
	}
	return p, nil
}
