package repository

import (
	"database/sql"
	"fmt"
	"time"

	"starquest/internal/database"
	"starquest/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, age, COALESCE(parent_id, ''),
		COALESCE(profile_picture, ''), preferences, badges, subscription, is_active,
		last_login, COALESCE(reset_token_hash, ''), reset_token_expires, created_at, updated_at`

// Create inserts a new user
func (r *UserRepository) Create(user *models.User) error {
	preferences, err := marshalJSON(user.Preferences)
	if err != nil {
		return err
	}
	badges, err := marshalJSON(user.Badges)
	if err != nil {
		return err
	}
	subscription, err := marshalJSON(user.Subscription)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, role, age, parent_id,
			profile_picture, preferences, badges, subscription, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role),
		user.Age, nullableString(user.ParentID), user.ProfilePicture,
		preferences, badges, subscription, user.IsActive,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by email address, nil when absent
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanOne(r.db.QueryRow(query, email))
}

// GetByID retrieves a user by id, nil when absent
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByResetTokenHash retrieves the user holding an unexpired reset token hash
func (r *UserRepository) GetByResetTokenHash(hash string, now time.Time) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE reset_token_hash = ? AND reset_token_expires > ?"
	return r.scanOne(r.db.QueryRow(query, hash, now))
}

// ListChildren retrieves all student accounts linked to a parent
func (r *UserRepository) ListChildren(parentID string) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE parent_id = ? ORDER BY created_at"
	rows, err := r.db.Query(query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.User
	for rows.Next() {
		user, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, *user)
	}
	return children, rows.Err()
}

// Update persists profile fields changed through the allow-list
func (r *UserRepository) Update(user *models.User) error {
	preferences, err := marshalJSON(user.Preferences)
	if err != nil {
		return err
	}
	badges, err := marshalJSON(user.Badges)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET username = ?, email = ?, age = ?, profile_picture = ?,
			preferences = ?, badges = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query,
		user.Username, user.Email, user.Age, user.ProfilePicture,
		preferences, badges, user.IsActive, time.Now(), user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdatePassword sets a new password hash and clears any reset token
func (r *UserRepository) UpdatePassword(id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = ?, reset_token_hash = NULL, reset_token_expires = NULL, updated_at = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, passwordHash, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// SetResetToken stores the hash and expiry of an issued password-reset token
func (r *UserRepository) SetResetToken(id, tokenHash string, expiresAt time.Time) error {
	query := "UPDATE users SET reset_token_hash = ?, reset_token_expires = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, tokenHash, expiresAt, time.Now(), id); err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

// ClearExpiredResetTokens removes reset tokens past their expiry
func (r *UserRepository) ClearExpiredResetTokens() error {
	query := "UPDATE users SET reset_token_hash = NULL, reset_token_expires = NULL WHERE reset_token_expires < ?"
	if _, err := r.db.Exec(query, time.Now()); err != nil {
		return fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}
	return nil
}

// UpdateLastLogin records a successful login
func (r *UserRepository) UpdateLastLogin(id string) error {
	query := "UPDATE users SET last_login = ? WHERE id = ?"
	if _, err := r.db.Exec(query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// Delete removes a user and their progress records in one transaction
func (r *UserRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM progress WHERE user_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user progress: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	user, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) scanRow(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var (
		role         string
		preferences  string
		badges       string
		subscription string
		lastLogin    sql.NullTime
		resetExpires sql.NullTime
	)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &role, &user.Age,
		&user.ParentID, &user.ProfilePicture, &preferences, &badges, &subscription,
		&user.IsActive, &lastLogin, &user.ResetTokenHash, &resetExpires,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.Role = models.Role(role)
	if err := unmarshalJSON(preferences, &user.Preferences); err != nil {
		return nil, err
	}
	user.Badges = []string{}
	if err := unmarshalJSON(badges, &user.Badges); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(subscription, &user.Subscription); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	if resetExpires.Valid {
		t := resetExpires.Time
		user.ResetTokenExpires = &t
	}
	return user, nil
}

// nullableString maps "" to NULL for nullable columns
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
