package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"starquest/internal/models"
	"starquest/internal/repository"
	"starquest/internal/security"
	"starquest/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrInvalidRole        = errors.New("role must be student or parent")
	ErrParentNotFound     = errors.New("parent account not found")
)

// AuthService handles registration, login and password-reset flows
type AuthService struct {
	userRepo      *repository.UserRepository
	tokens        *security.TokenManager
	email         *EmailService
	resetTokenTTL time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenManager, email *EmailService, resetTokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		tokens:        tokens,
		email:         email,
		resetTokenTTL: resetTokenTTL,
	}
}

// RegisterInput carries a self-service registration request
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
	Age      *int
	ParentID string
}

// Register creates a new account and returns it with a signed access token.
// Only student and parent roles may self-register; a student's parent link,
// when provided, must point at an existing parent account.
func (s *AuthService) Register(input RegisterInput) (*models.User, string, error) {
	if err := validation.ValidateUsername(input.Username); err != nil {
		return nil, "", err
	}
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, "", err
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, "", err
	}

	role := input.Role
	if role == "" {
		role = models.RoleStudent
	}
	if role != models.RoleStudent && role != models.RoleParent {
		return nil, "", ErrInvalidRole
	}

	if role == models.RoleStudent && input.Age != nil {
		if err := validation.ValidateAge(*input.Age); err != nil {
			return nil, "", err
		}
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	parentID := ""
	if role == models.RoleStudent && input.ParentID != "" {
		parent, err := s.userRepo.GetByID(input.ParentID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to check parent: %w", err)
		}
		if parent == nil || parent.Role != models.RoleParent {
			return nil, "", ErrParentNotFound
		}
		parentID = parent.ID
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     strings.TrimSpace(input.Username),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		ParentID:     parentID,
		Preferences:  models.DefaultPreferences(),
		Badges:       []string{},
		Subscription: models.Subscription{Status: "INACTIVE"},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == models.RoleStudent {
		user.Age = input.Age
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// Login authenticates by email and password and returns a signed access token.
// Unknown emails and wrong passwords fail identically.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		log.Printf("Warning: failed to record last login for %s: %v", user.ID, err)
	}

	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// RequestPasswordReset issues a reset token for the account holding the email
// and delivers it by email. Only the token's hash is stored. The raw token is
// returned to the caller for out-of-band delivery and must never appear in an
// HTTP response. Unknown emails return ("", nil) so handlers cannot leak
// account existence.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", nil
	}

	token, err := security.GenerateResetToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	expiresAt := time.Now().Add(s.resetTokenTTL)
	if err := s.userRepo.SetResetToken(user.ID, security.HashResetToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	if s.email != nil && s.email.IsEnabled() {
		if err := s.email.SendPasswordResetEmail(ctx, user.Email, user.Username, token); err != nil {
			return "", fmt.Errorf("failed to send reset email: %w", err)
		}
	}

	return token, nil
}

// ResetPassword consumes a reset token and sets a new password
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByResetTokenHash(security.HashResetToken(token), time.Now())
	if err != nil {
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	if user == nil {
		return ErrInvalidResetToken
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// UpdatePassword also clears the token fields, making the token single-use
	if err := s.userRepo.UpdatePassword(user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// CleanupExpiredResetTokens removes reset tokens past their expiry
func (s *AuthService) CleanupExpiredResetTokens() error {
	if err := s.userRepo.ClearExpiredResetTokens(); err != nil {
		return fmt.Errorf("failed to cleanup reset tokens: %w", err)
	}
	return nil
}
