package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"starquest/internal/credentials"
	"starquest/internal/models"
	"starquest/internal/repository"
	"starquest/internal/security"
	"starquest/internal/validation"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNotAStudent  = errors.New("account has no parent link")
)

// profileAllowList names the fields UpdateProfile will accept
var profileAllowList = map[string]bool{
	"username":       true,
	"email":          true,
	"age":            true,
	"preferences":    true,
	"profilePicture": true,
}

// UserService handles profile and family operations
type UserService struct {
	userRepo *repository.UserRepository
	email    *EmailService
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, email *EmailService) *UserService {
	return &UserService{userRepo: userRepo, email: email}
}

// GetProfile fetches a user by id
func (s *UserService) GetProfile(id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ProfileUpdate carries the allow-listed profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Username       *string             `json:"username"`
	Email          *string             `json:"email"`
	Age            *int                `json:"age"`
	Preferences    *models.Preferences `json:"preferences"`
	ProfilePicture *string             `json:"profilePicture"`
}

// UpdateProfile applies an allow-listed partial update to a profile.
// Unknown field names are rejected before any change is applied.
func (s *UserService) UpdateProfile(id string, update ProfileUpdate, providedFields []string) (*models.User, error) {
	for _, field := range providedFields {
		if !profileAllowList[field] {
			return nil, validation.ValidationError{Field: field, Message: "field cannot be updated"}
		}
	}

	user, err := s.GetProfile(id)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		if err := validation.ValidateUsername(*update.Username); err != nil {
			return nil, err
		}
		user.Username = strings.TrimSpace(*update.Username)
	}
	if update.Email != nil {
		if err := validation.ValidateEmail(*update.Email); err != nil {
			return nil, err
		}
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email != user.Email {
			existing, err := s.userRepo.GetByEmail(email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if existing != nil {
				return nil, ErrEmailTaken
			}
			user.Email = email
		}
	}
	if update.Age != nil {
		if err := validation.ValidateAge(*update.Age); err != nil {
			return nil, err
		}
		user.Age = update.Age
	}
	if update.Preferences != nil {
		if !update.Preferences.MaxDifficulty.Valid() {
			return nil, validation.ValidationError{Field: "preferences.maxDifficulty", Message: "unknown difficulty"}
		}
		user.Preferences = *update.Preferences
	}
	if update.ProfilePicture != nil {
		user.ProfilePicture = *update.ProfilePicture
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// DeleteAccount removes a user together with their progress records
func (s *UserService) DeleteAccount(id string) error {
	user, err := s.GetProfile(id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(user.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// ListChildren returns all student accounts linked to a parent
func (s *UserService) ListChildren(parentID string) ([]models.User, error) {
	children, err := s.userRepo.ListChildren(parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return children, nil
}

// ChildInput carries a parent's request to create a child account.
// Username and password are generated when omitted.
type ChildInput struct {
	Username string
	Email    string
	Password string
	Age      *int
}

// ChildAccount pairs a created child with its starter password, which is
// shown to the parent exactly once.
type ChildAccount struct {
	User            *models.User
	StarterPassword string
}

// CreateChild creates a student account linked to the parent
func (s *UserService) CreateChild(ctx context.Context, parentID string, input ChildInput) (*ChildAccount, error) {
	parent, err := s.GetProfile(parentID)
	if err != nil {
		return nil, err
	}
	if parent.Role != models.RoleParent {
		return nil, ErrParentNotFound
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username, err = credentials.GenerateChildUsername()
		if err != nil {
			return nil, fmt.Errorf("failed to generate username: %w", err)
		}
	}

	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	if input.Age != nil {
		if err := validation.ValidateAge(*input.Age); err != nil {
			return nil, err
		}
	}

	password := input.Password
	if password == "" {
		password, err = credentials.GenerateChildPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to generate password: %w", err)
		}
	} else if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	child := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleStudent,
		Age:          input.Age,
		ParentID:     parent.ID,
		Preferences:  models.DefaultPreferences(),
		Badges:       []string{},
		Subscription: models.Subscription{Status: "INACTIVE"},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(child); err != nil {
		return nil, fmt.Errorf("failed to create child account: %w", err)
	}

	if s.email != nil && s.email.IsEnabled() {
		if err := s.email.SendChildWelcomeEmail(ctx, parent.Email, parent.Username, username, password); err != nil {
			log.Printf("Warning: failed to send welcome email to %s: %v", parent.Email, err)
		}
	}

	return &ChildAccount{User: child, StarterPassword: password}, nil
}

// GetParent resolves a student's linked parent account
func (s *UserService) GetParent(childID string) (*models.User, error) {
	child, err := s.GetProfile(childID)
	if err != nil {
		return nil, err
	}
	if child.ParentID == "" {
		return nil, ErrNotAStudent
	}

	parent, err := s.userRepo.GetByID(child.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return nil, ErrUserNotFound
	}
	return parent, nil
}

// IsParentOf reports whether parentID is the declared parent of childID
func (s *UserService) IsParentOf(parentID, childID string) (bool, error) {
	child, err := s.userRepo.GetByID(childID)
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	return child != nil && child.ParentID == parentID, nil
}
