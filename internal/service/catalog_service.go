package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"starquest/internal/models"
	"starquest/internal/repository"
	"starquest/internal/validation"
)

var (
	ErrModuleNotFound = errors.New("module not found")
	ErrSeasonNotFound = errors.New("season not found")
	ErrModuleExists   = errors.New("module id already exists")
)

// CatalogService handles module and season listing and admin mutations
type CatalogService struct {
	moduleRepo *repository.ModuleRepository
	seasonRepo *repository.SeasonRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(moduleRepo *repository.ModuleRepository, seasonRepo *repository.SeasonRepository) *CatalogService {
	return &CatalogService{moduleRepo: moduleRepo, seasonRepo: seasonRepo}
}

// List returns catalog modules matching the filter in stable creation order.
// Non-admin callers see only active modules, with quiz answers stripped.
func (s *CatalogService) List(filter repository.ModuleFilter, admin bool) ([]models.Module, error) {
	if !admin {
		filter.ActiveOnly = true
	}
	modules, err := s.moduleRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	if !admin {
		for i := range modules {
			modules[i] = modules[i].StripAnswers()
		}
	}
	return modules, nil
}

// GetByID returns one module. Inactive modules are hidden from non-admins.
func (s *CatalogService) GetByID(id string, admin bool) (*models.Module, error) {
	module, err := s.moduleRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if module == nil || (!admin && !module.IsActive) {
		return nil, ErrModuleNotFound
	}
	if !admin {
		stripped := module.StripAnswers()
		return &stripped, nil
	}
	return module, nil
}

// GetWithAnswers returns an active module including its answer key.
// For internal use by the grader, never handed to clients.
func (s *CatalogService) GetWithAnswers(id string) (*models.Module, error) {
	module, err := s.moduleRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if module == nil || !module.IsActive {
		return nil, ErrModuleNotFound
	}
	return module, nil
}

// ListBySeason returns a season's modules
func (s *CatalogService) ListBySeason(seasonID string, admin bool) ([]models.Module, error) {
	season, err := s.seasonRepo.GetByID(seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get season: %w", err)
	}
	if season == nil {
		return nil, ErrSeasonNotFound
	}
	return s.List(repository.ModuleFilter{SeasonID: seasonID}, admin)
}

// ListSeasons returns the season groupings in phase order
func (s *CatalogService) ListSeasons() ([]models.Season, error) {
	seasons, err := s.seasonRepo.List(true)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	return seasons, nil
}

// Create adds a catalog module (admin only)
func (s *CatalogService) Create(m *models.Module) (*models.Module, error) {
	if err := validateModule(m); err != nil {
		return nil, err
	}

	existing, err := s.moduleRepo.GetByID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check module id: %w", err)
	}
	if existing != nil {
		return nil, ErrModuleExists
	}

	now := time.Now()
	m.IsActive = true
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Duration == "" {
		m.Duration = "10 min"
	}

	if err := s.moduleRepo.Create(m); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}
	return m, nil
}

// ModuleUpdate carries a partial module change (admin only). Nil means unchanged.
type ModuleUpdate struct {
	Title       *string                `json:"title"`
	AgeGroup    *models.AgeGroup       `json:"ageGroup"`
	Difficulty  *models.Difficulty     `json:"difficulty"`
	Description *string                `json:"description"`
	Duration    *string                `json:"duration"`
	VideoURL    *string                `json:"videoUrl"`
	Thumbnail   *string                `json:"thumbnail"`
	Phase       *int                   `json:"phase"`
	SeasonID    *string                `json:"seasonId"`
	Quiz        *[]models.QuizQuestion `json:"quiz"`
	Skills      *[]string              `json:"skills"`
	Tags        *[]string              `json:"tags"`
	IsActive    *bool                  `json:"isActive"`
}

// Update applies a partial merge to an existing module
func (s *CatalogService) Update(id string, update ModuleUpdate) (*models.Module, error) {
	module, err := s.moduleRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if module == nil {
		return nil, ErrModuleNotFound
	}

	if update.Title != nil {
		module.Title = *update.Title
	}
	if update.AgeGroup != nil {
		module.AgeGroup = *update.AgeGroup
	}
	if update.Difficulty != nil {
		module.Difficulty = *update.Difficulty
	}
	if update.Description != nil {
		module.Description = *update.Description
	}
	if update.Duration != nil {
		module.Duration = *update.Duration
	}
	if update.VideoURL != nil {
		module.VideoURL = *update.VideoURL
	}
	if update.Thumbnail != nil {
		module.Thumbnail = *update.Thumbnail
	}
	if update.Phase != nil {
		module.Phase = *update.Phase
	}
	if update.SeasonID != nil {
		module.SeasonID = *update.SeasonID
	}
	if update.Quiz != nil {
		module.Quiz = *update.Quiz
	}
	if update.Skills != nil {
		module.Skills = *update.Skills
	}
	if update.Tags != nil {
		module.Tags = *update.Tags
	}
	if update.IsActive != nil {
		module.IsActive = *update.IsActive
	}

	if err := validateModule(module); err != nil {
		return nil, err
	}

	if err := s.moduleRepo.Update(module); err != nil {
		return nil, fmt.Errorf("failed to update module: %w", err)
	}
	return module, nil
}

// Delete soft-deletes a module by marking it inactive
func (s *CatalogService) Delete(id string) error {
	module, err := s.moduleRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to get module: %w", err)
	}
	if module == nil {
		return ErrModuleNotFound
	}
	if err := s.moduleRepo.SetActive(id, false); err != nil {
		return fmt.Errorf("failed to deactivate module: %w", err)
	}
	return nil
}

func validateModule(m *models.Module) error {
	if strings.TrimSpace(m.ID) == "" {
		return validation.ValidationError{Field: "id", Message: "module id is required"}
	}
	if strings.TrimSpace(m.Title) == "" {
		return validation.ValidationError{Field: "title", Message: "title is required"}
	}
	if !m.AgeGroup.Valid() {
		return validation.ValidationError{Field: "ageGroup", Message: "unknown age group"}
	}
	if !m.Difficulty.Valid() {
		return validation.ValidationError{Field: "difficulty", Message: "unknown difficulty"}
	}
	if m.Phase < 1 || m.Phase > 5 {
		return validation.ValidationError{Field: "phase", Message: "phase must be between 1 and 5"}
	}
	if strings.TrimSpace(m.SeasonID) == "" {
		return validation.ValidationError{Field: "seasonId", Message: "season id is required"}
	}
	for i, q := range m.Quiz {
		if err := validateQuestion(i, q); err != nil {
			return err
		}
	}
	return nil
}

func validateQuestion(index int, q models.QuizQuestion) error {
	field := fmt.Sprintf("quiz[%d]", index)
	switch q.Type {
	case models.QuestionMultipleChoice:
		correct := 0
		for _, opt := range q.Options {
			if opt.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return validation.ValidationError{Field: field, Message: "multiple-choice questions need exactly one correct option"}
		}
	case models.QuestionTrueFalse:
		if q.Correct == nil {
			return validation.ValidationError{Field: field, Message: "true-false questions need a correct flag"}
		}
	default:
		return validation.ValidationError{Field: field, Message: "unknown question type"}
	}
	return nil
}
