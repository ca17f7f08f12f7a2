package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"starquest/internal/models"
	"starquest/internal/repository"
	"starquest/internal/security"
	"starquest/internal/validation"
)

// CatalogDump is the on-disk shape of a catalog export
type CatalogDump struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Seasons    []models.Season `json:"seasons"`
	Modules    []models.Module `json:"modules"`
}

// SeedService imports and exports the content catalog and provisions
// admin accounts. Used by the seed CLI, not the HTTP surface.
type SeedService struct {
	userRepo   *repository.UserRepository
	moduleRepo *repository.ModuleRepository
	seasonRepo *repository.SeasonRepository
}

// NewSeedService creates a new seed service
func NewSeedService(userRepo *repository.UserRepository, moduleRepo *repository.ModuleRepository, seasonRepo *repository.SeasonRepository) *SeedService {
	return &SeedService{
		userRepo:   userRepo,
		moduleRepo: moduleRepo,
		seasonRepo: seasonRepo,
	}
}

// Export writes the full catalog, inactive entries included, to a JSON file
func (s *SeedService) Export(outputPath string) error {
	seasons, err := s.seasonRepo.List(false)
	if err != nil {
		return fmt.Errorf("failed to list seasons: %w", err)
	}
	modules, err := s.moduleRepo.List(repository.ModuleFilter{})
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}

	dump := CatalogDump{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Seasons:    seasons,
		Modules:    modules,
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}

	log.Printf("Exported %d seasons and %d modules", len(seasons), len(modules))
	return nil
}

// Import loads a catalog dump, upserting seasons and modules by ID
func (s *SeedService) Import(inputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var dump CatalogDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("failed to parse dump: %w", err)
	}

	for i := range dump.Seasons {
		season := dump.Seasons[i]
		if season.ID == "" {
			season.ID = uuid.New().String()
		}
		if season.CreatedAt.IsZero() {
			season.CreatedAt = time.Now()
		}
		if err := s.seasonRepo.Upsert(&season); err != nil {
			return fmt.Errorf("failed to upsert season %q: %w", season.Title, err)
		}
	}

	created, updated := 0, 0
	for i := range dump.Modules {
		module := dump.Modules[i]
		now := time.Now()
		if module.ID == "" {
			module.ID = uuid.New().String()
		}
		if module.CreatedAt.IsZero() {
			module.CreatedAt = now
		}
		module.UpdatedAt = now

		existing, err := s.moduleRepo.GetByID(module.ID)
		if err != nil {
			return fmt.Errorf("failed to check module %q: %w", module.Title, err)
		}
		if existing == nil {
			if err := s.moduleRepo.Create(&module); err != nil {
				return fmt.Errorf("failed to create module %q: %w", module.Title, err)
			}
			created++
			continue
		}
		if err := s.moduleRepo.Update(&module); err != nil {
			return fmt.Errorf("failed to update module %q: %w", module.Title, err)
		}
		updated++
	}

	log.Printf("Imported %d seasons, created %d modules, updated %d modules", len(dump.Seasons), created, updated)
	return nil
}

// CreateAdmin provisions an admin account. Admins cannot self-register
// through the API, this is the only way to mint one.
func (s *SeedService) CreateAdmin(username, email, password string) (*models.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Preferences:  models.DefaultPreferences(),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, nil
}
