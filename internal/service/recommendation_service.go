package service

import (
	"fmt"

	"starquest/internal/models"
	"starquest/internal/repository"
)

// RecommendationService suggests unstarted modules to a user
type RecommendationService struct {
	moduleRepo   *repository.ModuleRepository
	progressRepo *repository.ProgressRepository
	userRepo     *repository.UserRepository
	limit        int
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(moduleRepo *repository.ModuleRepository, progressRepo *repository.ProgressRepository, userRepo *repository.UserRepository, limit int) *RecommendationService {
	if limit <= 0 {
		limit = 5
	}
	return &RecommendationService{
		moduleRepo:   moduleRepo,
		progressRepo: progressRepo,
		userRepo:     userRepo,
		limit:        limit,
	}
}

// ForUser returns up to the configured number of module suggestions. Modules
// the user has completed are excluded, students are matched to their age
// bucket, and the parental difficulty ceiling is always honored.
func (s *RecommendationService) ForUser(userID string) ([]models.Recommendation, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	filter := repository.ModuleFilter{ActiveOnly: true}
	if user.Role == models.RoleStudent {
		if group := user.AgeGroupFor(); group != "" {
			filter.AgeGroup = group
		}
	}

	modules, err := s.moduleRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	records, err := s.progressRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	completed := make(map[string]bool, len(records))
	started := make(map[string]bool, len(records))
	for _, p := range records {
		started[p.ModuleID] = true
		if p.Completed {
			completed[p.ModuleID] = true
		}
	}

	maxDifficulty := user.Preferences.MaxDifficulty

	recs := make([]models.Recommendation, 0, s.limit)
	for _, m := range modules {
		if completed[m.ID] {
			continue
		}
		if !m.Difficulty.WithinCeiling(maxDifficulty) {
			continue
		}
		recs = append(recs, models.Recommendation{
			ModuleID:  m.ID,
			Title:     m.Title,
			Thumbnail: m.Thumbnail,
			Reason:    reasonFor(m, started[m.ID]),
			Score:     scoreFor(m, started[m.ID]),
		})
		if len(recs) == s.limit {
			break
		}
	}
	return recs, nil
}

func reasonFor(m models.Module, started bool) string {
	if started {
		return "Pick up where you left off"
	}
	return fmt.Sprintf("New %s adventure in phase %d", m.Difficulty, m.Phase)
}

// scoreFor ranks in-progress modules above fresh ones within catalog order
func scoreFor(m models.Module, started bool) float64 {
	score := 0.5
	if started {
		score += 0.3
	}
	if m.Difficulty == models.DifficultyEasy {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}
