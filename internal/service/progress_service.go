package service

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"starquest/internal/models"
	"starquest/internal/repository"
	"starquest/internal/validation"
)

// ProgressService tracks per-user, per-module completion state
type ProgressService struct {
	progressRepo *repository.ProgressRepository
	catalog      *CatalogService

	// locks serializes read-merge-write cycles per (user, module) pair so
	// concurrent partial updates cannot regress each other's fields
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewProgressService creates a new progress service
func NewProgressService(progressRepo *repository.ProgressRepository, catalog *CatalogService) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		catalog:      catalog,
		locks:        make(map[string]*sync.Mutex),
	}
}

func (s *ProgressService) lockPair(userID, moduleID string) *sync.Mutex {
	key := userID + "\x00" + moduleID
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Upsert applies a sticky partial update to the pair's progress record.
// Omitted fields keep their stored values; booleans can only be raised to
// true and the percentage never regresses below its stored value.
func (s *ProgressService) Upsert(userID, moduleID string, update models.ProgressUpdate) (*models.Progress, error) {
	if update.Percentage != nil {
		if err := validation.ValidatePercentage(*update.Percentage); err != nil {
			return nil, err
		}
	}

	if _, err := s.catalog.GetWithAnswers(moduleID); err != nil {
		return nil, err
	}

	lock := s.lockPair(userID, moduleID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.progressRepo.Get(userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	now := time.Now()
	if existing == nil {
		record := &models.Progress{
			ID:           uuid.New().String(),
			UserID:       userID,
			ModuleID:     moduleID,
			LastAccessed: now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		applySticky(record, update)
		if err := s.progressRepo.Insert(record); err != nil {
			return nil, err
		}
		return record, nil
	}

	applySticky(existing, update)
	existing.LastAccessed = now
	existing.UpdatedAt = now
	if err := s.progressRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// applySticky merges the provided fields into the record without regressions
func applySticky(record *models.Progress, update models.ProgressUpdate) {
	if update.VideoWatched != nil {
		record.VideoWatched = record.VideoWatched || *update.VideoWatched
	}
	if update.Percentage != nil && *update.Percentage > record.Percentage {
		record.Percentage = *update.Percentage
	}
	if update.Completed != nil {
		record.Completed = record.Completed || *update.Completed
	}
}

// StarsForScore maps a 0-100 quiz score to a 0-3 star award
func StarsForScore(score int) int {
	switch {
	case score >= 90:
		return 3
	case score >= 70:
		return 2
	case score >= 50:
		return 1
	default:
		return 0
	}
}

// SubmitQuiz records a quiz attempt for the pair. The attempt's stars follow
// the fixed score thresholds, and the module is forced to completed state
// regardless of prior progress.
func (s *ProgressService) SubmitQuiz(userID, moduleID string, answers []string, score int) (*models.Progress, error) {
	if score < 0 || score > 100 {
		return nil, validation.ValidationError{Field: "score", Message: "score must be between 0 and 100"}
	}

	if _, err := s.catalog.GetWithAnswers(moduleID); err != nil {
		return nil, err
	}

	lock := s.lockPair(userID, moduleID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.progressRepo.Get(userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	now := time.Now()
	attempt := &models.QuizAttempt{
		Answers:     answers,
		Score:       score,
		Stars:       StarsForScore(score),
		CompletedAt: now,
	}

	if existing == nil {
		record := &models.Progress{
			ID:           uuid.New().String(),
			UserID:       userID,
			ModuleID:     moduleID,
			VideoWatched: true,
			Percentage:   100,
			Completed:    true,
			QuizAttempt:  attempt,
			LastAccessed: now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.progressRepo.Insert(record); err != nil {
			return nil, err
		}
		return record, nil
	}

	existing.QuizAttempt = attempt
	existing.Completed = true
	existing.Percentage = 100
	existing.VideoWatched = true
	existing.LastAccessed = now
	existing.UpdatedAt = now
	if err := s.progressRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// List returns all of a user's progress records, most recently updated first
func (s *ProgressService) List(userID string) ([]models.Progress, error) {
	records, err := s.progressRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return records, nil
}

// GetForModule returns the pair's record, nil when the user has none
func (s *ProgressService) GetForModule(userID, moduleID string) (*models.Progress, error) {
	record, err := s.progressRepo.Get(userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return record, nil
}

// Stats aggregates a user's progress records
func (s *ProgressService) Stats(userID string) (*models.Stats, error) {
	records, err := s.progressRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	stats := ComputeStats(records)
	return &stats, nil
}

// ComputeStats derives the aggregate statistics for a set of progress
// records. Empty input yields all zeroes, never a division by zero.
func ComputeStats(records []models.Progress) models.Stats {
	stats := models.Stats{TotalModules: len(records)}
	if len(records) == 0 {
		return stats
	}

	percentageSum := 0
	for _, p := range records {
		if p.Completed {
			stats.CompletedModules++
		}
		if p.QuizAttempt != nil {
			stats.TotalStars += p.QuizAttempt.Stars
		}
		percentageSum += p.Percentage
	}

	stats.AvgProgress = int(math.Round(float64(percentageSum) / float64(len(records))))
	stats.CompletionRate = int(math.Round(100 * float64(stats.CompletedModules) / float64(stats.TotalModules)))
	return stats
}
