package service

import (
	"testing"

	"starquest/internal/models"
)

func TestStarsForScore(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{score: 100, want: 3},
		{score: 90, want: 3},
		{score: 89, want: 2},
		{score: 70, want: 2},
		{score: 69, want: 1},
		{score: 50, want: 1},
		{score: 49, want: 0},
		{score: 0, want: 0},
	}

	for _, tt := range tests {
		if got := StarsForScore(tt.score); got != tt.want {
			t.Errorf("StarsForScore(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestApplySticky(t *testing.T) {
	truth := true
	falsehood := false
	forty := 40
	ninety := 90

	tests := []struct {
		name   string
		record models.Progress
		update models.ProgressUpdate
		want   models.Progress
	}{
		{
			name:   "fields move forward",
			record: models.Progress{},
			update: models.ProgressUpdate{VideoWatched: &truth, Percentage: &ninety, Completed: &truth},
			want:   models.Progress{VideoWatched: true, Percentage: 90, Completed: true},
		},
		{
			name:   "percentage never regresses",
			record: models.Progress{Percentage: 90},
			update: models.ProgressUpdate{Percentage: &forty},
			want:   models.Progress{Percentage: 90},
		},
		{
			name:   "booleans never unset",
			record: models.Progress{VideoWatched: true, Completed: true, Percentage: 100},
			update: models.ProgressUpdate{VideoWatched: &falsehood, Completed: &falsehood},
			want:   models.Progress{VideoWatched: true, Completed: true, Percentage: 100},
		},
		{
			name:   "omitted fields keep stored values",
			record: models.Progress{VideoWatched: true, Percentage: 55},
			update: models.ProgressUpdate{},
			want:   models.Progress{VideoWatched: true, Percentage: 55},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := tt.record
			applySticky(&record, tt.update)
			if record.VideoWatched != tt.want.VideoWatched {
				t.Errorf("VideoWatched = %v, want %v", record.VideoWatched, tt.want.VideoWatched)
			}
			if record.Percentage != tt.want.Percentage {
				t.Errorf("Percentage = %d, want %d", record.Percentage, tt.want.Percentage)
			}
			if record.Completed != tt.want.Completed {
				t.Errorf("Completed = %v, want %v", record.Completed, tt.want.Completed)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	t.Run("empty input yields zeroes", func(t *testing.T) {
		stats := ComputeStats(nil)
		if stats.TotalModules != 0 || stats.CompletedModules != 0 || stats.TotalStars != 0 ||
			stats.AvgProgress != 0 || stats.CompletionRate != 0 {
			t.Errorf("ComputeStats(nil) = %+v, want all zeroes", stats)
		}
	})

	t.Run("aggregates records", func(t *testing.T) {
		records := []models.Progress{
			{Percentage: 100, Completed: true, QuizAttempt: &models.QuizAttempt{Score: 95, Stars: 3}},
			{Percentage: 100, Completed: true, QuizAttempt: &models.QuizAttempt{Score: 60, Stars: 1}},
			{Percentage: 40},
		}

		stats := ComputeStats(records)
		if stats.TotalModules != 3 {
			t.Errorf("TotalModules = %d, want 3", stats.TotalModules)
		}
		if stats.CompletedModules != 2 {
			t.Errorf("CompletedModules = %d, want 2", stats.CompletedModules)
		}
		if stats.TotalStars != 4 {
			t.Errorf("TotalStars = %d, want 4", stats.TotalStars)
		}
		if stats.AvgProgress != 80 {
			t.Errorf("AvgProgress = %d, want 80", stats.AvgProgress)
		}
		if stats.CompletionRate != 67 {
			t.Errorf("CompletionRate = %d, want 67", stats.CompletionRate)
		}
	})

	t.Run("rounds the average", func(t *testing.T) {
		records := []models.Progress{
			{Percentage: 33},
			{Percentage: 33},
			{Percentage: 34},
		}
		stats := ComputeStats(records)
		// (33+33+34)/3 = 33.33 rounds to 33
		if stats.AvgProgress != 33 {
			t.Errorf("AvgProgress = %d, want 33", stats.AvgProgress)
		}
	})
}
