package models

import "time"

// QuizAttempt is the latest quiz result embedded in a progress record
type QuizAttempt struct {
	Answers     []string  `json:"answers"`
	Score       int       `json:"score"`
	Stars       int       `json:"stars"`
	CompletedAt time.Time `json:"completedAt"`
}

// Progress is the latest completion state for one (user, module) pair.
// At most one record exists per pair; updates are upserts, never appends.
type Progress struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	ModuleID     string       `json:"moduleId"`
	VideoWatched bool         `json:"videoWatched"`
	Percentage   int          `json:"progressPercentage"`
	Completed    bool         `json:"isCompleted"`
	QuizAttempt  *QuizAttempt `json:"quizAttempt,omitempty"`
	LastAccessed time.Time    `json:"lastAccessed"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ProgressUpdate carries a partial progress change. Nil fields were omitted
// by the caller and must not disturb stored values.
type ProgressUpdate struct {
	VideoWatched *bool `json:"videoWatched"`
	Percentage   *int  `json:"progressPercentage"`
	Completed    *bool `json:"isCompleted"`
}

// Stats aggregates a user's progress records
type Stats struct {
	TotalModules     int `json:"totalModules"`
	CompletedModules int `json:"completedModules"`
	TotalStars       int `json:"totalStars"`
	AvgProgress      int `json:"avgProgress"`
	CompletionRate   int `json:"completionRate"`
}
