package models

import "time"

// AgeGroup buckets catalog content by target age
type AgeGroup string

const (
	AgeGroup5to7   AgeGroup = "5-7"
	AgeGroup8to10  AgeGroup = "8-10"
	AgeGroup11to12 AgeGroup = "11-12"
)

// Valid reports whether the age group is one of the catalog buckets
func (g AgeGroup) Valid() bool {
	switch g {
	case AgeGroup5to7, AgeGroup8to10, AgeGroup11to12:
		return true
	}
	return false
}

// Difficulty grades catalog content
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether the difficulty is known
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// rank orders difficulties so a preference ceiling can be compared
func (d Difficulty) rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	}
	return 0
}

// WithinCeiling reports whether d is allowed under the given maximum difficulty
func (d Difficulty) WithinCeiling(max Difficulty) bool {
	if max == "" {
		return true
	}
	return d.rank() <= max.rank()
}

// Question types
const (
	QuestionMultipleChoice = "multipleChoice"
	QuestionTrueFalse      = "trueFalse"
)

// QuizOption is one selectable answer of a multiple-choice question
type QuizOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect,omitempty"`
}

// QuizQuestion is a single question attached to a module.
// Multiple-choice questions carry options with exactly one marked correct;
// true-false questions carry the Correct flag instead.
type QuizQuestion struct {
	Question   string       `json:"question"`
	Type       string       `json:"type"`
	Options    []QuizOption `json:"options,omitempty"`
	Correct    *bool        `json:"correct,omitempty"`
	Difficulty Difficulty   `json:"difficulty,omitempty"`
}

// CorrectAnswer returns the answer text a submission must match
func (q QuizQuestion) CorrectAnswer() string {
	if q.Type == QuestionTrueFalse {
		if q.Correct != nil && *q.Correct {
			return "true"
		}
		return "false"
	}
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return opt.Text
		}
	}
	return ""
}

// Badge is an award a module can grant
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Module is a catalog content unit: a lesson video plus an attached quiz
type Module struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	AgeGroup    AgeGroup       `json:"ageGroup"`
	Difficulty  Difficulty     `json:"difficulty"`
	Description string         `json:"description"`
	Duration    string         `json:"duration"`
	VideoURL    string         `json:"videoUrl,omitempty"`
	Thumbnail   string         `json:"thumbnail,omitempty"`
	Phase       int            `json:"phase"`
	SeasonID    string         `json:"seasonId"`
	Quiz        []QuizQuestion `json:"quiz,omitempty"`
	Badges      []Badge        `json:"badges,omitempty"`
	Skills      []string       `json:"skills,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// StripAnswers returns a copy of the module with correct-answer markers
// removed, safe to hand to non-admin clients.
func (m Module) StripAnswers() Module {
	if len(m.Quiz) == 0 {
		return m
	}
	stripped := make([]QuizQuestion, len(m.Quiz))
	for i, q := range m.Quiz {
		sq := q
		sq.Correct = nil
		if len(q.Options) > 0 {
			sq.Options = make([]QuizOption, len(q.Options))
			for j, opt := range q.Options {
				sq.Options[j] = QuizOption{Text: opt.Text}
			}
		}
		stripped[i] = sq
	}
	m.Quiz = stripped
	return m
}

// Season is a named grouping of modules presented as a unit
type Season struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Phase       int       `json:"phase"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}
