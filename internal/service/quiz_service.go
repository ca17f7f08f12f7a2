package service

import (
	"math"
	"strings"

	"starquest/internal/models"
)

// QuestionResult is the graded outcome of a single question
type QuestionResult struct {
	Question      string `json:"question"`
	Submitted     string `json:"submitted"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
}

// GradeResult is the outcome of grading one quiz submission
type GradeResult struct {
	ModuleID     string           `json:"moduleId"`
	Score        int              `json:"score"`
	CorrectCount int              `json:"correctCount"`
	TotalCount   int              `json:"totalCount"`
	Results      []QuestionResult `json:"results"`
}

// QuizService grades quiz submissions against a module's question set
type QuizService struct {
	catalog *CatalogService
}

// NewQuizService creates a new quiz service
func NewQuizService(catalog *CatalogService) *QuizService {
	return &QuizService{catalog: catalog}
}

// QuizForModule returns a module's questions with answer markers stripped
func (s *QuizService) QuizForModule(moduleID string) (*models.Module, error) {
	return s.catalog.GetByID(moduleID, false)
}

// GradeModule loads a module and grades the answers against its quiz
func (s *QuizService) GradeModule(moduleID string, answers []string) (*GradeResult, error) {
	module, err := s.catalog.GetWithAnswers(moduleID)
	if err != nil {
		return nil, err
	}
	result := Grade(module.Quiz, answers)
	result.ModuleID = module.ID
	return result, nil
}

// Grade matches answers to questions positionally: answers[i] is graded
// against questions[i]. Extra answers are ignored; missing answers count as
// wrong. An answer is correct when its trimmed text equals the text of the
// option flagged correct (or "true"/"false" for true-false questions).
func Grade(questions []models.QuizQuestion, answers []string) *GradeResult {
	result := &GradeResult{
		TotalCount: len(questions),
		Results:    make([]QuestionResult, len(questions)),
	}

	for i, q := range questions {
		submitted := ""
		if i < len(answers) {
			submitted = strings.TrimSpace(answers[i])
		}

		correctAnswer := q.CorrectAnswer()
		correct := submitted != "" && answersEqual(q, submitted, correctAnswer)
		if correct {
			result.CorrectCount++
		}

		result.Results[i] = QuestionResult{
			Question:      q.Question,
			Submitted:     submitted,
			Correct:       correct,
			CorrectAnswer: correctAnswer,
		}
	}

	if result.TotalCount > 0 {
		result.Score = int(math.Round(100 * float64(result.CorrectCount) / float64(result.TotalCount)))
	}
	return result
}

func answersEqual(q models.QuizQuestion, submitted, correctAnswer string) bool {
	if q.Type == models.QuestionTrueFalse {
		return strings.EqualFold(submitted, correctAnswer)
	}
	return submitted == correctAnswer
}
