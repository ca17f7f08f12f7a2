package handlers

import (
	"net/http"

	"starquest/internal/service"
)

// QuizHandler handles quiz retrieval and grading HTTP requests
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// GetQuiz returns a module's quiz with answer markers stripped
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	module, err := h.quizService.QuizForModule(r.PathValue("moduleId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"moduleId": module.ID,
		"title":    module.Title,
		"quiz":     module.Quiz,
	})
}

type gradeRequest struct {
	ModuleID string   `json:"moduleId"`
	Answers  []string `json:"answers"`
}

// Grade scores a quiz submission without recording progress
func (h *QuizHandler) Grade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.quizService.GradeModule(req.ModuleID, req.Answers)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
