package handlers

import (
	"net/http"

	"starquest/internal/models"
	"starquest/internal/service"
)

// ProgressHandler handles progress tracking HTTP requests
type ProgressHandler struct {
	progressService *service.ProgressService
	quizService     *service.QuizService
	access          *Middleware
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService *service.ProgressService, quizService *service.QuizService, access *Middleware) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		quizService:     quizService,
		access:          access,
	}
}

// targetUser resolves the user a request operates on: the body's userId when
// given, otherwise the caller. Returns "" after writing a 403 when the
// caller may not act on that user.
func (h *ProgressHandler) targetUser(w http.ResponseWriter, r *http.Request, bodyUserID string) string {
	principal := GetPrincipal(r.Context())
	target := bodyUserID
	if target == "" {
		target = principal.UserID
	}
	if !h.access.CanActOn(principal, target) {
		respondError(w, http.StatusForbidden, "access denied")
		return ""
	}
	return target
}

// ListForUser returns a user's progress records, most recently updated first
func (h *ProgressHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	records, err := h.progressService.List(r.PathValue("userId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// GetForModule returns a user's progress on one module
func (h *ProgressHandler) GetForModule(w http.ResponseWriter, r *http.Request) {
	record, err := h.progressService.GetForModule(r.PathValue("userId"), r.PathValue("moduleId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "no progress recorded for this module")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

type upsertProgressRequest struct {
	UserID       string `json:"userId"`
	ModuleID     string `json:"moduleId"`
	VideoWatched *bool  `json:"videoWatched"`
	Percentage   *int   `json:"progressPercentage"`
	Completed    *bool  `json:"isCompleted"`
}

// Upsert records a partial progress update for a module. State only moves
// forward: watched flags never unset and the percentage never drops.
func (h *ProgressHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertProgressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ModuleID == "" {
		respondError(w, http.StatusBadRequest, "moduleId is required")
		return
	}

	userID := h.targetUser(w, r, req.UserID)
	if userID == "" {
		return
	}

	record, err := h.progressService.Upsert(userID, req.ModuleID, models.ProgressUpdate{
		VideoWatched: req.VideoWatched,
		Percentage:   req.Percentage,
		Completed:    req.Completed,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

type submitQuizRequest struct {
	UserID   string   `json:"userId"`
	ModuleID string   `json:"moduleId"`
	Answers  []string `json:"answers"`
}

type submitQuizResponse struct {
	Progress *models.Progress     `json:"progress"`
	Result   *service.GradeResult `json:"result"`
}

// SubmitQuiz grades a submission server-side and records the attempt. The
// score is never taken from the client.
func (h *ProgressHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submitQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ModuleID == "" {
		respondError(w, http.StatusBadRequest, "moduleId is required")
		return
	}

	userID := h.targetUser(w, r, req.UserID)
	if userID == "" {
		return
	}

	result, err := h.quizService.GradeModule(req.ModuleID, req.Answers)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	record, err := h.progressService.SubmitQuiz(userID, req.ModuleID, req.Answers, result.Score)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, submitQuizResponse{Progress: record, Result: result})
}

// Stats returns a user's aggregate progress statistics
func (h *ProgressHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.progressService.Stats(r.PathValue("userId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
