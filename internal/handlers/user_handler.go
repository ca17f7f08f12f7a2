package handlers

import (
	"encoding/json"
	"net/http"

	"starquest/internal/models"
	"starquest/internal/service"
)

// UserHandler handles profile and family account HTTP requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me returns the caller's own profile
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	user, err := h.userService.GetProfile(principal.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile applies a partial update to the caller's profile. Fields
// outside the editable set are rejected rather than ignored.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())

	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	provided := make([]string, 0, len(raw))
	for field := range raw {
		provided = append(provided, field)
	}

	body, err := json.Marshal(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var update service.ProfileUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(principal.UserID, update, provided)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DeleteProfile removes the caller's account and all of its progress
func (h *UserHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	if err := h.userService.DeleteAccount(principal.UserID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

// ListChildren returns the caller's linked child accounts
func (h *UserHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	if principal.Role != models.RoleParent && principal.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "parent access required")
		return
	}

	children, err := h.userService.ListChildren(principal.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, children)
}

type createChildRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      *int   `json:"age"`
}

type createChildResponse struct {
	User            *models.User `json:"user"`
	StarterPassword string       `json:"starterPassword,omitempty"`
}

// CreateChild creates a student account linked to the calling parent.
// Omitted credentials are generated kid-friendly ones, returned once.
func (h *UserHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	if principal.Role != models.RoleParent {
		respondError(w, http.StatusForbidden, "parent access required")
		return
	}

	var req createChildRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	child, err := h.userService.CreateChild(r.Context(), principal.UserID, service.ChildInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, createChildResponse{
		User:            child.User,
		StarterPassword: child.StarterPassword,
	})
}

// GetParent returns the linked parent of the calling student
func (h *UserHandler) GetParent(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	parent, err := h.userService.GetParent(principal.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, parent)
}
