package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"starquest/internal/security"
	"starquest/internal/service"
	"starquest/internal/validation"
)

// envelope is the uniform response shape of every API endpoint
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: msg}); err != nil {
		log.Printf("Error encoding error response: %v", err)
	}
}

// respondServiceError maps service errors to HTTP statuses. Unknown errors
// are logged and reported as a generic 500 so internals never leak.
func respondServiceError(w http.ResponseWriter, err error) {
	var ve validation.ValidationError
	if errors.As(err, &ve) {
		respondError(w, http.StatusBadRequest, ve.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidResetToken),
		errors.Is(err, security.ErrTokenMissing),
		errors.Is(err, security.ErrTokenInvalid):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrNotAStudent):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrParentNotFound),
		errors.Is(err, service.ErrModuleNotFound),
		errors.Is(err, service.ErrSeasonNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrModuleExists):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON decodes a request body into dst, rejecting oversized payloads
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}
