package handlers

import (
	"net/http"
	"strconv"

	"starquest/internal/models"
	"starquest/internal/repository"
	"starquest/internal/service"
)

// CatalogHandler handles module and season HTTP requests
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func isAdmin(r *http.Request) bool {
	principal := GetPrincipal(r.Context())
	return principal != nil && principal.Role == models.RoleAdmin
}

// ListModules returns catalog modules, optionally filtered by query params.
// Non-admin callers only see active modules with quiz answers stripped.
func (h *CatalogHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ModuleFilter{
		AgeGroup:   models.AgeGroup(q.Get("ageGroup")),
		Difficulty: models.Difficulty(q.Get("difficulty")),
		SeasonID:   q.Get("seasonId"),
	}
	if phase := q.Get("phase"); phase != "" {
		n, err := strconv.Atoi(phase)
		if err != nil {
			respondError(w, http.StatusBadRequest, "phase must be a number")
			return
		}
		filter.Phase = n
	}

	modules, err := h.catalog.List(filter, isAdmin(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, modules)
}

// GetModule returns a single module by ID
func (h *CatalogHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	module, err := h.catalog.GetByID(r.PathValue("id"), isAdmin(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, module)
}

// CreateModule adds a module to the catalog
func (h *CatalogHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	var module models.Module
	if err := decodeJSON(w, r, &module); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.catalog.Create(&module)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdateModule applies a partial update to a module
func (h *CatalogHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	var update service.ModuleUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	module, err := h.catalog.Update(r.PathValue("id"), update)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, module)
}

// DeleteModule retires a module from the catalog. Existing progress keeps
// referring to it, so the module is deactivated rather than removed.
func (h *CatalogHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Module deleted"})
}

// ListSeasons returns all active seasons
func (h *CatalogHandler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.catalog.ListSeasons()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, seasons)
}

// ListSeasonModules returns the modules of one season
func (h *CatalogHandler) ListSeasonModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.catalog.ListBySeason(r.PathValue("id"), isAdmin(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, modules)
}
