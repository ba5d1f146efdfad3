package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/service"
	"go.uber.org/zap"
)

type IncidentHandler struct {
	incidentService *service.IncidentService
	logger          *zap.Logger
}

func NewIncidentHandler(incidentService *service.IncidentService, logger *zap.Logger) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
		logger:          logger,
	}
}

// List godoc
// @Summary List incidents
// @Description Get paginated list of incidents with optional filters
// @Tags Incidents
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(pending, in_review, resolved)
// @Param equipmentId query string false "Filter by equipment" format(uuid)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.IncidentResponse}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /incidents [get]
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	var status *domain.IncidentStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.IncidentStatus(s)
		if !st.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid incident status")
			return
		}
		status = &st
	}

	var equipmentID *uuid.UUID
	if eid := r.URL.Query().Get("equipmentId"); eid != "" {
		id, err := uuid.Parse(eid)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid equipment ID: must be a valid UUID")
			return
		}
		equipmentID = &id
	}

	incidents, total, err := h.incidentService.List(r.Context(), page, pageSize, status, equipmentID)
	if err != nil {
		h.logger.Error("failed to list incidents", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list incidents")
		return
	}

	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Data:       incidents,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// Create godoc
// @Summary Open incident
// @Description Open an incident against an equipment unit. Incidents always start Pending.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param request body domain.CreateIncidentRequest true "Incident data"
// @Success 201 {object} domain.IncidentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /incidents [post]
func (h *IncidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	incident, err := h.incidentService.Create(r.Context(), &req)
	if err != nil {
		h.handleIncidentError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/incidents/"+incident.ID.String())
	respondJSON(w, http.StatusCreated, incident)
}

// GetByID godoc
// @Summary Get incident by ID
// @Description Get an incident with its comments
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID" format(uuid)
// @Success 200 {object} domain.IncidentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /incidents/{id} [get]
func (h *IncidentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid incident ID: must be a valid UUID")
		return
	}

	incident, err := h.incidentService.GetByID(r.Context(), id)
	if err != nil {
		h.handleIncidentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, incident)
}

// AddComment godoc
// @Summary Add comment
// @Description Add a comment to an incident. The first comment on a Pending incident moves it to InReview.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID" format(uuid)
// @Param request body domain.AddIncidentCommentRequest true "Comment data"
// @Success 200 {object} domain.IncidentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /incidents/{id}/comments [post]
func (h *IncidentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid incident ID: must be a valid UUID")
		return
	}

	var req domain.AddIncidentCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	incident, err := h.incidentService.AddComment(r.Context(), id, &req)
	if err != nil {
		h.handleIncidentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, incident)
}

// Resolve godoc
// @Summary Resolve incident
// @Description Close an incident with a mandatory resolution note. Resolved is terminal.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID" format(uuid)
// @Param request body domain.ResolveIncidentRequest true "Resolution note"
// @Success 200 {object} domain.IncidentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /incidents/{id}/resolve [post]
func (h *IncidentHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid incident ID: must be a valid UUID")
		return
	}

	var req domain.ResolveIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	incident, err := h.incidentService.Resolve(r.Context(), id, &req)
	if err != nil {
		h.handleIncidentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, incident)
}

// Delete godoc
// @Summary Delete incident
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /incidents/{id} [delete]
func (h *IncidentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid incident ID: must be a valid UUID")
		return
	}

	if err := h.incidentService.Delete(r.Context(), id); err != nil {
		h.handleIncidentError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// handleIncidentError maps service errors to HTTP responses
func (h *IncidentHandler) handleIncidentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrIncidentNotFound):
		respondWithError(w, http.StatusNotFound, "Incident not found")
	case errors.Is(err, service.ErrEquipmentNotFound):
		respondWithError(w, http.StatusNotFound, "Equipment not found")
	case errors.Is(err, service.ErrIncidentResolved):
		respondWithError(w, http.StatusConflict, "Incident is already resolved")
	case errors.Is(err, service.ErrResolutionNoteRequired):
		respondWithError(w, http.StatusBadRequest, "A resolution note is required")
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		h.logger.Error("incident handler error", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
