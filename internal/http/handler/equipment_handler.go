package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/matching"
	"github.com/rackwise/receiving-api/internal/service"
	"go.uber.org/zap"
)

type EquipmentHandler struct {
	equipmentService *service.EquipmentService
	logger           *zap.Logger
}

func NewEquipmentHandler(equipmentService *service.EquipmentService, logger *zap.Logger) *EquipmentHandler {
	return &EquipmentHandler{
		equipmentService: equipmentService,
		logger:           logger,
	}
}

// ListByNote godoc
// @Summary List equipment of a delivery note
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Delivery note ID" format(uuid)
// @Success 200 {array} domain.EquipmentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /delivery-notes/{id}/equipment [get]
func (h *EquipmentHandler) ListByNote(w http.ResponseWriter, r *http.Request) {
	noteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid delivery note ID: must be a valid UUID")
		return
	}

	units, err := h.equipmentService.ListByNote(r.Context(), noteID)
	if err != nil {
		h.handleEquipmentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, units)
}

// Create godoc
// @Summary Register equipment
// @Description Register a physically received unit on a delivery note
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Delivery note ID" format(uuid)
// @Param request body domain.CreateEquipmentRequest true "Equipment data"
// @Success 201 {object} domain.EquipmentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /delivery-notes/{id}/equipment [post]
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	noteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid delivery note ID: must be a valid UUID")
		return
	}

	var req domain.CreateEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	unit, err := h.equipmentService.Create(r.Context(), noteID, &req)
	if err != nil {
		h.handleEquipmentError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/equipment/"+unit.ID.String())
	respondJSON(w, http.StatusCreated, unit)
}

// GetByID godoc
// @Summary Get equipment by ID
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID" format(uuid)
// @Success 200 {object} domain.EquipmentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid equipment ID: must be a valid UUID")
		return
	}

	unit, err := h.equipmentService.GetByID(r.Context(), id)
	if err != nil {
		h.handleEquipmentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, unit)
}

// Update godoc
// @Summary Update equipment
// @Description Edit the descriptive fields of a unit. Matching and verification go through dedicated endpoints.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID" format(uuid)
// @Param request body domain.UpdateEquipmentRequest true "Fields to update"
// @Success 200 {object} domain.EquipmentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /equipment/{id} [put]
func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid equipment ID: must be a valid UUID")
		return
	}

	var req domain.UpdateEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	unit, err := h.equipmentService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleEquipmentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, unit)
}

// Delete godoc
// @Summary Delete equipment
// @Description Delete a unit. A matched unit releases its slot capacity first.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /equipment/{id} [delete]
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid equipment ID: must be a valid UUID")
		return
	}

	if err := h.equipmentService.Delete(r.Context(), id); err != nil {
		h.handleEquipmentError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Verify godoc
// @Summary Verify equipment
// @Description Mark a unit as physically verified. Verification is one-way.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID" format(uuid)
// @Param request body domain.VerifyEquipmentRequest false "Optional inspection photo"
// @Success 200 {object} domain.EquipmentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /equipment/{id}/verify [post]
func (h *EquipmentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid equipment ID: must be a valid UUID")
		return
	}

	var req domain.VerifyEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	unit, err := h.equipmentService.Verify(r.Context(), id, &req)
	if err != nil {
		h.handleEquipmentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, unit)
}

// Match godoc
// @Summary Match equipment to a slot
// @Description Assign one unit to one expected equipment slot, consuming one unit of its capacity
// @Tags Matching
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID" format(uuid)
// @Param request body domain.MatchRequest true "Target slot"
// @Success 200 {object} domain.EquipmentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /equipment/{id}/match [post]
func (h *EquipmentHandler) Match(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid equipment ID: must be a valid UUID")
		return
	}

	var req domain.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	unit, err := h.equipmentService.Match(r.Context(), id, req.SlotID)
	if err != nil {
		h.handleEquipmentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, unit)
}

// Unmatch godoc
// @Summary Unmatch equipment
// @Description Release a unit from its expected equipment slot
// @Tags Matching
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID" format(uuid)
// @Success 200 {object} domain.EquipmentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /equipment/{id}/unmatch [post]
func (h *EquipmentHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid equipment ID: must be a valid UUID")
		return
	}

	unit, err := h.equipmentService.Unmatch(r.Context(), id)
	if err != nil {
		h.handleEquipmentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, unit)
}

// MatchAll godoc
// @Summary Match all equipment sequentially
// @Description Fill the project's slots with its unmatched equipment in deterministic order, ignoring type and model compatibility
// @Tags Matching
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {object} domain.MatchAllResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/match-all [post]
func (h *EquipmentHandler) MatchAll(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	result, err := h.equipmentService.MatchAll(r.Context(), projectID)
	if err != nil {
		h.handleEquipmentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// AutomaticMatch godoc
// @Summary Match equipment with AI assistance
// @Description Ask the AI matcher for pairings, re-validate each proposal against committed slot capacity, and report applied and dropped pairings
// @Tags Matching
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param request body domain.AutomaticMatchRequest false "Optional operator guidance"
// @Success 200 {object} domain.AutomaticMatchResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/match-auto [post]
func (h *EquipmentHandler) AutomaticMatch(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	var req domain.AutomaticMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.equipmentService.AutomaticMatch(r.Context(), projectID, &req)
	if err != nil {
		h.handleEquipmentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleEquipmentError maps service and engine errors to HTTP responses
func (h *EquipmentHandler) handleEquipmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEquipmentNotFound), errors.Is(err, matching.ErrEquipmentNotFound):
		respondWithError(w, http.StatusNotFound, "Equipment not found")
	case errors.Is(err, service.ErrSlotNotFound), errors.Is(err, matching.ErrSlotNotFound):
		respondWithError(w, http.StatusNotFound, "Expected equipment slot not found")
	case errors.Is(err, service.ErrDeliveryNoteNotFound):
		respondWithError(w, http.StatusNotFound, "Delivery note not found")
	case errors.Is(err, service.ErrProjectNotFound):
		respondWithError(w, http.StatusNotFound, "Project not found")
	case errors.Is(err, matching.ErrSlotFull):
		respondWithError(w, http.StatusConflict, "Expected equipment slot is at full capacity")
	case errors.Is(err, matching.ErrAlreadyMatched):
		respondWithError(w, http.StatusConflict, "Equipment is already matched")
	case errors.Is(err, matching.ErrNotMatched):
		respondWithError(w, http.StatusConflict, "Equipment is not matched")
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMatcherUnavailable):
		respondWithError(w, http.StatusBadGateway, "Automatic matching is unavailable")
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		h.logger.Error("equipment handler error", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
