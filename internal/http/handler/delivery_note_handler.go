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

type DeliveryNoteHandler struct {
	noteService *service.DeliveryNoteService
	logger      *zap.Logger
}

func NewDeliveryNoteHandler(noteService *service.DeliveryNoteService, logger *zap.Logger) *DeliveryNoteHandler {
	return &DeliveryNoteHandler{
		noteService: noteService,
		logger:      logger,
	}
}

// ListByOrder godoc
// @Summary List delivery notes of an order
// @Tags DeliveryNotes
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {array} domain.DeliveryNoteResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/delivery-notes [get]
func (h *DeliveryNoteHandler) ListByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID: must be a valid UUID")
		return
	}

	notes, err := h.noteService.ListByOrder(r.Context(), orderID)
	if err != nil {
		h.handleNoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, notes)
}

// Create godoc
// @Summary Register delivery note
// @Description Register a delivery note under an order
// @Tags DeliveryNotes
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param request body domain.CreateDeliveryNoteRequest true "Delivery note data"
// @Success 201 {object} domain.DeliveryNoteResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/delivery-notes [post]
func (h *DeliveryNoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID: must be a valid UUID")
		return
	}

	var req domain.CreateDeliveryNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	note, err := h.noteService.Create(r.Context(), orderID, &req)
	if err != nil {
		h.handleNoteError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/delivery-notes/"+note.ID.String())
	respondJSON(w, http.StatusCreated, note)
}

// GetByID godoc
// @Summary Get delivery note by ID
// @Description Get a delivery note with its equipment
// @Tags DeliveryNotes
// @Accept json
// @Produce json
// @Param id path string true "Delivery note ID" format(uuid)
// @Success 200 {object} domain.DeliveryNoteResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /delivery-notes/{id} [get]
func (h *DeliveryNoteHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid delivery note ID: must be a valid UUID")
		return
	}

	note, err := h.noteService.GetByID(r.Context(), id)
	if err != nil {
		h.handleNoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, note)
}

// Update godoc
// @Summary Update delivery note
// @Description Update a delivery note. Status only moves forward through the verification workflow.
// @Tags DeliveryNotes
// @Accept json
// @Produce json
// @Param id path string true "Delivery note ID" format(uuid)
// @Param request body domain.UpdateDeliveryNoteRequest true "Fields to update"
// @Success 200 {object} domain.DeliveryNoteResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /delivery-notes/{id} [put]
func (h *DeliveryNoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid delivery note ID: must be a valid UUID")
		return
	}

	var req domain.UpdateDeliveryNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	note, err := h.noteService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleNoteError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, note)
}

// Delete godoc
// @Summary Delete delivery note
// @Description Delete a delivery note and its equipment
// @Tags DeliveryNotes
// @Accept json
// @Produce json
// @Param id path string true "Delivery note ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /delivery-notes/{id} [delete]
func (h *DeliveryNoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid delivery note ID: must be a valid UUID")
		return
	}

	if err := h.noteService.Delete(r.Context(), id); err != nil {
		h.handleNoteError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// ExtractEquipment godoc
// @Summary Extract equipment from document text
// @Description Run AI extraction over the raw delivery note text and register one equipment record per extracted unit
// @Tags DeliveryNotes
// @Accept json
// @Produce json
// @Param id path string true "Delivery note ID" format(uuid)
// @Param request body domain.ExtractEquipmentRequest true "Document text"
// @Success 201 {array} domain.EquipmentResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /delivery-notes/{id}/extract [post]
func (h *DeliveryNoteHandler) ExtractEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid delivery note ID: must be a valid UUID")
		return
	}

	var req domain.ExtractEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	units, err := h.noteService.ExtractEquipment(r.Context(), id, &req)
	if err != nil {
		h.handleNoteError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, units)
}

// handleNoteError maps service errors to HTTP responses
func (h *DeliveryNoteHandler) handleNoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDeliveryNoteNotFound):
		respondWithError(w, http.StatusNotFound, "Delivery note not found")
	case errors.Is(err, service.ErrOrderNotFound):
		respondWithError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMatcherUnavailable):
		respondWithError(w, http.StatusBadGateway, "Equipment extraction is unavailable")
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		h.logger.Error("delivery note handler error", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
