package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/service"
	"go.uber.org/zap"
)

type ActivityHandler struct {
	activityService *service.ActivityService
	logger          *zap.Logger
}

func NewActivityHandler(activityService *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// ListRecent godoc
// @Summary List recent activity
// @Description Get the latest events across the caller's datacenters
// @Tags Activities
// @Accept json
// @Produce json
// @Param limit query int false "Maximum results" default(50)
// @Success 200 {array} domain.ActivityResponse
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activities [get]
func (h *ActivityHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activityService.GetRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list activities", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list activities")
		return
	}

	respondJSON(w, http.StatusOK, activities)
}

// ListByProject godoc
// @Summary List project activity
// @Description Get the latest events recorded against a project
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param limit query int false "Maximum results" default(50)
// @Success 200 {array} domain.ActivityResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/activities [get]
func (h *ActivityHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activityService.GetByTarget(r.Context(), domain.ActivityTargetProject, projectID, limit)
	if err != nil {
		h.logger.Error("failed to list project activities", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list project activities")
		return
	}

	respondJSON(w, http.StatusOK, activities)
}

// ListByTarget godoc
// @Summary List activity for an entity
// @Description Get the latest events recorded against a project, order, delivery note, equipment unit or incident
// @Tags Activities
// @Accept json
// @Produce json
// @Param targetType path string true "Target type" Enums(Project, Order, DeliveryNote, Equipment, Incident)
// @Param targetId path string true "Target ID" format(uuid)
// @Param limit query int false "Maximum results" default(50)
// @Success 200 {array} domain.ActivityResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activities/{targetType}/{targetId} [get]
func (h *ActivityHandler) ListByTarget(w http.ResponseWriter, r *http.Request) {
	targetType := domain.ActivityTargetType(chi.URLParam(r, "targetType"))
	switch targetType {
	case domain.ActivityTargetProject, domain.ActivityTargetOrder, domain.ActivityTargetDeliveryNote,
		domain.ActivityTargetEquipment, domain.ActivityTargetIncident:
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid target type")
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "targetId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid target ID: must be a valid UUID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activityService.GetByTarget(r.Context(), targetType, targetID, limit)
	if err != nil {
		h.logger.Error("failed to list activities", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list activities")
		return
	}

	respondJSON(w, http.StatusOK, activities)
}
