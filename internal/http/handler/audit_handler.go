package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/service"
	"go.uber.org/zap"
)

type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit logs
// @Description Get paginated audit log entries with optional filters. Admin only.
// @Tags Audit
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param userId query string false "Filter by acting user"
// @Param action query string false "Filter by action" Enums(create, update, delete, match, unmatch, verify, resolve, login)
// @Param entityType query string false "Filter by entity type"
// @Param entityId query string false "Filter by entity ID" format(uuid)
// @Param datacenter_id query string false "Filter by datacenter"
// @Param start query string false "Start of time range (RFC3339)"
// @Param end query string false "End of time range (RFC3339)"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.AuditLog}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit-logs [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	params := service.AuditLogQueryParams{
		UserID:     r.URL.Query().Get("userId"),
		EntityType: r.URL.Query().Get("entityType"),
		Page:       page,
		PageSize:   pageSize,
	}

	if a := r.URL.Query().Get("action"); a != "" {
		action := domain.AuditAction(a)
		params.Action = &action
	}

	if eid := r.URL.Query().Get("entityId"); eid != "" {
		id, err := uuid.Parse(eid)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid entity ID: must be a valid UUID")
			return
		}
		params.EntityID = &id
	}

	if dc := r.URL.Query().Get("datacenter_id"); dc != "" {
		if !domain.IsValidDatacenterID(dc) {
			respondWithError(w, http.StatusBadRequest, "Invalid datacenter ID")
			return
		}
		id := domain.DatacenterID(dc)
		params.DatacenterID = &id
	}

	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid start time: must be RFC3339")
			return
		}
		params.StartTime = &t
	}
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid end time: must be RFC3339")
			return
		}
		params.EndTime = &t
	}

	logs, total, err := h.auditService.List(r.Context(), params)
	if err != nil {
		h.logger.Error("failed to list audit logs", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list audit logs")
		return
	}

	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Data:       logs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// GetByEntity godoc
// @Summary Get audit trail for an entity
// @Description Get the latest audit log entries for a specific entity. Admin only.
// @Tags Audit
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type"
// @Param entityId path string true "Entity ID" format(uuid)
// @Param limit query int false "Maximum results" default(50)
// @Success 200 {array} domain.AuditLog
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit-logs/{entityType}/{entityId} [get]
func (h *AuditHandler) GetByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")

	entityID, err := uuid.Parse(chi.URLParam(r, "entityId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entity ID: must be a valid UUID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	logs, err := h.auditService.GetByEntity(r.Context(), entityType, entityID, limit)
	if err != nil {
		h.logger.Error("failed to get audit trail", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get audit trail")
		return
	}

	respondJSON(w, http.StatusOK, logs)
}
