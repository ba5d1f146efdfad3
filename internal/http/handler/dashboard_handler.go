package handler

import (
	"net/http"

	"github.com/rackwise/receiving-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetMetrics godoc
// @Summary Get dashboard metrics
// @Description Returns receiving metrics: active project count, open incidents, equipment totals (total, matched, verified) and the latest activity entries.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardMetrics
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.dashboardService.GetMetrics(r.Context())
	if err != nil {
		h.logger.Error("failed to get dashboard metrics", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get dashboard metrics")
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}
