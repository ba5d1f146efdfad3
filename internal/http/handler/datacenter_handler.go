package handler

import (
	"net/http"

	"github.com/rackwise/receiving-api/internal/service"
	"go.uber.org/zap"
)

type DatacenterHandler struct {
	datacenterService *service.DatacenterService
	logger            *zap.Logger
}

func NewDatacenterHandler(datacenterService *service.DatacenterService, logger *zap.Logger) *DatacenterHandler {
	return &DatacenterHandler{
		datacenterService: datacenterService,
		logger:            logger,
	}
}

// List godoc
// @Summary Get all datacenters
// @Tags Datacenters
// @Produce json
// @Success 200 {array} domain.Datacenter
// @Router /datacenters [get]
func (h *DatacenterHandler) List(w http.ResponseWriter, r *http.Request) {
	datacenters := h.datacenterService.List(r.Context())
	respondJSON(w, http.StatusOK, datacenters)
}
