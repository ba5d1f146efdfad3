package service

import (
	"context"
	"errors"

	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DatacenterService serves the site catalog. The catalog is seeded by the
// migrations, but a static fallback keeps the list endpoint working on an
// empty database.
type DatacenterService struct {
	datacenterRepo *repository.DatacenterRepository
	logger         *zap.Logger

	staticDatacenters []domain.Datacenter
}

func NewDatacenterService(datacenterRepo *repository.DatacenterRepository, logger *zap.Logger) *DatacenterService {
	return &DatacenterService{
		datacenterRepo: datacenterRepo,
		logger:         logger,
		staticDatacenters: []domain.Datacenter{
			{ID: domain.DatacenterAll, Name: "All datacenters", ShortName: "All", IsActive: true},
			{ID: domain.DatacenterMAD, Name: "Madrid 01", ShortName: "MAD01", Location: "Madrid, ES", IsActive: true},
			{ID: domain.DatacenterBCN, Name: "Barcelona 01", ShortName: "BCN01", Location: "Barcelona, ES", IsActive: true},
			{ID: domain.DatacenterPAR, Name: "Paris 02", ShortName: "PAR02", Location: "Paris, FR", IsActive: true},
			{ID: domain.DatacenterFRA, Name: "Frankfurt 03", ShortName: "FRA03", Location: "Frankfurt, DE", IsActive: true},
			{ID: domain.DatacenterAMS, Name: "Amsterdam 01", ShortName: "AMS01", Location: "Amsterdam, NL", IsActive: true},
		},
	}
}

// List returns all active datacenters
func (s *DatacenterService) List(ctx context.Context) []domain.Datacenter {
	if s.datacenterRepo != nil {
		datacenters, err := s.datacenterRepo.List(ctx)
		if err != nil {
			s.logger.Warn("failed to fetch datacenters from database, using static fallback", zap.Error(err))
		} else if len(datacenters) > 0 {
			return datacenters
		}
	}

	return s.staticDatacenters
}

// GetByID retrieves a datacenter by its ID
func (s *DatacenterService) GetByID(ctx context.Context, id domain.DatacenterID) (*domain.Datacenter, error) {
	if s.datacenterRepo != nil {
		datacenter, err := s.datacenterRepo.GetByID(ctx, id)
		if err == nil {
			return datacenter, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("failed to fetch datacenter from database", zap.Error(err))
		}
	}

	for _, datacenter := range s.staticDatacenters {
		if datacenter.ID == id {
			return &datacenter, nil
		}
	}
	return nil, ErrDatacenterNotFound
}
