package repository

import (
	"context"

	"github.com/rackwise/receiving-api/internal/domain"
	"gorm.io/gorm"
)

// DatacenterRepository handles database operations for datacenter sites
type DatacenterRepository struct {
	db *gorm.DB
}

func NewDatacenterRepository(db *gorm.DB) *DatacenterRepository {
	return &DatacenterRepository{db: db}
}

func (r *DatacenterRepository) GetByID(ctx context.Context, id domain.DatacenterID) (*domain.Datacenter, error) {
	var datacenter domain.Datacenter
	err := r.db.WithContext(ctx).First(&datacenter, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &datacenter, nil
}

// List returns all active datacenters
func (r *DatacenterRepository) List(ctx context.Context) ([]domain.Datacenter, error) {
	var datacenters []domain.Datacenter
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&datacenters).Error
	if err != nil {
		return nil, err
	}
	return datacenters, nil
}
