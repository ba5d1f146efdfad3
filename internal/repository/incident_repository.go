package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"gorm.io/gorm"
)

type IncidentRepository struct {
	db *gorm.DB
}

func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

func (r *IncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	return r.db.WithContext(ctx).Create(incident).Error
}

func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	var incident domain.Incident
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("incident_comments.date ASC")
		}).
		Where("id = ?", id).
		First(&incident).Error
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *IncidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	return r.db.WithContext(ctx).Save(incident).Error
}

func (r *IncidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Incident{}, "id = ?", id).Error
}

func (r *IncidentRepository) List(ctx context.Context, page, pageSize int, status *domain.IncidentStatus, equipmentID *uuid.UUID) ([]domain.Incident, int64, error) {
	var incidents []domain.Incident
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Incident{}).Preload("Comments")

	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if equipmentID != nil {
		query = query.Where("equipment_id = ?", *equipmentID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&incidents).Error

	return incidents, total, err
}

func (r *IncidentRepository) AddComment(ctx context.Context, comment *domain.IncidentComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *IncidentRepository) CountOpen(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Incident{}).
		Where("status <> ?", domain.IncidentStatusResolved).
		Count(&count).Error
	return int(count), err
}
