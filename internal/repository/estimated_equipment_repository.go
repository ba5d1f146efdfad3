package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EstimatedEquipmentRepository handles expected equipment slots
type EstimatedEquipmentRepository struct {
	db *gorm.DB
}

func NewEstimatedEquipmentRepository(db *gorm.DB) *EstimatedEquipmentRepository {
	return &EstimatedEquipmentRepository{db: db}
}

func (r *EstimatedEquipmentRepository) Create(ctx context.Context, slot *domain.EstimatedEquipment) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *EstimatedEquipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EstimatedEquipment, error) {
	var slot domain.EstimatedEquipment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// GetByIDForUpdate loads a slot with a row lock. Must be called inside a
// transaction; the lock holds the assigned counter stable while a match or
// unmatch is applied.
func (r *EstimatedEquipmentRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.EstimatedEquipment, error) {
	var slot domain.EstimatedEquipment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *EstimatedEquipmentRepository) Update(ctx context.Context, slot *domain.EstimatedEquipment) error {
	return r.db.WithContext(ctx).Save(slot).Error
}

func (r *EstimatedEquipmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.EstimatedEquipment{}, "id = ?", id).Error
}

func (r *EstimatedEquipmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.EstimatedEquipment, error) {
	var slots []domain.EstimatedEquipment
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("type ASC, model ASC").
		Find(&slots).Error
	return slots, err
}

// ListByProjectForUpdate loads all slots of a project with row locks.
// Used by the bulk matching operations inside their transaction.
func (r *EstimatedEquipmentRepository) ListByProjectForUpdate(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]domain.EstimatedEquipment, error) {
	var slots []domain.EstimatedEquipment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id = ?", projectID).
		Order("type ASC, model ASC").
		Find(&slots).Error
	return slots, err
}
