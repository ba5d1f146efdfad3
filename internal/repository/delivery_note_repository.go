package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"gorm.io/gorm"
)

type DeliveryNoteRepository struct {
	db *gorm.DB
}

func NewDeliveryNoteRepository(db *gorm.DB) *DeliveryNoteRepository {
	return &DeliveryNoteRepository{db: db}
}

func (r *DeliveryNoteRepository) Create(ctx context.Context, note *domain.DeliveryNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *DeliveryNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeliveryNote, error) {
	var note domain.DeliveryNote
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("id = ?", id).
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *DeliveryNoteRepository) Update(ctx context.Context, note *domain.DeliveryNote) error {
	return r.db.WithContext(ctx).Save(note).Error
}

func (r *DeliveryNoteRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.DeliveryNote, error) {
	var notes []domain.DeliveryNote
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&notes).Error
	return notes, err
}

// ProjectIDForNote resolves the owning project of a delivery note
func (r *DeliveryNoteRepository) ProjectIDForNote(ctx context.Context, noteID uuid.UUID) (uuid.UUID, error) {
	var projectID uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("orders.project_id").
		Joins("JOIN delivery_notes ON delivery_notes.order_id = orders.id").
		Where("delivery_notes.id = ?", noteID).
		Scan(&projectID).Error
	return projectID, err
}
