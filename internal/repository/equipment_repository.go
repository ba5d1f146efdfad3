package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) Create(ctx context.Context, equipment *domain.Equipment) error {
	return r.db.WithContext(ctx).Create(equipment).Error
}

func (r *EquipmentRepository) CreateBatch(ctx context.Context, equipment []*domain.Equipment) error {
	if len(equipment) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(equipment).Error
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	var equipment domain.Equipment
	err := r.db.WithContext(ctx).
		Preload("MatchedSlot").
		Where("id = ?", id).
		First(&equipment).Error
	if err != nil {
		return nil, err
	}
	return &equipment, nil
}

// GetByIDForUpdate loads a unit with a row lock inside a transaction
func (r *EquipmentRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Equipment, error) {
	var equipment domain.Equipment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&equipment).Error
	if err != nil {
		return nil, err
	}
	return &equipment, nil
}

func (r *EquipmentRepository) Update(ctx context.Context, equipment *domain.Equipment) error {
	return r.db.WithContext(ctx).Save(equipment).Error
}

func (r *EquipmentRepository) ListByNote(ctx context.Context, noteID uuid.UUID) ([]domain.Equipment, error) {
	var equipment []domain.Equipment
	err := r.db.WithContext(ctx).
		Where("delivery_note_id = ?", noteID).
		Order("created_at ASC").
		Find(&equipment).Error
	return equipment, err
}

// ListByProject returns all equipment delivered under a project's notes,
// in insertion order. The order matters to the bulk matching operations.
func (r *EquipmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Equipment, error) {
	var equipment []domain.Equipment
	err := r.db.WithContext(ctx).
		Joins("JOIN delivery_notes ON delivery_notes.id = equipment.delivery_note_id").
		Joins("JOIN orders ON orders.id = delivery_notes.order_id").
		Where("orders.project_id = ?", projectID).
		Order("equipment.created_at ASC").
		Find(&equipment).Error
	return equipment, err
}

// ListByProjectForUpdate locks and returns a project's equipment rows.
// Used by the bulk matching operations inside their transaction.
func (r *EquipmentRepository) ListByProjectForUpdate(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]domain.Equipment, error) {
	var equipment []domain.Equipment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "equipment"}}).
		Joins("JOIN delivery_notes ON delivery_notes.id = equipment.delivery_note_id").
		Joins("JOIN orders ON orders.id = delivery_notes.order_id").
		Where("orders.project_id = ?", projectID).
		Order("equipment.created_at ASC").
		Find(&equipment).Error
	return equipment, err
}

// EquipmentTotals holds fleet-wide unit counters for the dashboard.
type EquipmentTotals struct {
	Total    int64 `json:"total"`
	Matched  int64 `json:"matched"`
	Verified int64 `json:"verified"`
}

func (r *EquipmentRepository) CountTotals(ctx context.Context) (EquipmentTotals, error) {
	var totals EquipmentTotals
	err := r.db.WithContext(ctx).
		Model(&domain.Equipment{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE is_matched) AS matched, COUNT(*) FILTER (WHERE is_verified) AS verified").
		Scan(&totals).Error
	return totals, err
}

// CountMatchedBySlot returns the number of units currently assigned to a
// slot. The handle is explicit so delete transactions can count against
// their own view of the equipment table.
func (r *EquipmentRepository) CountMatchedBySlot(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&domain.Equipment{}).
		Where("matched_slot_id = ?", slotID).
		Count(&count).Error
	return count, err
}

// MatchedSlotIDsByNote returns the distinct slots referenced by a note's
// matched units. Used when a note is deleted to settle the slot counters.
func (r *EquipmentRepository) MatchedSlotIDsByNote(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) ([]uuid.UUID, error) {
	var slotIDs []uuid.UUID
	err := tx.WithContext(ctx).
		Model(&domain.Equipment{}).
		Distinct("matched_slot_id").
		Where("delivery_note_id = ? AND matched_slot_id IS NOT NULL", noteID).
		Pluck("matched_slot_id", &slotIDs).Error
	return slotIDs, err
}

// MatchedSlotIDsByOrder returns the distinct slots referenced by the matched
// units delivered under any of an order's notes.
func (r *EquipmentRepository) MatchedSlotIDsByOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]uuid.UUID, error) {
	var slotIDs []uuid.UUID
	err := tx.WithContext(ctx).
		Model(&domain.Equipment{}).
		Distinct("equipment.matched_slot_id").
		Joins("JOIN delivery_notes ON delivery_notes.id = equipment.delivery_note_id").
		Where("delivery_notes.order_id = ? AND equipment.matched_slot_id IS NOT NULL", orderID).
		Pluck("equipment.matched_slot_id", &slotIDs).Error
	return slotIDs, err
}
