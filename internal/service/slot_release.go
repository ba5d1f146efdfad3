package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/repository"
	"gorm.io/gorm"
)

// lockSlots takes row locks on the given slots so their assigned counters
// hold still for the rest of the transaction. Locks are acquired in ID
// order so concurrent deletes touching the same slots cannot deadlock.
// Slots that no longer exist are skipped.
func lockSlots(ctx context.Context, tx *gorm.DB, slotRepo *repository.EstimatedEquipmentRepository, slotIDs []uuid.UUID) error {
	sort.Slice(slotIDs, func(i, j int) bool {
		return slotIDs[i].String() < slotIDs[j].String()
	})
	for _, slotID := range slotIDs {
		if _, err := slotRepo.GetByIDForUpdate(ctx, tx, slotID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}

// settleSlotCounters recomputes the assigned counter of each slot from the
// matched units still referencing it. Called after a cascading delete, in
// the same transaction, with the slot rows already locked.
func settleSlotCounters(ctx context.Context, tx *gorm.DB, equipmentRepo *repository.EquipmentRepository, slotIDs []uuid.UUID) error {
	for _, slotID := range slotIDs {
		count, err := equipmentRepo.CountMatchedBySlot(ctx, tx, slotID)
		if err != nil {
			return err
		}
		err = tx.Model(&domain.EstimatedEquipment{}).
			Where("id = ?", slotID).
			Updates(map[string]interface{}{
				"assigned_count": count,
				"updated_at":     time.Now(),
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
