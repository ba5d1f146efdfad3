package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/mapper"
	"github.com/rackwise/receiving-api/internal/matching"
	"github.com/rackwise/receiving-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EquipmentService handles received equipment units and the matching
// operations that assign them to expected equipment slots. All matching
// mutations run inside a single transaction with the touched rows locked, so
// the committed assigned counts never drift from the equipment references.
type EquipmentService struct {
	equipmentRepo   *repository.EquipmentRepository
	slotRepo        *repository.EstimatedEquipmentRepository
	noteRepo        *repository.DeliveryNoteRepository
	projectService  *ProjectService
	activityService *ActivityService
	engine          *matching.Engine
	matcher         matching.Matcher
	logger          *zap.Logger
	db              *gorm.DB
}

// NewEquipmentService creates a new EquipmentService. The matcher is
// optional; without one automatic matching reports the matcher as
// unavailable while manual and bulk matching keep working.
func NewEquipmentService(
	equipmentRepo *repository.EquipmentRepository,
	slotRepo *repository.EstimatedEquipmentRepository,
	noteRepo *repository.DeliveryNoteRepository,
	projectService *ProjectService,
	activityService *ActivityService,
	engine *matching.Engine,
	matcher matching.Matcher,
	logger *zap.Logger,
	db *gorm.DB,
) *EquipmentService {
	return &EquipmentService{
		equipmentRepo:   equipmentRepo,
		slotRepo:        slotRepo,
		noteRepo:        noteRepo,
		projectService:  projectService,
		activityService: activityService,
		engine:          engine,
		matcher:         matcher,
		logger:          logger,
		db:              db,
	}
}

// Create registers a physically received unit on a delivery note
func (s *EquipmentService) Create(ctx context.Context, noteID uuid.UUID, req *domain.CreateEquipmentRequest) (*domain.EquipmentResponse, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryNoteNotFound
		}
		return nil, fmt.Errorf("failed to get delivery note: %w", err)
	}

	equipment := &domain.Equipment{
		DeliveryNoteID: &note.ID,
		Name:           req.Name,
		SerialNumber:   req.SerialNumber,
		PartNumber:     req.PartNumber,
		DeviceName:     req.DeviceName,
		Type:           req.Type,
		Model:          req.Model,
	}

	if err := s.equipmentRepo.Create(ctx, equipment); err != nil {
		return nil, fmt.Errorf("failed to create equipment: %w", err)
	}

	s.refreshProgressForNote(ctx, note.ID)

	resp := mapper.ToEquipmentResponse(equipment)
	return &resp, nil
}

// GetByID retrieves an equipment unit
func (s *EquipmentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.EquipmentResponse, error) {
	equipment, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}

	resp := mapper.ToEquipmentResponse(equipment)
	return &resp, nil
}

// ListByNote returns all equipment of a delivery note
func (s *EquipmentService) ListByNote(ctx context.Context, noteID uuid.UUID) ([]domain.EquipmentResponse, error) {
	units, err := s.equipmentRepo.ListByNote(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}

	result := make([]domain.EquipmentResponse, len(units))
	for i, unit := range units {
		result[i] = mapper.ToEquipmentResponse(&unit)
	}

	return result, nil
}

// Update edits the descriptive fields of a unit
func (s *EquipmentService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateEquipmentRequest) (*domain.EquipmentResponse, error) {
	equipment, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}

	if req.Name != nil {
		equipment.Name = *req.Name
	}
	if req.SerialNumber != nil {
		equipment.SerialNumber = *req.SerialNumber
	}
	if req.PartNumber != nil {
		equipment.PartNumber = *req.PartNumber
	}
	if req.DeviceName != nil {
		equipment.DeviceName = *req.DeviceName
	}
	if req.Type != nil {
		equipment.Type = *req.Type
	}
	if req.Model != nil {
		equipment.Model = *req.Model
	}

	if err := s.equipmentRepo.Update(ctx, equipment); err != nil {
		return nil, fmt.Errorf("failed to update equipment: %w", err)
	}

	resp := mapper.ToEquipmentResponse(equipment)
	return &resp, nil
}

// Delete removes a unit. A matched unit releases its slot capacity first.
func (s *EquipmentService) Delete(ctx context.Context, id uuid.UUID) error {
	equipment, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEquipmentNotFound
		}
		return fmt.Errorf("failed to get equipment: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if equipment.MatchedSlotID != nil {
			slot, err := s.slotRepo.GetByIDForUpdate(ctx, tx, *equipment.MatchedSlotID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if slot != nil && slot.AssignedCount > 0 {
				err := tx.Model(&domain.EstimatedEquipment{}).Where("id = ?", slot.ID).Updates(map[string]interface{}{
					"assigned_count": slot.AssignedCount - 1,
					"updated_at":     time.Now(),
				}).Error
				if err != nil {
					return err
				}
			}
		}
		return tx.Where("id = ?", id).Delete(&domain.Equipment{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}

	if equipment.DeliveryNoteID != nil {
		s.refreshProgressForNote(ctx, *equipment.DeliveryNoteID)
	}

	return nil
}

// Verify marks a unit as physically verified. Verification is one-way:
// verifying an already verified unit is a no-op.
func (s *EquipmentService) Verify(ctx context.Context, id uuid.UUID, req *domain.VerifyEquipmentRequest) (*domain.EquipmentResponse, error) {
	equipment, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}

	changed := !equipment.IsVerified
	equipment.IsVerified = true
	if req != nil && req.PhotoPath != nil {
		equipment.PhotoPath = req.PhotoPath
	}

	if err := s.equipmentRepo.Update(ctx, equipment); err != nil {
		return nil, fmt.Errorf("failed to verify equipment: %w", err)
	}

	if changed {
		s.activityService.Record(ctx, domain.ActivityTargetEquipment, equipment.ID,
			"Equipment verified",
			fmt.Sprintf("Unit '%s' (SN %s) passed reception verification", equipment.Name, equipment.SerialNumber), nil)

		if equipment.DeliveryNoteID != nil {
			s.refreshProgressForNote(ctx, *equipment.DeliveryNoteID)
		}
	}

	resp := mapper.ToEquipmentResponse(equipment)
	return &resp, nil
}

// Match assigns one unit to one expected equipment slot. The slot row is
// locked for the duration so concurrent matches cannot oversubscribe it.
func (s *EquipmentService) Match(ctx context.Context, equipmentID, slotID uuid.UUID) (*domain.EquipmentResponse, error) {
	var equipment *domain.Equipment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		equipment, err = s.equipmentRepo.GetByIDForUpdate(ctx, tx, equipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEquipmentNotFound
			}
			return fmt.Errorf("failed to get equipment: %w", err)
		}

		slot, err := s.slotRepo.GetByIDForUpdate(ctx, tx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("failed to get slot: %w", err)
		}

		if err := s.checkSameProject(ctx, equipment, slot); err != nil {
			return err
		}

		if err := s.engine.Match(equipment, slot); err != nil {
			return err
		}

		return s.persistPairing(tx, equipment, slot)
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Record(ctx, domain.ActivityTargetEquipment, equipmentID,
		"Equipment matched",
		fmt.Sprintf("Unit '%s' was matched to expected equipment slot", equipment.Name), nil)

	resp := mapper.ToEquipmentResponse(equipment)
	return &resp, nil
}

// Unmatch reverses a match, releasing one unit of the slot's capacity
func (s *EquipmentService) Unmatch(ctx context.Context, equipmentID uuid.UUID) (*domain.EquipmentResponse, error) {
	var equipment *domain.Equipment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		equipment, err = s.equipmentRepo.GetByIDForUpdate(ctx, tx, equipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEquipmentNotFound
			}
			return fmt.Errorf("failed to get equipment: %w", err)
		}

		if !equipment.IsMatched || equipment.MatchedSlotID == nil {
			return matching.ErrNotMatched
		}

		slot, err := s.slotRepo.GetByIDForUpdate(ctx, tx, *equipment.MatchedSlotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("failed to get slot: %w", err)
		}

		if _, err := s.engine.Unmatch(equipment, []*domain.EstimatedEquipment{slot}); err != nil {
			return err
		}

		return s.persistPairing(tx, equipment, slot)
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Record(ctx, domain.ActivityTargetEquipment, equipmentID,
		"Equipment unmatched",
		fmt.Sprintf("Unit '%s' was released from its expected equipment slot", equipment.Name), nil)

	resp := mapper.ToEquipmentResponse(equipment)
	return &resp, nil
}

// MatchAll fills the project's slots with its unmatched equipment in a
// deterministic order, ignoring type and model compatibility
func (s *EquipmentService) MatchAll(ctx context.Context, projectID uuid.UUID) (*domain.MatchAllResponse, error) {
	var pairings []matching.Pairing

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		equipment, slots, err := s.loadProjectForMatching(ctx, tx, projectID)
		if err != nil {
			return err
		}

		pairings = s.engine.MatchAll(equipment, slots)

		return s.persistPairings(tx, pairings, equipment, slots)
	})
	if err != nil {
		return nil, err
	}

	if len(pairings) > 0 {
		s.activityService.Record(ctx, domain.ActivityTargetProject, projectID,
			"Bulk match executed",
			fmt.Sprintf("%d equipment units were matched sequentially", len(pairings)), nil)
	}

	return &domain.MatchAllResponse{Applied: mapper.ToPairingResponses(pairings)}, nil
}

// staticMatcher replays a proposal computed before the transaction started,
// so slow matcher calls never hold row locks
type staticMatcher map[uuid.UUID]uuid.UUID

func (m staticMatcher) MatchEquipment(ctx context.Context, unmatched []matching.EquipmentSummary, slots []matching.SlotSummary, prompt string) (map[uuid.UUID]uuid.UUID, error) {
	return m, nil
}

// AutomaticMatch asks the AI matcher for pairings, then re-validates each
// proposal against the committed slot capacity inside a locked transaction.
// Proposals that fail re-validation are reported as dropped, not silently
// discarded.
func (s *EquipmentService) AutomaticMatch(ctx context.Context, projectID uuid.UUID, req *domain.AutomaticMatchRequest) (*domain.AutomaticMatchResponse, error) {
	if s.matcher == nil {
		return nil, ErrMatcherUnavailable
	}

	prompt := ""
	if req != nil {
		prompt = req.Prompt
	}

	// Build summaries from an unlocked read; the proposal is re-validated
	// against locked rows before anything is applied.
	units, err := s.equipmentRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project equipment: %w", err)
	}
	slots, err := s.slotRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project slots: %w", err)
	}

	unmatched := make([]matching.EquipmentSummary, 0, len(units))
	for _, eq := range units {
		if eq.IsMatched {
			continue
		}
		unmatched = append(unmatched, matching.EquipmentSummary{
			ID:           eq.ID,
			Name:         eq.Name,
			SerialNumber: eq.SerialNumber,
			PartNumber:   eq.PartNumber,
			Type:         eq.Type,
			Model:        eq.Model,
		})
	}

	available := make([]matching.SlotSummary, 0, len(slots))
	for _, slot := range slots {
		if slot.Remaining() <= 0 {
			continue
		}
		available = append(available, matching.SlotSummary{
			ID:        slot.ID,
			Type:      slot.Type,
			Model:     slot.Model,
			Remaining: slot.Remaining(),
		})
	}

	proposed, err := s.matcher.MatchEquipment(ctx, unmatched, available, prompt)
	if err != nil {
		s.logger.Error("automatic matching failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMatcherUnavailable, err)
	}

	var result *matching.AutomaticResult

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		equipment, slots, err := s.loadProjectForMatching(ctx, tx, projectID)
		if err != nil {
			return err
		}

		result, err = s.engine.AutomaticMatch(ctx, equipment, slots, staticMatcher(proposed), prompt)
		if err != nil {
			return err
		}

		return s.persistPairings(tx, result.Applied, equipment, slots)
	})
	if err != nil {
		return nil, err
	}

	if len(result.Dropped) > 0 {
		s.logger.Info("automatic matching dropped stale pairings",
			zap.String("project_id", projectID.String()),
			zap.Int("applied", len(result.Applied)),
			zap.Int("dropped", len(result.Dropped)))
	}

	if len(result.Applied) > 0 {
		s.activityService.Record(ctx, domain.ActivityTargetProject, projectID,
			"Automatic match executed",
			fmt.Sprintf("%d equipment units were matched, %d proposals dropped",
				len(result.Applied), len(result.Dropped)), nil)
	}

	return &domain.AutomaticMatchResponse{
		Applied: mapper.ToPairingResponses(result.Applied),
		Dropped: mapper.ToPairingResponses(result.Dropped),
	}, nil
}

// loadProjectForMatching locks and returns all equipment and slots of a project
func (s *EquipmentService) loadProjectForMatching(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*domain.Equipment, []*domain.EstimatedEquipment, error) {
	units, err := s.equipmentRepo.ListByProjectForUpdate(ctx, tx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock project equipment: %w", err)
	}
	slotRows, err := s.slotRepo.ListByProjectForUpdate(ctx, tx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock project slots: %w", err)
	}

	equipment := make([]*domain.Equipment, len(units))
	for i := range units {
		equipment[i] = &units[i]
	}
	slots := make([]*domain.EstimatedEquipment, len(slotRows))
	for i := range slotRows {
		slots[i] = &slotRows[i]
	}

	return equipment, slots, nil
}

// persistPairing writes the match state of one equipment and one slot
func (s *EquipmentService) persistPairing(tx *gorm.DB, equipment *domain.Equipment, slot *domain.EstimatedEquipment) error {
	err := tx.Model(&domain.Equipment{}).Where("id = ?", equipment.ID).Updates(map[string]interface{}{
		"is_matched":      equipment.IsMatched,
		"matched_slot_id": equipment.MatchedSlotID,
		"updated_at":      time.Now(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to persist equipment match state: %w", err)
	}

	err = tx.Model(&domain.EstimatedEquipment{}).Where("id = ?", slot.ID).Updates(map[string]interface{}{
		"assigned_count": slot.AssignedCount,
		"updated_at":     time.Now(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to persist slot assignment count: %w", err)
	}

	return nil
}

// persistPairings writes the match state of every equipment and slot touched
// by a bulk run
func (s *EquipmentService) persistPairings(tx *gorm.DB, applied []matching.Pairing, equipment []*domain.Equipment, slots []*domain.EstimatedEquipment) error {
	if len(applied) == 0 {
		return nil
	}

	eqByID := make(map[uuid.UUID]*domain.Equipment, len(equipment))
	for _, eq := range equipment {
		eqByID[eq.ID] = eq
	}
	slotByID := make(map[uuid.UUID]*domain.EstimatedEquipment, len(slots))
	for _, slot := range slots {
		slotByID[slot.ID] = slot
	}

	touchedSlots := make(map[uuid.UUID]*domain.EstimatedEquipment)
	for _, pairing := range applied {
		eq := eqByID[pairing.EquipmentID]
		if eq == nil {
			continue
		}
		err := tx.Model(&domain.Equipment{}).Where("id = ?", eq.ID).Updates(map[string]interface{}{
			"is_matched":      eq.IsMatched,
			"matched_slot_id": eq.MatchedSlotID,
			"updated_at":      time.Now(),
		}).Error
		if err != nil {
			return fmt.Errorf("failed to persist equipment match state: %w", err)
		}
		if slot := slotByID[pairing.SlotID]; slot != nil {
			touchedSlots[slot.ID] = slot
		}
	}

	for _, slot := range touchedSlots {
		err := tx.Model(&domain.EstimatedEquipment{}).Where("id = ?", slot.ID).Updates(map[string]interface{}{
			"assigned_count": slot.AssignedCount,
			"updated_at":     time.Now(),
		}).Error
		if err != nil {
			return fmt.Errorf("failed to persist slot assignment count: %w", err)
		}
	}

	return nil
}

// checkSameProject ensures the equipment's delivery note and the slot belong
// to the same project
func (s *EquipmentService) checkSameProject(ctx context.Context, equipment *domain.Equipment, slot *domain.EstimatedEquipment) error {
	if equipment.DeliveryNoteID == nil {
		return fmt.Errorf("%w: equipment %s is not attached to a delivery note", ErrInvalidInput, equipment.ID)
	}

	projectID, err := s.noteRepo.ProjectIDForNote(ctx, *equipment.DeliveryNoteID)
	if err != nil {
		return fmt.Errorf("failed to resolve project for equipment: %w", err)
	}

	if projectID != slot.ProjectID {
		return fmt.Errorf("%w: slot belongs to a different project", ErrInvalidInput)
	}

	return nil
}

func (s *EquipmentService) refreshProgressForNote(ctx context.Context, noteID uuid.UUID) {
	projectID, err := s.noteRepo.ProjectIDForNote(ctx, noteID)
	if err != nil {
		s.logger.Warn("failed to resolve project for note",
			zap.String("note_id", noteID.String()),
			zap.Error(err))
		return
	}

	if err := s.projectService.RefreshProgress(ctx, projectID); err != nil {
		s.logger.Warn("failed to refresh progress",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}
}
