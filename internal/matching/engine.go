// Package matching implements the equipment matching engine: assignment of
// delivered equipment to estimated-equipment capacity slots, with manual,
// deterministic bulk, and AI-assisted strategies.
package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"go.uber.org/zap"
)

// Matching errors
var (
	// ErrEquipmentNotFound is returned when the target equipment does not exist
	ErrEquipmentNotFound = errors.New("equipment not found")

	// ErrSlotNotFound is returned when the target slot does not exist
	ErrSlotNotFound = errors.New("estimated equipment slot not found")

	// ErrSlotFull is returned when the target slot has no remaining capacity
	ErrSlotFull = errors.New("estimated equipment slot is at full capacity")

	// ErrAlreadyMatched is returned when matching an equipment that is already matched
	ErrAlreadyMatched = errors.New("equipment is already matched")

	// ErrNotMatched is returned when unmatching an equipment that is not matched
	ErrNotMatched = errors.New("equipment is not matched")
)

// Matcher produces equipment-to-slot pairings from summaries of the unmatched
// equipment and the available slots. Implementations may be LLM-backed or
// heuristic; they carry no capacity guarantee, so the engine re-validates
// every pairing before committing it.
type Matcher interface {
	MatchEquipment(ctx context.Context, unmatched []EquipmentSummary, slots []SlotSummary, prompt string) (map[uuid.UUID]uuid.UUID, error)
}

// EquipmentSummary is the fixed-shape view of an equipment passed to a Matcher
type EquipmentSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	SerialNumber string    `json:"serialNumber,omitempty"`
	PartNumber   string    `json:"partNumber,omitempty"`
	Type         string    `json:"type,omitempty"`
	Model        string    `json:"model,omitempty"`
}

// SlotSummary is the fixed-shape view of a slot passed to a Matcher
type SlotSummary struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Model     string    `json:"model"`
	Remaining int       `json:"remaining"`
}

// Pairing associates one equipment with the slot it was assigned to
type Pairing struct {
	EquipmentID uuid.UUID `json:"equipmentId"`
	SlotID      uuid.UUID `json:"slotId"`
}

// AutomaticResult reports the outcome of an AI-assisted matching pass.
// Dropped holds pairings the matcher proposed that failed capacity
// re-validation; callers surface these to the user instead of losing them.
type AutomaticResult struct {
	Applied []Pairing `json:"applied"`
	Dropped []Pairing `json:"dropped"`
}

// Engine mutates equipment and slot records in memory. Callers load the
// records, run an operation, and persist the touched rows in one transaction
// so readers never observe a half-applied assignment.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a matching engine
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Match assigns equipment to slot, consuming one unit of the slot's capacity.
// The committed AssignedCount on the slot is the single source of truth for
// capacity; there is no separate bookkeeping that could disagree with it.
func (e *Engine) Match(equipment *domain.Equipment, slot *domain.EstimatedEquipment) error {
	if equipment == nil {
		return ErrEquipmentNotFound
	}
	if slot == nil {
		return ErrSlotNotFound
	}
	if equipment.IsMatched {
		return fmt.Errorf("%w: equipment %s", ErrAlreadyMatched, equipment.ID)
	}
	if slot.AssignedCount >= slot.Quantity {
		return fmt.Errorf("%w: slot %s (%d/%d)", ErrSlotFull, slot.ID, slot.AssignedCount, slot.Quantity)
	}

	slotID := slot.ID
	equipment.IsMatched = true
	equipment.MatchedSlotID = &slotID
	slot.AssignedCount++

	return nil
}

// Unmatch reverses a match. The slot is looked up among the given slots by
// the equipment's matched reference; its assigned count is decremented,
// floored at zero. Returns the slot that was released.
func (e *Engine) Unmatch(equipment *domain.Equipment, slots []*domain.EstimatedEquipment) (*domain.EstimatedEquipment, error) {
	if equipment == nil {
		return nil, ErrEquipmentNotFound
	}
	if !equipment.IsMatched || equipment.MatchedSlotID == nil {
		return nil, fmt.Errorf("%w: equipment %s", ErrNotMatched, equipment.ID)
	}

	var slot *domain.EstimatedEquipment
	for _, s := range slots {
		if s.ID == *equipment.MatchedSlotID {
			slot = s
			break
		}
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %s", ErrSlotNotFound, *equipment.MatchedSlotID)
	}

	equipment.IsMatched = false
	equipment.MatchedSlotID = nil
	if slot.AssignedCount > 0 {
		slot.AssignedCount--
	}

	return slot, nil
}

// MatchAll assigns every unmatched equipment sequentially: slots are sorted
// by (type, model) ascending and each equipment, in its existing list order,
// fills the first slot with remaining capacity. No type/model compatibility
// check is applied; callers are responsible for warning the user that this
// mode is blind. Already-matched equipment is skipped. Returns the pairings
// made, in assignment order.
func (e *Engine) MatchAll(equipment []*domain.Equipment, slots []*domain.EstimatedEquipment) []Pairing {
	sorted := make([]*domain.EstimatedEquipment, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Type != sorted[j].Type {
			return sorted[i].Type < sorted[j].Type
		}
		return sorted[i].Model < sorted[j].Model
	})

	var pairings []Pairing
	for _, eq := range equipment {
		if eq.IsMatched {
			continue
		}
		for _, slot := range sorted {
			if slot.AssignedCount >= slot.Quantity {
				continue
			}
			if err := e.Match(eq, slot); err != nil {
				// Committed counter moved under us; try the next slot.
				continue
			}
			pairings = append(pairings, Pairing{EquipmentID: eq.ID, SlotID: slot.ID})
			break
		}
	}

	return pairings
}

// AutomaticMatch delegates pairing to the injected matcher, then re-validates
// each proposed pairing against the committed slot capacity and applies the
// valid ones. Proposals referencing unknown ids, already-matched equipment or
// full slots are collected in Dropped rather than silently discarded.
// A matcher error propagates unchanged; no assignments are made in that case.
func (e *Engine) AutomaticMatch(ctx context.Context, equipment []*domain.Equipment, slots []*domain.EstimatedEquipment, matcher Matcher, prompt string) (*AutomaticResult, error) {
	unmatched := make([]EquipmentSummary, 0, len(equipment))
	eqByID := make(map[uuid.UUID]*domain.Equipment, len(equipment))
	for _, eq := range equipment {
		eqByID[eq.ID] = eq
		if eq.IsMatched {
			continue
		}
		unmatched = append(unmatched, EquipmentSummary{
			ID:           eq.ID,
			Name:         eq.Name,
			SerialNumber: eq.SerialNumber,
			PartNumber:   eq.PartNumber,
			Type:         eq.Type,
			Model:        eq.Model,
		})
	}

	available := make([]SlotSummary, 0, len(slots))
	slotByID := make(map[uuid.UUID]*domain.EstimatedEquipment, len(slots))
	for _, slot := range slots {
		slotByID[slot.ID] = slot
		if slot.Remaining() <= 0 {
			continue
		}
		available = append(available, SlotSummary{
			ID:        slot.ID,
			Type:      slot.Type,
			Model:     slot.Model,
			Remaining: slot.Remaining(),
		})
	}

	proposed, err := matcher.MatchEquipment(ctx, unmatched, available, prompt)
	if err != nil {
		return nil, fmt.Errorf("semantic matcher failed: %w", err)
	}

	// Apply in deterministic order so two runs over the same proposal set
	// drop the same pairings when a slot oversubscribes.
	ids := make([]uuid.UUID, 0, len(proposed))
	for eqID := range proposed {
		ids = append(ids, eqID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	result := &AutomaticResult{}
	for _, eqID := range ids {
		slotID := proposed[eqID]
		pairing := Pairing{EquipmentID: eqID, SlotID: slotID}

		eq, ok := eqByID[eqID]
		if !ok {
			e.logger.Warn("matcher proposed unknown equipment", zap.String("equipment_id", eqID.String()))
			result.Dropped = append(result.Dropped, pairing)
			continue
		}
		slot, ok := slotByID[slotID]
		if !ok {
			e.logger.Warn("matcher proposed unknown slot", zap.String("slot_id", slotID.String()))
			result.Dropped = append(result.Dropped, pairing)
			continue
		}

		if err := e.Match(eq, slot); err != nil {
			e.logger.Debug("dropping stale matcher pairing",
				zap.String("equipment_id", eqID.String()),
				zap.String("slot_id", slotID.String()),
				zap.Error(err))
			result.Dropped = append(result.Dropped, pairing)
			continue
		}
		result.Applied = append(result.Applied, pairing)
	}

	return result, nil
}
