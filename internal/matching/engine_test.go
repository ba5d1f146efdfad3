package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine() *Engine {
	return NewEngine(zap.NewNop())
}

func newEquipment(name string) *domain.Equipment {
	return &domain.Equipment{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Name:      name,
	}
}

func newSlot(slotType, model string, quantity int) *domain.EstimatedEquipment {
	return &domain.EstimatedEquipment{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Type:      slotType,
		Model:     model,
		Quantity:  quantity,
	}
}

func TestMatch(t *testing.T) {
	engine := newTestEngine()

	t.Run("assigns equipment and consumes capacity", func(t *testing.T) {
		eq := newEquipment("server-1")
		slot := newSlot("server", "PowerEdge R650", 2)

		err := engine.Match(eq, slot)
		require.NoError(t, err)

		assert.True(t, eq.IsMatched)
		require.NotNil(t, eq.MatchedSlotID)
		assert.Equal(t, slot.ID, *eq.MatchedSlotID)
		assert.Equal(t, 1, slot.AssignedCount)
	})

	t.Run("rejects full slot without side effects", func(t *testing.T) {
		slot := newSlot("server", "PowerEdge R650", 2)

		first := newEquipment("server-1")
		second := newEquipment("server-2")
		third := newEquipment("server-3")

		require.NoError(t, engine.Match(first, slot))
		require.NoError(t, engine.Match(second, slot))
		assert.Equal(t, 2, slot.AssignedCount)

		err := engine.Match(third, slot)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSlotFull)
		assert.Equal(t, 2, slot.AssignedCount)
		assert.False(t, third.IsMatched)
		assert.Nil(t, third.MatchedSlotID)
	})

	t.Run("rejects already matched equipment", func(t *testing.T) {
		eq := newEquipment("server-1")
		slot := newSlot("server", "PowerEdge R650", 2)
		other := newSlot("server", "PowerEdge R750", 2)

		require.NoError(t, engine.Match(eq, slot))

		err := engine.Match(eq, other)
		assert.ErrorIs(t, err, ErrAlreadyMatched)
		assert.Equal(t, 0, other.AssignedCount)
		assert.Equal(t, slot.ID, *eq.MatchedSlotID)
	})

	t.Run("nil arguments", func(t *testing.T) {
		assert.ErrorIs(t, engine.Match(nil, newSlot("a", "b", 1)), ErrEquipmentNotFound)
		assert.ErrorIs(t, engine.Match(newEquipment("x"), nil), ErrSlotNotFound)
	})
}

func TestUnmatch(t *testing.T) {
	engine := newTestEngine()

	t.Run("restores pre-match state exactly", func(t *testing.T) {
		eq := newEquipment("switch-1")
		slot := newSlot("switch", "Nexus 9300", 1)

		require.NoError(t, engine.Match(eq, slot))
		assert.Equal(t, 1, slot.AssignedCount)

		released, err := engine.Unmatch(eq, []*domain.EstimatedEquipment{slot})
		require.NoError(t, err)

		assert.Equal(t, slot, released)
		assert.Equal(t, 0, slot.AssignedCount)
		assert.False(t, eq.IsMatched)
		assert.Nil(t, eq.MatchedSlotID)
	})

	t.Run("rejects unmatched equipment", func(t *testing.T) {
		eq := newEquipment("switch-1")

		_, err := engine.Unmatch(eq, nil)
		assert.ErrorIs(t, err, ErrNotMatched)
	})

	t.Run("decrement floors at zero", func(t *testing.T) {
		eq := newEquipment("switch-1")
		slot := newSlot("switch", "Nexus 9300", 1)
		slotID := slot.ID
		eq.IsMatched = true
		eq.MatchedSlotID = &slotID
		slot.AssignedCount = 0 // inconsistent counter, must not go negative

		_, err := engine.Unmatch(eq, []*domain.EstimatedEquipment{slot})
		require.NoError(t, err)
		assert.Equal(t, 0, slot.AssignedCount)
	})

	t.Run("missing slot", func(t *testing.T) {
		eq := newEquipment("switch-1")
		ghost := uuid.New()
		eq.IsMatched = true
		eq.MatchedSlotID = &ghost

		_, err := engine.Unmatch(eq, nil)
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})
}

func TestMatchAll(t *testing.T) {
	engine := newTestEngine()

	t.Run("fills slots sorted by type then model in list order", func(t *testing.T) {
		slotB := newSlot("switch", "Nexus 9300", 1)
		slotA := newSlot("server", "PowerEdge R750", 2)
		slotC := newSlot("server", "PowerEdge R650", 1)

		eq1 := newEquipment("unit-1")
		eq2 := newEquipment("unit-2")
		eq3 := newEquipment("unit-3")
		eq4 := newEquipment("unit-4")

		pairings := engine.MatchAll(
			[]*domain.Equipment{eq1, eq2, eq3, eq4},
			[]*domain.EstimatedEquipment{slotB, slotA, slotC},
		)

		// server/R650 first, then server/R750 (x2), then switch/Nexus.
		require.Len(t, pairings, 4)
		assert.Equal(t, slotC.ID, pairings[0].SlotID)
		assert.Equal(t, slotA.ID, pairings[1].SlotID)
		assert.Equal(t, slotA.ID, pairings[2].SlotID)
		assert.Equal(t, slotB.ID, pairings[3].SlotID)

		assert.Equal(t, eq1.ID, pairings[0].EquipmentID)
		assert.Equal(t, eq2.ID, pairings[1].EquipmentID)
		assert.Equal(t, eq3.ID, pairings[2].EquipmentID)
		assert.Equal(t, eq4.ID, pairings[3].EquipmentID)
	})

	t.Run("is deterministic across invocations", func(t *testing.T) {
		build := func() ([]*domain.Equipment, []*domain.EstimatedEquipment) {
			return []*domain.Equipment{newEquipment("a"), newEquipment("b"), newEquipment("c")},
				[]*domain.EstimatedEquipment{
					newSlot("pdu", "APC 8959", 2),
					newSlot("cable", "QSFP28", 5),
				}
		}

		eqs1, slots1 := build()
		eqs2, slots2 := build()

		first := engine.MatchAll(eqs1, slots1)
		second := engine.MatchAll(eqs2, slots2)

		require.Equal(t, len(first), len(second))
		for i := range first {
			// Slot ordering by (type, model) is what must agree; the uuids differ.
			assert.Equal(t, slotIndex(slots1, first[i].SlotID), slotIndex(slots2, second[i].SlotID))
		}
	})

	t.Run("skips matched equipment and stops when capacity runs out", func(t *testing.T) {
		slot := newSlot("server", "R650", 1)
		matched := newEquipment("done")
		require.NoError(t, engine.Match(matched, newSlot("server", "R750", 1)))

		fresh1 := newEquipment("fresh-1")
		fresh2 := newEquipment("fresh-2")

		pairings := engine.MatchAll(
			[]*domain.Equipment{matched, fresh1, fresh2},
			[]*domain.EstimatedEquipment{slot},
		)

		require.Len(t, pairings, 1)
		assert.Equal(t, fresh1.ID, pairings[0].EquipmentID)
		assert.False(t, fresh2.IsMatched)
		assert.Equal(t, 1, slot.AssignedCount)
	})
}

// slotIndex returns the position of a slot id within the given slice
func slotIndex(slots []*domain.EstimatedEquipment, id uuid.UUID) int {
	for i, s := range slots {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// stubMatcher returns a fixed proposal or error
type stubMatcher struct {
	proposal map[uuid.UUID]uuid.UUID
	err      error
}

func (m *stubMatcher) MatchEquipment(_ context.Context, _ []EquipmentSummary, _ []SlotSummary, _ string) (map[uuid.UUID]uuid.UUID, error) {
	return m.proposal, m.err
}

func TestAutomaticMatch(t *testing.T) {
	engine := newTestEngine()
	ctx := context.Background()

	t.Run("applies valid pairings", func(t *testing.T) {
		eq := newEquipment("server-1")
		slot := newSlot("server", "R650", 1)
		matcher := &stubMatcher{proposal: map[uuid.UUID]uuid.UUID{eq.ID: slot.ID}}

		result, err := engine.AutomaticMatch(ctx, []*domain.Equipment{eq}, []*domain.EstimatedEquipment{slot}, matcher, "match by model")
		require.NoError(t, err)

		require.Len(t, result.Applied, 1)
		assert.Empty(t, result.Dropped)
		assert.True(t, eq.IsMatched)
		assert.Equal(t, 1, slot.AssignedCount)
	})

	t.Run("drops pairing into a full slot", func(t *testing.T) {
		slot := newSlot("server", "R650", 1)

		prior := newEquipment("manual")
		require.NoError(t, engine.Match(prior, slot)) // manual match raced ahead of the matcher

		eq := newEquipment("late")
		matcher := &stubMatcher{proposal: map[uuid.UUID]uuid.UUID{eq.ID: slot.ID}}

		result, err := engine.AutomaticMatch(ctx, []*domain.Equipment{prior, eq}, []*domain.EstimatedEquipment{slot}, matcher, "")
		require.NoError(t, err)

		assert.Empty(t, result.Applied)
		require.Len(t, result.Dropped, 1)
		assert.Equal(t, eq.ID, result.Dropped[0].EquipmentID)
		assert.Equal(t, 1, slot.AssignedCount)
		assert.False(t, eq.IsMatched)
	})

	t.Run("drops unknown ids", func(t *testing.T) {
		eq := newEquipment("server-1")
		slot := newSlot("server", "R650", 1)
		matcher := &stubMatcher{proposal: map[uuid.UUID]uuid.UUID{
			uuid.New(): slot.ID,
			eq.ID:      uuid.New(),
		}}

		result, err := engine.AutomaticMatch(ctx, []*domain.Equipment{eq}, []*domain.EstimatedEquipment{slot}, matcher, "")
		require.NoError(t, err)
		assert.Empty(t, result.Applied)
		assert.Len(t, result.Dropped, 2)
	})

	t.Run("propagates matcher error without assignments", func(t *testing.T) {
		eq := newEquipment("server-1")
		slot := newSlot("server", "R650", 1)
		matcher := &stubMatcher{err: errors.New("upstream model unavailable")}

		result, err := engine.AutomaticMatch(ctx, []*domain.Equipment{eq}, []*domain.EstimatedEquipment{slot}, matcher, "")
		require.Error(t, err)
		assert.Nil(t, result)
		assert.False(t, eq.IsMatched)
		assert.Equal(t, 0, slot.AssignedCount)
	})
}

func TestSlotInvariantUnderSequences(t *testing.T) {
	engine := newTestEngine()
	slot := newSlot("server", "R650", 3)

	var pool []*domain.Equipment
	for i := 0; i < 6; i++ {
		pool = append(pool, newEquipment("unit"))
	}

	// Interleave matches and unmatches; the counter must stay in 0..Quantity.
	for i, eq := range pool {
		_ = engine.Match(eq, slot)
		if i%2 == 1 {
			_, _ = engine.Unmatch(eq, []*domain.EstimatedEquipment{slot})
		}
		assert.GreaterOrEqual(t, slot.AssignedCount, 0)
		assert.LessOrEqual(t, slot.AssignedCount, slot.Quantity)
	}

	for _, eq := range pool {
		assert.Equal(t, eq.IsMatched, eq.MatchedSlotID != nil)
	}
}
