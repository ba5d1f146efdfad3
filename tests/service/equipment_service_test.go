package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/matching"
	"github.com/rackwise/receiving-api/internal/repository"
	"github.com/rackwise/receiving-api/internal/service"
	"github.com/rackwise/receiving-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeMatcher returns a fixed proposal regardless of input
type fakeMatcher map[uuid.UUID]uuid.UUID

func (m fakeMatcher) MatchEquipment(ctx context.Context, unmatched []matching.EquipmentSummary, slots []matching.SlotSummary, prompt string) (map[uuid.UUID]uuid.UUID, error) {
	return m, nil
}

func setupEquipmentServiceTestDB(t *testing.T) *gorm.DB {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return db
}

func createEquipmentService(db *gorm.DB, matcher matching.Matcher) *service.EquipmentService {
	equipmentRepo := repository.NewEquipmentRepository(db)
	slotRepo := repository.NewEstimatedEquipmentRepository(db)
	noteRepo := repository.NewDeliveryNoteRepository(db)
	logger := zap.NewNop()

	return service.NewEquipmentService(
		equipmentRepo,
		slotRepo,
		noteRepo,
		createProjectService(db),
		service.NewActivityService(repository.NewActivityRepository(db), logger),
		matching.NewEngine(logger),
		matcher,
		logger,
		db,
	)
}

// matchingFixture is a project with one order, one delivery note and one slot
type matchingFixture struct {
	project *domain.Project
	order   *domain.Order
	note    *domain.DeliveryNote
	slot    *domain.EstimatedEquipment
}

func setupMatchingFixture(t *testing.T, db *gorm.DB, slotQuantity int) matchingFixture {
	project := testutil.CreateTestProject(t, db, "Matching project")
	order := testutil.CreateTestOrder(t, db, project, "ORD-1001")
	note := testutil.CreateTestDeliveryNote(t, db, order, "DN-2001")

	slot := &domain.EstimatedEquipment{
		ProjectID: project.ID,
		Type:      "server",
		Model:     "PowerEdge R760",
		Quantity:  slotQuantity,
	}
	require.NoError(t, db.Create(slot).Error)

	return matchingFixture{project: project, order: order, note: note, slot: slot}
}

func TestEquipmentService_Create(t *testing.T) {
	db := setupEquipmentServiceTestDB(t)
	svc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 2)

	created, err := svc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{
		Name:         "PowerEdge R760",
		SerialNumber: "SN-AA-0001",
		PartNumber:   "210-BFLL",
		Type:         "server",
		Model:        "PowerEdge R760",
	})
	require.NoError(t, err)
	assert.False(t, created.IsMatched)
	assert.Nil(t, created.MatchedSlotID)
	assert.False(t, created.IsVerified)

	units, err := svc.ListByNote(ctx, fx.note.ID)
	require.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestEquipmentService_Create_NoteNotFound(t *testing.T) {
	db := setupEquipmentServiceTestDB(t)
	svc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	_, err := svc.Create(ctx, uuid.New(), &domain.CreateEquipmentRequest{Name: "Orphan"})
	assert.ErrorIs(t, err, service.ErrDeliveryNoteNotFound)
}

func TestEquipmentService_MatchAndUnmatch(t *testing.T) {
	db := setupEquipmentServiceTestDB(t)
	svc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 1)

	unit, err := svc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{
		Name: "PowerEdge R760", SerialNumber: "SN-AA-0002",
	})
	require.NoError(t, err)

	matched, err := svc.Match(ctx, unit.ID, fx.slot.ID)
	require.NoError(t, err)
	assert.True(t, matched.IsMatched)
	require.NotNil(t, matched.MatchedSlotID)
	assert.Equal(t, fx.slot.ID, *matched.MatchedSlotID)

	var slot domain.EstimatedEquipment
	require.NoError(t, db.First(&slot, "id = ?", fx.slot.ID).Error)
	assert.Equal(t, 1, slot.AssignedCount)

	// Matching an already matched unit fails
	_, err = svc.Match(ctx, unit.ID, fx.slot.ID)
	assert.ErrorIs(t, err, matching.ErrAlreadyMatched)

	released, err := svc.Unmatch(ctx, unit.ID)
	require.NoError(t, err)
	assert.False(t, released.IsMatched)
	assert.Nil(t, released.MatchedSlotID)

	require.NoError(t, db.First(&slot, "id = ?", fx.slot.ID).Error)
	assert.Equal(t, 0, slot.AssignedCount)

	_, err = svc.Unmatch(ctx, unit.ID)
	assert.ErrorIs(t, err, matching.ErrNotMatched)
}

func TestEquipmentService_Match_SlotFull(t *testing.T) {
	db := setupEquipmentServiceTestDB(t)
	svc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 1)

	first, err := svc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit A", SerialNumber: "SN-AA-0003"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit B", SerialNumber: "SN-AA-0004"})
	require.NoError(t, err)

	_, err = svc.Match(ctx, first.ID, fx.slot.ID)
	require.NoError(t, err)

	_, err = svc.Match(ctx, second.ID, fx.slot.ID)
	assert.ErrorIs(t, err, matching.ErrSlotFull)
}

func TestEquipmentService_Match_CrossProject(t *testing.T) {
	db := setupEquipmentServiceTestDB(t)
	svc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 1)

	other := testutil.CreateTestProject(t, db, "Other project")
	foreignSlot := &domain.EstimatedEquipment{
		ProjectID: other.ID,
		Type:      "server",
		Model:     "PowerEdge R760",
		Quantity:  5,
	}
	require.NoError(t, db.Create(foreignSlot).Error)

	unit, err := svc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit C", SerialNumber: "SN-AA-0005"})
	require.NoError(t, err)

	_, err = svc.Match(ctx, unit.ID, foreignSlot.ID)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestEquipmentService_Verify_IsOneWay(t *testing.T) {
	db := setupEquipmentServiceTestDB(t)
	svc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 1)

	unit, err := svc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit D", SerialNumber: "SN-AA-0006"})
	require.NoError(t, err)

	photo := "photos/sn-aa-0006.jpg"
	verified, err := svc.Verify(ctx, unit.ID, &domain.VerifyEquipmentRequest{PhotoPath: &photo})
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	require.NotNil(t, verified.PhotoPath)
	assert.Equal(t, photo, *verified.PhotoPath)

	// Verifying again is a no-op, never a rollback
	again, err := svc.Verify(ctx, unit.ID, &domain.VerifyEquipmentRequest{})
	require.NoError(t, err)
	assert.True(t, again.IsVerified)
}

func TestEquipmentService_Delete_ReleasesSlotCapacity(t *testing.T) {
	db := setupEquipmentServiceTestDB(t)
	svc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 1)

	unit, err := svc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit E", SerialNumber: "SN-AA-0007"})
	require.NoError(t, err)

	_, err = svc.Match(ctx, unit.ID, fx.slot.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, unit.ID))

	var slot domain.EstimatedEquipment
	require.NoError(t, db.First(&slot, "id = ?", fx.slot.ID).Error)
	assert.Equal(t, 0, slot.AssignedCount)
}

func TestEquipmentService_MatchAll(t *testing.T) {
	db := setupEquipmentServiceTestDB(t)
	svc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 2)

	first, err := svc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit F", SerialNumber: "SN-AA-0008"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit G", SerialNumber: "SN-AA-0009"})
	require.NoError(t, err)
	third, err := svc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit H", SerialNumber: "SN-AA-0010"})
	require.NoError(t, err)

	result, err := svc.MatchAll(ctx, fx.project.ID)
	require.NoError(t, err)
	require.Len(t, result.Applied, 2, "two units fit, the third is left unmatched")

	var slot domain.EstimatedEquipment
	require.NoError(t, db.First(&slot, "id = ?", fx.slot.ID).Error)
	assert.Equal(t, 2, slot.AssignedCount)

	matchedIDs := map[uuid.UUID]bool{}
	for _, pairing := range result.Applied {
		matchedIDs[pairing.EquipmentID] = true
		assert.Equal(t, fx.slot.ID, pairing.SlotID)
	}
	assert.True(t, matchedIDs[first.ID])
	assert.True(t, matchedIDs[second.ID])
	assert.False(t, matchedIDs[third.ID])

	// A second run has nothing left to assign
	again, err := svc.MatchAll(ctx, fx.project.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Applied)
}

func TestEquipmentService_AutomaticMatch_NoMatcher(t *testing.T) {
	db := setupEquipmentServiceTestDB(t)
	svc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 1)

	_, err := svc.AutomaticMatch(ctx, fx.project.ID, &domain.AutomaticMatchRequest{})
	assert.ErrorIs(t, err, service.ErrMatcherUnavailable)
}

func TestEquipmentService_AutomaticMatch_DropsOversubscribedProposals(t *testing.T) {
	db := setupEquipmentServiceTestDB(t)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 1)

	bootstrap := createEquipmentService(db, nil)
	first, err := bootstrap.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit I", SerialNumber: "SN-AA-0011"})
	require.NoError(t, err)
	second, err := bootstrap.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit J", SerialNumber: "SN-AA-0012"})
	require.NoError(t, err)

	// Both proposals target the same single-capacity slot
	svc := createEquipmentService(db, fakeMatcher{
		first.ID:  fx.slot.ID,
		second.ID: fx.slot.ID,
	})

	result, err := svc.AutomaticMatch(ctx, fx.project.ID, &domain.AutomaticMatchRequest{Prompt: "fill the server slot"})
	require.NoError(t, err)
	assert.Len(t, result.Applied, 1)
	assert.Len(t, result.Dropped, 1)

	var slot domain.EstimatedEquipment
	require.NoError(t, db.First(&slot, "id = ?", fx.slot.ID).Error)
	assert.Equal(t, 1, slot.AssignedCount)
}
