package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/ai"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/repository"
	"github.com/rackwise/receiving-api/internal/service"
	"github.com/rackwise/receiving-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeExtractor returns a fixed set of extracted units
type fakeExtractor struct {
	units []ai.ExtractedEquipment
	err   error
}

func (f *fakeExtractor) ExtractEquipment(ctx context.Context, documentText string) ([]ai.ExtractedEquipment, error) {
	return f.units, f.err
}

func setupDeliveryNoteServiceTestDB(t *testing.T) *gorm.DB {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return db
}

func createDeliveryNoteService(db *gorm.DB, extractor service.EquipmentExtractor) *service.DeliveryNoteService {
	noteRepo := repository.NewDeliveryNoteRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	slotRepo := repository.NewEstimatedEquipmentRepository(db)
	fileRepo := repository.NewFileRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	logger := zap.NewNop()

	return service.NewDeliveryNoteService(
		noteRepo,
		orderRepo,
		equipmentRepo,
		slotRepo,
		fileRepo,
		createProjectService(db),
		service.NewActivityService(activityRepo, logger),
		extractor,
		nil,
		logger,
		db,
	)
}

func TestDeliveryNoteService_Create(t *testing.T) {
	db := setupDeliveryNoteServiceTestDB(t)
	svc := createDeliveryNoteService(db, nil)
	ctx := createProjectTestContext()

	project := testutil.CreateTestProject(t, db, "Note project")
	order := testutil.CreateTestOrder(t, db, project, "ORD-5001")

	note, err := svc.Create(ctx, order.ID, &domain.CreateDeliveryNoteRequest{
		Code:               "DN-6001",
		EstimatedEquipment: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, order.ID, note.OrderID)
	assert.Equal(t, string(domain.DeliveryNoteStatusPending), note.Status)
	assert.Equal(t, 12, note.EstimatedEquipment)
	assert.Equal(t, 0, note.DeliveredEquipment)
	assert.Equal(t, 0, note.Progress)
}

func TestDeliveryNoteService_Create_OrderNotFound(t *testing.T) {
	db := setupDeliveryNoteServiceTestDB(t)
	svc := createDeliveryNoteService(db, nil)
	ctx := createProjectTestContext()

	_, err := svc.Create(ctx, uuid.New(), &domain.CreateDeliveryNoteRequest{Code: "DN-0000"})
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestDeliveryNoteService_Update_StatusMovesForwardOnly(t *testing.T) {
	db := setupDeliveryNoteServiceTestDB(t)
	svc := createDeliveryNoteService(db, nil)
	ctx := createProjectTestContext()

	project := testutil.CreateTestProject(t, db, "Workflow project")
	order := testutil.CreateTestOrder(t, db, project, "ORD-5002")
	note := testutil.CreateTestDeliveryNote(t, db, order, "DN-6002")

	reception := string(domain.DeliveryNoteStatusValidatingReception)
	updated, err := svc.Update(ctx, note.ID, &domain.UpdateDeliveryNoteRequest{Status: &reception})
	require.NoError(t, err)
	assert.Equal(t, reception, updated.Status)

	// Skipping a stage forward is allowed; moving back is not
	back := string(domain.DeliveryNoteStatusValidatingNote)
	_, err = svc.Update(ctx, note.ID, &domain.UpdateDeliveryNoteRequest{Status: &back})
	assert.ErrorIs(t, err, service.ErrInvalidStatus)

	completed := string(domain.DeliveryNoteStatusCompleted)
	updated, err = svc.Update(ctx, note.ID, &domain.UpdateDeliveryNoteRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, completed, updated.Status)
}

func TestDeliveryNoteService_Update_InvalidStatus(t *testing.T) {
	db := setupDeliveryNoteServiceTestDB(t)
	svc := createDeliveryNoteService(db, nil)
	ctx := createProjectTestContext()

	project := testutil.CreateTestProject(t, db, "Invalid status project")
	order := testutil.CreateTestOrder(t, db, project, "ORD-5003")
	note := testutil.CreateTestDeliveryNote(t, db, order, "DN-6003")

	bad := "shipped"
	_, err := svc.Update(ctx, note.ID, &domain.UpdateDeliveryNoteRequest{Status: &bad})
	assert.ErrorIs(t, err, service.ErrInvalidStatus)
}

func TestDeliveryNoteService_ExtractEquipment_NoExtractor(t *testing.T) {
	db := setupDeliveryNoteServiceTestDB(t)
	svc := createDeliveryNoteService(db, nil)
	ctx := createProjectTestContext()

	project := testutil.CreateTestProject(t, db, "Extract project")
	order := testutil.CreateTestOrder(t, db, project, "ORD-5004")
	note := testutil.CreateTestDeliveryNote(t, db, order, "DN-6004")

	_, err := svc.ExtractEquipment(ctx, note.ID, &domain.ExtractEquipmentRequest{DocumentText: "2x PowerEdge R760"})
	assert.ErrorIs(t, err, service.ErrMatcherUnavailable)
}

func TestDeliveryNoteService_ExtractEquipment(t *testing.T) {
	db := setupDeliveryNoteServiceTestDB(t)
	extractor := &fakeExtractor{units: []ai.ExtractedEquipment{
		{Name: "PowerEdge R760", SerialNumber: "SN-EX-0001", PartNumber: "210-BFLL", Type: "server", Model: "PowerEdge R760"},
		{Name: "Nexus 9336C", SerialNumber: "SN-EX-0002", Type: "switch", Model: "Nexus 9336C"},
	}}
	svc := createDeliveryNoteService(db, extractor)
	ctx := createProjectTestContext()

	project := testutil.CreateTestProject(t, db, "Extract project")
	order := testutil.CreateTestOrder(t, db, project, "ORD-5005")
	note := testutil.CreateTestDeliveryNote(t, db, order, "DN-6005")

	units, err := svc.ExtractEquipment(ctx, note.ID, &domain.ExtractEquipmentRequest{
		DocumentText: "1x PowerEdge R760 SN-EX-0001, 1x Nexus 9336C SN-EX-0002",
	})
	require.NoError(t, err)
	require.Len(t, units, 2)
	for _, unit := range units {
		require.NotNil(t, unit.DeliveryNoteID)
		assert.Equal(t, note.ID, *unit.DeliveryNoteID)
		assert.False(t, unit.IsMatched)
		assert.False(t, unit.IsVerified)
	}

	// Extraction feeds the note's delivered count
	reloaded, err := svc.GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.DeliveredEquipment)
}

func TestDeliveryNoteService_Delete_RecomputesProgress(t *testing.T) {
	db := setupDeliveryNoteServiceTestDB(t)
	svc := createDeliveryNoteService(db, nil)
	ctx := createProjectTestContext()

	project := testutil.CreateTestProject(t, db, "Delete note project")
	order := testutil.CreateTestOrder(t, db, project, "ORD-5006")
	note := testutil.CreateTestDeliveryNote(t, db, order, "DN-6006")

	equipment := &domain.Equipment{
		DeliveryNoteID: &note.ID,
		Name:           "PowerEdge R760",
		SerialNumber:   "SN-DL-0001",
		IsVerified:     true,
	}
	require.NoError(t, db.Create(equipment).Error)

	projectSvc := createProjectService(db)
	require.NoError(t, projectSvc.RefreshProgress(ctx, project.ID))

	var before domain.Project
	require.NoError(t, db.First(&before, "id = ?", project.ID).Error)
	assert.Greater(t, before.Progress, 0)

	require.NoError(t, svc.Delete(ctx, note.ID))

	var after domain.Project
	require.NoError(t, db.First(&after, "id = ?", project.ID).Error)
	assert.Equal(t, 0, after.Progress)
}

func TestDeliveryNoteService_Create_RefreshesProgress(t *testing.T) {
	db := setupDeliveryNoteServiceTestDB(t)
	svc := createDeliveryNoteService(db, nil)
	ctx := createProjectTestContext()

	project := testutil.CreateTestProject(t, db, "Create refresh project")
	order := testutil.CreateTestOrder(t, db, project, "ORD-5007")
	existing := testutil.CreateTestDeliveryNote(t, db, order, "DN-6007")

	equipment := &domain.Equipment{
		DeliveryNoteID: &existing.ID,
		Name:           "PowerEdge R760",
		SerialNumber:   "SN-DL-0002",
		IsVerified:     true,
	}
	require.NoError(t, db.Create(equipment).Error)

	// Stale stored progress is repaired when the next note is registered
	require.NoError(t, db.Model(&domain.Project{}).Where("id = ?", project.ID).Update("progress", 55).Error)

	_, err := svc.Create(ctx, order.ID, &domain.CreateDeliveryNoteRequest{
		Code:               "DN-6008",
		EstimatedEquipment: 3,
	})
	require.NoError(t, err)

	var refreshed domain.Project
	require.NoError(t, db.First(&refreshed, "id = ?", project.ID).Error)
	assert.Equal(t, 10, refreshed.Progress)
}

func TestDeliveryNoteService_Delete_ReleasesSlotCapacity(t *testing.T) {
	db := setupDeliveryNoteServiceTestDB(t)
	svc := createDeliveryNoteService(db, nil)
	equipmentSvc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 2)
	otherNote := testutil.CreateTestDeliveryNote(t, db, fx.order, "DN-2002")

	onNote, err := equipmentSvc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit A", SerialNumber: "SN-ND-0001"})
	require.NoError(t, err)
	onOther, err := equipmentSvc.Create(ctx, otherNote.ID, &domain.CreateEquipmentRequest{Name: "Unit B", SerialNumber: "SN-ND-0002"})
	require.NoError(t, err)

	_, err = equipmentSvc.Match(ctx, onNote.ID, fx.slot.ID)
	require.NoError(t, err)
	_, err = equipmentSvc.Match(ctx, onOther.ID, fx.slot.ID)
	require.NoError(t, err)

	// Deleting the note cascades Unit A away; only its capacity is released
	require.NoError(t, svc.Delete(ctx, fx.note.ID))

	var slot domain.EstimatedEquipment
	require.NoError(t, db.First(&slot, "id = ?", fx.slot.ID).Error)
	assert.Equal(t, 1, slot.AssignedCount)

	var remaining int64
	require.NoError(t, db.Model(&domain.Equipment{}).Where("matched_slot_id = ?", fx.slot.ID).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
