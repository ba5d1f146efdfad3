package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/repository"
	"github.com/rackwise/receiving-api/internal/service"
	"github.com/rackwise/receiving-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupOrderServiceTestDB(t *testing.T) *gorm.DB {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return db
}

func createOrderService(db *gorm.DB) *service.OrderService {
	orderRepo := repository.NewOrderRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	slotRepo := repository.NewEstimatedEquipmentRepository(db)
	logger := zap.NewNop()

	return service.NewOrderService(
		orderRepo,
		projectRepo,
		equipmentRepo,
		slotRepo,
		createProjectService(db),
		service.NewActivityService(repository.NewActivityRepository(db), logger),
		logger,
		db,
	)
}

func TestOrderService_Create(t *testing.T) {
	db := setupOrderServiceTestDB(t)
	svc := createOrderService(db)
	ctx := createProjectTestContext()

	project := testutil.CreateTestProject(t, db, "Order project")

	order, err := svc.Create(ctx, project.ID, &domain.CreateOrderRequest{
		Code:               "ORD-4001",
		EstimatedEquipment: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, project.ID, order.ProjectID)
	assert.Equal(t, "ORD-4001", order.Code)
	assert.Equal(t, 8, order.EstimatedEquipment)
	assert.Equal(t, 0, order.Progress)
}

func TestOrderService_Create_ProjectNotFound(t *testing.T) {
	db := setupOrderServiceTestDB(t)
	svc := createOrderService(db)
	ctx := createProjectTestContext()

	_, err := svc.Create(ctx, uuid.New(), &domain.CreateOrderRequest{Code: "ORD-0000"})
	assert.ErrorIs(t, err, service.ErrProjectNotFound)
}

func TestOrderService_Create_RefreshesProgress(t *testing.T) {
	db := setupOrderServiceTestDB(t)
	svc := createOrderService(db)
	ctx := createProjectTestContext()

	project := testutil.CreateTestProject(t, db, "Order refresh project")
	existingOrder := testutil.CreateTestOrder(t, db, project, "ORD-4002")
	note := testutil.CreateTestDeliveryNote(t, db, existingOrder, "DN-4101")

	equipment := &domain.Equipment{
		DeliveryNoteID: &note.ID,
		Name:           "PowerEdge R760",
		SerialNumber:   "SN-OR-0001",
		IsVerified:     true,
	}
	require.NoError(t, db.Create(equipment).Error)

	// Stale stored progress is repaired when the next order is added
	require.NoError(t, db.Model(&domain.Project{}).Where("id = ?", project.ID).Update("progress", 55).Error)

	_, err := svc.Create(ctx, project.ID, &domain.CreateOrderRequest{
		Code:               "ORD-4003",
		EstimatedEquipment: 4,
	})
	require.NoError(t, err)

	var refreshed domain.Project
	require.NoError(t, db.First(&refreshed, "id = ?", project.ID).Error)
	assert.Equal(t, 10, refreshed.Progress)
}

func TestOrderService_Delete_NotFound(t *testing.T) {
	db := setupOrderServiceTestDB(t)
	svc := createOrderService(db)
	ctx := createProjectTestContext()

	err := svc.Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestOrderService_Delete_RecomputesProgress(t *testing.T) {
	db := setupOrderServiceTestDB(t)
	svc := createOrderService(db)
	ctx := createProjectTestContext()

	project := testutil.CreateTestProject(t, db, "Order delete project")
	order := testutil.CreateTestOrder(t, db, project, "ORD-4004")
	note := testutil.CreateTestDeliveryNote(t, db, order, "DN-4102")

	equipment := &domain.Equipment{
		DeliveryNoteID: &note.ID,
		Name:           "PowerEdge R760",
		SerialNumber:   "SN-OR-0002",
		IsVerified:     true,
	}
	require.NoError(t, db.Create(equipment).Error)

	projectSvc := createProjectService(db)
	require.NoError(t, projectSvc.RefreshProgress(ctx, project.ID))

	var before domain.Project
	require.NoError(t, db.First(&before, "id = ?", project.ID).Error)
	assert.Greater(t, before.Progress, 0)

	require.NoError(t, svc.Delete(ctx, order.ID))

	var after domain.Project
	require.NoError(t, db.First(&after, "id = ?", project.ID).Error)
	assert.Equal(t, 0, after.Progress)
}

func TestOrderService_Delete_ReleasesSlotCapacity(t *testing.T) {
	db := setupOrderServiceTestDB(t)
	svc := createOrderService(db)
	equipmentSvc := createEquipmentService(db, nil)
	ctx := createProjectTestContext()

	fx := setupMatchingFixture(t, db, 2)

	unit, err := equipmentSvc.Create(ctx, fx.note.ID, &domain.CreateEquipmentRequest{Name: "Unit C", SerialNumber: "SN-OR-0003"})
	require.NoError(t, err)

	_, err = equipmentSvc.Match(ctx, unit.ID, fx.slot.ID)
	require.NoError(t, err)

	var before domain.EstimatedEquipment
	require.NoError(t, db.First(&before, "id = ?", fx.slot.ID).Error)
	require.Equal(t, 1, before.AssignedCount)

	// The cascade takes the matched unit with the order; the slot gets its
	// capacity back and can accept future matches
	require.NoError(t, svc.Delete(ctx, fx.order.ID))

	var slot domain.EstimatedEquipment
	require.NoError(t, db.First(&slot, "id = ?", fx.slot.ID).Error)
	assert.Equal(t, 0, slot.AssignedCount)
}
