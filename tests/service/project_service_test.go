package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/auth"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/repository"
	"github.com/rackwise/receiving-api/internal/service"
	"github.com/rackwise/receiving-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupProjectServiceTestDB(t *testing.T) *gorm.DB {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return db
}

func createProjectService(db *gorm.DB) *service.ProjectService {
	projectRepo := repository.NewProjectRepository(db)
	slotRepo := repository.NewEstimatedEquipmentRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	numberSeqRepo := repository.NewNumberSequenceRepository(db)
	logger := zap.NewNop()

	activityService := service.NewActivityService(activityRepo, logger)
	numberSeqService := service.NewNumberSequenceService(numberSeqRepo, logger)

	return service.NewProjectService(projectRepo, slotRepo, equipmentRepo, activityService, numberSeqService, logger, db)
}

func createProjectTestContext() context.Context {
	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Test User",
		Email:       "test@example.com",
		Roles:       []domain.UserRoleType{domain.RoleAdmin},
	})
	return ctx
}

func TestProjectService_Create(t *testing.T) {
	db := setupProjectServiceTestDB(t)
	svc := createProjectService(db)
	ctx := createProjectTestContext()

	req := &domain.CreateProjectRequest{
		Name:               "Hall B expansion",
		DatacenterID:       "mad01",
		Client:             "Acme Cloud",
		RitmCode:           "RITM0042913",
		EstimatedEquipment: 120,
		TeamMembers:        []string{"ops-team-a"},
		Slots: []domain.CreateSlotRequest{
			{Type: "server", Model: "PowerEdge R760", Quantity: 40},
			{Type: "switch", Model: "Nexus 9336C", Quantity: 8},
		},
	}

	project, err := svc.Create(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, project)

	assert.Equal(t, req.Name, project.Name)
	assert.Equal(t, "mad01", project.DatacenterID)
	assert.Equal(t, req.Client, project.Client)
	assert.Equal(t, string(domain.ProjectStatusPending), project.Status)
	assert.Equal(t, 0, project.Progress)
	assert.Equal(t, 120, project.EstimatedEquipment)
	assert.True(t, strings.HasPrefix(project.ProjectCode, "MAD01-"), "project code %q should carry the site prefix", project.ProjectCode)
	assert.Len(t, project.Slots, 2)
	for _, slot := range project.Slots {
		assert.Equal(t, 0, slot.AssignedCount)
		assert.Equal(t, slot.Quantity, slot.Remaining)
	}
}

func TestProjectService_Create_InvalidDatacenter(t *testing.T) {
	db := setupProjectServiceTestDB(t)
	svc := createProjectService(db)
	ctx := createProjectTestContext()

	_, err := svc.Create(ctx, &domain.CreateProjectRequest{
		Name:         "Nowhere project",
		DatacenterID: "lhr09",
		Client:       "Acme Cloud",
	})
	assert.ErrorIs(t, err, service.ErrInvalidDatacenterID)
}

func TestProjectService_GetByID_NotFound(t *testing.T) {
	db := setupProjectServiceTestDB(t)
	svc := createProjectService(db)
	ctx := createProjectTestContext()

	_, err := svc.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrProjectNotFound)
}

func TestProjectService_Update(t *testing.T) {
	db := setupProjectServiceTestDB(t)
	svc := createProjectService(db)
	ctx := createProjectTestContext()

	created, err := svc.Create(ctx, &domain.CreateProjectRequest{
		Name:         "Initial name",
		DatacenterID: "bcn01",
		Client:       "Acme Cloud",
	})
	require.NoError(t, err)

	newName := "Renamed project"
	newStatus := string(domain.ProjectStatusInProgress)
	updated, err := svc.Update(ctx, created.ID, &domain.UpdateProjectRequest{
		Name:   &newName,
		Status: &newStatus,
	})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, newStatus, updated.Status)
	assert.Equal(t, created.ProjectCode, updated.ProjectCode, "project code is immutable")
}

func TestProjectService_Update_InvalidStatus(t *testing.T) {
	db := setupProjectServiceTestDB(t)
	svc := createProjectService(db)
	ctx := createProjectTestContext()

	created, err := svc.Create(ctx, &domain.CreateProjectRequest{
		Name:         "Status project",
		DatacenterID: "bcn01",
		Client:       "Acme Cloud",
	})
	require.NoError(t, err)

	bad := "archived"
	_, err = svc.Update(ctx, created.ID, &domain.UpdateProjectRequest{Status: &bad})
	assert.ErrorIs(t, err, service.ErrInvalidStatus)
}

func TestProjectService_Delete(t *testing.T) {
	db := setupProjectServiceTestDB(t)
	svc := createProjectService(db)
	ctx := createProjectTestContext()

	created, err := svc.Create(ctx, &domain.CreateProjectRequest{
		Name:         "To be deleted",
		DatacenterID: "fra03",
		Client:       "Acme Cloud",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrProjectNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), service.ErrProjectNotFound)
}

func TestProjectService_Slots(t *testing.T) {
	db := setupProjectServiceTestDB(t)
	svc := createProjectService(db)
	ctx := createProjectTestContext()

	created, err := svc.Create(ctx, &domain.CreateProjectRequest{
		Name:         "Slot project",
		DatacenterID: "ams01",
		Client:       "Acme Cloud",
	})
	require.NoError(t, err)

	slot, err := svc.AddSlot(ctx, created.ID, &domain.CreateSlotRequest{
		Type:     "server",
		Model:    "ThinkSystem SR650",
		Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, slot.Quantity)
	assert.Equal(t, 10, slot.Remaining)

	slots, err := svc.ListSlots(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)

	newQuantity := 4
	updated, err := svc.UpdateSlot(ctx, slot.ID, &domain.UpdateSlotRequest{Quantity: &newQuantity})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	require.NoError(t, svc.DeleteSlot(ctx, slot.ID))

	slots, err = svc.ListSlots(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestProjectService_UpdateSlot_QuantityBelowAssigned(t *testing.T) {
	db := setupProjectServiceTestDB(t)
	svc := createProjectService(db)
	ctx := createProjectTestContext()

	created, err := svc.Create(ctx, &domain.CreateProjectRequest{
		Name:         "Capacity project",
		DatacenterID: "mad01",
		Client:       "Acme Cloud",
	})
	require.NoError(t, err)

	slot, err := svc.AddSlot(ctx, created.ID, &domain.CreateSlotRequest{
		Type:     "server",
		Model:    "PowerEdge R760",
		Quantity: 5,
	})
	require.NoError(t, err)

	// Simulate three committed assignments
	err = db.Model(&domain.EstimatedEquipment{}).Where("id = ?", slot.ID).
		Update("assigned_count", 3).Error
	require.NoError(t, err)

	tooLow := 2
	_, err = svc.UpdateSlot(ctx, slot.ID, &domain.UpdateSlotRequest{Quantity: &tooLow})
	assert.ErrorIs(t, err, service.ErrQuantityBelowAssigned)

	exact := 3
	updated, err := svc.UpdateSlot(ctx, slot.ID, &domain.UpdateSlotRequest{Quantity: &exact})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, 0, updated.Remaining)
}

func TestProjectService_DeleteSlot_WithAssignments(t *testing.T) {
	db := setupProjectServiceTestDB(t)
	svc := createProjectService(db)
	ctx := createProjectTestContext()

	created, err := svc.Create(ctx, &domain.CreateProjectRequest{
		Name:         "Assigned slot project",
		DatacenterID: "mad01",
		Client:       "Acme Cloud",
	})
	require.NoError(t, err)

	slot, err := svc.AddSlot(ctx, created.ID, &domain.CreateSlotRequest{
		Type:     "switch",
		Model:    "Nexus 9336C",
		Quantity: 2,
	})
	require.NoError(t, err)

	err = db.Model(&domain.EstimatedEquipment{}).Where("id = ?", slot.ID).
		Update("assigned_count", 1).Error
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteSlot(ctx, slot.ID), service.ErrSlotHasAssignments)
}

func TestProjectService_Search(t *testing.T) {
	db := setupProjectServiceTestDB(t)
	svc := createProjectService(db)
	ctx := createProjectTestContext()

	created, err := svc.Create(ctx, &domain.CreateProjectRequest{
		Name:         "Searchable GPU cluster",
		DatacenterID: "par02",
		Client:       "Hyperion Labs",
	})
	require.NoError(t, err)

	byName, err := svc.Search(ctx, "GPU cluster", 10)
	require.NoError(t, err)
	require.NotEmpty(t, byName)
	assert.Equal(t, created.ID, byName[0].ID)

	byClient, err := svc.Search(ctx, "Hyperion", 10)
	require.NoError(t, err)
	require.NotEmpty(t, byClient)
	assert.Equal(t, created.ID, byClient[0].ID)
}
