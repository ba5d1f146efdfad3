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

func setupIncidentServiceTestDB(t *testing.T) *gorm.DB {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return db
}

func createIncidentService(db *gorm.DB) *service.IncidentService {
	incidentRepo := repository.NewIncidentRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	logger := zap.NewNop()

	return service.NewIncidentService(incidentRepo, equipmentRepo,
		service.NewActivityService(activityRepo, logger), logger)
}

func createIncidentTestEquipment(t *testing.T, db *gorm.DB) *domain.Equipment {
	project := testutil.CreateTestProject(t, db, "Incident project")
	order := testutil.CreateTestOrder(t, db, project, "ORD-3001")
	note := testutil.CreateTestDeliveryNote(t, db, order, "DN-4001")

	equipment := &domain.Equipment{
		DeliveryNoteID: &note.ID,
		Name:           "PowerEdge R760",
		SerialNumber:   "SN-IN-0001",
	}
	require.NoError(t, db.Create(equipment).Error)
	return equipment
}

func TestIncidentService_Create(t *testing.T) {
	db := setupIncidentServiceTestDB(t)
	svc := createIncidentService(db)
	ctx := createProjectTestContext()

	equipment := createIncidentTestEquipment(t, db)

	incident, err := svc.Create(ctx, &domain.CreateIncidentRequest{
		EquipmentID: equipment.ID,
		Description: "Bent rail kit, chassis undamaged",
		Technician:  "J. Alba",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.IncidentStatusPending), incident.Status)
	assert.Equal(t, equipment.ID, incident.EquipmentID)
	assert.Empty(t, incident.Comments)
	assert.Nil(t, incident.ResolvedAt)
}

func TestIncidentService_Create_EquipmentNotFound(t *testing.T) {
	db := setupIncidentServiceTestDB(t)
	svc := createIncidentService(db)
	ctx := createProjectTestContext()

	_, err := svc.Create(ctx, &domain.CreateIncidentRequest{
		EquipmentID: uuid.New(),
		Description: "Ghost unit",
	})
	assert.ErrorIs(t, err, service.ErrEquipmentNotFound)
}

func TestIncidentService_FirstCommentMovesToInReview(t *testing.T) {
	db := setupIncidentServiceTestDB(t)
	svc := createIncidentService(db)
	ctx := createProjectTestContext()

	equipment := createIncidentTestEquipment(t, db)

	incident, err := svc.Create(ctx, &domain.CreateIncidentRequest{
		EquipmentID: equipment.ID,
		Description: "DOA power supply",
	})
	require.NoError(t, err)

	afterFirst, err := svc.AddComment(ctx, incident.ID, &domain.AddIncidentCommentRequest{
		Text:   "Swapped PSU with spare, retesting",
		Author: "M. Duarte",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.IncidentStatusInReview), afterFirst.Status)
	require.Len(t, afterFirst.Comments, 1)

	// Further comments leave the status alone
	afterSecond, err := svc.AddComment(ctx, incident.ID, &domain.AddIncidentCommentRequest{
		Text:   "Retest passed",
		Author: "M. Duarte",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.IncidentStatusInReview), afterSecond.Status)
	assert.Len(t, afterSecond.Comments, 2)
}

func TestIncidentService_Resolve_RequiresNote(t *testing.T) {
	db := setupIncidentServiceTestDB(t)
	svc := createIncidentService(db)
	ctx := createProjectTestContext()

	equipment := createIncidentTestEquipment(t, db)

	incident, err := svc.Create(ctx, &domain.CreateIncidentRequest{
		EquipmentID: equipment.ID,
		Description: "Wrong SKU delivered",
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, incident.ID, &domain.ResolveIncidentRequest{ResolutionNote: "   "})
	assert.ErrorIs(t, err, service.ErrResolutionNoteRequired)

	_, err = svc.Resolve(ctx, incident.ID, nil)
	assert.ErrorIs(t, err, service.ErrResolutionNoteRequired)
}

func TestIncidentService_Resolve_DirectlyFromPending(t *testing.T) {
	db := setupIncidentServiceTestDB(t)
	svc := createIncidentService(db)
	ctx := createProjectTestContext()

	equipment := createIncidentTestEquipment(t, db)

	incident, err := svc.Create(ctx, &domain.CreateIncidentRequest{
		EquipmentID: equipment.ID,
		Description: "Scratched bezel",
	})
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, incident.ID, &domain.ResolveIncidentRequest{
		ResolutionNote: "Cosmetic only, accepted by client",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.IncidentStatusResolved), resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "Cosmetic only, accepted by client", resolved.ResolutionNote)
}

func TestIncidentService_ResolvedIsTerminal(t *testing.T) {
	db := setupIncidentServiceTestDB(t)
	svc := createIncidentService(db)
	ctx := createProjectTestContext()

	equipment := createIncidentTestEquipment(t, db)

	incident, err := svc.Create(ctx, &domain.CreateIncidentRequest{
		EquipmentID: equipment.ID,
		Description: "Missing cable kit",
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, incident.ID, &domain.ResolveIncidentRequest{
		ResolutionNote: "Cable kit shipped separately, received",
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, incident.ID, &domain.ResolveIncidentRequest{
		ResolutionNote: "Trying to resolve again",
	})
	assert.ErrorIs(t, err, service.ErrIncidentResolved)

	_, err = svc.AddComment(ctx, incident.ID, &domain.AddIncidentCommentRequest{
		Text:   "Late comment",
		Author: "M. Duarte",
	})
	assert.ErrorIs(t, err, service.ErrIncidentResolved)
}

func TestIncidentService_ListAndCountOpen(t *testing.T) {
	db := setupIncidentServiceTestDB(t)
	svc := createIncidentService(db)
	ctx := createProjectTestContext()

	equipment := createIncidentTestEquipment(t, db)

	first, err := svc.Create(ctx, &domain.CreateIncidentRequest{
		EquipmentID: equipment.ID,
		Description: "First incident",
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &domain.CreateIncidentRequest{
		EquipmentID: equipment.ID,
		Description: "Second incident",
	})
	require.NoError(t, err)

	open, err := svc.CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, open)

	_, err = svc.Resolve(ctx, first.ID, &domain.ResolveIncidentRequest{ResolutionNote: "Done"})
	require.NoError(t, err)

	open, err = svc.CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, open)

	pending := domain.IncidentStatusPending
	incidents, total, err := svc.List(ctx, 1, 20, &pending, &equipment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, incidents, 1)
	assert.Equal(t, "Second incident", incidents[0].Description)
}

func TestIncidentService_Delete(t *testing.T) {
	db := setupIncidentServiceTestDB(t)
	svc := createIncidentService(db)
	ctx := createProjectTestContext()

	equipment := createIncidentTestEquipment(t, db)

	incident, err := svc.Create(ctx, &domain.CreateIncidentRequest{
		EquipmentID: equipment.ID,
		Description: "To be deleted",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, incident.ID))
	assert.ErrorIs(t, svc.Delete(ctx, incident.ID), service.ErrIncidentNotFound)
}
