package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/mapper"
	"github.com/rackwise/receiving-api/internal/matching"
	"github.com/stretchr/testify/assert"
)

func TestToProjectResponse(t *testing.T) {
	now := time.Now()
	deliveryDate := now.AddDate(0, 1, 0)
	project := &domain.Project{
		BaseModel: domain.BaseModel{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:               "Hall 3 expansion",
		ProjectCode:        "MAD01-2026-0042",
		DatacenterID:       domain.DatacenterMAD,
		Client:             "Hyperion Cloud",
		RitmCode:           "RITM0048211",
		DeliveryDate:       &deliveryDate,
		Status:             domain.ProjectStatusInProgress,
		Progress:           45,
		EstimatedEquipment: 120,
		TeamMembers:        []string{"alice@rackwise.io", "bob@rackwise.io"},
		Slots: []domain.EstimatedEquipment{
			{
				BaseModel:     domain.BaseModel{ID: uuid.New()},
				Type:          "server",
				Model:         "PowerEdge R760",
				Quantity:      80,
				AssignedCount: 36,
			},
		},
	}

	resp := mapper.ToProjectResponse(project)

	assert.Equal(t, project.ID, resp.ID)
	assert.Equal(t, project.Name, resp.Name)
	assert.Equal(t, project.ProjectCode, resp.ProjectCode)
	assert.Equal(t, "mad01", resp.DatacenterID)
	assert.Equal(t, project.Client, resp.Client)
	assert.Equal(t, project.RitmCode, resp.RitmCode)
	assert.Equal(t, "in_progress", resp.Status)
	assert.Equal(t, 45, resp.Progress)
	assert.Equal(t, 120, resp.EstimatedEquipment)
	assert.Equal(t, []string{"alice@rackwise.io", "bob@rackwise.io"}, resp.TeamMembers)
	assert.Len(t, resp.Slots, 1)
	assert.Equal(t, 44, resp.Slots[0].Remaining)
}

func TestToProjectResponse_NilTeamMembers(t *testing.T) {
	project := &domain.Project{
		BaseModel:    domain.BaseModel{ID: uuid.New()},
		Name:         "Empty crew",
		DatacenterID: domain.DatacenterBCN,
		Status:       domain.ProjectStatusPending,
	}

	resp := mapper.ToProjectResponse(project)

	assert.NotNil(t, resp.TeamMembers)
	assert.Empty(t, resp.TeamMembers)
}

func TestToProjectSummaryResponse(t *testing.T) {
	project := &domain.Project{
		BaseModel:          domain.BaseModel{ID: uuid.New(), CreatedAt: time.Now()},
		Name:               "Row 12 refresh",
		ProjectCode:        "FRA03-2026-0007",
		DatacenterID:       domain.DatacenterFRA,
		Client:             "Borealis GmbH",
		Status:             domain.ProjectStatusCompleted,
		Progress:           100,
		EstimatedEquipment: 24,
		Orders:             []domain.Order{{}, {}, {}},
	}

	resp := mapper.ToProjectSummaryResponse(project)

	assert.Equal(t, project.ID, resp.ID)
	assert.Equal(t, "fra03", resp.DatacenterID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 3, resp.OrderCount)
}

func TestToDeliveryNoteResponse(t *testing.T) {
	attachmentID := uuid.New()
	noteID := uuid.New()
	note := &domain.DeliveryNote{
		BaseModel: domain.BaseModel{
			ID:        noteID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		OrderID:            uuid.New(),
		Code:               "DN-2026-118",
		EstimatedEquipment: 10,
		DeliveredEquipment: 8,
		VerifiedEquipment:  5,
		Status:             domain.DeliveryNoteStatusValidatingReception,
		Progress:           50,
		AttachmentID:       &attachmentID,
		Equipment: []domain.Equipment{
			{
				BaseModel:      domain.BaseModel{ID: uuid.New()},
				DeliveryNoteID: &noteID,
				Name:           "PowerEdge R760",
				SerialNumber:   "SN-4481-A",
				IsVerified:     true,
			},
		},
	}

	resp := mapper.ToDeliveryNoteResponse(note)

	assert.Equal(t, note.ID, resp.ID)
	assert.Equal(t, note.OrderID, resp.OrderID)
	assert.Equal(t, "DN-2026-118", resp.Code)
	assert.Equal(t, 8, resp.DeliveredEquipment)
	assert.Equal(t, 5, resp.VerifiedEquipment)
	assert.Equal(t, "validating_reception", resp.Status)
	assert.Equal(t, &attachmentID, resp.AttachmentID)
	assert.Len(t, resp.Equipment, 1)
	assert.Equal(t, "SN-4481-A", resp.Equipment[0].SerialNumber)
	assert.True(t, resp.Equipment[0].IsVerified)
}

func TestToEquipmentResponse(t *testing.T) {
	noteID := uuid.New()
	slotID := uuid.New()
	photo := "photos/eq-123.jpg"
	eq := &domain.Equipment{
		BaseModel: domain.BaseModel{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		DeliveryNoteID: &noteID,
		Name:           "Nexus 93180YC-FX3",
		SerialNumber:   "FDO26290ABC",
		PartNumber:     "N9K-C93180YC-FX3",
		DeviceName:     "sw-mad01-r12-01",
		Type:           "switch",
		Model:          "93180YC-FX3",
		IsMatched:      true,
		MatchedSlotID:  &slotID,
		IsVerified:     true,
		PhotoPath:      &photo,
	}

	resp := mapper.ToEquipmentResponse(eq)

	assert.Equal(t, eq.ID, resp.ID)
	assert.Equal(t, &noteID, resp.DeliveryNoteID)
	assert.Equal(t, eq.SerialNumber, resp.SerialNumber)
	assert.Equal(t, eq.PartNumber, resp.PartNumber)
	assert.Equal(t, eq.DeviceName, resp.DeviceName)
	assert.True(t, resp.IsMatched)
	assert.Equal(t, &slotID, resp.MatchedSlotID)
	assert.True(t, resp.IsVerified)
	assert.Equal(t, &photo, resp.PhotoPath)
}

func TestToPairingResponses(t *testing.T) {
	pairings := []matching.Pairing{
		{EquipmentID: uuid.New(), SlotID: uuid.New()},
		{EquipmentID: uuid.New(), SlotID: uuid.New()},
	}

	resps := mapper.ToPairingResponses(pairings)

	assert.Len(t, resps, 2)
	for i := range pairings {
		assert.Equal(t, pairings[i].EquipmentID, resps[i].EquipmentID)
		assert.Equal(t, pairings[i].SlotID, resps[i].SlotID)
	}
}

func TestToPairingResponses_Empty(t *testing.T) {
	resps := mapper.ToPairingResponses(nil)

	assert.NotNil(t, resps)
	assert.Empty(t, resps)
}

func TestToIncidentResponse(t *testing.T) {
	resolvedAt := time.Now()
	incident := &domain.Incident{
		BaseModel: domain.BaseModel{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		EquipmentID:    uuid.New(),
		Description:    "Bent rails on arrival",
		Status:         domain.IncidentStatusResolved,
		ResolvedAt:     &resolvedAt,
		ResolutionNote: "Vendor shipped replacement rails",
		Technician:     "C. Ortega",
		Comments: []domain.IncidentComment{
			{
				ID:     uuid.New(),
				Date:   time.Now(),
				Text:   "Opened RMA with vendor",
				Author: "C. Ortega",
			},
		},
	}

	resp := mapper.ToIncidentResponse(incident)

	assert.Equal(t, incident.ID, resp.ID)
	assert.Equal(t, incident.EquipmentID, resp.EquipmentID)
	assert.Equal(t, "resolved", resp.Status)
	assert.Equal(t, &resolvedAt, resp.ResolvedAt)
	assert.Equal(t, "Vendor shipped replacement rails", resp.ResolutionNote)
	assert.Len(t, resp.Comments, 1)
	assert.Equal(t, "Opened RMA with vendor", resp.Comments[0].Text)
}

func TestToUserResponse(t *testing.T) {
	dc := domain.DatacenterBCN
	lastLogin := time.Now()
	user := &domain.User{
		ID:           "user-123",
		Email:        "tech@rackwise.io",
		DisplayName:  "Site Tech",
		Roles:        []string{"technician"},
		DatacenterID: &dc,
		IsActive:     true,
		LastLoginAt:  &lastLogin,
	}

	resp := mapper.ToUserResponse(user)

	assert.Equal(t, user.ID, resp.ID)
	assert.Equal(t, user.Email, resp.Email)
	assert.Equal(t, []string{"technician"}, resp.Roles)
	assert.NotNil(t, resp.DatacenterID)
	assert.Equal(t, "bcn01", *resp.DatacenterID)
	assert.True(t, resp.IsActive)
}

func TestToUserResponse_NilRolesAndDatacenter(t *testing.T) {
	user := &domain.User{
		ID:    "user-456",
		Email: "global@rackwise.io",
	}

	resp := mapper.ToUserResponse(user)

	assert.NotNil(t, resp.Roles)
	assert.Empty(t, resp.Roles)
	assert.Nil(t, resp.DatacenterID)
}
