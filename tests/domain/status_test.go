package domain_test

import (
	"testing"

	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// ProjectStatus Tests
// =============================================================================

func TestProjectStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.ProjectStatus
		expected bool
	}{
		{"pending is valid", domain.ProjectStatusPending, true},
		{"in_progress is valid", domain.ProjectStatusInProgress, true},
		{"completed is valid", domain.ProjectStatusCompleted, true},
		{"invalid status", domain.ProjectStatus("archived"), false},
		{"empty status", domain.ProjectStatus(""), false},
		{"cancelled is invalid", domain.ProjectStatus("cancelled"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsValid())
		})
	}
}

// =============================================================================
// DeliveryNoteStatus Tests
// =============================================================================

func TestDeliveryNoteStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.DeliveryNoteStatus
		expected bool
	}{
		{"pending is valid", domain.DeliveryNoteStatusPending, true},
		{"validating_delivery_note is valid", domain.DeliveryNoteStatusValidatingNote, true},
		{"validating_reception is valid", domain.DeliveryNoteStatusValidatingReception, true},
		{"completed is valid", domain.DeliveryNoteStatusCompleted, true},
		{"invalid status", domain.DeliveryNoteStatus("shipped"), false},
		{"empty status", domain.DeliveryNoteStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsValid())
		})
	}
}

// =============================================================================
// IncidentStatus Tests
// =============================================================================

func TestIncidentStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.IncidentStatus
		expected bool
	}{
		{"pending is valid", domain.IncidentStatusPending, true},
		{"in_review is valid", domain.IncidentStatusInReview, true},
		{"resolved is valid", domain.IncidentStatusResolved, true},
		{"invalid status", domain.IncidentStatus("closed"), false},
		{"empty status", domain.IncidentStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsValid())
		})
	}
}

// =============================================================================
// DatacenterID Tests
// =============================================================================

func TestIsValidDatacenterID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected bool
	}{
		{"mad01 is valid", "mad01", true},
		{"bcn01 is valid", "bcn01", true},
		{"par02 is valid", "par02", true},
		{"fra03 is valid", "fra03", true},
		{"ams01 is valid", "ams01", true},
		{"all is not a site", "all", false},
		{"unknown site", "lhr09", false},
		{"uppercase is invalid", "MAD01", false},
		{"empty is invalid", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.IsValidDatacenterID(tt.id))
		})
	}
}

func TestGetDatacenterPrefix(t *testing.T) {
	tests := []struct {
		name     string
		id       domain.DatacenterID
		expected string
	}{
		{"madrid", domain.DatacenterMAD, "MAD01"},
		{"barcelona", domain.DatacenterBCN, "BCN01"},
		{"paris", domain.DatacenterPAR, "PAR02"},
		{"frankfurt", domain.DatacenterFRA, "FRA03"},
		{"amsterdam", domain.DatacenterAMS, "AMS01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.GetDatacenterPrefix(tt.id))
		})
	}
}

// =============================================================================
// EstimatedEquipment Tests
// =============================================================================

func TestEstimatedEquipment_Remaining(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		assigned int
		expected int
	}{
		{"empty slot", 10, 0, 10},
		{"partially filled", 10, 4, 6},
		{"full slot", 5, 5, 0},
		{"zero quantity", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := &domain.EstimatedEquipment{
				Quantity:      tt.quantity,
				AssignedCount: tt.assigned,
			}
			assert.Equal(t, tt.expected, slot.Remaining())
		})
	}
}
