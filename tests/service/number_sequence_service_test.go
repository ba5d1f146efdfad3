package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/repository"
	"github.com/rackwise/receiving-api/internal/service"
	"github.com/rackwise/receiving-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestGetDatacenterPrefix tests the datacenter prefix mapping
func TestGetDatacenterPrefix(t *testing.T) {
	tests := []struct {
		name         string
		datacenterID domain.DatacenterID
		expected     string
	}{
		{
			name:         "mad01 returns MAD01",
			datacenterID: domain.DatacenterMAD,
			expected:     "MAD01",
		},
		{
			name:         "bcn01 returns BCN01",
			datacenterID: domain.DatacenterBCN,
			expected:     "BCN01",
		},
		{
			name:         "par02 returns PAR02",
			datacenterID: domain.DatacenterPAR,
			expected:     "PAR02",
		},
		{
			name:         "fra03 returns FRA03",
			datacenterID: domain.DatacenterFRA,
			expected:     "FRA03",
		},
		{
			name:         "ams01 returns AMS01",
			datacenterID: domain.DatacenterAMS,
			expected:     "AMS01",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := domain.GetDatacenterPrefix(tc.datacenterID)
			if result != tc.expected {
				t.Errorf("GetDatacenterPrefix(%q) = %q, want %q", tc.datacenterID, result, tc.expected)
			}
		})
	}
}

// TestIsValidDatacenterID tests the datacenter ID validation
func TestIsValidDatacenterID(t *testing.T) {
	tests := []struct {
		name         string
		datacenterID string
		expected     bool
	}{
		{
			name:         "valid mad01",
			datacenterID: "mad01",
			expected:     true,
		},
		{
			name:         "valid bcn01",
			datacenterID: "bcn01",
			expected:     true,
		},
		{
			name:         "valid par02",
			datacenterID: "par02",
			expected:     true,
		},
		{
			name:         "valid fra03",
			datacenterID: "fra03",
			expected:     true,
		},
		{
			name:         "valid ams01",
			datacenterID: "ams01",
			expected:     true,
		},
		{
			name:         "all is not a concrete site",
			datacenterID: "all",
			expected:     false,
		},
		{
			name:         "invalid unknown",
			datacenterID: "unknown",
			expected:     false,
		},
		{
			name:         "invalid empty",
			datacenterID: "",
			expected:     false,
		},
		{
			name:         "invalid uppercase",
			datacenterID: "MAD01",
			expected:     false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := domain.IsValidDatacenterID(tc.datacenterID)
			if result != tc.expected {
				t.Errorf("IsValidDatacenterID(%q) = %v, want %v", tc.datacenterID, result, tc.expected)
			}
		})
	}
}

func setupNumberSequenceTestDB(t *testing.T) *gorm.DB {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return db
}

func createNumberSequenceService(db *gorm.DB) *service.NumberSequenceService {
	repo := repository.NewNumberSequenceRepository(db)
	return service.NewNumberSequenceService(repo, zap.NewNop())
}

func TestNumberSequenceService_GenerateProjectNumber(t *testing.T) {
	db := setupNumberSequenceTestDB(t)
	svc := createNumberSequenceService(db)
	ctx := context.Background()

	year := time.Now().Year()

	first, err := svc.GenerateProjectNumber(ctx, domain.DatacenterPAR)
	require.NoError(t, err)

	current, err := svc.GetCurrentSequence(ctx, domain.DatacenterPAR, year)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PAR02-%d-%04d", year, current), first)

	second, err := svc.GenerateProjectNumber(ctx, domain.DatacenterPAR)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PAR02-%d-%04d", year, current+1), second)
	assert.NotEqual(t, first, second)
}

func TestNumberSequenceService_GenerateProjectNumber_InvalidDatacenter(t *testing.T) {
	db := setupNumberSequenceTestDB(t)
	svc := createNumberSequenceService(db)
	ctx := context.Background()

	_, err := svc.GenerateProjectNumber(ctx, domain.DatacenterID("nowhere"))
	assert.ErrorIs(t, err, service.ErrInvalidDatacenterID)
}

func TestNumberSequenceService_SequencesAreIndependentPerDatacenter(t *testing.T) {
	db := setupNumberSequenceTestDB(t)
	svc := createNumberSequenceService(db)
	ctx := context.Background()

	year := time.Now().Year()

	before, err := svc.GetCurrentSequence(ctx, domain.DatacenterFRA, year)
	require.NoError(t, err)

	_, err = svc.GenerateProjectNumber(ctx, domain.DatacenterAMS)
	require.NoError(t, err)

	after, err := svc.GetCurrentSequence(ctx, domain.DatacenterFRA, year)
	require.NoError(t, err)
	assert.Equal(t, before, after, "generating for ams01 must not advance fra03")
}

func TestNumberSequenceService_InitializeSequence(t *testing.T) {
	db := setupNumberSequenceTestDB(t)
	svc := createNumberSequenceService(db)
	ctx := context.Background()

	year := time.Now().Year()

	err := svc.InitializeSequence(ctx, domain.DatacenterBCN, year, 500)
	require.NoError(t, err)

	number, err := svc.GenerateProjectNumber(ctx, domain.DatacenterBCN)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("BCN01-%d-0501", year), number)
}
