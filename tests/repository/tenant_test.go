package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/auth"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupMinimalTestDB creates a minimal test database for tenant filter tests
func setupMinimalTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

// SimpleModel is a minimal model for testing the datacenter filter
type SimpleModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	Name         string
	DatacenterID string `gorm:"column:datacenter_id"`
}

func TestApplyDatacenterFilter_WithFilter(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	mad := domain.DatacenterMAD
	filter := &auth.DatacenterFilter{
		DatacenterID: &mad,
	}
	ctx := auth.WithDatacenterFilter(context.Background(), filter)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyDatacenterFilter(ctx, tx.Model(&SimpleModel{})).Find(&[]SimpleModel{})
	})

	assert.Contains(t, sql, "datacenter_id", "Query should contain datacenter_id filter")
}

func TestApplyDatacenterFilter_WithoutFilter(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	// A user homed at "all" sees every site; no filter applies
	userCtx := &auth.UserContext{
		UserID:       uuid.New(),
		DatacenterID: domain.DatacenterAll,
		Roles:        []domain.UserRoleType{domain.RoleSiteLead},
	}
	ctx := auth.WithUserContext(context.Background(), userCtx)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyDatacenterFilter(ctx, tx.Model(&SimpleModel{})).Find(&[]SimpleModel{})
	})

	assert.NotContains(t, sql, "datacenter_id =", "Query should not contain datacenter_id filter for global users")
}

func TestApplyDatacenterFilter_SiteUserDefault(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	// Without an explicit filter in context, the user's home site applies
	userCtx := &auth.UserContext{
		UserID:       uuid.New(),
		DatacenterID: domain.DatacenterBCN,
		Roles:        []domain.UserRoleType{domain.RoleTechnician},
	}
	ctx := auth.WithUserContext(context.Background(), userCtx)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyDatacenterFilter(ctx, tx.Model(&SimpleModel{})).Find(&[]SimpleModel{})
	})

	assert.Contains(t, sql, "datacenter_id", "Query should fall back to the user's own site")
}

func TestApplyDatacenterFilterWithColumn(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	fra := domain.DatacenterFRA
	filter := &auth.DatacenterFilter{
		DatacenterID: &fra,
	}
	ctx := auth.WithDatacenterFilter(context.Background(), filter)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyDatacenterFilterWithColumn(ctx, tx.Model(&SimpleModel{}), "projects.datacenter_id").Find(&[]SimpleModel{})
	})

	assert.Contains(t, sql, "projects.datacenter_id", "Query should contain qualified column name")
}

func TestGetEffectiveDatacenterFilter_Priority(t *testing.T) {
	// An explicit filter set by middleware wins over the user's home site
	userCtx := &auth.UserContext{
		UserID:       uuid.New(),
		DatacenterID: domain.DatacenterMAD,
		Roles:        []domain.UserRoleType{domain.RoleTechnician},
	}
	ctx := auth.WithUserContext(context.Background(), userCtx)

	bcn := domain.DatacenterBCN
	ctx = auth.WithDatacenterFilter(ctx, &auth.DatacenterFilter{DatacenterID: &bcn})

	effective := auth.GetEffectiveDatacenterFilter(ctx)
	assert.NotNil(t, effective)
	assert.Equal(t, domain.DatacenterBCN, *effective)
}

func TestGetEffectiveDatacenterFilter_Empty(t *testing.T) {
	effective := auth.GetEffectiveDatacenterFilter(context.Background())
	assert.Nil(t, effective)
}

func TestBuildOrderClause(t *testing.T) {
	fieldMap := map[string]string{
		"name":      "name",
		"updatedAt": "updated_at",
		"status":    "status",
	}

	tests := []struct {
		name     string
		config   repository.SortConfig
		expected string
	}{
		{
			name:     "whitelisted field asc",
			config:   repository.SortConfig{Field: "name", Order: repository.SortOrderAsc},
			expected: "name ASC",
		},
		{
			name:     "whitelisted field desc",
			config:   repository.SortConfig{Field: "status", Order: repository.SortOrderDesc},
			expected: "status DESC",
		},
		{
			name:     "unknown field falls back to default column",
			config:   repository.SortConfig{Field: "progress; DROP TABLE projects", Order: repository.SortOrderAsc},
			expected: "updated_at ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, repository.BuildOrderClause(tt.config, fieldMap, "updated_at"))
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, repository.SortOrderAsc, repository.ParseSortOrder("asc"))
	assert.Equal(t, repository.SortOrderAsc, repository.ParseSortOrder("ASC"))
	assert.Equal(t, repository.SortOrderDesc, repository.ParseSortOrder("desc"))
	assert.Equal(t, repository.SortOrderDesc, repository.ParseSortOrder(""))
	assert.Equal(t, repository.SortOrderDesc, repository.ParseSortOrder("sideways"))
}
