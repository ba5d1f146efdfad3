package repository

import (
	"context"
	"strings"

	"github.com/rackwise/receiving-api/internal/auth"
	"gorm.io/gorm"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 200

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig holds sorting configuration for list queries
type SortConfig struct {
	Field string    // The field to sort by (API field name)
	Order SortOrder // asc or desc
}

// DefaultSortConfig returns a default sort configuration (updated_at DESC)
func DefaultSortConfig() SortConfig {
	return SortConfig{
		Field: "updatedAt",
		Order: SortOrderDesc,
	}
}

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// BuildOrderClause builds the SQL ORDER BY clause from field mapping and sort config
// fieldMap maps API field names to database column names
// Returns the default sort if field is not in whitelist
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if config.Order == SortOrderAsc {
		order = "ASC"
	}

	return column + " " + order
}

// ApplyDatacenterFilter applies the per-site datacenter filter to a GORM query
// This should be called on queries that need to be filtered by datacenter_id
// If no filter is set (user has access to all datacenters), the query is returned unchanged
func ApplyDatacenterFilter(ctx context.Context, query *gorm.DB) *gorm.DB {
	datacenterID := auth.GetEffectiveDatacenterFilter(ctx)
	if datacenterID != nil {
		return query.Where("datacenter_id = ?", *datacenterID)
	}
	return query
}

// ApplyDatacenterFilterWithColumn applies the datacenter filter using a specific column name
// Use this when the datacenter_id column needs table qualification
func ApplyDatacenterFilterWithColumn(ctx context.Context, query *gorm.DB, columnName string) *gorm.DB {
	datacenterID := auth.GetEffectiveDatacenterFilter(ctx)
	if datacenterID != nil {
		return query.Where(columnName+" = ?", *datacenterID)
	}
	return query
}
