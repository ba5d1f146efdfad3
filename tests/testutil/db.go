package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates a connection to the test PostgreSQL database
// It uses environment variables or falls back to docker-compose defaults
func SetupTestDB(t *testing.T) *gorm.DB {
	host := getEnvOrDefault("DATABASE_HOST", "localhost")
	port := getEnvOrDefault("DATABASE_PORT", "5432")
	user := getEnvOrDefault("DATABASE_USER", "receiving_user")
	password := getEnvOrDefault("DATABASE_PASSWORD", "receiving_password")
	dbname := getEnvOrDefault("DATABASE_NAME", "receiving")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, user, password, dbname)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err, "Failed to connect to test database. Ensure PostgreSQL is running.")

	// Ensure test datacenters exist
	EnsureTestDatacenters(t, db)

	return db
}

// CleanupTestData cleans up test data from all tables
// This should be called after tests to ensure a clean state
func CleanupTestData(t *testing.T, db *gorm.DB) {
	// Delete in order to respect foreign key constraints
	tables := []string{
		"incident_comments",
		"incidents",
		"activities",
		"equipment",
		"files",
		"delivery_notes",
		"orders",
		"estimated_equipment",
		"projects",
		"number_sequences",
	}

	for _, table := range tables {
		err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id IS NOT NULL", table)).Error
		if err != nil {
			// Table might not exist, that's ok
			t.Logf("Note: Could not clean table %s: %v", table, err)
		}
	}
}

// CreateTestProject creates a project with a unique code and returns it
func CreateTestProject(t *testing.T, db *gorm.DB, name string) *domain.Project {
	code := fmt.Sprintf("MAD01-2026-%04d", randomInt()%10000)
	project := &domain.Project{
		Name:               name,
		ProjectCode:        code,
		DatacenterID:       domain.DatacenterMAD,
		Client:             "Test Client",
		Status:             domain.ProjectStatusPending,
		EstimatedEquipment: 10,
	}
	// Omit associations to avoid GORM trying to validate/create related records
	err := db.Omit(clause.Associations).Create(project).Error
	require.NoError(t, err)
	return project
}

// CreateTestOrder creates an order under the given project
func CreateTestOrder(t *testing.T, db *gorm.DB, project *domain.Project, code string) *domain.Order {
	order := &domain.Order{
		ProjectID:          project.ID,
		Code:               code,
		EstimatedEquipment: 5,
	}
	err := db.Omit(clause.Associations).Create(order).Error
	require.NoError(t, err)
	return order
}

// CreateTestDeliveryNote creates a delivery note under the given order
func CreateTestDeliveryNote(t *testing.T, db *gorm.DB, order *domain.Order, code string) *domain.DeliveryNote {
	note := &domain.DeliveryNote{
		OrderID:            order.ID,
		Code:               code,
		EstimatedEquipment: 5,
		Status:             domain.DeliveryNoteStatusPending,
	}
	err := db.Omit(clause.Associations).Create(note).Error
	require.NoError(t, err)
	return note
}

// randomInt returns a unique integer for test data
func randomInt() int64 {
	return time.Now().UnixNano()
}

// EnsureTestDatacenters creates datacenter records if they don't exist
func EnsureTestDatacenters(t *testing.T, db *gorm.DB) {
	datacenters := []struct {
		id        string
		name      string
		shortName string
	}{
		{string(domain.DatacenterMAD), "Madrid 01", "MAD01"},
		{string(domain.DatacenterBCN), "Barcelona 01", "BCN01"},
		{string(domain.DatacenterPAR), "Paris 02", "PAR02"},
		{string(domain.DatacenterFRA), "Frankfurt 03", "FRA03"},
		{string(domain.DatacenterAMS), "Amsterdam 01", "AMS01"},
	}

	for _, dc := range datacenters {
		// Try to insert, ignore if already exists
		err := db.Exec(`
			INSERT INTO datacenters (id, name, short_name, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, true, NOW(), NOW())
			ON CONFLICT (id) DO NOTHING
		`, dc.id, dc.name, dc.shortName).Error
		if err != nil {
			t.Logf("Note: Could not insert datacenter %s: %v", dc.id, err)
		}
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
