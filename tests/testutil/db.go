package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/auth"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates a connection to the test PostgreSQL database
// It uses environment variables or falls back to docker-compose defaults
func SetupTestDB(t *testing.T) *gorm.DB {
	host := getEnvOrDefault("DATABASE_HOST", "localhost")
	port := getEnvOrDefault("DATABASE_PORT", "5432")
	user := getEnvOrDefault("DATABASE_USER", "fieldops_user")
	password := getEnvOrDefault("DATABASE_PASSWORD", "fieldops_password")
	dbname := getEnvOrDefault("DATABASE_NAME", "fieldops")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, user, password, dbname)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err, "Failed to connect to test database. Ensure PostgreSQL is running.")

	err = db.AutoMigrate(
		&domain.Tenant{},
		&domain.User{},
		&domain.Customer{},
		&domain.Product{},
		&domain.Invoice{},
		&domain.Quote{},
		&domain.Visit{},
		&domain.LineItem{},
		&domain.NumberSequence{},
		&domain.Notification{},
	)
	require.NoError(t, err)

	return db
}

// SetupCleanTestDB connects to the test database and wipes test data first
func SetupCleanTestDB(t *testing.T) *gorm.DB {
	db := SetupTestDB(t)
	CleanupTestData(t, db)
	return db
}

// CleanupTestData cleans up test data from all tables
// This should be called after tests to ensure a clean state
func CleanupTestData(t *testing.T, db *gorm.DB) {
	// Delete in order to respect foreign key constraints
	tables := []string{
		"notifications",
		"line_items",
		"invoices",
		"quotes",
		"visits",
		"number_sequences",
		"products",
		"customers",
		"users",
		"tenants",
	}

	for _, table := range tables {
		err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id IS NOT NULL", table)).Error
		if err != nil {
			// Table might not exist, that's ok
			t.Logf("Note: Could not clean table %s: %v", table, err)
		}
	}
}

// CreateTestTenant creates a tenant and returns it
func CreateTestTenant(t *testing.T, db *gorm.DB) *domain.Tenant {
	tenant := &domain.Tenant{
		Name:     fmt.Sprintf("Test Tenant %d", time.Now().UnixNano()),
		IsActive: true,
	}
	err := db.Create(tenant).Error
	require.NoError(t, err)
	return tenant
}

// CreateTestUser creates a user in the given tenant with the given role
func CreateTestUser(t *testing.T, db *gorm.DB, tenantID uuid.UUID, role domain.UserRole) *domain.User {
	user := &domain.User{
		TenantID:    tenantID,
		Email:       fmt.Sprintf("user-%d@example.com", time.Now().UnixNano()),
		DisplayName: "Test User",
		Role:        role,
		IsActive:    true,
	}
	err := db.Create(user).Error
	require.NoError(t, err)
	return user
}

// CreateTestCustomer creates a customer in the given tenant
func CreateTestCustomer(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name string) *domain.Customer {
	customer := &domain.Customer{
		TenantID: tenantID,
		Name:     name,
		Email:    "customer@example.com",
		Phone:    "12345678",
		Country:  "Norway",
	}
	err := db.Create(customer).Error
	require.NoError(t, err)
	return customer
}

// CreateTestProduct creates a product in the given tenant.
// Pass a nil stockLevel for an untracked product.
func CreateTestProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name string, stockLevel *int, minimumStock int) *domain.Product {
	status := domain.StockStatusAvailable
	if stockLevel != nil {
		status = domain.DeriveStockStatus(*stockLevel, minimumStock)
	}
	product := &domain.Product{
		TenantID:          tenantID,
		Name:              name,
		Kind:              domain.ProductKindGood,
		UnitPrice:         100,
		TaxRate:           25,
		StockLevel:        stockLevel,
		MinimumStockLevel: minimumStock,
		StockStatus:       status,
	}
	err := db.Create(product).Error
	require.NoError(t, err)
	return product
}

// IntPtr returns a pointer to the given int
func IntPtr(v int) *int {
	return &v
}

// AuthContext returns a context carrying an admin user for the given tenant
func AuthContext(tenantID uuid.UUID) context.Context {
	return AuthContextWithRole(tenantID, domain.RoleAdmin)
}

// AuthContextForUser returns a context carrying the given persisted user
func AuthContextForUser(user *domain.User) context.Context {
	userCtx := &auth.UserContext{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        user.Role,
	}
	return auth.WithUserContext(context.Background(), userCtx)
}

// AuthContextWithRole returns a context carrying a user with the given role
func AuthContextWithRole(tenantID uuid.UUID, role domain.UserRole) context.Context {
	userCtx := &auth.UserContext{
		UserID:      uuid.New(),
		TenantID:    tenantID,
		DisplayName: "Test User",
		Email:       "test@example.com",
		Role:        role,
	}
	return auth.WithUserContext(context.Background(), userCtx)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
