package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/auth"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/norfield-as/fieldops-api/internal/repository"
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

// SimpleModel is a minimal model for testing the tenant filter
type SimpleModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	Name     string
	TenantID uuid.UUID `gorm:"type:uuid;column:tenant_id"`
}

func authContext(tenantID uuid.UUID) context.Context {
	userCtx := &auth.UserContext{
		UserID:   uuid.New(),
		TenantID: tenantID,
		Role:     domain.RoleKeyUser,
	}
	return auth.WithUserContext(context.Background(), userCtx)
}

func TestApplyTenantFilter_WithUserContext(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	ctx := authContext(uuid.New())

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyTenantFilter(ctx, tx.Model(&SimpleModel{})).Find(&[]SimpleModel{})
	})

	assert.Contains(t, sql, "tenant_id", "Query should contain tenant_id filter")
}

func TestApplyTenantFilter_WithoutUserContext(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	// No user context: the filter must never fall open
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyTenantFilter(context.Background(), tx.Model(&SimpleModel{})).Find(&[]SimpleModel{})
	})

	assert.Contains(t, sql, "1 = 0", "Query without user context should match nothing")
	assert.NotContains(t, sql, "tenant_id =", "Query should not contain a tenant filter")
}

func TestApplyTenantFilterWithColumn(t *testing.T) {
	db := setupMinimalTestDB(t)
	_ = db.AutoMigrate(&SimpleModel{})

	ctx := authContext(uuid.New())

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return repository.ApplyTenantFilterWithColumn(ctx, tx.Model(&SimpleModel{}), "line_items.tenant_id").Find(&[]SimpleModel{})
	})

	assert.Contains(t, sql, "line_items.tenant_id", "Query should contain qualified column name")
}

func TestTenantFromContext(t *testing.T) {
	tenantID := uuid.New()

	got, ok := repository.TenantFromContext(authContext(tenantID))
	assert.True(t, ok)
	assert.Equal(t, tenantID, got)

	_, ok = repository.TenantFromContext(context.Background())
	assert.False(t, ok)
}

func TestBuildOrderClause(t *testing.T) {
	fieldMap := map[string]string{
		"name":      "name",
		"updatedAt": "updated_at",
	}

	tests := []struct {
		name     string
		config   repository.SortConfig
		expected string
	}{
		{
			name:     "whitelisted field ascending",
			config:   repository.SortConfig{Field: "name", Order: repository.SortOrderAsc},
			expected: "name ASC",
		},
		{
			name:     "whitelisted field descending",
			config:   repository.SortConfig{Field: "updatedAt", Order: repository.SortOrderDesc},
			expected: "updated_at DESC",
		},
		{
			name:     "unknown field falls back to default column",
			config:   repository.SortConfig{Field: "password; DROP TABLE", Order: repository.SortOrderAsc},
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
	assert.Equal(t, repository.SortOrderDesc, repository.ParseSortOrder("garbage"))
}
