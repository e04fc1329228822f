package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/auth"
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

// ApplyTenantFilter applies the multi-tenant filter to a GORM query.
// Every query against tenant-owned tables must go through this; a request
// without user context yields an impossible filter rather than full access.
func ApplyTenantFilter(ctx context.Context, query *gorm.DB) *gorm.DB {
	return ApplyTenantFilterWithColumn(ctx, query, "tenant_id")
}

// ApplyTenantFilterWithColumn applies the tenant filter using a specific
// column name, for joins where tenant_id needs table qualification
func ApplyTenantFilterWithColumn(ctx context.Context, query *gorm.DB, columnName string) *gorm.DB {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return query.Where("1 = 0")
	}
	return query.Where(columnName+" = ?", userCtx.TenantID)
}

// TenantFromContext returns the tenant ID for the authenticated user
func TenantFromContext(ctx context.Context) (uuid.UUID, bool) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return userCtx.TenantID, true
}
