package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	DisplayName string
	Email       string
	Role        domain.UserRole
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// IsSuperAdmin checks if user is a platform super admin
func (u *UserContext) IsSuperAdmin() bool {
	return u.Role == domain.RoleSuperAdmin
}

// IsAdmin checks if user administers their tenant
func (u *UserContext) IsAdmin() bool {
	return u.HasAnyRole(domain.RoleSuperAdmin, domain.RoleAdmin)
}

// CanManageInventory checks if user may correct stock levels and pin
// stock statuses. Field technicians only record document changes.
func (u *UserContext) CanManageInventory() bool {
	return u.HasAnyRole(domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleKeyUser)
}

// CanAccessTenant checks if user can access data for a specific tenant
func (u *UserContext) CanAccessTenant(tenantID uuid.UUID) bool {
	if u.IsSuperAdmin() {
		return true
	}
	return u.TenantID == tenantID
}
