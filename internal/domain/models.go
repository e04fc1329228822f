package domain

import (
	"time"

	"github.com/google/uuid"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// Tenant represents an organization account. Every business record in the
// system belongs to exactly one tenant.
type Tenant struct {
	BaseModel
	Name     string `gorm:"type:varchar(200);not null"`
	IsActive bool   `gorm:"not null;default:true;column:is_active"`
}

// UserRole represents a user's role within a tenant
type UserRole string

const (
	RoleFieldTechnician UserRole = "field_technician"
	RoleKeyUser         UserRole = "key_user"
	RoleAdmin           UserRole = "admin"
	RoleSuperAdmin      UserRole = "super_admin"
)

// IsValid checks if the UserRole is a valid enum value
func (r UserRole) IsValid() bool {
	switch r {
	case RoleFieldTechnician, RoleKeyUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// OperationalAlertRoles returns the roles that receive operational alerts
// such as low-stock notifications. Field technicians are excluded; whether
// platform super admins are included is a deployment decision.
func OperationalAlertRoles(includeSuperAdmins bool) []UserRole {
	roles := []UserRole{RoleKeyUser, RoleAdmin}
	if includeSuperAdmins {
		roles = append(roles, RoleSuperAdmin)
	}
	return roles
}

// User represents a user belonging to a tenant
type User struct {
	BaseModel
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index;column:tenant_id"`
	Email       string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName string     `gorm:"type:varchar(200);not null;column:display_name"`
	Role        UserRole   `gorm:"type:varchar(50);not null;default:'field_technician'"`
	IsActive    bool       `gorm:"not null;default:true;column:is_active"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
}

// Customer represents a customer a document can be issued to
type Customer struct {
	BaseModel
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index;column:tenant_id"`
	Name       string    `gorm:"type:varchar(200);not null;index"`
	Email      string    `gorm:"type:varchar(255)"`
	Phone      string    `gorm:"type:varchar(50)"`
	Address    string    `gorm:"type:varchar(500)"`
	City       string    `gorm:"type:varchar(100)"`
	PostalCode string    `gorm:"type:varchar(20);column:postal_code"`
	Country    string    `gorm:"type:varchar(100);not null;default:'Norway'"`
	Notes      string    `gorm:"type:text"`
}

// ProductKind distinguishes physical goods from services
type ProductKind string

const (
	ProductKindGood    ProductKind = "good"
	ProductKindService ProductKind = "service"
)

// IsValid checks if the ProductKind is a valid enum value
func (k ProductKind) IsValid() bool {
	return k == ProductKindGood || k == ProductKindService
}

// StockStatus represents the availability of a product.
// It is derived from stock_level vs minimum_stock_level except when an
// operator pins it to available_soon.
type StockStatus string

const (
	StockStatusAvailable     StockStatus = "available"
	StockStatusLow           StockStatus = "low"
	StockStatusUnavailable   StockStatus = "unavailable"
	StockStatusAvailableSoon StockStatus = "available_soon"
)

// Product represents a sellable good or service.
// StockLevel is nil for untracked products; all stock logic is bypassed
// for those. StockLevel is mutated only through the stock ledger
// (ProductRepository.ApplyAdjustments / SetStockLevel), never by direct
// read-modify-write from callers.
type Product struct {
	BaseModel
	TenantID          uuid.UUID   `gorm:"type:uuid;not null;index;column:tenant_id"`
	Name              string      `gorm:"type:varchar(200);not null;index"`
	Kind              ProductKind `gorm:"type:varchar(50);not null;default:'good'"`
	UnitPrice         float64     `gorm:"type:decimal(15,2);not null;default:0;column:unit_price"`
	TaxRate           float64     `gorm:"type:decimal(5,2);not null;default:0;column:tax_rate"`
	StockLevel        *int        `gorm:"column:stock_level"`
	MinimumStockLevel int         `gorm:"not null;default:0;column:minimum_stock_level"`
	StockStatus       StockStatus `gorm:"type:varchar(50);not null;default:'available';column:stock_status"`
	RestockDate       *time.Time  `gorm:"type:date;column:restock_date"`
}

// IsStockTracked reports whether stock logic applies to this product
func (p *Product) IsStockTracked() bool {
	return p.StockLevel != nil
}

// IsStatusPinned reports whether the stock status has been manually pinned,
// which suspends derived-status recomputation
func (p *Product) IsStatusPinned() bool {
	return p.StockStatus == StockStatusAvailableSoon
}

// NumberSequence is the per-tenant counter backing document numbering.
// One row per (tenant, document type); mutated only by the atomic
// increment in NumberSequenceRepository. Never decremented, never reused,
// even when a numbered document is later deleted.
type NumberSequence struct {
	ID           uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_sequences_tenant_type;column:tenant_id"`
	DocumentType DocumentType `gorm:"type:varchar(50);not null;uniqueIndex:idx_sequences_tenant_type;column:document_type"`
	LastSequence int          `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// NotificationCategory represents the category of a notification
type NotificationCategory string

const (
	NotificationCategoryLowStock NotificationCategory = "low_stock"
)

// Notification represents a user notification. Rows are created by the
// system and never mutated; they are cleared only by the recipient.
type Notification struct {
	BaseModel
	TenantID    uuid.UUID            `gorm:"type:uuid;not null;index;column:tenant_id"`
	UserID      uuid.UUID            `gorm:"type:uuid;not null;index;column:user_id"`
	Category    NotificationCategory `gorm:"type:varchar(50);not null"`
	Title       string               `gorm:"type:varchar(200);not null"`
	Message     string               `gorm:"type:varchar(500);not null"`
	Read        bool                 `gorm:"column:read;not null;default:false;index"`
	ReadAt      *time.Time
	ProductID   *uuid.UUID `gorm:"type:uuid;column:product_id"`
	ProductName string     `gorm:"type:varchar(200);column:product_name"`
}
