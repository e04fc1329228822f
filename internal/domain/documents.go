package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType identifies one of the three commercial document variants
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeQuote   DocumentType = "quote"
	DocumentTypeVisit   DocumentType = "visit"
)

// IsValid checks if the DocumentType is a valid enum value
func (dt DocumentType) IsValid() bool {
	switch dt {
	case DocumentTypeInvoice, DocumentTypeQuote, DocumentTypeVisit:
		return true
	}
	return false
}

// NumberPrefix returns the prefix used when formatting document numbers
func (dt DocumentType) NumberPrefix() string {
	switch dt {
	case DocumentTypeInvoice:
		return "INV"
	case DocumentTypeQuote:
		return "QUO"
	case DocumentTypeVisit:
		return "VIS"
	}
	return "DOC"
}

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// IsValid checks if the InvoiceStatus is a valid enum value
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// QuoteStatus represents the status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
)

// IsValid checks if the QuoteStatus is a valid enum value
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusDeclined:
		return true
	}
	return false
}

// VisitStatus represents the status of a field visit
type VisitStatus string

const (
	VisitStatusPlanned   VisitStatus = "planned"
	VisitStatusCompleted VisitStatus = "completed"
	VisitStatusCancelled VisitStatus = "cancelled"
)

// IsValid checks if the VisitStatus is a valid enum value
func (s VisitStatus) IsValid() bool {
	switch s {
	case VisitStatusPlanned, VisitStatusCompleted, VisitStatusCancelled:
		return true
	}
	return false
}

// reservingStatuses maps each document type to the statuses during which
// its line items count against available stock.
var reservingStatuses = map[DocumentType]map[string]bool{
	DocumentTypeInvoice: {
		string(InvoiceStatusSent):    true,
		string(InvoiceStatusOverdue): true,
		string(InvoiceStatusPaid):    true,
	},
	DocumentTypeQuote: {
		string(QuoteStatusSent):     true,
		string(QuoteStatusAccepted): true,
	},
	DocumentTypeVisit: {
		string(VisitStatusPlanned):   true,
		string(VisitStatusCompleted): true,
	},
}

// ReservingStatuses returns the stock-reserving status set for a document
// type. The returned map must be treated as read-only.
func ReservingStatuses(dt DocumentType) map[string]bool {
	return reservingStatuses[dt]
}

// IsReservingStatus reports whether the given status reserves stock for
// the given document type
func IsReservingStatus(dt DocumentType, status string) bool {
	return reservingStatuses[dt][status]
}

// Invoice represents an invoice issued to a customer
type Invoice struct {
	BaseModel
	TenantID     uuid.UUID     `gorm:"type:uuid;not null;index;column:tenant_id"`
	Number       string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status       InvoiceStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	CustomerID   uuid.UUID     `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer     *Customer     `gorm:"foreignKey:CustomerID"`
	CustomerName string        `gorm:"type:varchar(200);column:customer_name"`
	IssueDate    time.Time     `gorm:"type:date;not null;column:issue_date"`
	DueDate      *time.Time    `gorm:"type:date;column:due_date"`
	Notes        string        `gorm:"type:text"`
}

// Quote represents a quote offered to a customer
type Quote struct {
	BaseModel
	TenantID     uuid.UUID   `gorm:"type:uuid;not null;index;column:tenant_id"`
	Number       string      `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status       QuoteStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	CustomerID   uuid.UUID   `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer     *Customer   `gorm:"foreignKey:CustomerID"`
	CustomerName string      `gorm:"type:varchar(200);column:customer_name"`
	ExpiryDate   *time.Time  `gorm:"type:date;column:expiry_date"`
	Notes        string      `gorm:"type:text"`
}

// Visit represents a scheduled field visit at a customer site
type Visit struct {
	BaseModel
	TenantID     uuid.UUID   `gorm:"type:uuid;not null;index;column:tenant_id"`
	Number       string      `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status       VisitStatus `gorm:"type:varchar(50);not null;default:'planned';index"`
	CustomerID   uuid.UUID   `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer     *Customer   `gorm:"foreignKey:CustomerID"`
	CustomerName string      `gorm:"type:varchar(200);column:customer_name"`
	ScheduledAt  time.Time   `gorm:"not null;column:scheduled_at"`
	Notes        string      `gorm:"type:text"`
}

// LineItem represents a line on a commercial document. Line items are
// owned by their document and replaced wholesale on every save; a line
// with no product reference is a manual line and is excluded from all
// stock math.
type LineItem struct {
	BaseModel
	TenantID     uuid.UUID    `gorm:"type:uuid;not null;index;column:tenant_id"`
	DocumentType DocumentType `gorm:"type:varchar(50);not null;index:idx_line_items_document;column:document_type"`
	DocumentID   uuid.UUID    `gorm:"type:uuid;not null;index:idx_line_items_document;column:document_id"`
	ProductID    *uuid.UUID   `gorm:"type:uuid;index;column:product_id"`
	Product      *Product     `gorm:"foreignKey:ProductID"`
	Description  string       `gorm:"type:varchar(500)"`
	Quantity     float64      `gorm:"type:decimal(10,2);not null;default:0"`
	UnitPrice    float64      `gorm:"type:decimal(15,2);not null;default:0;column:unit_price"`
	TaxRate      float64      `gorm:"type:decimal(5,2);not null;default:0;column:tax_rate"`
	Position     int          `gorm:"not null;default:0"`
}

// Total returns the line total excluding tax
func (li *LineItem) Total() float64 {
	return li.Quantity * li.UnitPrice
}
