package domain

import (
	"time"

	"github.com/google/uuid"
)

// LineItemRequest is the inbound shape of a document line
type LineItemRequest struct {
	ProductID   *uuid.UUID `json:"productId,omitempty" validate:"omitempty,uuid4"`
	Description string     `json:"description" validate:"max=500"`
	Quantity    float64    `json:"quantity" validate:"gte=0"`
	UnitPrice   float64    `json:"unitPrice" validate:"gte=0"`
	TaxRate     float64    `json:"taxRate" validate:"gte=0,lte=100"`
}

// LineItemDTO is the outbound shape of a document line
type LineItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	Description string     `json:"description,omitempty"`
	Quantity    float64    `json:"quantity"`
	UnitPrice   float64    `json:"unitPrice"`
	TaxRate     float64    `json:"taxRate"`
	Total       float64    `json:"total"`
	Position    int        `json:"position"`
}

// CreateInvoiceRequest is the request body for creating an invoice
type CreateInvoiceRequest struct {
	CustomerID uuid.UUID         `json:"customerId" validate:"required"`
	Status     InvoiceStatus     `json:"status" validate:"omitempty,oneof=draft sent paid overdue"`
	IssueDate  *time.Time        `json:"issueDate,omitempty"`
	DueDate    *time.Time        `json:"dueDate,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	Items      []LineItemRequest `json:"items" validate:"dive"`
}

// UpdateInvoiceRequest is the request body for saving an invoice.
// Line items are replaced wholesale: the submitted set becomes the
// document's full set of lines.
type UpdateInvoiceRequest struct {
	Status  InvoiceStatus     `json:"status" validate:"required,oneof=draft sent paid overdue"`
	DueDate *time.Time        `json:"dueDate,omitempty"`
	Notes   string            `json:"notes,omitempty"`
	Items   []LineItemRequest `json:"items" validate:"dive"`
}

// CreateQuoteRequest is the request body for creating a quote
type CreateQuoteRequest struct {
	CustomerID uuid.UUID         `json:"customerId" validate:"required"`
	Status     QuoteStatus       `json:"status" validate:"omitempty,oneof=draft sent accepted declined"`
	ExpiryDate *time.Time        `json:"expiryDate,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	Items      []LineItemRequest `json:"items" validate:"dive"`
}

// UpdateQuoteRequest is the request body for saving a quote
type UpdateQuoteRequest struct {
	Status     QuoteStatus       `json:"status" validate:"required,oneof=draft sent accepted declined"`
	ExpiryDate *time.Time        `json:"expiryDate,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	Items      []LineItemRequest `json:"items" validate:"dive"`
}

// CreateVisitRequest is the request body for planning a visit
type CreateVisitRequest struct {
	CustomerID  uuid.UUID         `json:"customerId" validate:"required"`
	Status      VisitStatus       `json:"status" validate:"omitempty,oneof=planned completed cancelled"`
	ScheduledAt time.Time         `json:"scheduledAt" validate:"required"`
	Notes       string            `json:"notes,omitempty"`
	Items       []LineItemRequest `json:"items" validate:"dive"`
}

// UpdateVisitRequest is the request body for saving a visit
type UpdateVisitRequest struct {
	Status      VisitStatus       `json:"status" validate:"required,oneof=planned completed cancelled"`
	ScheduledAt *time.Time        `json:"scheduledAt,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Items       []LineItemRequest `json:"items" validate:"dive"`
}

// UpdateStatusRequest is the request body for a status-only transition
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// InvoiceDTO is the outbound shape of an invoice
type InvoiceDTO struct {
	ID           uuid.UUID     `json:"id"`
	Number       string        `json:"number"`
	Status       InvoiceStatus `json:"status"`
	CustomerID   uuid.UUID     `json:"customerId"`
	CustomerName string        `json:"customerName,omitempty"`
	IssueDate    time.Time     `json:"issueDate"`
	DueDate      *time.Time    `json:"dueDate,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	Total        float64       `json:"total"`
	Items        []LineItemDTO `json:"items"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// QuoteDTO is the outbound shape of a quote
type QuoteDTO struct {
	ID           uuid.UUID     `json:"id"`
	Number       string        `json:"number"`
	Status       QuoteStatus   `json:"status"`
	CustomerID   uuid.UUID     `json:"customerId"`
	CustomerName string        `json:"customerName,omitempty"`
	ExpiryDate   *time.Time    `json:"expiryDate,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	Total        float64       `json:"total"`
	Items        []LineItemDTO `json:"items"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// VisitDTO is the outbound shape of a field visit
type VisitDTO struct {
	ID           uuid.UUID     `json:"id"`
	Number       string        `json:"number"`
	Status       VisitStatus   `json:"status"`
	CustomerID   uuid.UUID     `json:"customerId"`
	CustomerName string        `json:"customerName,omitempty"`
	ScheduledAt  time.Time     `json:"scheduledAt"`
	Notes        string        `json:"notes,omitempty"`
	Total        float64       `json:"total"`
	Items        []LineItemDTO `json:"items"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// InvoiceSaveResponse wraps a saved invoice together with a stock warning.
// A non-empty stockWarning means the document was saved but the inventory
// adjustment could not be applied and needs operator attention.
type InvoiceSaveResponse struct {
	Invoice      InvoiceDTO `json:"invoice"`
	StockWarning string     `json:"stockWarning,omitempty"`
}

// QuoteSaveResponse wraps a saved quote together with a stock warning
type QuoteSaveResponse struct {
	Quote        QuoteDTO `json:"quote"`
	StockWarning string   `json:"stockWarning,omitempty"`
}

// VisitSaveResponse wraps a saved visit together with a stock warning
type VisitSaveResponse struct {
	Visit        VisitDTO `json:"visit"`
	StockWarning string   `json:"stockWarning,omitempty"`
}

// CreateProductRequest is the request body for creating a product
type CreateProductRequest struct {
	Name              string      `json:"name" validate:"required,max=200"`
	Kind              ProductKind `json:"kind" validate:"omitempty,oneof=good service"`
	UnitPrice         float64     `json:"unitPrice" validate:"gte=0"`
	TaxRate           float64     `json:"taxRate" validate:"gte=0,lte=100"`
	StockLevel        *int        `json:"stockLevel,omitempty"`
	MinimumStockLevel int         `json:"minimumStockLevel" validate:"gte=0"`
}

// UpdateProductRequest is the request body for editing product fields.
// stock_level is deliberately absent: it is governed by the stock ledger
// and only changed through the dedicated stock endpoint.
type UpdateProductRequest struct {
	Name              string      `json:"name" validate:"required,max=200"`
	Kind              ProductKind `json:"kind" validate:"omitempty,oneof=good service"`
	UnitPrice         float64     `json:"unitPrice" validate:"gte=0"`
	TaxRate           float64     `json:"taxRate" validate:"gte=0,lte=100"`
	MinimumStockLevel int         `json:"minimumStockLevel" validate:"gte=0"`
}

// SetStockLevelRequest is an authoritative manual stock count correction
type SetStockLevelRequest struct {
	StockLevel *int `json:"stockLevel" validate:"required"`
}

// PinStockStatusRequest pins a product's stock status to available_soon
type PinStockStatusRequest struct {
	RestockDate *time.Time `json:"restockDate,omitempty"`
}

// ProductDTO is the outbound shape of a product
type ProductDTO struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	Kind              ProductKind `json:"kind"`
	UnitPrice         float64     `json:"unitPrice"`
	TaxRate           float64     `json:"taxRate"`
	StockLevel        *int        `json:"stockLevel,omitempty"`
	MinimumStockLevel int         `json:"minimumStockLevel"`
	StockStatus       StockStatus `json:"stockStatus"`
	RestockDate       *time.Time  `json:"restockDate,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// CreateCustomerRequest is the request body for creating a customer
type CreateCustomerRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"max=50"`
	Address    string `json:"address" validate:"max=500"`
	City       string `json:"city" validate:"max=100"`
	PostalCode string `json:"postalCode" validate:"max=20"`
	Country    string `json:"country" validate:"max=100"`
	Notes      string `json:"notes,omitempty"`
}

// CustomerDTO is the outbound shape of a customer
type CustomerDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	PostalCode string    `json:"postalCode,omitempty"`
	Country    string    `json:"country,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NotificationDTO is the outbound shape of a notification
type NotificationDTO struct {
	ID          uuid.UUID            `json:"id"`
	Category    NotificationCategory `json:"category"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	Read        bool                 `json:"read"`
	ReadAt      *time.Time           `json:"readAt,omitempty"`
	ProductID   *uuid.UUID           `json:"productId,omitempty"`
	ProductName string               `json:"productName,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// UnreadCountDTO carries the unread notification count for a user
type UnreadCountDTO struct {
	Count int `json:"count"`
}

// PaginatedResponse is a generic paginated list envelope
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalCount int64       `json:"totalCount"`
	TotalPages int         `json:"totalPages"`
}
