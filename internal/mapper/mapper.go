package mapper

import (
	"github.com/google/uuid"

	"github.com/norfield-as/fieldops-api/internal/domain"
)

// ToLineItemDTO converts a LineItem to its DTO
func ToLineItemDTO(item *domain.LineItem) domain.LineItemDTO {
	return domain.LineItemDTO{
		ID:          item.ID,
		ProductID:   item.ProductID,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TaxRate:     item.TaxRate,
		Total:       item.Total(),
		Position:    item.Position,
	}
}

// ToLineItemDTOs converts a slice of line items
func ToLineItemDTOs(items []domain.LineItem) []domain.LineItemDTO {
	dtos := make([]domain.LineItemDTO, len(items))
	for i := range items {
		dtos[i] = ToLineItemDTO(&items[i])
	}
	return dtos
}

// DocumentTotal sums the line totals excluding tax
func DocumentTotal(items []domain.LineItem) float64 {
	total := 0.0
	for i := range items {
		total += items[i].Total()
	}
	return total
}

// ToInvoiceDTO converts an Invoice and its line items to a DTO
func ToInvoiceDTO(invoice *domain.Invoice, items []domain.LineItem) domain.InvoiceDTO {
	return domain.InvoiceDTO{
		ID:           invoice.ID,
		Number:       invoice.Number,
		Status:       invoice.Status,
		CustomerID:   invoice.CustomerID,
		CustomerName: invoice.CustomerName,
		IssueDate:    invoice.IssueDate,
		DueDate:      invoice.DueDate,
		Notes:        invoice.Notes,
		Total:        DocumentTotal(items),
		Items:        ToLineItemDTOs(items),
		CreatedAt:    invoice.CreatedAt,
		UpdatedAt:    invoice.UpdatedAt,
	}
}

// ToQuoteDTO converts a Quote and its line items to a DTO
func ToQuoteDTO(quote *domain.Quote, items []domain.LineItem) domain.QuoteDTO {
	return domain.QuoteDTO{
		ID:           quote.ID,
		Number:       quote.Number,
		Status:       quote.Status,
		CustomerID:   quote.CustomerID,
		CustomerName: quote.CustomerName,
		ExpiryDate:   quote.ExpiryDate,
		Notes:        quote.Notes,
		Total:        DocumentTotal(items),
		Items:        ToLineItemDTOs(items),
		CreatedAt:    quote.CreatedAt,
		UpdatedAt:    quote.UpdatedAt,
	}
}

// ToVisitDTO converts a Visit and its line items to a DTO
func ToVisitDTO(visit *domain.Visit, items []domain.LineItem) domain.VisitDTO {
	return domain.VisitDTO{
		ID:           visit.ID,
		Number:       visit.Number,
		Status:       visit.Status,
		CustomerID:   visit.CustomerID,
		CustomerName: visit.CustomerName,
		ScheduledAt:  visit.ScheduledAt,
		Notes:        visit.Notes,
		Total:        DocumentTotal(items),
		Items:        ToLineItemDTOs(items),
		CreatedAt:    visit.CreatedAt,
		UpdatedAt:    visit.UpdatedAt,
	}
}

// ToProductDTO converts a Product to its DTO
func ToProductDTO(product *domain.Product) domain.ProductDTO {
	return domain.ProductDTO{
		ID:                product.ID,
		Name:              product.Name,
		Kind:              product.Kind,
		UnitPrice:         product.UnitPrice,
		TaxRate:           product.TaxRate,
		StockLevel:        product.StockLevel,
		MinimumStockLevel: product.MinimumStockLevel,
		StockStatus:       product.StockStatus,
		RestockDate:       product.RestockDate,
		CreatedAt:         product.CreatedAt,
		UpdatedAt:         product.UpdatedAt,
	}
}

// ToCustomerDTO converts a Customer to its DTO
func ToCustomerDTO(customer *domain.Customer) domain.CustomerDTO {
	return domain.CustomerDTO{
		ID:         customer.ID,
		Name:       customer.Name,
		Email:      customer.Email,
		Phone:      customer.Phone,
		Address:    customer.Address,
		City:       customer.City,
		PostalCode: customer.PostalCode,
		Country:    customer.Country,
		Notes:      customer.Notes,
		CreatedAt:  customer.CreatedAt,
		UpdatedAt:  customer.UpdatedAt,
	}
}

// ToNotificationDTO converts a Notification to its DTO
func ToNotificationDTO(n *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:          n.ID,
		Category:    n.Category,
		Title:       n.Title,
		Message:     n.Message,
		Read:        n.Read,
		ReadAt:      n.ReadAt,
		ProductID:   n.ProductID,
		ProductName: n.ProductName,
		CreatedAt:   n.CreatedAt,
	}
}

// LineItemsFromRequests builds LineItem models from request lines,
// assigning positions in submission order
func LineItemsFromRequests(tenantID uuid.UUID, dt domain.DocumentType, reqs []domain.LineItemRequest) []domain.LineItem {
	items := make([]domain.LineItem, len(reqs))
	for i, req := range reqs {
		items[i] = domain.LineItem{
			TenantID:     tenantID,
			DocumentType: dt,
			ProductID:    req.ProductID,
			Description:  req.Description,
			Quantity:     req.Quantity,
			UnitPrice:    req.UnitPrice,
			TaxRate:      req.TaxRate,
			Position:     i,
		}
	}
	return items
}
