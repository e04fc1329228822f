package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/auth"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/norfield-as/fieldops-api/internal/mapper"
	"github.com/norfield-as/fieldops-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InvoiceService handles business logic for invoices. Every save runs in
// two phases: the document transaction (number allocation, header, lines)
// commits first and is authoritative; stock reconciliation runs after and
// degrades to a warning on failure.
type InvoiceService struct {
	db           *gorm.DB
	invoiceRepo  *repository.InvoiceRepository
	lineItemRepo *repository.LineItemRepository
	customerRepo *repository.CustomerRepository
	numberSvc    *NumberSequenceService
	lifecycle    *DocumentLifecycle
	logger       *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	db *gorm.DB,
	invoiceRepo *repository.InvoiceRepository,
	lineItemRepo *repository.LineItemRepository,
	customerRepo *repository.CustomerRepository,
	numberSvc *NumberSequenceService,
	lifecycle *DocumentLifecycle,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		db:           db,
		invoiceRepo:  invoiceRepo,
		lineItemRepo: lineItemRepo,
		customerRepo: customerRepo,
		numberSvc:    numberSvc,
		lifecycle:    lifecycle,
		logger:       logger,
	}
}

// Create creates a new invoice. Number allocation, header insert and line
// inserts share one transaction so a failed insert cannot burn a number.
func (s *InvoiceService) Create(ctx context.Context, req *domain.CreateInvoiceRequest) (*domain.InvoiceSaveResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	status := req.Status
	if status == "" {
		status = domain.InvoiceStatusDraft
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	customer, err := s.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	issueDate := time.Now().UTC()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	invoice := &domain.Invoice{
		TenantID:     userCtx.TenantID,
		Status:       status,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		IssueDate:    issueDate,
		DueDate:      req.DueDate,
		Notes:        req.Notes,
	}
	items := mapper.LineItemsFromRequests(userCtx.TenantID, domain.DocumentTypeInvoice, req.Items)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.numberSvc.GenerateNumber(ctx, tx, userCtx.TenantID, domain.DocumentTypeInvoice)
		if err != nil {
			return err
		}
		invoice.Number = number

		if err := s.invoiceRepo.WithTx(tx).Create(ctx, invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		return s.lineItemRepo.WithTx(tx).ReplaceForDocument(ctx, domain.DocumentTypeInvoice, invoice.ID, items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoiceID", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("status", string(status)))

	warning := s.lifecycle.ReconcileSave(ctx, userCtx.TenantID, domain.DocumentTypeInvoice, invoice.ID,
		"", string(status), nil, items)

	dto := mapper.ToInvoiceDTO(invoice, items)
	return &domain.InvoiceSaveResponse{Invoice: dto, StockWarning: warning}, nil
}

// Update saves an invoice, replacing its line items wholesale. The stock
// diff runs against the last persisted state of the document.
func (s *InvoiceService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateInvoiceRequest) (*domain.InvoiceSaveResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	oldStatus := invoice.Status
	oldItems, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeInvoice, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	invoice.Status = req.Status
	invoice.DueDate = req.DueDate
	invoice.Notes = req.Notes
	newItems := mapper.LineItemsFromRequests(userCtx.TenantID, domain.DocumentTypeInvoice, req.Items)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.invoiceRepo.WithTx(tx).Update(ctx, invoice); err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		return s.lineItemRepo.WithTx(tx).ReplaceForDocument(ctx, domain.DocumentTypeInvoice, invoice.ID, newItems)
	})
	if err != nil {
		return nil, err
	}

	warning := s.lifecycle.ReconcileSave(ctx, userCtx.TenantID, domain.DocumentTypeInvoice, invoice.ID,
		string(oldStatus), string(req.Status), oldItems, newItems)

	dto := mapper.ToInvoiceDTO(invoice, newItems)
	return &domain.InvoiceSaveResponse{Invoice: dto, StockWarning: warning}, nil
}

// UpdateStatus transitions an invoice to a new status without touching its
// lines. Reserving-to-reserving transitions (sent to paid, sent to
// overdue) produce no stock movement.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus) (*domain.InvoiceSaveResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	oldStatus := invoice.Status
	items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeInvoice, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	invoice.Status = status
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	s.logger.Info("invoice status changed",
		zap.String("invoiceID", invoice.ID.String()),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(status)))

	warning := s.lifecycle.ReconcileSave(ctx, userCtx.TenantID, domain.DocumentTypeInvoice, invoice.ID,
		string(oldStatus), string(status), items, items)

	dto := mapper.ToInvoiceDTO(invoice, items)
	return &domain.InvoiceSaveResponse{Invoice: dto, StockWarning: warning}, nil
}

// Delete removes an invoice. Reserved stock is released first; if the
// release fails the invoice is kept.
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvoiceNotFound
		}
		return fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeInvoice, invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to load line items: %w", err)
	}

	if err := s.lifecycle.ReconcileDelete(ctx, userCtx.TenantID, domain.DocumentTypeInvoice, invoice.ID,
		string(invoice.Status), items); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lineItemRepo.WithTx(tx).DeleteForDocument(ctx, domain.DocumentTypeInvoice, invoice.ID); err != nil {
			return err
		}
		return s.invoiceRepo.WithTx(tx).Delete(ctx, invoice.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	s.logger.Info("invoice deleted",
		zap.String("invoiceID", invoice.ID.String()),
		zap.String("number", invoice.Number))

	return nil
}

// GetByID returns an invoice with its line items
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeInvoice, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	dto := mapper.ToInvoiceDTO(invoice, items)
	return &dto, nil
}

// List returns a page of invoices
func (s *InvoiceService) List(ctx context.Context, page, pageSize int, customerID *uuid.UUID, status *domain.InvoiceStatus, search string) (*domain.PaginatedResponse, error) {
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	invoices, total, err := s.invoiceRepo.List(ctx, page, pageSize, customerID, status, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeInvoice, invoices[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load line items: %w", err)
		}
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i], items)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}
