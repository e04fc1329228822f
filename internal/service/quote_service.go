package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/auth"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/norfield-as/fieldops-api/internal/mapper"
	"github.com/norfield-as/fieldops-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuoteService handles business logic for quotes. Quotes reserve stock
// while sent or accepted; a declined quote releases everything.
type QuoteService struct {
	db           *gorm.DB
	quoteRepo    *repository.QuoteRepository
	lineItemRepo *repository.LineItemRepository
	customerRepo *repository.CustomerRepository
	numberSvc    *NumberSequenceService
	lifecycle    *DocumentLifecycle
	logger       *zap.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	db *gorm.DB,
	quoteRepo *repository.QuoteRepository,
	lineItemRepo *repository.LineItemRepository,
	customerRepo *repository.CustomerRepository,
	numberSvc *NumberSequenceService,
	lifecycle *DocumentLifecycle,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		db:           db,
		quoteRepo:    quoteRepo,
		lineItemRepo: lineItemRepo,
		customerRepo: customerRepo,
		numberSvc:    numberSvc,
		lifecycle:    lifecycle,
		logger:       logger,
	}
}

// Create creates a new quote within a single transaction covering number
// allocation, header and lines
func (s *QuoteService) Create(ctx context.Context, req *domain.CreateQuoteRequest) (*domain.QuoteSaveResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	status := req.Status
	if status == "" {
		status = domain.QuoteStatusDraft
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

	quote := &domain.Quote{
		TenantID:     userCtx.TenantID,
		Status:       status,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		ExpiryDate:   req.ExpiryDate,
		Notes:        req.Notes,
	}
	items := mapper.LineItemsFromRequests(userCtx.TenantID, domain.DocumentTypeQuote, req.Items)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.numberSvc.GenerateNumber(ctx, tx, userCtx.TenantID, domain.DocumentTypeQuote)
		if err != nil {
			return err
		}
		quote.Number = number

		if err := s.quoteRepo.WithTx(tx).Create(ctx, quote); err != nil {
			return fmt.Errorf("failed to create quote: %w", err)
		}

		return s.lineItemRepo.WithTx(tx).ReplaceForDocument(ctx, domain.DocumentTypeQuote, quote.ID, items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote created",
		zap.String("quoteID", quote.ID.String()),
		zap.String("number", quote.Number),
		zap.String("status", string(status)))

	warning := s.lifecycle.ReconcileSave(ctx, userCtx.TenantID, domain.DocumentTypeQuote, quote.ID,
		"", string(status), nil, items)

	dto := mapper.ToQuoteDTO(quote, items)
	return &domain.QuoteSaveResponse{Quote: dto, StockWarning: warning}, nil
}

// Update saves a quote, replacing its line items wholesale
func (s *QuoteService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateQuoteRequest) (*domain.QuoteSaveResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}

	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	oldStatus := quote.Status
	oldItems, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeQuote, quote.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	quote.Status = req.Status
	quote.ExpiryDate = req.ExpiryDate
	quote.Notes = req.Notes
	newItems := mapper.LineItemsFromRequests(userCtx.TenantID, domain.DocumentTypeQuote, req.Items)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quoteRepo.WithTx(tx).Update(ctx, quote); err != nil {
			return fmt.Errorf("failed to update quote: %w", err)
		}
		return s.lineItemRepo.WithTx(tx).ReplaceForDocument(ctx, domain.DocumentTypeQuote, quote.ID, newItems)
	})
	if err != nil {
		return nil, err
	}

	warning := s.lifecycle.ReconcileSave(ctx, userCtx.TenantID, domain.DocumentTypeQuote, quote.ID,
		string(oldStatus), string(req.Status), oldItems, newItems)

	dto := mapper.ToQuoteDTO(quote, newItems)
	return &domain.QuoteSaveResponse{Quote: dto, StockWarning: warning}, nil
}

// UpdateStatus transitions a quote to a new status without touching lines
func (s *QuoteService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) (*domain.QuoteSaveResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	oldStatus := quote.Status
	items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeQuote, quote.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	quote.Status = status
	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}

	s.logger.Info("quote status changed",
		zap.String("quoteID", quote.ID.String()),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(status)))

	warning := s.lifecycle.ReconcileSave(ctx, userCtx.TenantID, domain.DocumentTypeQuote, quote.ID,
		string(oldStatus), string(status), items, items)

	dto := mapper.ToQuoteDTO(quote, items)
	return &domain.QuoteSaveResponse{Quote: dto, StockWarning: warning}, nil
}

// Delete removes a quote after releasing any reserved stock
func (s *QuoteService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}

	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuoteNotFound
		}
		return fmt.Errorf("failed to get quote: %w", err)
	}

	items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeQuote, quote.ID)
	if err != nil {
		return fmt.Errorf("failed to load line items: %w", err)
	}

	if err := s.lifecycle.ReconcileDelete(ctx, userCtx.TenantID, domain.DocumentTypeQuote, quote.ID,
		string(quote.Status), items); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lineItemRepo.WithTx(tx).DeleteForDocument(ctx, domain.DocumentTypeQuote, quote.ID); err != nil {
			return err
		}
		return s.quoteRepo.WithTx(tx).Delete(ctx, quote.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}

	s.logger.Info("quote deleted",
		zap.String("quoteID", quote.ID.String()),
		zap.String("number", quote.Number))

	return nil
}

// GetByID returns a quote with its line items
func (s *QuoteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeQuote, quote.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	dto := mapper.ToQuoteDTO(quote, items)
	return &dto, nil
}

// List returns a page of quotes
func (s *QuoteService) List(ctx context.Context, page, pageSize int, customerID *uuid.UUID, status *domain.QuoteStatus, search string) (*domain.PaginatedResponse, error) {
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	quotes, total, err := s.quoteRepo.List(ctx, page, pageSize, customerID, status, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	dtos := make([]domain.QuoteDTO, len(quotes))
	for i := range quotes {
		items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeQuote, quotes[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load line items: %w", err)
		}
		dtos[i] = mapper.ToQuoteDTO(&quotes[i], items)
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
