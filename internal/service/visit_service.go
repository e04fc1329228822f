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

// VisitService handles business logic for field visits. Visits reserve the
// materials on their lines from the moment they are planned; cancelling a
// visit releases them.
type VisitService struct {
	db           *gorm.DB
	visitRepo    *repository.VisitRepository
	lineItemRepo *repository.LineItemRepository
	customerRepo *repository.CustomerRepository
	numberSvc    *NumberSequenceService
	lifecycle    *DocumentLifecycle
	logger       *zap.Logger
}

// NewVisitService creates a new VisitService
func NewVisitService(
	db *gorm.DB,
	visitRepo *repository.VisitRepository,
	lineItemRepo *repository.LineItemRepository,
	customerRepo *repository.CustomerRepository,
	numberSvc *NumberSequenceService,
	lifecycle *DocumentLifecycle,
	logger *zap.Logger,
) *VisitService {
	return &VisitService{
		db:           db,
		visitRepo:    visitRepo,
		lineItemRepo: lineItemRepo,
		customerRepo: customerRepo,
		numberSvc:    numberSvc,
		lifecycle:    lifecycle,
		logger:       logger,
	}
}

// Create plans a new visit within a single transaction covering number
// allocation, header and lines
func (s *VisitService) Create(ctx context.Context, req *domain.CreateVisitRequest) (*domain.VisitSaveResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	status := req.Status
	if status == "" {
		status = domain.VisitStatusPlanned
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

	visit := &domain.Visit{
		TenantID:     userCtx.TenantID,
		Status:       status,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		ScheduledAt:  req.ScheduledAt,
		Notes:        req.Notes,
	}
	items := mapper.LineItemsFromRequests(userCtx.TenantID, domain.DocumentTypeVisit, req.Items)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.numberSvc.GenerateNumber(ctx, tx, userCtx.TenantID, domain.DocumentTypeVisit)
		if err != nil {
			return err
		}
		visit.Number = number

		if err := s.visitRepo.WithTx(tx).Create(ctx, visit); err != nil {
			return fmt.Errorf("failed to create visit: %w", err)
		}

		return s.lineItemRepo.WithTx(tx).ReplaceForDocument(ctx, domain.DocumentTypeVisit, visit.ID, items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("visit created",
		zap.String("visitID", visit.ID.String()),
		zap.String("number", visit.Number),
		zap.String("status", string(status)))

	warning := s.lifecycle.ReconcileSave(ctx, userCtx.TenantID, domain.DocumentTypeVisit, visit.ID,
		"", string(status), nil, items)

	dto := mapper.ToVisitDTO(visit, items)
	return &domain.VisitSaveResponse{Visit: dto, StockWarning: warning}, nil
}

// Update saves a visit, replacing its line items wholesale
func (s *VisitService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateVisitRequest) (*domain.VisitSaveResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}

	visit, err := s.visitRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	oldStatus := visit.Status
	oldItems, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeVisit, visit.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	visit.Status = req.Status
	if req.ScheduledAt != nil {
		visit.ScheduledAt = *req.ScheduledAt
	}
	visit.Notes = req.Notes
	newItems := mapper.LineItemsFromRequests(userCtx.TenantID, domain.DocumentTypeVisit, req.Items)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.visitRepo.WithTx(tx).Update(ctx, visit); err != nil {
			return fmt.Errorf("failed to update visit: %w", err)
		}
		return s.lineItemRepo.WithTx(tx).ReplaceForDocument(ctx, domain.DocumentTypeVisit, visit.ID, newItems)
	})
	if err != nil {
		return nil, err
	}

	warning := s.lifecycle.ReconcileSave(ctx, userCtx.TenantID, domain.DocumentTypeVisit, visit.ID,
		string(oldStatus), string(req.Status), oldItems, newItems)

	dto := mapper.ToVisitDTO(visit, newItems)
	return &domain.VisitSaveResponse{Visit: dto, StockWarning: warning}, nil
}

// UpdateStatus transitions a visit to a new status without touching lines
func (s *VisitService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VisitStatus) (*domain.VisitSaveResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	visit, err := s.visitRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	oldStatus := visit.Status
	items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeVisit, visit.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	visit.Status = status
	if err := s.visitRepo.Update(ctx, visit); err != nil {
		return nil, fmt.Errorf("failed to update visit: %w", err)
	}

	s.logger.Info("visit status changed",
		zap.String("visitID", visit.ID.String()),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(status)))

	warning := s.lifecycle.ReconcileSave(ctx, userCtx.TenantID, domain.DocumentTypeVisit, visit.ID,
		string(oldStatus), string(status), items, items)

	dto := mapper.ToVisitDTO(visit, items)
	return &domain.VisitSaveResponse{Visit: dto, StockWarning: warning}, nil
}

// Delete removes a visit after releasing any reserved stock
func (s *VisitService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}

	visit, err := s.visitRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVisitNotFound
		}
		return fmt.Errorf("failed to get visit: %w", err)
	}

	items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeVisit, visit.ID)
	if err != nil {
		return fmt.Errorf("failed to load line items: %w", err)
	}

	if err := s.lifecycle.ReconcileDelete(ctx, userCtx.TenantID, domain.DocumentTypeVisit, visit.ID,
		string(visit.Status), items); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lineItemRepo.WithTx(tx).DeleteForDocument(ctx, domain.DocumentTypeVisit, visit.ID); err != nil {
			return err
		}
		return s.visitRepo.WithTx(tx).Delete(ctx, visit.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}

	s.logger.Info("visit deleted",
		zap.String("visitID", visit.ID.String()),
		zap.String("number", visit.Number))

	return nil
}

// GetByID returns a visit with its line items
func (s *VisitService) GetByID(ctx context.Context, id uuid.UUID) (*domain.VisitDTO, error) {
	visit, err := s.visitRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeVisit, visit.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	dto := mapper.ToVisitDTO(visit, items)
	return &dto, nil
}

// List returns a page of visits
func (s *VisitService) List(ctx context.Context, page, pageSize int, customerID *uuid.UUID, status *domain.VisitStatus, search string) (*domain.PaginatedResponse, error) {
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	visits, total, err := s.visitRepo.List(ctx, page, pageSize, customerID, status, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}

	dtos := make([]domain.VisitDTO, len(visits))
	for i := range visits {
		items, err := s.lineItemRepo.ListForDocument(ctx, domain.DocumentTypeVisit, visits[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load line items: %w", err)
		}
		dtos[i] = mapper.ToVisitDTO(&visits[i], items)
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
