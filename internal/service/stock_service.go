package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/norfield-as/fieldops-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockService is the single write path for product stock levels. Document
// reconciliation and manual corrections both funnel through it, so the
// low-stock notification fan-out happens in exactly one place.
type StockService struct {
	productRepo   *repository.ProductRepository
	notifications *NotificationService
	logger        *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(
	productRepo *repository.ProductRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *StockService {
	return &StockService{
		productRepo:   productRepo,
		notifications: notifications,
		logger:        logger,
	}
}

// Apply applies a batch of reservation deltas atomically. After the batch
// commits, low-stock notifications go out for every product that crossed
// its threshold during the batch. Notification failures never propagate.
func (s *StockService) Apply(ctx context.Context, tenantID uuid.UUID, adjustments []domain.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	crossed, err := s.productRepo.ApplyAdjustments(ctx, tenantID, adjustments)
	if err != nil {
		return fmt.Errorf("failed to apply stock adjustments: %w", err)
	}

	s.logger.Info("stock adjustments applied",
		zap.String("tenantID", tenantID.String()),
		zap.Int("adjustments", len(adjustments)),
		zap.Int("thresholdCrossings", len(crossed)))

	s.notifications.NotifyLowStock(ctx, tenantID, crossed)
	return nil
}

// SetStockLevel overwrites a product's stock level after a physical count.
// This bypasses the reservation ledger entirely; a document save that was
// in flight when the count was taken will still apply its delta on top of
// the new level.
func (s *StockService) SetStockLevel(ctx context.Context, tenantID uuid.UUID, productID uuid.UUID, level int) (*domain.Product, error) {
	product, crossed, err := s.productRepo.SetStockLevel(ctx, productID, level)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to set stock level: %w", err)
	}

	s.logger.Info("stock level manually corrected",
		zap.String("productID", productID.String()),
		zap.Int("level", level))

	if crossed {
		s.notifications.NotifyLowStock(ctx, tenantID, []domain.Product{*product})
	}

	return product, nil
}

// PinStockStatus pins a product's availability to available_soon until it
// is unpinned. While pinned, stock movements still adjust the level but
// never change the displayed status.
func (s *StockService) PinStockStatus(ctx context.Context, productID uuid.UUID, restockDate *time.Time) (*domain.Product, error) {
	product, err := s.productRepo.PinStockStatus(ctx, productID, restockDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to pin stock status: %w", err)
	}
	return product, nil
}

// UnpinStockStatus clears a pinned status; the derived status takes over
func (s *StockService) UnpinStockStatus(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	existing, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if !existing.IsStatusPinned() {
		return nil, ErrStatusNotPinned
	}

	product, err := s.productRepo.UnpinStockStatus(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to unpin stock status: %w", err)
	}
	return product, nil
}
