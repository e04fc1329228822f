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

// ProductService handles catalog operations on products. Stock mutations
// are not handled here; they go through StockService so the ledger stays
// the single write path for stock levels.
type ProductService struct {
	productRepo *repository.ProductRepository
	stock       *StockService
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo *repository.ProductRepository,
	stock *StockService,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		stock:       stock,
		logger:      logger,
	}
}

// Create creates a new product. The initial stock status is derived from
// the initial level unless the product is untracked.
func (s *ProductService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.ProductDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	kind := req.Kind
	if kind == "" {
		kind = domain.ProductKindGood
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown product kind %q", ErrInvalidInput, kind)
	}

	status := domain.StockStatusAvailable
	if req.StockLevel != nil {
		status = domain.DeriveStockStatus(*req.StockLevel, req.MinimumStockLevel)
	}

	product := &domain.Product{
		TenantID:          userCtx.TenantID,
		Name:              req.Name,
		Kind:              kind,
		UnitPrice:         req.UnitPrice,
		TaxRate:           req.TaxRate,
		StockLevel:        req.StockLevel,
		MinimumStockLevel: req.MinimumStockLevel,
		StockStatus:       status,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("productID", product.ID.String()),
		zap.String("name", product.Name))

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// Update edits catalog fields of a product. The stock level is untouched;
// a changed minimum re-derives the status against the current level.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProductRequest) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	kind := req.Kind
	if kind == "" {
		kind = product.Kind
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown product kind %q", ErrInvalidInput, kind)
	}

	product.Name = req.Name
	product.Kind = kind
	product.UnitPrice = req.UnitPrice
	product.TaxRate = req.TaxRate
	product.MinimumStockLevel = req.MinimumStockLevel

	if product.IsStockTracked() && !product.IsStatusPinned() {
		product.StockStatus = domain.DeriveStockStatus(*product.StockLevel, product.MinimumStockLevel)
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// Delete removes a product unless any document line still references it
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}

	refs, err := s.productRepo.CountLineItemReferences(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to count product references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: %d line items", ErrProductInUse, refs)
	}

	if err := s.productRepo.Delete(ctx, product.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("product deleted",
		zap.String("productID", product.ID.String()),
		zap.String("name", product.Name))

	return nil
}

// GetByID returns a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, page, pageSize int, search string) (*domain.PaginatedResponse, error) {
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	products, total, err := s.productRepo.List(ctx, page, pageSize, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	dtos := make([]domain.ProductDTO, len(products))
	for i := range products {
		dtos[i] = mapper.ToProductDTO(&products[i])
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

// SetStockLevel overwrites the stock level after a manual count
func (s *ProductService) SetStockLevel(ctx context.Context, id uuid.UUID, level int) (*domain.ProductDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	product, err := s.stock.SetStockLevel(ctx, userCtx.TenantID, id, level)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// PinStockStatus pins the product's status to available_soon
func (s *ProductService) PinStockStatus(ctx context.Context, id uuid.UUID, req *domain.PinStockStatusRequest) (*domain.ProductDTO, error) {
	product, err := s.stock.PinStockStatus(ctx, id, req.RestockDate)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// UnpinStockStatus restores the derived stock status
func (s *ProductService) UnpinStockStatus(ctx context.Context, id uuid.UUID) (*domain.ProductDTO, error) {
	product, err := s.stock.UnpinStockStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}
