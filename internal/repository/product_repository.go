package repository

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyTenantFilter(ctx, query)
	err := query.First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx))
	return query.Delete(&domain.Product{}, "id = ?", id).Error
}

func (r *ProductRepository) List(ctx context.Context, page, pageSize int, search string) ([]domain.Product, int64, error) {
	var products []domain.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Product{})
	query = ApplyTenantFilter(ctx, query)

	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ?", searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("name ASC").Find(&products).Error

	return products, total, err
}

// CountLineItemReferences returns how many line items reference the product
func (r *ProductRepository) CountLineItemReferences(ctx context.Context, productID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LineItem{}).
		Where("product_id = ?", productID).Count(&count).Error
	return int(count), err
}

// ApplyAdjustments applies a batch of reservation deltas to product stock
// levels in a single transaction. Either every adjustment in the batch is
// applied or none is. Each product row is locked with SELECT FOR UPDATE;
// rows are processed in product-ID order so concurrent batches cannot
// deadlock. Products that are not stock tracked (nil stock_level) are
// skipped silently.
//
// A positive delta means more stock is reserved, so stock_level decreases.
// Fractional net deltas are rounded half away from zero at this boundary;
// the diff itself stays exact so symmetric edits cancel.
//
// Returns the products whose stock level crossed from above their minimum
// to at-or-below it during this batch, for low-stock notification fan-out.
func (r *ProductRepository) ApplyAdjustments(ctx context.Context, tenantID uuid.UUID, adjustments []domain.StockAdjustment) ([]domain.Product, error) {
	if len(adjustments) == 0 {
		return nil, nil
	}

	sorted := make([]domain.StockAdjustment, len(adjustments))
	copy(sorted, adjustments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProductID.String() < sorted[j].ProductID.String()
	})

	var crossed []domain.Product

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, adj := range sorted {
			var product domain.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ? AND tenant_id = ?", adj.ProductID, tenantID).
				First(&product).Error
			if err != nil {
				return err
			}

			if !product.IsStockTracked() {
				continue
			}

			delta := int(math.Round(adj.Delta))
			if delta == 0 {
				continue
			}

			oldLevel := *product.StockLevel
			newLevel := oldLevel - delta

			updates := map[string]interface{}{
				"stock_level": newLevel,
				"updated_at":  time.Now(),
			}
			if !product.IsStatusPinned() {
				updates["stock_status"] = domain.DeriveStockStatus(newLevel, product.MinimumStockLevel)
			}

			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return err
			}

			if domain.CrossedLowStockThreshold(oldLevel, newLevel, product.MinimumStockLevel) {
				product.StockLevel = &newLevel
				crossed = append(crossed, product)
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return crossed, nil
}

// SetStockLevel overwrites a product's stock level after a manual count.
// The derived status is recomputed unless the status is pinned. Reports
// whether the overwrite crossed the low-stock threshold.
func (r *ProductRepository) SetStockLevel(ctx context.Context, productID uuid.UUID, level int) (*domain.Product, bool, error) {
	var product domain.Product
	var crossed bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", productID)
		query = ApplyTenantFilter(ctx, query)
		if err := query.First(&product).Error; err != nil {
			return err
		}

		// A previously untracked product counts as above-minimum, so
		// tracking it straight into low stock still reports a crossing.
		oldLevel := product.MinimumStockLevel + 1
		if product.StockLevel != nil {
			oldLevel = *product.StockLevel
		}

		updates := map[string]interface{}{
			"stock_level": level,
			"updated_at":  time.Now(),
		}
		if !product.IsStatusPinned() {
			updates["stock_status"] = domain.DeriveStockStatus(level, product.MinimumStockLevel)
		}

		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return err
		}

		crossed = domain.CrossedLowStockThreshold(oldLevel, level, product.MinimumStockLevel)
		product.StockLevel = &level
		if !product.IsStatusPinned() {
			product.StockStatus = domain.DeriveStockStatus(level, product.MinimumStockLevel)
		}
		return nil
	})

	if err != nil {
		return nil, false, err
	}

	return &product, crossed, nil
}

// PinStockStatus pins a product's status to available_soon with an optional
// restock date, suspending derived-status recomputation
func (r *ProductRepository) PinStockStatus(ctx context.Context, productID uuid.UUID, restockDate *time.Time) (*domain.Product, error) {
	var product domain.Product

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", productID)
		query = ApplyTenantFilter(ctx, query)
		if err := query.First(&product).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"stock_status": domain.StockStatusAvailableSoon,
			"restock_date": restockDate,
			"updated_at":   time.Now(),
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return err
		}

		product.StockStatus = domain.StockStatusAvailableSoon
		product.RestockDate = restockDate
		return nil
	})

	if err != nil {
		return nil, err
	}

	return &product, nil
}

// UnpinStockStatus clears a pinned status and restores the derived one
func (r *ProductRepository) UnpinStockStatus(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	var product domain.Product

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", productID)
		query = ApplyTenantFilter(ctx, query)
		if err := query.First(&product).Error; err != nil {
			return err
		}

		status := domain.StockStatusAvailable
		if product.StockLevel != nil {
			status = domain.DeriveStockStatus(*product.StockLevel, product.MinimumStockLevel)
		}

		updates := map[string]interface{}{
			"stock_status": status,
			"restock_date": nil,
			"updated_at":   time.Now(),
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return err
		}

		product.StockStatus = status
		product.RestockDate = nil
		return nil
	})

	if err != nil {
		return nil, err
	}

	return &product, nil
}
