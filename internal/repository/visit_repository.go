package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

type VisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

// WithTx returns a copy of the repository bound to an existing transaction
func (r *VisitRepository) WithTx(tx *gorm.DB) *VisitRepository {
	return &VisitRepository{db: tx}
}

func (r *VisitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

func (r *VisitRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Visit, error) {
	var visit domain.Visit
	query := r.db.WithContext(ctx).
		Preload("Customer").
		Where("id = ?", id)
	query = ApplyTenantFilter(ctx, query)
	err := query.First(&visit).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *VisitRepository) Update(ctx context.Context, visit *domain.Visit) error {
	return r.db.WithContext(ctx).Save(visit).Error
}

func (r *VisitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := ApplyTenantFilter(ctx, r.db.WithContext(ctx))
	return query.Delete(&domain.Visit{}, "id = ?", id).Error
}

func (r *VisitRepository) List(ctx context.Context, page, pageSize int, customerID *uuid.UUID, status *domain.VisitStatus, search string) ([]domain.Visit, int64, error) {
	var visits []domain.Visit
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Visit{}).Preload("Customer")
	query = ApplyTenantFilter(ctx, query)

	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(number) LIKE ? OR LOWER(customer_name) LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("scheduled_at DESC").Find(&visits).Error

	return visits, total, err
}

// ListUpcoming returns planned visits scheduled within the given window
func (r *VisitRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]domain.Visit, error) {
	var visits []domain.Visit
	query := r.db.WithContext(ctx).
		Preload("Customer").
		Where("status = ? AND scheduled_at BETWEEN ? AND ?", domain.VisitStatusPlanned, from, to)
	query = ApplyTenantFilter(ctx, query)
	err := query.Order("scheduled_at ASC").Find(&visits).Error
	return visits, err
}
