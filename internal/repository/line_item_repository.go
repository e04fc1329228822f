package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"gorm.io/gorm"
)

// LineItemRepository handles database operations for document line items.
// Line items are owned by their document and replaced wholesale on save.
type LineItemRepository struct {
	db *gorm.DB
}

func NewLineItemRepository(db *gorm.DB) *LineItemRepository {
	return &LineItemRepository{db: db}
}

// WithTx returns a copy of the repository bound to an existing transaction
func (r *LineItemRepository) WithTx(tx *gorm.DB) *LineItemRepository {
	return &LineItemRepository{db: tx}
}

// ListForDocument returns the line items of a document in position order
func (r *LineItemRepository) ListForDocument(ctx context.Context, docType domain.DocumentType, docID uuid.UUID) ([]domain.LineItem, error) {
	var items []domain.LineItem
	err := r.db.WithContext(ctx).
		Where("document_type = ? AND document_id = ?", docType, docID).
		Order("position ASC").
		Find(&items).Error
	return items, err
}

// ReplaceForDocument removes every line item of a document and inserts the
// given set. Callers must run this inside the same transaction as the
// document save.
func (r *LineItemRepository) ReplaceForDocument(ctx context.Context, docType domain.DocumentType, docID uuid.UUID, items []domain.LineItem) error {
	err := r.db.WithContext(ctx).
		Where("document_type = ? AND document_id = ?", docType, docID).
		Delete(&domain.LineItem{}).Error
	if err != nil {
		return err
	}

	if len(items) == 0 {
		return nil
	}

	for i := range items {
		items[i].DocumentType = docType
		items[i].DocumentID = docID
	}

	return r.db.WithContext(ctx).Create(&items).Error
}

// DeleteForDocument removes all line items of a document
func (r *LineItemRepository) DeleteForDocument(ctx context.Context, docType domain.DocumentType, docID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("document_type = ? AND document_id = ?", docType, docID).
		Delete(&domain.LineItem{}).Error
}
