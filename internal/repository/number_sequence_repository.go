package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSequenceRepository handles database operations for number sequences.
// Each tenant/document-type pair has its own counter so invoices, quotes and
// visits number independently without gaps or duplicates.
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// WithTx returns a copy of the repository bound to an existing transaction.
// Allocation must share a transaction with the document insert so a failed
// insert rolls the counter back.
func (r *NumberSequenceRepository) WithTx(tx *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: tx}
}

// NextSequence atomically retrieves and increments the sequence for a
// tenant/document-type pair. Uses SELECT FOR UPDATE so concurrent saves
// serialize on the counter row. If no sequence exists yet, it creates one
// starting at 1.
func (r *NumberSequenceRepository) NextSequence(ctx context.Context, tenantID uuid.UUID, docType domain.DocumentType) (int, error) {
	var seq domain.NumberSequence
	var nextSeq int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND document_type = ?", tenantID, docType).
			First(&seq)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			seq = domain.NumberSequence{
				TenantID:     tenantID,
				DocumentType: docType,
				LastSequence: 1,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}
			// Two first-time allocators can race past the locked read.
			// DO NOTHING lets the loser fall through to the increment
			// path instead of dying on the unique index.
			create := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "document_type"}},
				DoNothing: true,
			}).Create(&seq)
			if create.Error != nil {
				return fmt.Errorf("failed to create number sequence: %w", create.Error)
			}
			if create.RowsAffected > 0 {
				nextSeq = 1
				return nil
			}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("tenant_id = ? AND document_type = ?", tenantID, docType).
				First(&seq).Error; err != nil {
				return fmt.Errorf("failed to get number sequence: %w", err)
			}
		} else if result.Error != nil {
			return fmt.Errorf("failed to get number sequence: %w", result.Error)
		}

		nextSeq = seq.LastSequence + 1
		if err := tx.Model(&seq).Updates(map[string]interface{}{
			"last_sequence": nextSeq,
			"updated_at":    time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("failed to update number sequence: %w", err)
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return nextSeq, nil
}

// GetCurrentSequence retrieves the current sequence value without incrementing.
// Returns 0 if no sequence exists for the tenant/document-type pair.
func (r *NumberSequenceRepository) GetCurrentSequence(ctx context.Context, tenantID uuid.UUID, docType domain.DocumentType) (int, error) {
	var seq domain.NumberSequence
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_type = ?", tenantID, docType).
		First(&seq)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", result.Error)
	}

	return seq.LastSequence, nil
}

// SetSequence sets the sequence to a specific value, for data migrations
// where existing numbered documents must be accounted for. The value is the
// LAST USED sequence number (next number will be value+1). Never lowers an
// existing counter.
func (r *NumberSequenceRepository) SetSequence(ctx context.Context, tenantID uuid.UUID, docType domain.DocumentType, value int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq domain.NumberSequence
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND document_type = ?", tenantID, docType).
			First(&seq)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			seq = domain.NumberSequence{
				TenantID:     tenantID,
				DocumentType: docType,
				LastSequence: value,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create number sequence: %w", err)
			}
		} else if result.Error != nil {
			return fmt.Errorf("failed to get number sequence: %w", result.Error)
		} else if value > seq.LastSequence {
			if err := tx.Model(&seq).Updates(map[string]interface{}{
				"last_sequence": value,
				"updated_at":    time.Now(),
			}).Error; err != nil {
				return fmt.Errorf("failed to update number sequence: %w", err)
			}
		}

		return nil
	})
}

// ListSequences returns all sequences for a tenant (useful for admin views)
func (r *NumberSequenceRepository) ListSequences(ctx context.Context, tenantID uuid.UUID) ([]domain.NumberSequence, error) {
	var sequences []domain.NumberSequence
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("document_type ASC").
		Find(&sequences).Error
	return sequences, err
}
