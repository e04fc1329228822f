package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"github.com/norfield-as/fieldops-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NumberSequenceService generates unique, formatted document numbers.
// Each document type has its own counter per tenant, so two invoices can
// never share a number even when saved concurrently. Sequences only move
// forward: deleting a numbered document never frees its number.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: INV-2025-00001, VIS-2025-00042
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
	}
}

// GenerateNumber allocates the next number for a tenant/document-type pair.
// Must be called at document creation time, inside the same transaction as
// the document insert (pass the transaction via tx) so a failed insert
// rolls the counter back.
func (s *NumberSequenceService) GenerateNumber(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, docType domain.DocumentType) (string, error) {
	if !docType.IsValid() {
		return "", fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, docType)
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}

	nextSeq, err := repo.NextSequence(ctx, tenantID, docType)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("tenantID", tenantID.String()),
			zap.String("documentType", string(docType)),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate %s number: %w", docType, err)
	}

	number := FormatDocumentNumber(docType, time.Now().Year(), nextSeq)

	s.logger.Info("generated document number",
		zap.String("number", number),
		zap.String("tenantID", tenantID.String()),
		zap.String("documentType", string(docType)),
		zap.Int("sequence", nextSeq))

	return number, nil
}

// GetCurrentSequence returns the current sequence value for a tenant and
// document type without incrementing it. Returns 0 if no sequence exists.
func (s *NumberSequenceService) GetCurrentSequence(ctx context.Context, tenantID uuid.UUID, docType domain.DocumentType) (int, error) {
	return s.repo.GetCurrentSequence(ctx, tenantID, docType)
}

// InitializeSequence sets the sequence to a specific value, for data
// migrations where existing numbered documents must be accounted for.
// The value should be the LAST USED sequence number.
func (s *NumberSequenceService) InitializeSequence(ctx context.Context, tenantID uuid.UUID, docType domain.DocumentType, value int) error {
	return s.repo.SetSequence(ctx, tenantID, docType, value)
}

// FormatDocumentNumber renders a document number as PREFIX-YYYY-NNNNN
// (sequence zero-padded to 5 digits)
func FormatDocumentNumber(docType domain.DocumentType, year, sequence int) string {
	return fmt.Sprintf("%s-%d-%05d", docType.NumberPrefix(), year, sequence)
}

var documentNumberPattern = regexp.MustCompile(`^[A-Z]{3}-\d{4}-\d{5,}$`)

// ValidateDocumentNumber checks whether a number follows the expected
// PREFIX-YYYY-NNNNN format
func ValidateDocumentNumber(number string) bool {
	return documentNumberPattern.MatchString(number)
}
