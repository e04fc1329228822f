package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"go.uber.org/zap"
)

// StockWarningMessage is returned alongside a successful document save
// when its stock reconciliation failed. The saved document is
// authoritative; the warning tells the operator stock levels may be off
// until a manual correction.
const StockWarningMessage = "document saved, but stock levels could not be updated; please verify product stock"

// DocumentLifecycle reconciles stock reservations when documents are
// created, edited, change status or are deleted. It owns the asymmetry in
// failure handling: on save the document wins and a failed reconciliation
// becomes a warning, on delete a failed release aborts the deletion.
type DocumentLifecycle struct {
	stock  *StockService
	logger *zap.Logger
}

// NewDocumentLifecycle creates a new DocumentLifecycle coordinator
func NewDocumentLifecycle(stock *StockService, logger *zap.Logger) *DocumentLifecycle {
	return &DocumentLifecycle{
		stock:  stock,
		logger: logger,
	}
}

// ReconcileSave diffs a document's last persisted state against its new
// state and applies the resulting deltas. oldStatus and oldItems must come
// from the database, never from an in-memory running total; the diff is
// what keeps repeated saves idempotent. Returns a non-empty warning when
// the document saved but stock could not be updated.
func (l *DocumentLifecycle) ReconcileSave(
	ctx context.Context,
	tenantID uuid.UUID,
	docType domain.DocumentType,
	docID uuid.UUID,
	oldStatus, newStatus string,
	oldItems, newItems []domain.LineItem,
) string {
	deltas := domain.ComputeStockDeltas(oldStatus, newStatus, oldItems, newItems, domain.ReservingStatuses(docType))
	if len(deltas) == 0 {
		return ""
	}

	if err := l.stock.Apply(ctx, tenantID, deltas); err != nil {
		l.logger.Error("stock reconciliation failed after document save",
			zap.String("documentType", string(docType)),
			zap.String("documentID", docID.String()),
			zap.String("oldStatus", oldStatus),
			zap.String("newStatus", newStatus),
			zap.Int("deltas", len(deltas)),
			zap.Error(err))
		return StockWarningMessage
	}

	return ""
}

// ReconcileDelete releases a document's reservations ahead of deletion.
// Unlike saves, a failure here is fatal: deleting the document without
// releasing its stock would leak reservations forever, so the caller must
// abort the deletion.
func (l *DocumentLifecycle) ReconcileDelete(
	ctx context.Context,
	tenantID uuid.UUID,
	docType domain.DocumentType,
	docID uuid.UUID,
	status string,
	items []domain.LineItem,
) error {
	deltas := domain.ComputeReleaseDeltas(docType, status, items)
	if len(deltas) == 0 {
		return nil
	}

	if err := l.stock.Apply(ctx, tenantID, deltas); err != nil {
		l.logger.Error("failed to release stock reservations for deletion",
			zap.String("documentType", string(docType)),
			zap.String("documentID", docID.String()),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStockReconciliation, err)
	}

	return nil
}
