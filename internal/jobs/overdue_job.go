package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/norfield-as/fieldops-api/internal/domain"
	"go.uber.org/zap"
)

// OverdueSweepJobName is the name of the invoice overdue sweep job
const OverdueSweepJobName = "invoice_overdue_sweep"

// DefaultSweepTimeout bounds a single sweep run
const DefaultSweepTimeout = 5 * time.Minute

// OverdueInvoiceStore defines the repository surface the sweep needs.
// The interface keeps the job decoupled from the repository package.
type OverdueInvoiceStore interface {
	// ListOverdueCandidates returns sent invoices whose due date has passed.
	ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.Invoice, error)

	// MarkOverdue transitions a sent invoice to overdue. Invoices that
	// changed status since listing are left alone.
	MarkOverdue(ctx context.Context, id uuid.UUID) error
}

// OverdueSweepJob flips sent invoices past their due date to overdue.
// Both statuses reserve stock, so the sweep never touches stock levels.
type OverdueSweepJob struct {
	store   OverdueInvoiceStore
	logger  *zap.Logger
	timeout time.Duration
}

// NewOverdueSweepJob creates a new overdue sweep job.
func NewOverdueSweepJob(store OverdueInvoiceStore, logger *zap.Logger, timeout time.Duration) *OverdueSweepJob {
	return &OverdueSweepJob{
		store:   store,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one sweep. This is called by the scheduler according to
// the configured cron expression.
func (j *OverdueSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	now := start.UTC()

	candidates, err := j.store.ListOverdueCandidates(ctx, now)
	if err != nil {
		j.logger.Error("overdue sweep failed to list candidates",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if len(candidates) == 0 {
		return
	}

	var marked, failed int
	for _, invoice := range candidates {
		if err := j.store.MarkOverdue(ctx, invoice.ID); err != nil {
			failed++
			j.logger.Error("failed to mark invoice overdue",
				zap.String("invoice_id", invoice.ID.String()),
				zap.String("invoice_number", invoice.Number),
				zap.Error(err))
			continue
		}
		marked++
	}

	j.logger.Info("overdue sweep completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("marked", marked),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// RegisterOverdueSweepJob registers the sweep with the scheduler.
// The cronExpr should be a valid cron expression (e.g. "@hourly").
func RegisterOverdueSweepJob(scheduler *Scheduler, store OverdueInvoiceStore, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewOverdueSweepJob(store, logger, timeout)
	return scheduler.AddJob(OverdueSweepJobName, cronExpr, job.Run)
}
