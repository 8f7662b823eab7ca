package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainRepo "github.com/curriculab/payments-service/internal/domain/repository"
)

// JanitorReport summarizes one close-orders run.
type JanitorReport struct {
	ClosedCount  int64     `json:"closedCount"`
	ClosedOrders []string  `json:"closedOrders"`
	Timestamp    time.Time `json:"timestamp"`
}

// Janitor moves paid orders to completed once they have rested for the dwell
// period. Runs are idempotent: a closed order no longer matches the paid
// filter, so re-running in the same day finds nothing to touch.
type Janitor struct {
	orders     domainRepo.OrderRepository
	dwell      time.Duration
	batchLimit int
	now        func() time.Time
	logger     *zap.Logger
}

// NewJanitor creates a new close-orders job
func NewJanitor(orders domainRepo.OrderRepository, dwell time.Duration, batchLimit int, logger *zap.Logger) *Janitor {
	return &Janitor{
		orders:     orders,
		dwell:      dwell,
		batchLimit: batchLimit,
		now:        time.Now,
		logger:     logger,
	}
}

// CloseDueOrders closes every paid order created strictly before now minus
// the dwell period. A failure aborts the run; orders already updated by the
// bulk write stay closed.
func (j *Janitor) CloseDueOrders(ctx context.Context) (*JanitorReport, error) {
	cutoff := j.now().Add(-j.dwell)

	due, err := j.orders.ListPaidBefore(ctx, cutoff, j.batchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due orders: %w", err)
	}

	report := &JanitorReport{
		ClosedOrders: make([]string, 0, len(due)),
		Timestamp:    j.now(),
	}

	if len(due) == 0 {
		j.logger.Info("No paid orders due for closing",
			zap.Time("cutoff", cutoff))
		return report, nil
	}

	ids := make([]uuid.UUID, 0, len(due))
	for _, order := range due {
		// Strict boundary: an order created exactly dwell ago waits for the
		// next run.
		if !order.CreatedAt.Before(cutoff) {
			continue
		}
		ids = append(ids, order.ID)
		report.ClosedOrders = append(report.ClosedOrders, order.ID.String())
		j.logger.Info("Closing order",
			zap.String("order_id", order.ID.String()),
			zap.Time("created_at", order.CreatedAt))
	}

	if len(ids) == 0 {
		j.logger.Info("No paid orders due for closing",
			zap.Time("cutoff", cutoff))
		return report, nil
	}

	closed, err := j.orders.CloseOrders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to close orders: %w", err)
	}

	report.ClosedCount = closed
	j.logger.Info("Janitor run completed",
		zap.Int64("closed", closed),
		zap.Time("cutoff", cutoff))

	return report, nil
}
