package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/curriculab/payments-service/internal/domain/model"
	domainRepo "github.com/curriculab/payments-service/internal/domain/repository"
)

type orderRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB, logger *zap.Logger) domainRepo.OrderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertByCheckoutSession creates or updates the order for a checkout session.
// The status transition table decides whether an existing row may be moved;
// a rejected transition skips the write and returns applied=false so replays
// and out-of-order duplicates converge instead of regressing terminal states.
func (r *orderRepository) UpsertByCheckoutSession(ctx context.Context, upsert domainRepo.CheckoutUpsert) (*model.Order, bool, error) {
	var order *model.Order
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Order
		err := tx.Where("checkout_session_id = ?", upsert.CheckoutSessionID).First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			created := &model.Order{
				ID:                uuid.New(),
				UserID:            upsert.UserID,
				CustomerEmail:     upsert.CustomerEmail,
				PackageSlug:       upsert.PackageSlug,
				CheckoutSessionID: &upsert.CheckoutSessionID,
				PaymentIntentID:   upsert.PaymentIntentID,
				AmountCents:       upsert.AmountCents,
				Currency:          upsert.Currency,
				Status:            upsert.Status,
				Metadata:          upsert.Metadata,
			}
			if createErr := tx.Create(created).Error; createErr != nil {
				return fmt.Errorf("failed to create order: %w", createErr)
			}
			order = created
			applied = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to check order: %w", err)
		}

		if !existing.Status.CanTransition(upsert.Status) {
			r.logger.Warn("Rejected order status transition",
				zap.String("order_id", existing.ID.String()),
				zap.String("checkout_session_id", upsert.CheckoutSessionID),
				zap.String("from", string(existing.Status)),
				zap.String("to", string(upsert.Status)))
			order = &existing
			return nil
		}

		updates := map[string]interface{}{
			"customer_email": upsert.CustomerEmail,
			"package_slug":   upsert.PackageSlug,
			"amount_cents":   upsert.AmountCents,
			"currency":       upsert.Currency,
			"status":         upsert.Status,
			"metadata":       upsert.Metadata,
			"updated_at":     time.Now(),
		}
		if upsert.UserID != nil {
			updates["user_id"] = upsert.UserID
		}
		if upsert.PaymentIntentID != nil {
			updates["payment_intent_id"] = upsert.PaymentIntentID
		}

		if updateErr := tx.Model(&model.Order{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; updateErr != nil {
			return fmt.Errorf("failed to update order: %w", updateErr)
		}

		if reloadErr := tx.Where("id = ?", existing.ID).First(&existing).Error; reloadErr != nil {
			return fmt.Errorf("failed to reload order: %w", reloadErr)
		}
		order = &existing
		applied = true
		return nil
	})

	if err != nil {
		r.logger.Error("Checkout session upsert failed",
			zap.String("checkout_session_id", upsert.CheckoutSessionID),
			zap.Error(err))
		return nil, false, err
	}

	return order, applied, nil
}

// UpsertByPaymentIntent creates or updates the order for a payment intent.
// When no order exists for that intent yet (succeeded event raced ahead of the
// checkout completion) a minimal row is created and later filled in.
func (r *orderRepository) UpsertByPaymentIntent(ctx context.Context, upsert domainRepo.PaymentUpsert) (*model.Order, bool, error) {
	var order *model.Order
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Order
		err := tx.Where("payment_intent_id = ?", upsert.PaymentIntentID).First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			created := &model.Order{
				ID:              uuid.New(),
				PackageSlug:     model.PackageSlugUnknown,
				PaymentIntentID: &upsert.PaymentIntentID,
				AmountCents:     upsert.AmountCents,
				Currency:        upsert.Currency,
				Status:          upsert.Status,
				ReceiptURL:      upsert.ReceiptURL,
			}
			if createErr := tx.Create(created).Error; createErr != nil {
				return fmt.Errorf("failed to create order: %w", createErr)
			}
			order = created
			applied = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to check order: %w", err)
		}

		if !existing.Status.CanTransition(upsert.Status) {
			r.logger.Warn("Rejected order status transition",
				zap.String("order_id", existing.ID.String()),
				zap.String("payment_intent_id", upsert.PaymentIntentID),
				zap.String("from", string(existing.Status)),
				zap.String("to", string(upsert.Status)))
			order = &existing
			return nil
		}

		updates := map[string]interface{}{
			"amount_cents": upsert.AmountCents,
			"currency":     upsert.Currency,
			"status":       upsert.Status,
			"updated_at":   time.Now(),
		}
		if upsert.ReceiptURL != nil {
			updates["receipt_url"] = upsert.ReceiptURL
		}

		if updateErr := tx.Model(&model.Order{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; updateErr != nil {
			return fmt.Errorf("failed to update order: %w", updateErr)
		}

		if reloadErr := tx.Where("id = ?", existing.ID).First(&existing).Error; reloadErr != nil {
			return fmt.Errorf("failed to reload order: %w", reloadErr)
		}
		order = &existing
		applied = true
		return nil
	})

	if err != nil {
		r.logger.Error("Payment intent upsert failed",
			zap.String("payment_intent_id", upsert.PaymentIntentID),
			zap.Error(err))
		return nil, false, err
	}

	return order, applied, nil
}

// GetByID retrieves an order by internal id
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get order",
			zap.String("order_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

// ListByUser retrieves all orders owned by a user, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Order, error) {
	var orders []*model.Order

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		r.logger.Error("Failed to list orders by user",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// ListPaidBefore returns paid orders created strictly before cutoff
func (r *orderRepository) ListPaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Order, error) {
	var orders []*model.Order

	query := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.OrderStatusPaid, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&orders).Error; err != nil {
		r.logger.Error("Failed to list paid orders",
			zap.Time("cutoff", cutoff),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list paid orders: %w", err)
	}

	return orders, nil
}

// CloseOrders bulk-transitions the given paid orders to completed
func (r *orderRepository) CloseOrders(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id IN ? AND status = ?", ids, model.OrderStatusPaid).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusCompleted,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("Failed to close orders",
			zap.Int("count", len(ids)),
			zap.Error(result.Error))
		return 0, fmt.Errorf("failed to close orders: %w", result.Error)
	}

	return result.RowsAffected, nil
}
