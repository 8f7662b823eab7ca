package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/curriculab/payments-service/internal/domain/model"
)

// CheckoutUpsert carries the fields written when a checkout session completes.
type CheckoutUpsert struct {
	CheckoutSessionID string
	PaymentIntentID   *string
	UserID            *uuid.UUID
	CustomerEmail     string
	PackageSlug       string
	AmountCents       int64
	Currency          string
	Status            model.OrderStatus
	Metadata          model.JSONB
}

// PaymentUpsert carries the fields written when a payment intent settles.
type PaymentUpsert struct {
	PaymentIntentID string
	AmountCents     int64
	Currency        string
	Status          model.OrderStatus
	ReceiptURL      *string
}

// OrderRepository owns all writes to the orders table. Both upserts are keyed
// on a natural unique identifier and guarded by the status transition table:
// applied is false when the write was skipped because the stored status does
// not allow the requested transition.
type OrderRepository interface {
	UpsertByCheckoutSession(ctx context.Context, upsert CheckoutUpsert) (order *model.Order, applied bool, err error)
	UpsertByPaymentIntent(ctx context.Context, upsert PaymentUpsert) (order *model.Order, applied bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Order, error)
	// ListPaidBefore returns paid orders created strictly before cutoff.
	ListPaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Order, error)
	CloseOrders(ctx context.Context, ids []uuid.UUID) (int64, error)
}
