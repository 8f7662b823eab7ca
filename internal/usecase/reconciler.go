package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/curriculab/payments-service/internal/domain/model"
	domainRepo "github.com/curriculab/payments-service/internal/domain/repository"
	apperrors "github.com/curriculab/payments-service/pkg/errors"
)

// ChargeRetriever looks up the hosted receipt URL for a charge.
type ChargeRetriever interface {
	ReceiptURL(ctx context.Context, chargeID string) (string, error)
}

// Result describes what processing one event did. Warnings collect non-fatal
// side failures (receipt lookup, ledger hiccups, rejected transitions) that
// did not fail the event.
type Result struct {
	EventID   string
	EventType string
	// Handled is false for event types this service ignores.
	Handled bool
	Order   *model.Order
	// Applied is false when the order write was skipped by the transition guard.
	Applied  bool
	Warnings []string
}

// Reconciler maps verified provider events onto order mutations. Every write
// is keyed on a natural unique identifier, so re-processing the same event is
// safe; notifications are additionally gated on the outbound ledger.
type Reconciler struct {
	orders   domainRepo.OrderRepository
	notifier *Notifier
	charges  ChargeRetriever
	logger   *zap.Logger
}

// NewReconciler creates a new order reconciler
func NewReconciler(orders domainRepo.OrderRepository, notifier *Notifier, charges ChargeRetriever, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		orders:   orders,
		notifier: notifier,
		charges:  charges,
		logger:   logger,
	}
}

// ProcessEvent applies exactly one reconciliation operation for the event.
func (r *Reconciler) ProcessEvent(ctx context.Context, event stripe.Event) (*Result, error) {
	result := &Result{
		EventID:   event.ID,
		EventType: string(event.Type),
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return r.handleCheckoutCompleted(ctx, event, result)

	case stripe.EventTypePaymentIntentSucceeded:
		return r.handlePaymentSucceeded(ctx, event, result)

	case stripe.EventTypePaymentIntentPaymentFailed:
		return r.handlePaymentFailed(ctx, event, result)

	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		// Subscriptions are not sold yet; acknowledged so the provider stops
		// redelivering.
		r.logger.Info("Subscription event received, not in scope",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
		return result, nil

	default:
		r.logger.Warn("Unhandled event type",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
		return result, nil
	}
}

// mapPaymentStatus converts the provider payment_status to an order status:
// "paid" maps to paid, everything else (including "unpaid") to failed.
func mapPaymentStatus(status stripe.CheckoutSessionPaymentStatus) model.OrderStatus {
	if status == stripe.CheckoutSessionPaymentStatusPaid {
		return model.OrderStatusPaid
	}
	return model.OrderStatusFailed
}

func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, event stripe.Event, result *Result) (*Result, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		r.logger.Error("Error parsing checkout session",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return result, apperrors.NewAppError(apperrors.ErrInvalidArgument, "error parsing checkout session payload", err)
	}
	result.Handled = true

	// Missing metadata is tolerated: the order is still recorded, just with
	// an unknown package and no owning user.
	packageSlug := session.Metadata["package_slug"]
	if packageSlug == "" {
		r.logger.Warn("Checkout session missing package_slug metadata",
			zap.String("session_id", session.ID))
		packageSlug = model.PackageSlugUnknown
	}

	var userID *uuid.UUID
	if raw := session.Metadata["userId"]; raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			r.logger.Warn("Checkout session has malformed userId metadata",
				zap.String("session_id", session.ID),
				zap.String("userId", raw))
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("malformed userId metadata %q ignored", raw))
		} else {
			userID = &parsed
		}
	}

	email := session.CustomerEmail
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		email = session.CustomerDetails.Email
	}

	var paymentIntentID *string
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		paymentIntentID = &session.PaymentIntent.ID
	}

	metadata := model.JSONB{}
	for k, v := range session.Metadata {
		metadata[k] = v
	}

	order, applied, err := r.orders.UpsertByCheckoutSession(ctx, domainRepo.CheckoutUpsert{
		CheckoutSessionID: session.ID,
		PaymentIntentID:   paymentIntentID,
		UserID:            userID,
		CustomerEmail:     email,
		PackageSlug:       packageSlug,
		AmountCents:       session.AmountTotal,
		Currency:          string(session.Currency),
		Status:            mapPaymentStatus(session.PaymentStatus),
		Metadata:          metadata,
	})
	if err != nil {
		return result, apperrors.Wrap(err, "failed to reconcile checkout session")
	}

	result.Order = order
	result.Applied = applied
	if !applied {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("status transition rejected for checkout session %s", session.ID))
	}

	r.logger.Info("Checkout session reconciled",
		zap.String("event_id", event.ID),
		zap.String("session_id", session.ID),
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.Bool("applied", applied))

	return result, nil
}

func (r *Reconciler) handlePaymentSucceeded(ctx context.Context, event stripe.Event, result *Result) (*Result, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		r.logger.Error("Error parsing payment intent",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return result, apperrors.NewAppError(apperrors.ErrInvalidArgument, "error parsing payment intent payload", err)
	}
	result.Handled = true

	// Best effort: a receipt lookup failure is a warning, never a reason to
	// drop the event.
	var receiptURL *string
	if intent.LatestCharge != nil && intent.LatestCharge.ID != "" {
		url, err := r.charges.ReceiptURL(ctx, intent.LatestCharge.ID)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("receipt lookup failed for charge %s: %v", intent.LatestCharge.ID, err))
		} else if url != "" {
			receiptURL = &url
		}
	}

	order, applied, err := r.orders.UpsertByPaymentIntent(ctx, domainRepo.PaymentUpsert{
		PaymentIntentID: intent.ID,
		AmountCents:     intent.Amount,
		Currency:        string(intent.Currency),
		Status:          model.OrderStatusPaid,
		ReceiptURL:      receiptURL,
	})
	if err != nil {
		return result, apperrors.Wrap(err, "failed to reconcile payment intent")
	}

	result.Order = order
	result.Applied = applied
	if !applied {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("status transition rejected for payment intent %s", intent.ID))
	}

	r.logger.Info("Payment intent succeeded",
		zap.String("event_id", event.ID),
		zap.String("payment_intent_id", intent.ID),
		zap.String("order_id", order.ID.String()),
		zap.Int64("amount", intent.Amount))

	// A send failure propagates and the whole event reports failure, so the
	// provider redelivers. Already-sent notifications are skipped via the
	// ledger on that retry.
	if order.Status == model.OrderStatusPaid {
		if order.CustomerEmail == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("no customer email on order %s, receipt not sent", order.ID))
		} else {
			outcome, err := r.notifier.SendReceipt(ctx, order)
			if err != nil {
				return result, apperrors.Wrap(err, "failed to send customer receipt")
			}
			result.Warnings = append(result.Warnings, outcome.Warnings...)
		}

		outcome, err := r.notifier.SendOperatorOrderNotice(ctx, order)
		if err != nil {
			return result, apperrors.Wrap(err, "failed to send operator notice")
		}
		result.Warnings = append(result.Warnings, outcome.Warnings...)
	}

	return result, nil
}

func (r *Reconciler) handlePaymentFailed(ctx context.Context, event stripe.Event, result *Result) (*Result, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		r.logger.Error("Error parsing payment intent",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return result, apperrors.NewAppError(apperrors.ErrInvalidArgument, "error parsing payment intent payload", err)
	}
	result.Handled = true

	order, applied, err := r.orders.UpsertByPaymentIntent(ctx, domainRepo.PaymentUpsert{
		PaymentIntentID: intent.ID,
		AmountCents:     intent.Amount,
		Currency:        string(intent.Currency),
		Status:          model.OrderStatusFailed,
	})
	if err != nil {
		return result, apperrors.Wrap(err, "failed to reconcile failed payment")
	}

	result.Order = order
	result.Applied = applied
	if !applied {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("status transition rejected for payment intent %s", intent.ID))
	}

	r.logger.Warn("Payment intent failed",
		zap.String("event_id", event.ID),
		zap.String("payment_intent_id", intent.ID),
		zap.String("order_id", order.ID.String()))

	return result, nil
}
