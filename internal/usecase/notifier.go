package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/curriculab/payments-service/internal/domain/model"
	domainRepo "github.com/curriculab/payments-service/internal/domain/repository"
	"github.com/curriculab/payments-service/internal/notification"
)

const (
	notifierMaxAttempts = 3
)

// SendOutcome reports what a dispatch attempt did. Warnings carry non-fatal
// ledger failures so callers can surface partial-failure conditions instead
// of losing them in logs.
type SendOutcome struct {
	Skipped  bool
	Warnings []string
}

// Notifier dispatches transactional email. Every send is gated on the
// notification ledger so a redelivered event does not mail twice, and retried
// up to three times with linear backoff before the failure propagates.
type Notifier struct {
	mailer        notification.Mailer
	ledger        domainRepo.NotificationRepository
	operatorEmail string
	logger        *zap.Logger
	sleep         func(time.Duration)
	maxAttempts   int
}

// NewNotifier creates a new notification dispatcher
func NewNotifier(mailer notification.Mailer, ledger domainRepo.NotificationRepository, operatorEmail string, logger *zap.Logger) *Notifier {
	return &Notifier{
		mailer:        mailer,
		ledger:        ledger,
		operatorEmail: operatorEmail,
		logger:        logger,
		sleep:         time.Sleep,
		maxAttempts:   notifierMaxAttempts,
	}
}

// Send delivers one notification unless the ledger shows it already went out.
// The ledger is checked before and written after the send: a crash between
// those two points can produce one duplicate email, which is accepted over
// marking an unsent notification as sent.
func (n *Notifier) Send(ctx context.Context, orderID uuid.UUID, kind model.NotificationKind, msg *notification.Message) (*SendOutcome, error) {
	outcome := &SendOutcome{}

	sent, err := n.ledger.WasSent(ctx, orderID, kind)
	if err != nil {
		// A ledger read failure must not block the notification; worst case
		// is a duplicate send.
		n.logger.Warn("Notification ledger check failed, sending anyway",
			zap.String("order_id", orderID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("notification ledger check failed for %s: %v", kind, err))
	}
	if sent {
		n.logger.Info("Notification already sent, skipping",
			zap.String("order_id", orderID.String()),
			zap.String("kind", string(kind)))
		outcome.Skipped = true
		return outcome, nil
	}

	if err := n.deliver(orderID, kind, msg); err != nil {
		return outcome, err
	}

	if err := n.ledger.RecordSent(ctx, orderID, kind, msg.To); err != nil {
		n.logger.Warn("Failed to record sent notification",
			zap.String("order_id", orderID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("failed to record sent notification %s: %v", kind, err))
	}

	return outcome, nil
}

// deliver retries the raw send with linear backoff: wait attempt seconds
// between attempts, give up after the configured maximum.
func (n *Notifier) deliver(orderID uuid.UUID, kind model.NotificationKind, msg *notification.Message) error {
	var lastErr error
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		lastErr = n.mailer.Send(msg)
		if lastErr == nil {
			n.logger.Info("Notification sent",
				zap.String("order_id", orderID.String()),
				zap.String("kind", string(kind)),
				zap.String("recipient", msg.To),
				zap.Int("attempt", attempt))
			return nil
		}

		n.logger.Warn("Notification send attempt failed",
			zap.String("order_id", orderID.String()),
			zap.String("kind", string(kind)),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		if attempt < n.maxAttempts {
			n.sleep(time.Duration(attempt) * time.Second)
		}
	}

	n.logger.Error("Notification send exhausted all attempts",
		zap.String("order_id", orderID.String()),
		zap.String("kind", string(kind)),
		zap.Int("attempts", n.maxAttempts),
		zap.Error(lastErr))

	return fmt.Errorf("failed to send %s notification after %d attempts: %w", kind, n.maxAttempts, lastErr)
}

// SendReceipt mails the payment receipt to the customer.
func (n *Notifier) SendReceipt(ctx context.Context, order *model.Order) (*SendOutcome, error) {
	receiptURL := ""
	if order.ReceiptURL != nil {
		receiptURL = *order.ReceiptURL
	}

	msg := &notification.Message{
		To:      order.CustomerEmail,
		Subject: "Your curriculab payment receipt",
		HTMLBody: notification.ReceiptHTML(notification.ReceiptData{
			PackageSlug: order.PackageSlug,
			Amount:      order.AmountCents,
			Currency:    order.Currency,
			ReceiptURL:  receiptURL,
			OrderID:     order.ID.String(),
		}),
	}

	return n.Send(ctx, order.ID, model.NotificationKindReceipt, msg)
}

// SendOperatorOrderNotice mails the new-order notice to the operator.
func (n *Notifier) SendOperatorOrderNotice(ctx context.Context, order *model.Order) (*SendOutcome, error) {
	msg := &notification.Message{
		To:      n.operatorEmail,
		Subject: fmt.Sprintf("New paid order %s", order.ID),
		HTMLBody: notification.OperatorOrderHTML(notification.ReceiptData{
			PackageSlug: order.PackageSlug,
			Amount:      order.AmountCents,
			Currency:    order.Currency,
			OrderID:     order.ID.String(),
		}, order.CustomerEmail),
	}

	return n.Send(ctx, order.ID, model.NotificationKindOrderOperator, msg)
}

// SendOnboardingConfirmation mails the onboarding confirmation to the customer.
func (n *Notifier) SendOnboardingConfirmation(ctx context.Context, order *model.Order, data notification.OnboardingData) (*SendOutcome, error) {
	msg := &notification.Message{
		To:       order.CustomerEmail,
		Subject:  "We received your onboarding details",
		HTMLBody: notification.OnboardingCustomerHTML(data),
	}

	return n.Send(ctx, order.ID, model.NotificationKindOnboardingCustomer, msg)
}

// SendOnboardingOperatorNotice mails the onboarding notice to the operator.
func (n *Notifier) SendOnboardingOperatorNotice(ctx context.Context, order *model.Order, data notification.OnboardingData) (*SendOutcome, error) {
	msg := &notification.Message{
		To:       n.operatorEmail,
		Subject:  fmt.Sprintf("Onboarding submitted for order %s", order.ID),
		HTMLBody: notification.OnboardingOperatorHTML(data, order.CustomerEmail),
	}

	return n.Send(ctx, order.ID, model.NotificationKindOnboardingOperator, msg)
}
