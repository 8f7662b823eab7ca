package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/curriculab/payments-service/internal/domain/model"
	"github.com/curriculab/payments-service/internal/notification"
	"github.com/curriculab/payments-service/internal/usecase"
)

// fakeMailer fails the first failures sends, then succeeds.
type fakeMailer struct {
	failures int
	calls    int
	sent     []*notification.Message
}

func (f *fakeMailer) Send(msg *notification.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("smtp connection refused")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type ledgerEntry struct {
	orderID uuid.UUID
	kind    model.NotificationKind
}

// fakeLedger is an in-memory notification ledger.
type fakeLedger struct {
	entries     map[ledgerEntry]bool
	wasSentErr  error
	recordErr   error
	recordCalls int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: map[ledgerEntry]bool{}}
}

func (f *fakeLedger) WasSent(_ context.Context, orderID uuid.UUID, kind model.NotificationKind) (bool, error) {
	if f.wasSentErr != nil {
		return false, f.wasSentErr
	}
	return f.entries[ledgerEntry{orderID, kind}], nil
}

func (f *fakeLedger) RecordSent(_ context.Context, orderID uuid.UUID, kind model.NotificationKind, _ string) error {
	f.recordCalls++
	if f.recordErr != nil {
		return f.recordErr
	}
	f.entries[ledgerEntry{orderID, kind}] = true
	return nil
}

func noSleep(time.Duration) {}

func testMessage() *notification.Message {
	return &notification.Message{
		To:       "customer@example.com",
		Subject:  "Your curriculab payment receipt",
		HTMLBody: "<p>receipt</p>",
	}
}

func TestNotifier_Send(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("sends and records on first attempt", func(t *testing.T) {
		mailer := &fakeMailer{}
		ledger := newFakeLedger()
		n := usecase.NewNotifier(mailer, ledger, "ops@curriculab.com", logger)
		n.SetSleep(noSleep)

		outcome, err := n.Send(ctx, orderID, model.NotificationKindReceipt, testMessage())

		require.NoError(t, err)
		assert.False(t, outcome.Skipped)
		assert.Empty(t, outcome.Warnings)
		assert.Equal(t, 1, mailer.calls)

		sent, err := ledger.WasSent(ctx, orderID, model.NotificationKindReceipt)
		require.NoError(t, err)
		assert.True(t, sent)
	})

	t.Run("skips when ledger shows already sent", func(t *testing.T) {
		mailer := &fakeMailer{}
		ledger := newFakeLedger()
		ledger.entries[ledgerEntry{orderID, model.NotificationKindReceipt}] = true
		n := usecase.NewNotifier(mailer, ledger, "ops@curriculab.com", logger)
		n.SetSleep(noSleep)

		outcome, err := n.Send(ctx, orderID, model.NotificationKindReceipt, testMessage())

		require.NoError(t, err)
		assert.True(t, outcome.Skipped)
		assert.Equal(t, 0, mailer.calls)
		assert.Equal(t, 0, ledger.recordCalls)
	})

	t.Run("retries with linear backoff and succeeds", func(t *testing.T) {
		mailer := &fakeMailer{failures: 2}
		ledger := newFakeLedger()
		n := usecase.NewNotifier(mailer, ledger, "ops@curriculab.com", logger)

		var slept []time.Duration
		n.SetSleep(func(d time.Duration) { slept = append(slept, d) })

		outcome, err := n.Send(ctx, orderID, model.NotificationKindReceipt, testMessage())

		require.NoError(t, err)
		assert.False(t, outcome.Skipped)
		assert.Equal(t, 3, mailer.calls)
		// Waits grow with the attempt number: 1s after the first failure,
		// 2s after the second.
		assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, slept)
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		mailer := &fakeMailer{failures: 10}
		ledger := newFakeLedger()
		n := usecase.NewNotifier(mailer, ledger, "ops@curriculab.com", logger)

		var slept []time.Duration
		n.SetSleep(func(d time.Duration) { slept = append(slept, d) })

		_, err := n.Send(ctx, orderID, model.NotificationKindReceipt, testMessage())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 3 attempts")
		assert.Equal(t, 3, mailer.calls)
		// No sleep after the final attempt.
		assert.Len(t, slept, 2)

		// A failed send must never be recorded as sent.
		sent, lerr := ledger.WasSent(ctx, orderID, model.NotificationKindReceipt)
		require.NoError(t, lerr)
		assert.False(t, sent)
	})

	t.Run("ledger read failure sends anyway with warning", func(t *testing.T) {
		mailer := &fakeMailer{}
		ledger := newFakeLedger()
		ledger.wasSentErr = errors.New("connection reset")
		n := usecase.NewNotifier(mailer, ledger, "ops@curriculab.com", logger)
		n.SetSleep(noSleep)

		outcome, err := n.Send(ctx, orderID, model.NotificationKindReceipt, testMessage())

		require.NoError(t, err)
		assert.False(t, outcome.Skipped)
		assert.Equal(t, 1, mailer.calls)
		require.Len(t, outcome.Warnings, 1)
		assert.Contains(t, outcome.Warnings[0], "ledger check failed")
	})

	t.Run("record failure is a warning not an error", func(t *testing.T) {
		mailer := &fakeMailer{}
		ledger := newFakeLedger()
		ledger.recordErr = errors.New("unique violation")
		n := usecase.NewNotifier(mailer, ledger, "ops@curriculab.com", logger)
		n.SetSleep(noSleep)

		outcome, err := n.Send(ctx, orderID, model.NotificationKindReceipt, testMessage())

		require.NoError(t, err)
		assert.Equal(t, 1, mailer.calls)
		require.Len(t, outcome.Warnings, 1)
		assert.Contains(t, outcome.Warnings[0], "failed to record")
	})
}

func TestNotifier_SendReceipt(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	mailer := &fakeMailer{}
	ledger := newFakeLedger()
	n := usecase.NewNotifier(mailer, ledger, "ops@curriculab.com", logger)
	n.SetSleep(noSleep)

	receiptURL := "https://pay.stripe.com/receipts/abc"
	order := &model.Order{
		ID:            uuid.New(),
		CustomerEmail: "customer@example.com",
		PackageSlug:   "professional",
		AmountCents:   19900,
		Currency:      "usd",
		Status:        model.OrderStatusPaid,
		ReceiptURL:    &receiptURL,
	}

	outcome, err := n.SendReceipt(ctx, order)

	require.NoError(t, err)
	assert.False(t, outcome.Skipped)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "customer@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTMLBody, receiptURL)
	assert.Contains(t, mailer.sent[0].HTMLBody, "199.00 USD")
}

func TestNotifier_SendOperatorOrderNotice(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	mailer := &fakeMailer{}
	ledger := newFakeLedger()
	n := usecase.NewNotifier(mailer, ledger, "ops@curriculab.com", logger)
	n.SetSleep(noSleep)

	order := &model.Order{
		ID:            uuid.New(),
		CustomerEmail: "customer@example.com",
		PackageSlug:   "starter",
		AmountCents:   4900,
		Currency:      "usd",
		Status:        model.OrderStatusPaid,
	}

	_, err := n.SendOperatorOrderNotice(ctx, order)

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ops@curriculab.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTMLBody, "customer@example.com")
}
