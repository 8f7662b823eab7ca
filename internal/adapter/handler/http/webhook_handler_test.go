package http_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	handlerHTTP "github.com/curriculab/payments-service/internal/adapter/handler/http"
	"github.com/curriculab/payments-service/internal/domain/model"
	domainRepo "github.com/curriculab/payments-service/internal/domain/repository"
	infraStripe "github.com/curriculab/payments-service/internal/infrastructure/stripe"
	"github.com/curriculab/payments-service/internal/notification"
	"github.com/curriculab/payments-service/internal/usecase"
)

const webhookSecret = "whsec_handler_test"

// memWebhookRepo is an in-memory event dedup ledger.
type memWebhookRepo struct {
	events    map[string]*model.WebhookEvent
	recordErr error
}

func newMemWebhookRepo() *memWebhookRepo {
	return &memWebhookRepo{events: map[string]*model.WebhookEvent{}}
}

func (m *memWebhookRepo) RecordIfNew(_ context.Context, eventID, eventType string, payload json.RawMessage) (bool, error) {
	if m.recordErr != nil {
		return false, m.recordErr
	}
	if _, ok := m.events[eventID]; ok {
		return false, nil
	}
	m.events[eventID] = &model.WebhookEvent{
		ProviderEventID: eventID,
		EventType:       eventType,
		ReceivedAt:      time.Now(),
	}
	return true, nil
}

func (m *memWebhookRepo) GetEvent(_ context.Context, eventID string) (*model.WebhookEvent, error) {
	ev, ok := m.events[eventID]
	if !ok {
		return nil, errors.New("not found")
	}
	return ev, nil
}

// memOrderRepo upserts into maps keyed the same way the real repository is.
type memOrderRepo struct {
	bySession map[string]*model.Order
	byIntent  map[string]*model.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		bySession: map[string]*model.Order{},
		byIntent:  map[string]*model.Order{},
	}
}

func (m *memOrderRepo) UpsertByCheckoutSession(_ context.Context, upsert domainRepo.CheckoutUpsert) (*model.Order, bool, error) {
	if existing, ok := m.bySession[upsert.CheckoutSessionID]; ok {
		if !existing.Status.CanTransition(upsert.Status) {
			return existing, false, nil
		}
		existing.Status = upsert.Status
		return existing, true, nil
	}
	order := &model.Order{
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
		CreatedAt:         time.Now(),
	}
	m.bySession[upsert.CheckoutSessionID] = order
	if upsert.PaymentIntentID != nil {
		m.byIntent[*upsert.PaymentIntentID] = order
	}
	return order, true, nil
}

func (m *memOrderRepo) UpsertByPaymentIntent(_ context.Context, upsert domainRepo.PaymentUpsert) (*model.Order, bool, error) {
	if existing, ok := m.byIntent[upsert.PaymentIntentID]; ok {
		if !existing.Status.CanTransition(upsert.Status) {
			return existing, false, nil
		}
		existing.Status = upsert.Status
		if upsert.ReceiptURL != nil {
			existing.ReceiptURL = upsert.ReceiptURL
		}
		return existing, true, nil
	}
	order := &model.Order{
		ID:              uuid.New(),
		PaymentIntentID: &upsert.PaymentIntentID,
		AmountCents:     upsert.AmountCents,
		Currency:        upsert.Currency,
		Status:          upsert.Status,
		ReceiptURL:      upsert.ReceiptURL,
		PackageSlug:     model.PackageSlugUnknown,
		CreatedAt:       time.Now(),
	}
	m.byIntent[upsert.PaymentIntentID] = order
	return order, true, nil
}

func (m *memOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	for _, o := range m.bySession {
		if o.ID == id {
			return o, nil
		}
	}
	for _, o := range m.byIntent {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (m *memOrderRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]*model.Order, error) {
	return nil, nil
}

func (m *memOrderRepo) ListPaidBefore(_ context.Context, _ time.Time, _ int) ([]*model.Order, error) {
	return nil, nil
}

func (m *memOrderRepo) CloseOrders(_ context.Context, _ []uuid.UUID) (int64, error) {
	return 0, nil
}

// memNotificationRepo is an in-memory send ledger.
type memNotificationRepo struct {
	sent map[string]bool
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{sent: map[string]bool{}}
}

func (m *memNotificationRepo) key(orderID uuid.UUID, kind model.NotificationKind) string {
	return orderID.String() + "/" + string(kind)
}

func (m *memNotificationRepo) WasSent(_ context.Context, orderID uuid.UUID, kind model.NotificationKind) (bool, error) {
	return m.sent[m.key(orderID, kind)], nil
}

func (m *memNotificationRepo) RecordSent(_ context.Context, orderID uuid.UUID, kind model.NotificationKind, _ string) error {
	m.sent[m.key(orderID, kind)] = true
	return nil
}

type countingMailer struct {
	sent []*notification.Message
}

func (c *countingMailer) Send(msg *notification.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

type staticCharges struct{}

func (staticCharges) ReceiptURL(_ context.Context, _ string) (string, error) {
	return "https://pay.stripe.com/receipts/test", nil
}

type handlerFixture struct {
	handler *handlerHTTP.WebhookHandler
	events  *memWebhookRepo
	orders  *memOrderRepo
	mailer  *countingMailer
}

func newHandlerFixture() *handlerFixture {
	logger := zap.NewNop()
	events := newMemWebhookRepo()
	orders := newMemOrderRepo()
	mailer := &countingMailer{}

	notifier := usecase.NewNotifier(mailer, newMemNotificationRepo(), "ops@curriculab.com", logger)
	reconciler := usecase.NewReconciler(orders, notifier, staticCharges{}, logger)
	verifier := infraStripe.NewVerifier(webhookSecret)

	return &handlerFixture{
		handler: handlerHTTP.NewWebhookHandler(logger, verifier, events, reconciler),
		events:  events,
		orders:  orders,
		mailer:  mailer,
	}
}

func signedRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, []byte(payload), webhookSecret)
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Stripe-Signature", header)
	return req
}

func checkoutCompletedPayload(eventID, sessionID string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"api_version": "2024-06-20",
		"data": {
			"object": {
				"id": %q,
				"object": "checkout.session",
				"amount_total": 19900,
				"currency": "usd",
				"payment_status": "paid",
				"payment_intent": "pi_test_abc",
				"customer_details": {"email": "buyer@example.com"},
				"metadata": {"package_slug": "professional"}
			}
		}
	}`, eventID, sessionID)
}

func TestWebhookHandler_HandleWebhook(t *testing.T) {
	e := echo.New()

	t.Run("rejects a bad signature without touching state", func(t *testing.T) {
		f := newHandlerFixture()

		payload := checkoutCompletedPayload("evt_sig", "cs_sig")
		req := signedRequest(t, payload)
		req.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")
		rec := httptest.NewRecorder()

		err := f.handler.HandleWebhook(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid signature")
		assert.Empty(t, f.events.events)
		assert.Empty(t, f.orders.bySession)
	})

	t.Run("processes a verified checkout event", func(t *testing.T) {
		f := newHandlerFixture()

		req := signedRequest(t, checkoutCompletedPayload("evt_ok", "cs_ok"))
		rec := httptest.NewRecorder()

		err := f.handler.HandleWebhook(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"received":true`)

		require.Contains(t, f.orders.bySession, "cs_ok")
		order := f.orders.bySession["cs_ok"]
		assert.Equal(t, model.OrderStatusPaid, order.Status)
		assert.Equal(t, "buyer@example.com", order.CustomerEmail)
		assert.Equal(t, "professional", order.PackageSlug)
		assert.Contains(t, f.events.events, "evt_ok")
	})

	t.Run("redelivered event is acknowledged once processed", func(t *testing.T) {
		f := newHandlerFixture()
		payload := checkoutCompletedPayload("evt_dup", "cs_dup")

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			err := f.handler.HandleWebhook(e.NewContext(signedRequest(t, payload), rec))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		// One ledger row, one order.
		assert.Len(t, f.events.events, 1)
		assert.Len(t, f.orders.bySession, 1)
	})

	t.Run("ledger failure does not drop the event", func(t *testing.T) {
		f := newHandlerFixture()
		f.events.recordErr = errors.New("connection refused")

		req := signedRequest(t, checkoutCompletedPayload("evt_ledger", "cs_ledger"))
		rec := httptest.NewRecorder()

		err := f.handler.HandleWebhook(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, f.orders.bySession, "cs_ledger")
	})

	t.Run("payment success event mails receipt and operator", func(t *testing.T) {
		f := newHandlerFixture()

		// The checkout event seeds the order with the customer email.
		rec := httptest.NewRecorder()
		err := f.handler.HandleWebhook(e.NewContext(signedRequest(t, checkoutCompletedPayload("evt_seed", "cs_seed")), rec))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, rec.Code)

		payload := `{
			"id": "evt_paid",
			"type": "payment_intent.succeeded",
			"api_version": "2024-06-20",
			"data": {
				"object": {
					"id": "pi_test_abc",
					"object": "payment_intent",
					"amount": 19900,
					"currency": "usd",
					"latest_charge": "ch_test_abc"
				}
			}
		}`
		rec = httptest.NewRecorder()
		err = f.handler.HandleWebhook(e.NewContext(signedRequest(t, payload), rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, f.mailer.sent, 2)
		assert.Equal(t, "buyer@example.com", f.mailer.sent[0].To)
		assert.Equal(t, "ops@curriculab.com", f.mailer.sent[1].To)

		order := f.orders.byIntent["pi_test_abc"]
		require.NotNil(t, order)
		require.NotNil(t, order.ReceiptURL)
		assert.Equal(t, "https://pay.stripe.com/receipts/test", *order.ReceiptURL)
	})

	t.Run("unhandled event type still returns 200", func(t *testing.T) {
		f := newHandlerFixture()

		payload := `{
			"id": "evt_sub",
			"type": "customer.subscription.created",
			"api_version": "2024-06-20",
			"data": {"object": {"id": "sub_test"}}
		}`
		rec := httptest.NewRecorder()
		err := f.handler.HandleWebhook(e.NewContext(signedRequest(t, payload), rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, f.orders.bySession)
	})
}
