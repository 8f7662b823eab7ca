package http_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handlerHTTP "github.com/curriculab/payments-service/internal/adapter/handler/http"
	"github.com/curriculab/payments-service/internal/domain/model"
	"github.com/curriculab/payments-service/internal/usecase"
)

type onboardingFixture struct {
	handler *handlerHTTP.OnboardingHandler
	orders  *memOrderRepo
	mailer  *countingMailer
}

func newOnboardingFixture() *onboardingFixture {
	logger := zap.NewNop()
	orders := newMemOrderRepo()
	mailer := &countingMailer{}
	notifier := usecase.NewNotifier(mailer, newMemNotificationRepo(), "ops@curriculab.com", logger)

	return &onboardingFixture{
		handler: handlerHTTP.NewOnboardingHandler(logger, orders, notifier),
		orders:  orders,
		mailer:  mailer,
	}
}

func (f *onboardingFixture) seedOrder(status model.OrderStatus) *model.Order {
	sessionID := "cs_" + uuid.NewString()
	order := &model.Order{
		ID:                uuid.New(),
		CustomerEmail:     "buyer@example.com",
		PackageSlug:       "professional",
		CheckoutSessionID: &sessionID,
		AmountCents:       19900,
		Currency:          "usd",
		Status:            status,
	}
	f.orders.bySession[sessionID] = order
	return order
}

func onboardingRequest(body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/v1/onboarding", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func TestOnboardingHandler_SubmitOnboarding(t *testing.T) {
	e := echo.New()

	t.Run("confirms onboarding for a paid order", func(t *testing.T) {
		f := newOnboardingFixture()
		order := f.seedOrder(model.OrderStatusPaid)

		body := fmt.Sprintf(`{"orderId":%q,"name":"Jane Doe","phone":"+1 555 0100","notes":"please call after 5pm"}`, order.ID)
		req, rec := onboardingRequest(body)

		err := f.handler.SubmitOnboarding(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":true`)

		// Customer confirmation plus operator notice.
		require.Len(t, f.mailer.sent, 2)
		assert.Equal(t, "buyer@example.com", f.mailer.sent[0].To)
		assert.Equal(t, "ops@curriculab.com", f.mailer.sent[1].To)
		assert.Contains(t, f.mailer.sent[1].HTMLBody, "Jane Doe")
	})

	t.Run("accepts a completed order", func(t *testing.T) {
		f := newOnboardingFixture()
		order := f.seedOrder(model.OrderStatusCompleted)

		body := fmt.Sprintf(`{"orderId":%q,"name":"Jane Doe"}`, order.ID)
		req, rec := onboardingRequest(body)

		err := f.handler.SubmitOnboarding(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects an unpaid order", func(t *testing.T) {
		f := newOnboardingFixture()
		order := f.seedOrder(model.OrderStatusPending)

		body := fmt.Sprintf(`{"orderId":%q,"name":"Jane Doe"}`, order.ID)
		req, rec := onboardingRequest(body)

		err := f.handler.SubmitOnboarding(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		f := newOnboardingFixture()

		body := fmt.Sprintf(`{"orderId":%q,"name":"Jane Doe"}`, uuid.New())
		req, rec := onboardingRequest(body)

		err := f.handler.SubmitOnboarding(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing name fails validation", func(t *testing.T) {
		f := newOnboardingFixture()
		order := f.seedOrder(model.OrderStatusPaid)

		body := fmt.Sprintf(`{"orderId":%q}`, order.ID)
		req, rec := onboardingRequest(body)

		err := f.handler.SubmitOnboarding(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed order id fails validation", func(t *testing.T) {
		f := newOnboardingFixture()

		req, rec := onboardingRequest(`{"orderId":"not-a-uuid","name":"Jane Doe"}`)

		err := f.handler.SubmitOnboarding(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
