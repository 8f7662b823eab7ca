package http

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	domainRepo "github.com/curriculab/payments-service/internal/domain/repository"
	"github.com/curriculab/payments-service/internal/usecase"
	apperrors "github.com/curriculab/payments-service/pkg/errors"
)

// SignatureVerifier validates a delivery's signature over the raw body bytes.
type SignatureVerifier interface {
	Verify(payload []byte, signatureHeader string) (stripe.Event, error)
}

// WebhookHandler receives payment provider deliveries. The contract with the
// provider: 2xx stops redelivery, 4xx means the delivery can never succeed
// (bad signature), 5xx asks for a retry of the whole event.
type WebhookHandler struct {
	logger     *zap.Logger
	verifier   SignatureVerifier
	events     domainRepo.WebhookRepository
	reconciler *usecase.Reconciler
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(logger *zap.Logger, verifier SignatureVerifier, events domainRepo.WebhookRepository, reconciler *usecase.Reconciler) *WebhookHandler {
	return &WebhookHandler{
		logger:     logger,
		verifier:   verifier,
		events:     events,
		reconciler: reconciler,
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	event, err := h.verifier.Verify(body, sig)
	if err != nil {
		// A forged or tampered delivery will never verify on redelivery, so
		// this maps to a client error the provider will not retry.
		h.logger.Error("Webhook signature verification failed",
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid signature"})
	}

	h.logger.Info("Webhook event received",
		zap.String("id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Time("created", time.Unix(event.Created, 0)))

	isNew, err := h.events.RecordIfNew(ctx, event.ID, string(event.Type), body)
	if err != nil {
		// Deliberate tradeoff: a ledger failure does not drop the event. We
		// keep processing and accept that this delivery is untracked, rather
		// than losing a legitimate payment update.
		h.logger.Error("Failed to record webhook event, processing anyway",
			zap.String("event_id", event.ID),
			zap.Error(err))
	} else if !isNew {
		h.logger.Info("Duplicate webhook event, skipping",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	result, err := h.reconciler.ProcessEvent(ctx, event)
	if err != nil {
		h.logger.Error("Webhook event processing failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		httpErr := apperrors.ToHTTPError(err)
		return c.JSON(httpErr.Code, echo.Map{"error": err.Error()})
	}

	for _, warning := range result.Warnings {
		h.logger.Warn("Webhook event processed with warning",
			zap.String("event_id", event.ID),
			zap.String("warning", warning))
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
