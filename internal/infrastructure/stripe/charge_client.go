package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/charge"
	"go.uber.org/zap"
)

// ChargeClient looks up charge details from the Stripe API.
type ChargeClient struct {
	logger *zap.Logger
}

// NewChargeClient creates a new charge client
func NewChargeClient(logger *zap.Logger) *ChargeClient {
	return &ChargeClient{logger: logger}
}

// ReceiptURL fetches the hosted receipt URL for a charge.
func (c *ChargeClient) ReceiptURL(ctx context.Context, chargeID string) (string, error) {
	params := &stripe.ChargeParams{}
	params.Context = ctx

	ch, err := charge.Get(chargeID, params)
	if err != nil {
		c.logger.Warn("Failed to retrieve charge",
			zap.String("charge_id", chargeID),
			zap.Error(err))
		return "", fmt.Errorf("failed to retrieve charge %s: %w", chargeID, err)
	}

	return ch.ReceiptURL, nil
}
