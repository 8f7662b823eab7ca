package stripe

import (
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Verifier validates webhook deliveries against the endpoint signing secret.
// The signature covers the exact body bytes, so callers must pass the raw,
// unmodified request body.
type Verifier struct {
	secret string
}

// NewVerifier creates a new webhook signature verifier
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify checks the signature header against the payload and returns the
// parsed event. Verification has no side effects; a forged or tampered
// delivery never reaches business logic.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(
		payload,
		signatureHeader,
		v.secret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
}
