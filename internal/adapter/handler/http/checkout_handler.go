package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"go.uber.org/zap"
)

// CheckoutHandler starts provider-hosted checkout flows.
type CheckoutHandler struct {
	logger    *zap.Logger
	clientURL string
	packages  map[string]string
	validate  *validator.Validate
}

// NewCheckoutHandler creates a new checkout handler. packages maps a package
// slug to its provider price id.
func NewCheckoutHandler(logger *zap.Logger, clientURL string, packages map[string]string) *CheckoutHandler {
	return &CheckoutHandler{
		logger:    logger,
		clientURL: clientURL,
		packages:  packages,
		validate:  validator.New(),
	}
}

type CreateCheckoutRequest struct {
	PackageSlug string `json:"packageSlug" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	UserID      string `json:"userId" validate:"omitempty,uuid"`
}

type CreateCheckoutResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	var req CreateCheckoutRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	priceID, ok := h.packages[req.PackageSlug]
	if !ok {
		h.logger.Warn("Checkout requested for unknown package",
			zap.String("package_slug", req.PackageSlug))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Unknown package",
		})
	}

	h.logger.Info("Creating checkout session...",
		zap.String("package_slug", req.PackageSlug),
		zap.String("email", req.Email))

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(h.clientURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(h.clientURL + "/cancel"),
		CustomerEmail: stripe.String(req.Email),
	}
	params.AddMetadata("package_slug", req.PackageSlug)
	if req.UserID != "" {
		params.AddMetadata("userId", req.UserID)
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		h.logger.Error("Error creating checkout session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, CreateCheckoutResponse{
		ID:          s.ID,
		CheckoutURL: s.URL,
		Status:      "pending",
	})
}
