package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/curriculab/payments-service/internal/domain/model"
	domainRepo "github.com/curriculab/payments-service/internal/domain/repository"
	"github.com/curriculab/payments-service/internal/notification"
	"github.com/curriculab/payments-service/internal/usecase"
)

// OnboardingHandler accepts the post-purchase onboarding form and confirms it
// by email to both the customer and the operator.
type OnboardingHandler struct {
	logger   *zap.Logger
	orders   domainRepo.OrderRepository
	notifier *usecase.Notifier
	validate *validator.Validate
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(logger *zap.Logger, orders domainRepo.OrderRepository, notifier *usecase.Notifier) *OnboardingHandler {
	return &OnboardingHandler{
		logger:   logger,
		orders:   orders,
		notifier: notifier,
		validate: validator.New(),
	}
}

type OnboardingRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"omitempty,max=50"`
	Notes   string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *OnboardingHandler) SubmitOnboarding(c echo.Context) error {
	ctx := c.Request().Context()

	var req OnboardingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order id"})
	}

	order, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		h.logger.Error("Failed to load order for onboarding",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load order"})
	}
	if order == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}
	if order.Status != model.OrderStatusPaid && order.Status != model.OrderStatusCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Order is not paid"})
	}

	data := notification.OnboardingData{
		Name:        req.Name,
		OrderID:     order.ID.String(),
		PackageSlug: order.PackageSlug,
		Phone:       req.Phone,
		Notes:       req.Notes,
	}

	if _, err := h.notifier.SendOnboardingConfirmation(ctx, order, data); err != nil {
		h.logger.Error("Failed to send onboarding confirmation",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send confirmation"})
	}

	if _, err := h.notifier.SendOnboardingOperatorNotice(ctx, order, data); err != nil {
		h.logger.Error("Failed to send onboarding operator notice",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to notify operator"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
