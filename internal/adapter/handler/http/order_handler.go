package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/curriculab/payments-service/internal/domain/model"
	domainRepo "github.com/curriculab/payments-service/internal/domain/repository"
	"github.com/curriculab/payments-service/internal/middleware/auth"
)

// OrderHandler exposes read access to a customer's own orders. Writes stay
// exclusive to the reconciliation flow.
type OrderHandler struct {
	logger *zap.Logger
	orders domainRepo.OrderRepository
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(logger *zap.Logger, orders domainRepo.OrderRepository) *OrderHandler {
	return &OrderHandler{
		logger: logger,
		orders: orders,
	}
}

type OrderResponse struct {
	ID            string    `json:"id"`
	PackageSlug   string    `json:"package_slug"`
	AmountCents   int64     `json:"amount_cents"`
	AmountDisplay string    `json:"amount_display"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	ReceiptURL    string    `json:"receipt_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toOrderResponse(order *model.Order) OrderResponse {
	resp := OrderResponse{
		ID:            order.ID.String(),
		PackageSlug:   order.PackageSlug,
		AmountCents:   order.AmountCents,
		AmountDisplay: model.FormatAmount(order.AmountCents, order.Currency),
		Currency:      order.Currency,
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
	}
	if order.ReceiptURL != nil {
		resp.ReceiptURL = *order.ReceiptURL
	}
	return resp
}

// ListOrders returns the authenticated user's orders, newest first
func (h *OrderHandler) ListOrders(c echo.Context) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	userID, err := uuid.Parse(user.UserID)
	if err != nil {
		h.logger.Warn("Authenticated user has non-uuid subject",
			zap.String("user_id", user.UserID))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid user identity"})
	}

	orders, err := h.orders.ListByUser(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list orders"})
	}

	responses := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, toOrderResponse(order))
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": responses})
}

// GetOrder returns one of the authenticated user's orders
func (h *OrderHandler) GetOrder(c echo.Context) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order id"})
	}

	order, err := h.orders.GetByID(c.Request().Context(), orderID)
	if err != nil {
		h.logger.Error("Failed to get order",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get order"})
	}
	if order == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	// Ownership check: users only see their own orders.
	if order.UserID == nil || order.UserID.String() != user.UserID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	return c.JSON(http.StatusOK, toOrderResponse(order))
}
