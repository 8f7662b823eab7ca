package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/curriculab/payments-service/internal/usecase"
)

// JanitorHandler exposes the close-orders job to the external scheduler.
type JanitorHandler struct {
	logger  *zap.Logger
	janitor *usecase.Janitor
}

// NewJanitorHandler creates a new janitor handler
func NewJanitorHandler(logger *zap.Logger, janitor *usecase.Janitor) *JanitorHandler {
	return &JanitorHandler{
		logger:  logger,
		janitor: janitor,
	}
}

// CloseOrders runs one janitor pass and returns its summary. A failed run
// reports 500; any orders already closed by the bulk update stay closed.
func (h *JanitorHandler) CloseOrders(c echo.Context) error {
	report, err := h.janitor.CloseDueOrders(c.Request().Context())
	if err != nil {
		h.logger.Error("Janitor run failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success":   false,
			"error":     err.Error(),
			"timestamp": time.Now(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"message":      fmt.Sprintf("Closed %d orders", report.ClosedCount),
		"closedCount":  report.ClosedCount,
		"closedOrders": report.ClosedOrders,
		"timestamp":    report.Timestamp,
	})
}
