package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handlerHTTP "github.com/curriculab/payments-service/internal/adapter/handler/http"
	"github.com/curriculab/payments-service/internal/domain/model"
	"github.com/curriculab/payments-service/internal/usecase"
)

// closableOrderRepo serves a fixed set of due orders.
type closableOrderRepo struct {
	memOrderRepo
	due     []*model.Order
	listErr error
	closed  []uuid.UUID
}

func (c *closableOrderRepo) ListPaidBefore(_ context.Context, _ time.Time, _ int) ([]*model.Order, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.due, nil
}

func (c *closableOrderRepo) CloseOrders(_ context.Context, ids []uuid.UUID) (int64, error) {
	c.closed = ids
	return int64(len(ids)), nil
}

func TestJanitorHandler_CloseOrders(t *testing.T) {
	e := echo.New()
	logger := zap.NewNop()

	t.Run("reports the closed orders", func(t *testing.T) {
		repo := &closableOrderRepo{
			due: []*model.Order{
				{ID: uuid.New(), Status: model.OrderStatusPaid},
				{ID: uuid.New(), Status: model.OrderStatusPaid},
			},
		}
		janitor := usecase.NewJanitor(repo, 7*24*time.Hour, 500, logger)
		handler := handlerHTTP.NewJanitorHandler(logger, janitor)

		req := httptest.NewRequest(http.MethodPost, "/internal/close-orders", nil)
		rec := httptest.NewRecorder()

		err := handler.CloseOrders(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"closedCount":2`)
		assert.Contains(t, rec.Body.String(), "Closed 2 orders")
		assert.Len(t, repo.closed, 2)
	})

	t.Run("nothing due still succeeds", func(t *testing.T) {
		repo := &closableOrderRepo{}
		janitor := usecase.NewJanitor(repo, 7*24*time.Hour, 500, logger)
		handler := handlerHTTP.NewJanitorHandler(logger, janitor)

		req := httptest.NewRequest(http.MethodPost, "/internal/close-orders", nil)
		rec := httptest.NewRecorder()

		err := handler.CloseOrders(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"closedCount":0`)
	})

	t.Run("failed run reports 500", func(t *testing.T) {
		repo := &closableOrderRepo{listErr: errors.New("connection refused")}
		janitor := usecase.NewJanitor(repo, 7*24*time.Hour, 500, logger)
		handler := handlerHTTP.NewJanitorHandler(logger, janitor)

		req := httptest.NewRequest(http.MethodPost, "/internal/close-orders", nil)
		rec := httptest.NewRecorder()

		err := handler.CloseOrders(e.NewContext(req, rec))

		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":false`)
	})
}
