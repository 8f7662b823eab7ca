package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/curriculab/payments-service/internal/domain/model"
)

// NotificationRepository is the outbound-send ledger.
type NotificationRepository interface {
	WasSent(ctx context.Context, orderID uuid.UUID, kind model.NotificationKind) (bool, error)
	RecordSent(ctx context.Context, orderID uuid.UUID, kind model.NotificationKind, recipient string) error
}
