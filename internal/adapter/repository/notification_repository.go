package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/curriculab/payments-service/internal/domain/model"
	domainRepo "github.com/curriculab/payments-service/internal/domain/repository"
)

type notificationRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new outbound notification ledger repository
func NewNotificationRepository(db *gorm.DB, logger *zap.Logger) domainRepo.NotificationRepository {
	return &notificationRepository{
		db:     db,
		logger: logger,
	}
}

// WasSent reports whether a notification of this kind was already recorded for the order
func (r *notificationRepository) WasSent(ctx context.Context, orderID uuid.UUID, kind model.NotificationKind) (bool, error) {
	var record model.Notification

	err := r.db.WithContext(ctx).
		Where("order_id = ? AND kind = ?", orderID, kind).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		r.logger.Error("Failed to check notification ledger",
			zap.String("order_id", orderID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return false, fmt.Errorf("failed to check notification ledger: %w", err)
	}

	return true, nil
}

// RecordSent marks a notification as delivered
func (r *notificationRepository) RecordSent(ctx context.Context, orderID uuid.UUID, kind model.NotificationKind, recipient string) error {
	record := &model.Notification{
		OrderID:   orderID,
		Kind:      kind,
		Recipient: recipient,
	}

	err := r.db.WithContext(ctx).Create(record).Error
	if err != nil {
		r.logger.Error("Failed to record notification",
			zap.String("order_id", orderID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return fmt.Errorf("failed to record notification: %w", err)
	}

	return nil
}
