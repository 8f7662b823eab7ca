package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind names one outbound email template.
type NotificationKind string

const (
	NotificationKindReceipt            NotificationKind = "receipt"
	NotificationKindOrderOperator      NotificationKind = "order_operator"
	NotificationKindOnboardingCustomer NotificationKind = "onboarding_customer"
	NotificationKindOnboardingOperator NotificationKind = "onboarding_operator"
)

// Notification is the outbound-send ledger, mirroring the inbound webhook
// ledger: one row per (order, kind) marks that email as already sent so a
// redelivered event does not mail the customer twice.
type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_notifications_order_kind" json:"order_id"`
	Kind      NotificationKind `gorm:"size:50;not null;uniqueIndex:idx_notifications_order_kind" json:"kind"`
	Recipient string           `gorm:"size:255;not null" json:"recipient"`
	SentAt    time.Time        `gorm:"default:now()" json:"sent_at"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}
