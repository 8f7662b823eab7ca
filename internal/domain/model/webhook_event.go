package model

import (
	"time"
)

// WebhookEvent is one row of the dedup ledger. A provider event id is written
// exactly once no matter how many times the event is delivered; rows are never
// updated and serve as the audit trail of everything received.
type WebhookEvent struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderEventID string    `gorm:"unique;not null;size:255;index" json:"provider_event_id"`
	EventType       string    `gorm:"not null;size:100;index" json:"event_type"`
	Payload         JSONB     `gorm:"type:jsonb;not null" json:"payload"`
	ReceivedAt      time.Time `gorm:"default:now()" json:"received_at"`
}

// TableName specifies the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
