package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCompleted OrderStatus = "completed"
)

// validTransitions lists the allowed forward moves per state. Re-applying the
// current state is always allowed so that redelivered events converge instead
// of erroring.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusFailed},
	OrderStatusPaid:      {OrderStatusCompleted, OrderStatusFailed},
	OrderStatusFailed:    {},
	OrderStatusCompleted: {},
}

// CanTransition reports whether an order may move from the current status to
// next. Terminal states only accept themselves, so a late duplicate delivery
// cannot drag a completed or failed order back to paid.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Scan implements sql.Scanner interface
func (s *OrderStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	default:
		*s = OrderStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// JSONB is a free-form document column
type JSONB map[string]interface{}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	case nil:
		*j = nil
		return nil
	default:
		return errors.New("unsupported jsonb source type")
	}
}

// Value implements driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// PackageSlugUnknown is recorded when checkout metadata carries no package.
const PackageSlugUnknown = "unknown"

// Order represents one purchase attempt and its outcome
type Order struct {
	ID                uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID            *uuid.UUID  `gorm:"type:uuid;index" json:"user_id,omitempty"`
	CustomerEmail     string      `gorm:"size:255" json:"customer_email"`
	PackageSlug       string      `gorm:"size:100;not null;default:'unknown'" json:"package_slug"`
	CheckoutSessionID *string     `gorm:"unique;size:255" json:"checkout_session_id,omitempty"`
	PaymentIntentID   *string     `gorm:"unique;size:255" json:"payment_intent_id,omitempty"`
	AmountCents       int64       `gorm:"not null;default:0" json:"amount_cents"`
	Currency          string      `gorm:"size:3;default:'usd'" json:"currency"`
	Status            OrderStatus `gorm:"type:order_status;default:'pending';index" json:"status"`
	ReceiptURL        *string     `json:"receipt_url,omitempty"`
	Metadata          JSONB       `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt         time.Time   `gorm:"default:now();index" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}
