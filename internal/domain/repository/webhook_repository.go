package repository

import (
	"context"
	"encoding/json"

	"github.com/curriculab/payments-service/internal/domain/model"
)

// WebhookRepository is the inbound dedup ledger.
type WebhookRepository interface {
	// RecordIfNew inserts the event and reports whether this delivery is the
	// first one seen for the event id. A redelivery returns false, nil.
	RecordIfNew(ctx context.Context, eventID, eventType string, payload json.RawMessage) (isNew bool, err error)
	GetEvent(ctx context.Context, eventID string) (*model.WebhookEvent, error)
}
