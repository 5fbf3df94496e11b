package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const TopicDeliverySkipped = "delivery.skipped"

// DeliverySkipped is published after a customer skip commits. A non-zero
// RefundAmount asks the wallet to credit the customer.
type DeliverySkipped struct {
	EventID        string          `json:"event_id"`
	EntryID        int64           `json:"entry_id"`
	SubscriptionID int64           `json:"subscription_id"`
	CustomerID     int64           `json:"customer_id"`
	DeliveryDate   time.Time       `json:"delivery_date"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
