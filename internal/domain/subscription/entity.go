// internal/domain/subscription/entity.go
package subscription

import (
	"database/sql"
	"time"

	"dairy-subscription-service/internal/domain/delivery"
	"dairy-subscription-service/internal/domain/schedule"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending         PaymentStatus = "PENDING"
	PaymentStatusPaid            PaymentStatus = "PAID"
	PaymentStatusRefundedPartial PaymentStatus = "REFUNDED_PARTIAL"
	PaymentStatusFailed          PaymentStatus = "FAILED"
)

// Settled reports whether money was collected for the subscription, which is
// what makes a skipped delivery refundable.
func (s PaymentStatus) Settled() bool {
	return s == PaymentStatusPaid || s == PaymentStatusRefundedPartial
}

// Subscription is one variant delivered on a recurrence for a fixed period.
// A checkout with several selections creates one subscription per selection.
type Subscription struct {
	ID                    int64  `json:"id" db:"id"`
	SubscriptionReference string `json:"subscription_reference" db:"subscription_reference"`
	CheckoutReference     string `json:"checkout_reference" db:"checkout_reference"`

	// Related entities
	CustomerID        int64 `json:"customer_id" db:"customer_id"`
	VariantID         int64 `json:"variant_id" db:"variant_id"`
	DeliveryAddressID int64 `json:"delivery_address_id" db:"delivery_address_id"`

	// Schedule
	PeriodDays  int                  `json:"period_days" db:"period_days"`
	Pattern     schedule.PatternKind `json:"pattern" db:"pattern"`
	Quantity    int                  `json:"quantity" db:"quantity"`
	AltQuantity sql.NullInt32        `json:"alt_quantity,omitempty" db:"alt_quantity"`
	Weekdays    []int32              `json:"weekdays,omitempty" db:"weekdays"`
	StartDate   time.Time            `json:"start_date" db:"start_date"`
	EndDate     time.Time            `json:"end_date" db:"end_date"`

	DeliveryCount int `json:"delivery_count" db:"delivery_count"`
	TotalQuantity int `json:"total_quantity" db:"total_quantity"`

	// Pricing
	UnitPrice     decimal.Decimal     `json:"unit_price" db:"unit_price"`
	MRP           decimal.NullDecimal `json:"mrp" db:"mrp"`
	TotalAmount   decimal.Decimal     `json:"total_amount" db:"total_amount"`
	Savings       decimal.Decimal     `json:"savings" db:"savings"`
	WalletAmount  decimal.Decimal     `json:"wallet_amount" db:"wallet_amount"`
	AmountPayable decimal.Decimal     `json:"amount_payable" db:"amount_payable"`
	Currency      string              `json:"currency" db:"currency"`

	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`

	Deliveries []delivery.EntryView `json:"deliveries,omitempty" db:"-"`

	// Timestamps
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Quantities returns the per-slot quantities the schedule was planned with.
func (s *Subscription) Quantities() schedule.Quantities {
	q := schedule.Quantities{Primary: s.Quantity}
	if s.AltQuantity.Valid {
		q.Secondary = int(s.AltQuantity.Int32)
	}
	return q
}

// RecurrencePattern rebuilds the stored pattern.
func (s *Subscription) RecurrencePattern() (schedule.Pattern, error) {
	weekdays := make([]int, len(s.Weekdays))
	for i, d := range s.Weekdays {
		weekdays[i] = int(d)
	}
	return schedule.ParsePattern(s.Pattern, weekdays)
}
